package utils

import (
	"reflect"
	"strings"
)

var (
	ColumnTag = "db"
	FieldTag  = "json"
)

// StructTagValues lists the ColumnTag values of the exported fields of input.
func StructTagValues(input any) []string {

	targetValue := reflect.ValueOf(input)
	if targetValue.Kind() == reflect.Ptr {
		targetValue = targetValue.Elem()
	}

	if targetValue.Kind() != reflect.Struct {
		panic("input must be a pointer to a struct or a struct")
	}

	targetType := targetValue.Type()

	result := make([]string, 0, targetValue.NumField())

	for i := 0; i < targetValue.NumField(); i++ {

		if targetType.Field(i).PkgPath != "" {
			continue
		}

		tagValue := targetType.Field(i).Tag.Get(ColumnTag)
		if tagValue == "" || tagValue == "-" {
			continue
		}

		result = append(result, tagValue)

	}

	return result

}

// PatchMap converts a partial-update struct into a document patch keyed by
// the FieldTag name. Nil pointers, slices and maps are skipped and non-nil
// pointers are dereferenced.
func PatchMap(input any) map[string]any {

	result := make(map[string]any)

	itemValue := reflect.ValueOf(input)
	if itemValue.Kind() == reflect.Ptr {
		itemValue = itemValue.Elem()
	}

	if itemValue.Kind() != reflect.Struct {
		panic("input must be a pointer to a struct or a struct")
	}

	itemType := itemValue.Type()

	for i := 0; i < itemValue.NumField(); i++ {

		if itemType.Field(i).PkgPath != "" {
			continue
		}

		tagValue, _, _ := strings.Cut(itemType.Field(i).Tag.Get(FieldTag), ",")
		if tagValue == "" || tagValue == "-" {
			continue
		}

		field := itemValue.Field(i)
		switch field.Kind() {
		case reflect.Ptr:
			if field.IsNil() {
				continue
			}
			result[tagValue] = field.Elem().Interface()
		case reflect.Slice, reflect.Map:
			if field.IsNil() {
				continue
			}
			result[tagValue] = field.Interface()
		default:
			result[tagValue] = field.Interface()
		}

	}

	return result

}
