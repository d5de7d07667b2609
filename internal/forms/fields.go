package forms

import (
	"errors"
	"fmt"
	"strings"

	"selecao/internal/utils"
	"selecao/pkg/types"
)

var (
	ErrEmptyFieldName   = errors.New("field name is required")
	ErrReservedField    = errors.New("field name is reserved")
	ErrDuplicateField   = errors.New("a field with this name already exists")
	ErrInvalidFieldType = errors.New("invalid field type")
	ErrFieldIndex       = errors.New("field index out of range")
)

// NormalizeField trims the descriptor name and checks it on its own.
func NormalizeField(field types.FieldDescriptor) (types.FieldDescriptor, error) {
	field.Name = utils.CollapseSpaces(utils.SanitizeInput(field.Name))

	switch {
	case field.Name == "":
		return field, ErrEmptyFieldName
	case field.Name == types.ResearchAreaKey:
		return field, fmt.Errorf("%w: %s", ErrReservedField, field.Name)
	case !field.Type.Valid():
		return field, fmt.Errorf("%w: %q", ErrInvalidFieldType, field.Type)
	}

	return field, nil
}

// AddField appends field to fields. Names are unique within a process.
func AddField(fields []types.FieldDescriptor, field types.FieldDescriptor) ([]types.FieldDescriptor, error) {
	field, err := NormalizeField(field)
	if err != nil {
		return nil, err
	}

	if indexOf(fields, field.Name) >= 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateField, field.Name)
	}

	out := make([]types.FieldDescriptor, 0, len(fields)+1)
	out = append(out, fields...)
	return append(out, field), nil
}

// ReplaceField swaps the descriptor at index.
func ReplaceField(fields []types.FieldDescriptor, index int, field types.FieldDescriptor) ([]types.FieldDescriptor, error) {
	if index < 0 || index >= len(fields) {
		return nil, fmt.Errorf("%w: %d", ErrFieldIndex, index)
	}

	field, err := NormalizeField(field)
	if err != nil {
		return nil, err
	}

	if existing := indexOf(fields, field.Name); existing >= 0 && existing != index {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateField, field.Name)
	}

	out := make([]types.FieldDescriptor, len(fields))
	copy(out, fields)
	out[index] = field

	return out, nil
}

func RemoveField(fields []types.FieldDescriptor, index int) ([]types.FieldDescriptor, error) {
	if index < 0 || index >= len(fields) {
		return nil, fmt.Errorf("%w: %d", ErrFieldIndex, index)
	}

	out := make([]types.FieldDescriptor, 0, len(fields)-1)
	out = append(out, fields[:index]...)
	return append(out, fields[index+1:]...), nil
}

// ImportFields appends the descriptors of another process, skipping names
// already present. It returns the merged list and how many were skipped.
func ImportFields(fields, from []types.FieldDescriptor) ([]types.FieldDescriptor, int) {
	out := make([]types.FieldDescriptor, 0, len(fields)+len(from))
	out = append(out, fields...)

	skipped := 0
	for _, field := range from {
		if indexOf(out, field.Name) >= 0 {
			skipped++
			continue
		}
		out = append(out, field)
	}

	return out, skipped
}

func indexOf(fields []types.FieldDescriptor, name string) int {
	for i, f := range fields {
		if strings.EqualFold(f.Name, name) {
			return i
		}
	}
	return -1
}
