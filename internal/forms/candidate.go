package forms

import (
	"errors"
	"fmt"
	"mime/multipart"
	"net/mail"
	"slices"
	"strconv"
	"strings"
	"time"

	"selecao/internal/utils"
	"selecao/pkg/types"
)

// CandidateForm is the result of checking a candidate submission: the text
// values to store and the uploads still to be written to object storage.
type CandidateForm struct {
	Values  map[string]string
	Uploads map[string]*Upload
	Errors  map[string]string
}

func (f *CandidateForm) Valid() bool {
	return len(f.Errors) == 0
}

// ValidateCandidateData checks a submission against the descriptors of
// process. Values not described by the process are dropped.
func ValidateCandidateData(process *types.SelectionProcess, values map[string]string, files map[string]*multipart.FileHeader, researchAreas []string) *CandidateForm {
	form := &CandidateForm{
		Values:  map[string]string{},
		Uploads: map[string]*Upload{},
		Errors:  map[string]string{},
	}

	for _, field := range process.RegistrationFieldsInfo {
		if field.Type == types.FieldTypeFile {
			header, ok := files[field.Name]
			if !ok || header == nil {
				if field.Required {
					form.Errors[field.Name] = fmt.Sprintf("%s é obrigatório.", field.Name)
				}
				continue
			}

			upload, err := CheckUpload(header)
			if err != nil {
				form.Errors[field.Name] = uploadMessage(err)
				continue
			}
			form.Uploads[field.Name] = upload
			continue
		}

		value := utils.SanitizeInput(values[field.Name])
		if value == "" {
			if field.Required {
				form.Errors[field.Name] = fmt.Sprintf("%s é obrigatório.", field.Name)
			}
			continue
		}

		if msg := checkValue(field.Type, value); msg != "" {
			form.Errors[field.Name] = msg
			continue
		}

		form.Values[field.Name] = value
	}

	if process.ResearchFieldRequired {
		area := utils.SanitizeInput(values[types.ResearchAreaKey])
		switch {
		case area == "":
			form.Errors[types.ResearchAreaKey] = "Linha de pesquisa é obrigatória."
		case len(researchAreas) > 0 && !slices.Contains(researchAreas, area):
			form.Errors[types.ResearchAreaKey] = "Linha de pesquisa inválida."
		default:
			form.Values[types.ResearchAreaKey] = area
		}
	}

	return form
}

func checkValue(fieldType types.FieldType, value string) string {
	switch fieldType {
	case types.FieldTypeNumber:
		if _, err := strconv.ParseFloat(strings.ReplaceAll(value, ",", "."), 64); err != nil {
			return "Informe um número."
		}
	case types.FieldTypeDate:
		if _, err := time.Parse(types.DateLayout, value); err != nil {
			return "Use o formato AAAA-MM-DD."
		}
	case types.FieldTypeEmail:
		if _, err := mail.ParseAddress(value); err != nil {
			return "Informe um e-mail válido."
		}
	}
	return ""
}

func uploadMessage(err error) string {
	switch {
	case errors.Is(err, ErrUploadTooLarge):
		return "O arquivo deve ter no máximo 2MB."
	case errors.Is(err, ErrUnsupportedUpload):
		return "Tipo de arquivo não suportado."
	}
	return "Não foi possível ler o arquivo."
}
