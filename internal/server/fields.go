package server

import (
	"net/http"
	"strconv"

	"selecao/internal/forms"
	"selecao/pkg/types"
)

// skippedFieldsHeader reports how many imported fields already existed.
const skippedFieldsHeader = "X-Skipped-Fields"

type importFieldsInput struct {
	From string `form:"from" json:"from"`
}

func (s *Service) handlePostField(w http.ResponseWriter, r *http.Request) {
	var field types.FieldDescriptor
	if err := decodeBody(r, &field); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	s.editFields(w, r, func(fields []types.FieldDescriptor) ([]types.FieldDescriptor, error) {
		return forms.AddField(fields, field)
	})
}

func (s *Service) handlePutField(w http.ResponseWriter, r *http.Request) {
	index, ok := s.fieldIndex(w, r)
	if !ok {
		return
	}

	var field types.FieldDescriptor
	if err := decodeBody(r, &field); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	s.editFields(w, r, func(fields []types.FieldDescriptor) ([]types.FieldDescriptor, error) {
		return forms.ReplaceField(fields, index, field)
	})
}

func (s *Service) handleDeleteField(w http.ResponseWriter, r *http.Request) {
	index, ok := s.fieldIndex(w, r)
	if !ok {
		return
	}

	s.editFields(w, r, func(fields []types.FieldDescriptor) ([]types.FieldDescriptor, error) {
		return forms.RemoveField(fields, index)
	})
}

func (s *Service) handlePostImportFields(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var input importFieldsInput
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	source, err := s.processes.Process(ctx, input.From)
	if err != nil {
		s.handleError(w, r, err, "failed to fetch source process")
		return
	}

	s.editFields(w, r, func(fields []types.FieldDescriptor) ([]types.FieldDescriptor, error) {
		merged, skipped := forms.ImportFields(fields, source.RegistrationFieldsInfo)
		w.Header().Set(skippedFieldsHeader, strconv.Itoa(skipped))
		return merged, nil
	})
}

// editFields loads the process descriptors, applies edit and stores the
// result, answering with the updated process.
func (s *Service) editFields(w http.ResponseWriter, r *http.Request, edit func([]types.FieldDescriptor) ([]types.FieldDescriptor, error)) {
	ctx := r.Context()
	id := r.PathValue("id")

	process, err := s.processes.Process(ctx, id)
	if err != nil {
		s.handleError(w, r, err, "failed to fetch process")
		return
	}

	fields, err := edit(process.RegistrationFieldsInfo)
	if err != nil {
		s.handleError(w, r, err, "failed to edit registration fields")
		return
	}

	err = s.processes.UpdateProcess(ctx, id, &types.ProcessUpdate{RegistrationFieldsInfo: fields})
	if err != nil {
		s.handleError(w, r, err, "failed to store registration fields")
		return
	}

	s.respondWithProcess(w, r, id)
}

func (s *Service) fieldIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	index, err := strconv.Atoi(r.PathValue("index"))
	if err != nil {
		s.validationError(w, r, map[string]string{"index": "Índice inválido."})
		return 0, false
	}
	return index, true
}
