package server

import (
	"net/http"

	"selecao/internal/forms"
	"selecao/pkg/types"
)

func (s *Service) handleGetProcesses(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	var (
		processes []*types.SelectionProcess
		err       error
	)

	switch status := r.URL.Query().Get("status"); status {
	case "active":
		processes, err = s.processes.ActiveProcesses(ctx, s.today())
	case "inactive":
		processes, err = s.processes.InactiveProcesses(ctx, s.today())
	case "":
		processes, err = s.processes.Processes(ctx)
	default:
		s.validationError(w, r, map[string]string{"status": "Use active ou inactive."})
		return
	}
	if err != nil {
		s.handleError(w, r, err, "failed to list processes")
		return
	}

	s.writeJSON(w, http.StatusOK, processes)
}

func (s *Service) handleGetProcess(w http.ResponseWriter, r *http.Request) {
	process, err := s.processes.Process(r.Context(), r.PathValue("id"))
	if err != nil {
		s.handleError(w, r, err, "failed to fetch process")
		return
	}

	s.writeJSON(w, http.StatusOK, process)
}

func (s *Service) handleGetMyProcesses(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())

	processes, err := s.processes.ProcessesWithUserApplication(r.Context(), session.UID)
	if err != nil {
		s.handleError(w, r, err, "failed to list processes with user application")
		return
	}

	s.writeJSON(w, http.StatusOK, processes)
}

func (s *Service) handlePostProcess(w http.ResponseWriter, r *http.Request) {
	var process types.SelectionProcess
	if err := decodeBody(r, &process); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	forms.SanitizeProcess(&process)
	if process.EndAnalysisDate == "" {
		if derived, err := types.EndAnalysisDateFor(process.EndDate); err == nil {
			process.EndAnalysisDate = derived
		}
	}

	if fieldErrs := forms.ValidateProcess(&process, s.today(), true); len(fieldErrs) > 0 {
		s.validationError(w, r, fieldErrs)
		return
	}

	created, err := s.processes.CreateProcess(r.Context(), &process)
	if err != nil {
		s.handleError(w, r, err, "failed to create process")
		return
	}

	s.logger.WithField("process_id", created.ID).Info("process created")

	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Service) handlePatchProcess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	var update types.ProcessUpdate
	if err := decodeBody(r, &update); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	existing, err := s.processes.Process(ctx, id)
	if err != nil {
		s.handleError(w, r, err, "failed to fetch process")
		return
	}

	forms.SanitizeUpdate(&update)
	merged := update.Apply(*existing)
	if update.EndDate != nil && update.EndAnalysisDate == nil {
		if derived, err := types.EndAnalysisDateFor(merged.EndDate); err == nil {
			merged.EndAnalysisDate = derived
		}
	}

	if fieldErrs := forms.ValidateProcess(&merged, s.today(), false); len(fieldErrs) > 0 {
		s.validationError(w, r, fieldErrs)
		return
	}

	if err := s.processes.UpdateProcess(ctx, id, &update); err != nil {
		s.handleError(w, r, err, "failed to update process")
		return
	}

	s.respondWithProcess(w, r, id)
}

func (s *Service) handleDeleteProcess(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	if _, err := s.processes.Process(ctx, id); err != nil {
		s.handleError(w, r, err, "failed to fetch process")
		return
	}

	if err := s.processes.DeleteProcess(ctx, id); err != nil {
		s.handleError(w, r, err, "failed to delete process")
		return
	}

	s.logger.WithField("process_id", id).Info("process deleted")

	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) respondWithProcess(w http.ResponseWriter, r *http.Request, id string) {
	process, err := s.processes.Process(r.Context(), id)
	if err != nil {
		s.handleError(w, r, err, "failed to fetch process")
		return
	}

	s.writeJSON(w, http.StatusOK, process)
}
