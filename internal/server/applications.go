package server

import (
	"context"
	"mime/multipart"
	"net/http"
	"slices"

	"selecao/internal/forms"
	"selecao/internal/storage"
	"selecao/pkg/types"

	"github.com/sirupsen/logrus"
)

var reviewStatuses = []types.ApplicationStatus{
	types.ApplicationStatusNotReviewed,
	types.ApplicationStatusInReview,
	types.ApplicationStatusApproved,
	types.ApplicationStatusRejected,
}

type statusInput struct {
	Status types.ApplicationStatus `form:"status" json:"status"`
}

func (s *Service) handleGetMyApplication(w http.ResponseWriter, r *http.Request) {
	session := sessionFromContext(r.Context())

	application, err := s.applications.UserApplication(r.Context(), r.PathValue("id"), session.UID)
	if err != nil {
		s.handleError(w, r, err, "failed to fetch user application")
		return
	}

	s.writeJSON(w, http.StatusOK, application)
}

func (s *Service) handlePostApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	session := sessionFromContext(ctx)

	process, err := s.processes.Process(ctx, r.PathValue("id"))
	if err != nil {
		s.handleError(w, r, err, "failed to fetch process")
		return
	}

	if !process.IsActive(s.today()) {
		s.handleError(w, r, types.ErrRegistrationClosed, "")
		return
	}

	has, err := s.applications.UserHasApplication(ctx, process.ID, session.UID)
	if err != nil {
		s.handleError(w, r, err, "failed to check existing application")
		return
	}
	if has {
		s.handleError(w, r, types.ErrDuplicateApplication, "")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxFormMemory+int64(len(process.RegistrationFieldsInfo))*forms.MaxUploadSize)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil {
		s.writeError(w, r, http.StatusBadRequest, "invalid multipart body", nil)
		return
	}

	values := map[string]string{}
	files := map[string]*multipart.FileHeader{}
	if r.MultipartForm != nil {
		for key, v := range r.MultipartForm.Value {
			if len(v) > 0 {
				values[key] = v[0]
			}
		}
		for key, headers := range r.MultipartForm.File {
			if len(headers) > 0 {
				files[key] = headers[0]
			}
		}
	}

	form := forms.ValidateCandidateData(process, values, files, s.config.ResearchAreas)
	if !form.Valid() {
		s.validationError(w, r, form.Errors)
		return
	}

	keys, err := s.uploadFiles(ctx, process.ID, session.UID, form.Uploads)
	if err != nil {
		s.logger.WithError(err).WithField("process_id", process.ID).Error("failed to upload application files")
		s.internalServerError(w, r)
		return
	}
	for field, key := range keys {
		form.Values[field] = key
	}

	err = s.applications.SubmitApplication(ctx, process.ID, form.Values, session.DisplayName, session.UID, session.Email)
	if err != nil {
		s.deleteFiles(ctx, keys)
		s.handleError(w, r, err, "failed to submit application")
		return
	}

	s.logger.WithFields(logrus.Fields{
		"process_id": process.ID,
		"uid":        session.UID,
	}).Info("application submitted")

	application, err := s.applications.UserApplication(ctx, process.ID, session.UID)
	if err != nil {
		s.handleError(w, r, err, "failed to fetch submitted application")
		return
	}

	s.writeJSON(w, http.StatusCreated, application)
}

// uploadFiles stores every upload and returns the object key per field. On
// failure the files already written are removed.
func (s *Service) uploadFiles(ctx context.Context, processID, uid string, uploads map[string]*forms.Upload) (map[string]string, error) {
	keys := make(map[string]string, len(uploads))

	for field, upload := range uploads {
		file, err := upload.Header.Open()
		if err != nil {
			s.deleteFiles(ctx, keys)
			return nil, err
		}

		key, err := s.files.Upload(ctx, storage.ApplicationFileKey(processID, uid, field, upload.Extension), file, upload.ContentType)
		_ = file.Close()
		if err != nil {
			s.deleteFiles(ctx, keys)
			return nil, err
		}

		keys[field] = key
	}

	return keys, nil
}

func (s *Service) deleteFiles(ctx context.Context, keys map[string]string) {
	for _, key := range keys {
		if err := s.files.Delete(ctx, key); err != nil {
			s.logger.WithError(err).WithField("storage_key", key).Error("failed to delete application file")
		}
	}
}

func (s *Service) handleGetApplications(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")

	if _, err := s.processes.Process(ctx, id); err != nil {
		s.handleError(w, r, err, "failed to fetch process")
		return
	}

	applications, err := s.applications.Applications(ctx, id)
	if err != nil {
		s.handleError(w, r, err, "failed to list applications")
		return
	}

	s.writeJSON(w, http.StatusOK, applications)
}

func (s *Service) handlePatchApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	uid := r.PathValue("uid")

	var input statusInput
	if err := decodeBody(r, &input); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err.Error(), nil)
		return
	}

	if input.Status != "" && !slices.Contains(reviewStatuses, input.Status) {
		s.validationError(w, r, map[string]string{"status": "Situação desconhecida."})
		return
	}

	process, err := s.processes.Process(ctx, id)
	if err != nil {
		s.handleError(w, r, err, "failed to fetch process")
		return
	}

	previous, err := s.applications.UserApplication(ctx, id, uid)
	if err != nil {
		s.handleError(w, r, err, "failed to fetch application")
		return
	}

	if err := s.applications.UpdateApplicationStatus(ctx, id, uid, input.Status); err != nil {
		s.handleError(w, r, err, "failed to update application status")
		return
	}

	application, err := s.applications.UserApplication(ctx, id, uid)
	if err != nil {
		s.handleError(w, r, err, "failed to fetch application")
		return
	}

	if application.Status != previous.Status {
		if err := s.notifier.ApplicationStatusChanged(ctx, process, application); err != nil {
			s.logger.WithError(err).WithField("uid", uid).Error("failed to notify candidate")
		}
	}

	s.writeJSON(w, http.StatusOK, application)
}

func (s *Service) handleDeleteApplication(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	uid := r.PathValue("uid")

	process, err := s.processes.Process(ctx, id)
	if err != nil {
		s.handleError(w, r, err, "failed to fetch process")
		return
	}

	application, err := s.applications.UserApplication(ctx, id, uid)
	if err != nil {
		s.handleError(w, r, err, "failed to fetch application")
		return
	}

	if err := s.applications.DeleteApplication(ctx, id, uid); err != nil {
		s.handleError(w, r, err, "failed to delete application")
		return
	}

	s.deleteFiles(ctx, applicationFiles(process, application))

	w.WriteHeader(http.StatusNoContent)
}

func (s *Service) handleGetApplicationFile(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := r.PathValue("id")
	field := r.PathValue("field")

	process, err := s.processes.Process(ctx, id)
	if err != nil {
		s.handleError(w, r, err, "failed to fetch process")
		return
	}

	application, err := s.applications.UserApplication(ctx, id, r.PathValue("uid"))
	if err != nil {
		s.handleError(w, r, err, "failed to fetch application")
		return
	}

	key, ok := applicationFiles(process, application)[field]
	if !ok {
		s.handleError(w, r, types.ErrFileNotFound, "")
		return
	}

	url, err := s.files.PresignGet(ctx, key)
	if err != nil {
		s.handleError(w, r, err, "failed to presign application file")
		return
	}

	s.writeJSON(w, http.StatusOK, map[string]string{"url": url})
}

// applicationFiles returns the object keys stored for the file fields of
// process, keyed by field name.
func applicationFiles(process *types.SelectionProcess, application *types.Application) map[string]string {
	keys := map[string]string{}
	for _, field := range process.RegistrationFieldsInfo {
		if field.Type != types.FieldTypeFile {
			continue
		}
		if key := application.CandidateProvidedData[field.Name]; key != "" {
			keys[field.Name] = key
		}
	}
	return keys
}
