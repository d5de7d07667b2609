package store

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"selecao/internal/docstore"
	"selecao/pkg/types"
)

type ApplicationRepository struct {
	store docstore.Store
}

func NewApplicationRepository(store docstore.Store) *ApplicationRepository {
	return &ApplicationRepository{store: store}
}

// AddApplication writes the application keyed by uid, replacing any earlier
// application of the same user to the same process.
func (r *ApplicationRepository) AddApplication(ctx context.Context, processID string, data map[string]string, displayName, uid, userEmail string) error {
	if err := validateUID(uid); err != nil {
		return err
	}

	err := r.store.Set(ctx, applicationsPath(processID), uid, applicationBody(data, displayName, uid, userEmail))
	return wrapApplicationError(err, "failed to save application of %s to %s", uid, processID)
}

// SubmitApplication is AddApplication that refuses to replace an existing
// application.
func (r *ApplicationRepository) SubmitApplication(ctx context.Context, processID string, data map[string]string, displayName, uid, userEmail string) error {
	if err := validateUID(uid); err != nil {
		return err
	}

	err := r.store.Create(ctx, applicationsPath(processID), uid, applicationBody(data, displayName, uid, userEmail))
	if errors.Is(err, docstore.ErrAlreadyExists) {
		return fmt.Errorf("%w: %s", types.ErrDuplicateApplication, uid)
	}

	return wrapApplicationError(err, "failed to submit application of %s to %s", uid, processID)
}

func (r *ApplicationRepository) UserHasApplication(ctx context.Context, processID, uid string) (bool, error) {
	if uid == "" || uid == PlaceholderID {
		return false, nil
	}

	docs, err := r.store.Query(ctx, applicationsPath(processID), docstore.Where(docstore.FieldDocumentID, docstore.OpEqual, uid))
	if err != nil {
		return false, fmt.Errorf("failed to look up application of %s to %s: %w", uid, processID, err)
	}

	return len(docs) > 0, nil
}

func (r *ApplicationRepository) UserApplication(ctx context.Context, processID, uid string) (*types.Application, error) {
	if uid == "" || uid == PlaceholderID {
		return nil, types.ErrApplicationNotFound
	}

	doc, err := r.store.Get(ctx, applicationsPath(processID), uid)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, types.ErrApplicationNotFound
		}
		return nil, fmt.Errorf("failed to fetch application of %s to %s: %w", uid, processID, err)
	}

	return decodeApplication(doc)
}

// Applications lists every application to a process, oldest first.
func (r *ApplicationRepository) Applications(ctx context.Context, processID string) ([]*types.Application, error) {
	docs, err := r.store.Query(ctx, applicationsPath(processID))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch applications of %s: %w", processID, err)
	}

	applications := make([]*types.Application, 0, len(docs))
	for _, doc := range docs {
		if doc.ID == PlaceholderID {
			continue
		}
		application, err := decodeApplication(doc)
		if err != nil {
			return nil, err
		}
		applications = append(applications, application)
	}

	sort.SliceStable(applications, func(i, j int) bool {
		a, b := applications[i].CreatedAt, applications[j].CreatedAt
		if a == nil || b == nil {
			return a != nil
		}
		return a.Before(*b)
	})

	return applications, nil
}

func (r *ApplicationRepository) UpdateApplicationStatus(ctx context.Context, processID, applicationID string, status types.ApplicationStatus) error {
	if strings.TrimSpace(string(status)) == "" {
		return types.ErrEmptyStatus
	}
	if applicationID == PlaceholderID {
		return types.ErrApplicationNotFound
	}

	err := r.store.Update(ctx, applicationsPath(processID), applicationID, map[string]any{
		"status": status,
	})
	return wrapApplicationError(err, "failed to update status of application %s in %s", applicationID, processID)
}

func (r *ApplicationRepository) DeleteApplication(ctx context.Context, processID, applicationID string) error {
	if applicationID == PlaceholderID {
		return types.ErrApplicationNotFound
	}

	err := r.store.Delete(ctx, applicationsPath(processID), applicationID)
	return wrapApplicationError(err, "failed to delete application %s in %s", applicationID, processID)
}

// HasApplications reports whether the process holds anything besides its
// placeholder.
func (r *ApplicationRepository) HasApplications(ctx context.Context, processID string) (bool, error) {
	docs, err := r.store.Query(ctx, applicationsPath(processID))
	if err != nil {
		return false, fmt.Errorf("failed to fetch applications of %s: %w", processID, err)
	}

	for _, doc := range docs {
		if doc.ID != PlaceholderID {
			return true, nil
		}
	}

	return false, nil
}

func applicationBody(data map[string]string, displayName, uid, userEmail string) map[string]any {
	if data == nil {
		data = map[string]string{}
	}

	return map[string]any{
		"candidateProvidedData": data,
		"name":                  displayName,
		"uid":                   uid,
		"userEmail":             userEmail,
		"status":                types.ApplicationStatusNotReviewed,
		"createdAt":             docstore.ServerTimestamp,
	}
}

func decodeApplication(doc *docstore.Document) (*types.Application, error) {
	application := new(types.Application)
	if err := doc.DataTo(application); err != nil {
		return nil, err
	}
	application.ID = doc.ID

	return application, nil
}

func validateUID(uid string) error {
	if uid == "" || uid == PlaceholderID || strings.Contains(uid, "/") {
		return fmt.Errorf("%w: %q", types.ErrInvalidUID, uid)
	}
	return nil
}

func wrapApplicationError(err error, msg string, args ...any) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, docstore.ErrNotFound) {
		return types.ErrApplicationNotFound
	}
	return fmt.Errorf("%s: %w", fmt.Sprintf(msg, args...), err)
}
