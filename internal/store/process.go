package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"selecao/internal/docstore"
	"selecao/internal/utils"
	"selecao/pkg/types"

	"golang.org/x/sync/errgroup"
)

type ProcessRepository struct {
	store        docstore.Store
	applications *ApplicationRepository
}

func NewProcessRepository(store docstore.Store, applications *ApplicationRepository) *ProcessRepository {
	return &ProcessRepository{store: store, applications: applications}
}

func (r *ProcessRepository) Process(ctx context.Context, id string) (*types.SelectionProcess, error) {
	doc, err := r.store.Get(ctx, processesCollection, id)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return nil, types.ErrProcessNotFound
		}
		return nil, fmt.Errorf("failed to fetch process %s: %w", id, err)
	}

	return decodeProcess(doc)
}

func (r *ProcessRepository) Processes(ctx context.Context) ([]*types.SelectionProcess, error) {
	docs, err := r.store.Query(ctx, processesCollection)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch processes: %w", err)
	}

	return decodeProcesses(docs)
}

// ActiveProcesses returns the processes whose registration period contains
// asOf, both ends inclusive.
func (r *ProcessRepository) ActiveProcesses(ctx context.Context, asOf time.Time) ([]*types.SelectionProcess, error) {
	day := asOf.Format(types.DateLayout)

	docs, err := r.store.Query(ctx, processesCollection,
		docstore.Where("startDate", docstore.OpLessOrEqual, day),
		docstore.Where("endDate", docstore.OpGreaterOrEqual, day),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch active processes: %w", err)
	}

	return decodeProcesses(docs)
}

// InactiveProcesses returns the processes that ended before asOf followed by
// the ones that start after it. Both queries run concurrently and either
// failure fails the call.
func (r *ProcessRepository) InactiveProcesses(ctx context.Context, asOf time.Time) ([]*types.SelectionProcess, error) {
	day := asOf.Format(types.DateLayout)

	var ended, notStarted []*docstore.Document

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		docs, err := r.store.Query(gctx, processesCollection, docstore.Where("endDate", docstore.OpLess, day))
		if err != nil {
			return fmt.Errorf("failed to fetch ended processes: %w", err)
		}
		ended = docs
		return nil
	})
	g.Go(func() error {
		docs, err := r.store.Query(gctx, processesCollection, docstore.Where("startDate", docstore.OpGreater, day))
		if err != nil {
			return fmt.Errorf("failed to fetch upcoming processes: %w", err)
		}
		notStarted = docs
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return decodeProcesses(append(ended, notStarted...))
}

// CreateProcess stores a new process under the id derived from its name and
// bootstraps its child collections. The placeholder writes are not atomic
// with the process write.
func (r *ProcessRepository) CreateProcess(ctx context.Context, process *types.SelectionProcess) (*types.SelectionProcess, error) {
	id, err := DeriveProcessID(process.Name)
	if err != nil {
		return nil, err
	}

	_, err = r.store.Get(ctx, processesCollection, id)
	if err == nil {
		return nil, fmt.Errorf("%w: %s", types.ErrDuplicateProcess, id)
	}
	if !errors.Is(err, docstore.ErrNotFound) {
		return nil, fmt.Errorf("failed to check process %s: %w", id, err)
	}

	record := *process
	record.ID = id
	record.CreatedAt = nil
	if record.RegistrationFieldsInfo == nil {
		record.RegistrationFieldsInfo = []types.FieldDescriptor{}
	}
	if record.EndAnalysisDate == "" && record.EndDate != "" {
		if derived, err := types.EndAnalysisDateFor(record.EndDate); err == nil {
			record.EndAnalysisDate = derived
		}
	}

	data, err := docstore.Encode(record)
	if err != nil {
		return nil, fmt.Errorf("failed to encode process %s: %w", id, err)
	}
	data["createdAt"] = docstore.ServerTimestamp

	err = r.store.Create(ctx, processesCollection, id, data)
	if err != nil {
		if errors.Is(err, docstore.ErrAlreadyExists) {
			return nil, fmt.Errorf("%w: %s", types.ErrDuplicateProcess, id)
		}
		return nil, fmt.Errorf("failed to create process %s: %w", id, err)
	}

	err = r.store.Batch(ctx,
		docstore.SetWrite(applicationsPath(id), PlaceholderID, map[string]any{}),
		docstore.SetWrite(newsPath(id), PlaceholderID, map[string]any{}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create placeholders for %s: %w", id, err)
	}

	return r.Process(ctx, id)
}

// UpdateProcess merges the non-nil fields of update into the stored process.
// Moving endDate without an explicit endAnalysisDate moves the analysis
// deadline with it.
func (r *ProcessRepository) UpdateProcess(ctx context.Context, id string, update *types.ProcessUpdate) error {
	patch := utils.PatchMap(update)

	if update.EndDate != nil && update.EndAnalysisDate == nil {
		if derived, err := types.EndAnalysisDateFor(*update.EndDate); err == nil {
			patch["endAnalysisDate"] = derived
		}
	}

	if len(patch) == 0 {
		return nil
	}

	err := r.store.Update(ctx, processesCollection, id, patch)
	if err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return types.ErrProcessNotFound
		}
		return fmt.Errorf("failed to update process %s: %w", id, err)
	}

	return nil
}

// DeleteProcess removes a process that has no applications together with its
// placeholders and news in one batch. Applications inserted between the check
// and the batch are not detected.
func (r *ProcessRepository) DeleteProcess(ctx context.Context, id string) error {
	hasApplications, err := r.ProcessHasApplications(ctx, id)
	if err != nil {
		return err
	}
	if hasApplications {
		return fmt.Errorf("%w: %s", types.ErrHasApplications, id)
	}

	news, err := r.store.Query(ctx, newsPath(id))
	if err != nil {
		return fmt.Errorf("failed to fetch news of process %s: %w", id, err)
	}

	writes := []docstore.Write{
		docstore.DeleteWrite(applicationsPath(id), PlaceholderID),
		docstore.DeleteWrite(newsPath(id), PlaceholderID),
	}
	for _, doc := range news {
		if doc.ID == PlaceholderID {
			continue
		}
		writes = append(writes, docstore.DeleteWrite(newsPath(id), doc.ID))
	}
	writes = append(writes, docstore.DeleteWrite(processesCollection, id))

	err = r.store.Batch(ctx, writes...)
	return utils.WrapErrorf(err, "failed to delete process %s", id)
}

func (r *ProcessRepository) ProcessHasApplications(ctx context.Context, id string) (bool, error) {
	return r.applications.HasApplications(ctx, id)
}

// ProcessesWithUserApplication scans every process and checks each one for an
// application keyed by uid, one round trip per process.
func (r *ProcessRepository) ProcessesWithUserApplication(ctx context.Context, uid string) ([]*types.SelectionProcess, error) {
	processes, err := r.Processes(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]*types.SelectionProcess, 0)
	for _, process := range processes {
		has, err := r.applications.UserHasApplication(ctx, process.ID, uid)
		if err != nil {
			return nil, err
		}
		if has {
			out = append(out, process)
		}
	}

	return out, nil
}

func decodeProcess(doc *docstore.Document) (*types.SelectionProcess, error) {
	process := new(types.SelectionProcess)
	if err := doc.DataTo(process); err != nil {
		return nil, err
	}
	process.ID = doc.ID

	return process, nil
}

func decodeProcesses(docs []*docstore.Document) ([]*types.SelectionProcess, error) {
	processes := make([]*types.SelectionProcess, 0, len(docs))
	for _, doc := range docs {
		process, err := decodeProcess(doc)
		if err != nil {
			return nil, err
		}
		processes = append(processes, process)
	}

	return processes, nil
}
