package store

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"selecao/internal/docstore"
	"selecao/pkg/types"

	"github.com/stretchr/testify/require"
)

type repositories struct {
	store        docstore.Store
	processes    *ProcessRepository
	applications *ApplicationRepository
	news         *NewsRepository
}

// tickingClock advances one second on every read.
type tickingClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Second)
	return c.now
}

func newRepositories(t *testing.T) *repositories {
	t.Helper()

	bolt, err := docstore.OpenBolt(filepath.Join(t.TempDir(), "selecao.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = bolt.Close() })

	clock := &tickingClock{now: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)}
	bolt.WithClock(clock.Now)

	return newRepositoriesWith(bolt)
}

func newRepositoriesWith(s docstore.Store) *repositories {
	applications := NewApplicationRepository(s)
	return &repositories{
		store:        s,
		processes:    NewProcessRepository(s, applications),
		applications: applications,
		news:         NewNewsRepository(s),
	}
}

func testProcess(name, start, end string) *types.SelectionProcess {
	return &types.SelectionProcess{
		Name:                  name,
		Places:                10,
		MiniDescription:       "short",
		Description:           "long description",
		ResearchFieldRequired: true,
		StartDate:             start,
		EndDate:               end,
		RegistrationFieldsInfo: []types.FieldDescriptor{
			{Name: "CPF", Type: types.FieldTypeNumber, Required: true},
			{Name: "Histórico", Type: types.FieldTypeFile, Required: false},
		},
	}
}

func mustCreate(t *testing.T, repos *repositories, p *types.SelectionProcess) *types.SelectionProcess {
	t.Helper()

	created, err := repos.processes.CreateProcess(context.Background(), p)
	require.NoError(t, err)
	return created
}

func ids(processes []*types.SelectionProcess) []string {
	out := make([]string, 0, len(processes))
	for _, p := range processes {
		out = append(out, p.ID)
	}
	return out
}

// failingStore fails queries matching a predicate.
type failingStore struct {
	docstore.Store
	fail func(collection string, filters []docstore.Filter) bool
}

var errBackend = errors.New("backend down")

func (s *failingStore) Query(ctx context.Context, collection string, filters ...docstore.Filter) ([]*docstore.Document, error) {
	if s.fail(collection, filters) {
		return nil, errBackend
	}
	return s.Store.Query(ctx, collection, filters...)
}
