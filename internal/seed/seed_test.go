package seed

import (
	"context"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"selecao/internal/docstore"
	"selecao/internal/store"
	"selecao/pkg/types"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRepos(t *testing.T) (*store.ProcessRepository, *store.ApplicationRepository) {
	t.Helper()

	bolt, err := docstore.OpenBolt(filepath.Join(t.TempDir(), "seed.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = bolt.Close() })

	applications := store.NewApplicationRepository(bolt)
	return store.NewProcessRepository(bolt, applications), applications
}

func TestLoadProcesses(t *testing.T) {
	processes, err := LoadProcesses("")
	require.NoError(t, err)
	require.NotEmpty(t, processes)

	for _, p := range processes {
		assert.NotEmpty(t, p.Name)
		assert.NotEmpty(t, p.StartDate)
		for _, f := range p.RegistrationFieldsInfo {
			assert.True(t, f.Type.Valid(), "%s: %s", p.Name, f.Type)
		}
	}

	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("- name: Custom\n  places: 1\n  startDate: \"2025-01-01\"\n  endDate: \"2025-01-10\"\n"), 0o600))

	processes, err = LoadProcesses(path)
	require.NoError(t, err)
	require.Len(t, processes, 1)
	assert.Equal(t, "Custom", processes[0].Name)

	_, err = LoadProcesses(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestSeedProcessesSync(t *testing.T) {
	ctx := context.Background()
	processes, applications := newRepos(t)

	definitions := []types.SelectionProcess{
		{Name: "A", Places: 1, StartDate: "2025-01-01", EndDate: "2025-01-10"},
		{Name: "B", Places: 2, StartDate: "2025-02-01", EndDate: "2025-02-10"},
		{Name: "C", Places: 3, StartDate: "2025-03-01", EndDate: "2025-03-10"},
	}

	result, err := SeedProcesses(ctx, processes, definitions, true)
	require.NoError(t, err)
	assert.Equal(t, 3, result.Created)

	require.NoError(t, applications.AddApplication(ctx, "C", nil, "Ana", "uid-1", "ana@example.com"))

	definitions[0].Places = 10
	result, err = SeedProcesses(ctx, processes, definitions[:1], true)
	require.NoError(t, err)
	assert.Equal(t, 0, result.Created)
	assert.Equal(t, 1, result.Updated)
	assert.Equal(t, 1, result.Deleted)
	assert.Equal(t, []string{"C"}, result.Kept)

	a, err := processes.Process(ctx, "A")
	require.NoError(t, err)
	assert.Equal(t, 10, a.Places)
	assert.Equal(t, "2025-01-20", a.EndAnalysisDate)

	_, err = processes.Process(ctx, "B")
	require.ErrorIs(t, err, types.ErrProcessNotFound)

	_, err = processes.Process(ctx, "C")
	require.NoError(t, err)
}

func TestSeedFakeApplications(t *testing.T) {
	ctx := context.Background()
	processes, applications := newRepos(t)

	definitions, err := LoadProcesses("")
	require.NoError(t, err)
	_, err = SeedProcesses(ctx, processes, definitions, false)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	areas := []string{"Redes", "Banco de Dados"}

	seeded, err := SeedFakeApplications(ctx, processes, applications, areas, 4, false, rng)
	require.NoError(t, err)
	assert.Equal(t, 4*len(definitions), seeded)

	require.NoError(t, applications.AddApplication(ctx, "Aluno Especial 2025", nil, "Real", "real-uid", "real@example.com"))

	seeded, err = SeedFakeApplications(ctx, processes, applications, areas, 2, true, rng)
	require.NoError(t, err)
	assert.Equal(t, 2*len(definitions), seeded)

	all, err := processes.Processes(ctx)
	require.NoError(t, err)
	for _, p := range all {
		list, err := applications.Applications(ctx, p.ID)
		require.NoError(t, err)

		fake := 0
		for _, a := range list {
			if !strings.HasPrefix(a.ID, fakeUIDPrefix) {
				continue
			}
			fake++
			if p.ResearchFieldRequired {
				assert.Contains(t, areas, a.CandidateProvidedData[types.ResearchAreaKey])
			}
			assert.NotEmpty(t, a.Status)
		}
		assert.Equal(t, 2, fake, p.ID)
	}

	kept, err := applications.UserApplication(ctx, "Aluno Especial 2025", "real-uid")
	require.NoError(t, err)
	assert.Equal(t, "Real", kept.Name)
}

func TestPickWeightedStatus(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	seen := map[types.ApplicationStatus]int{}
	for i := 0; i < 1000; i++ {
		seen[pickWeightedStatus(rng)]++
	}

	for _, ws := range weightedStatuses {
		assert.Positive(t, seen[ws.Status], ws.Status)
	}
	assert.Greater(t, seen[types.ApplicationStatusNotReviewed], seen[types.ApplicationStatusApproved])
}
