package seed

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"

	"selecao/internal/store"
	"selecao/pkg/types"

	"gopkg.in/yaml.v3"
)

//go:embed processes.yaml
var defaultProcesses []byte

// LoadProcesses reads process definitions from a YAML file, or the bundled
// definitions when path is empty.
func LoadProcesses(path string) ([]types.SelectionProcess, error) {
	raw := defaultProcesses
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", path, err)
		}
		raw = data
	}

	var processes []types.SelectionProcess
	if err := yaml.Unmarshal(raw, &processes); err != nil {
		return nil, fmt.Errorf("failed to parse process definitions: %w", err)
	}

	return processes, nil
}

type SyncResult struct {
	Created int
	Updated int
	Deleted int
	Kept    []string
}

// SeedProcesses syncs the store with the given definitions. The definitions
// are the source of truth:
// - Creates processes that don't exist
// - Overwrites the fields of existing ones
// - With prune, deletes processes missing from the definitions unless they
// already hold applications
func SeedProcesses(ctx context.Context, repo *store.ProcessRepository, definitions []types.SelectionProcess, prune bool) (*SyncResult, error) {
	fmt.Println("Starting process sync...")
	fmt.Printf("  Seed file contains %d processes\n", len(definitions))

	result := &SyncResult{}
	seedIDs := make(map[string]bool, len(definitions))

	for _, def := range definitions {
		id, err := store.DeriveProcessID(def.Name)
		if err != nil {
			return nil, err
		}
		seedIDs[id] = true

		_, err = repo.Process(ctx, id)
		switch {
		case errors.Is(err, types.ErrProcessNotFound):
			fmt.Printf("  Creating process: %s\n", id)
			if _, err := repo.CreateProcess(ctx, &def); err != nil {
				return nil, fmt.Errorf("failed to create process %s: %w", id, err)
			}
			result.Created++
		case err != nil:
			return nil, fmt.Errorf("failed to fetch process %s: %w", id, err)
		default:
			fmt.Printf("  Updating process: %s\n", id)
			if err := repo.UpdateProcess(ctx, id, fullUpdate(def)); err != nil {
				return nil, fmt.Errorf("failed to update process %s: %w", id, err)
			}
			result.Updated++
		}
	}

	if prune {
		existing, err := repo.Processes(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch existing processes: %w", err)
		}

		for _, p := range existing {
			if seedIDs[p.ID] {
				continue
			}

			err := repo.DeleteProcess(ctx, p.ID)
			if errors.Is(err, types.ErrHasApplications) {
				fmt.Printf("  Keeping process with applications: %s\n", p.ID)
				result.Kept = append(result.Kept, p.ID)
				continue
			}
			if err != nil {
				return nil, fmt.Errorf("failed to delete process %s: %w", p.ID, err)
			}
			fmt.Printf("  Deleted process: %s\n", p.ID)
			result.Deleted++
		}
	}

	fmt.Printf("\nSync complete: %d created, %d updated, %d deleted\n", result.Created, result.Updated, result.Deleted)
	return result, nil
}

func fullUpdate(def types.SelectionProcess) *types.ProcessUpdate {
	update := &types.ProcessUpdate{
		Name:                   &def.Name,
		Places:                 &def.Places,
		MiniDescription:        &def.MiniDescription,
		Description:            &def.Description,
		ResearchFieldRequired:  &def.ResearchFieldRequired,
		StartDate:              &def.StartDate,
		EndDate:                &def.EndDate,
		RegistrationFieldsInfo: def.RegistrationFieldsInfo,
	}
	if def.EndAnalysisDate != "" {
		update.EndAnalysisDate = &def.EndAnalysisDate
	}
	if update.RegistrationFieldsInfo == nil {
		update.RegistrationFieldsInfo = []types.FieldDescriptor{}
	}
	return update
}
