package seed

import (
	"context"
	"fmt"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"selecao/internal/store"
	"selecao/pkg/types"
)

// fakeUIDPrefix marks seeded applications so a reset can find them.
const fakeUIDPrefix = "seed-"

type fakeCandidate struct {
	GivenName  string
	FamilyName string
}

var fakeCandidates = []fakeCandidate{
	{GivenName: "Ana", FamilyName: "Souza"},
	{GivenName: "Bruno", FamilyName: "Lima"},
	{GivenName: "Carla", FamilyName: "Pereira"},
	{GivenName: "Diego", FamilyName: "Almeida"},
	{GivenName: "Elisa", FamilyName: "Costa"},
	{GivenName: "Felipe", FamilyName: "Rocha"},
	{GivenName: "Gabriela", FamilyName: "Martins"},
	{GivenName: "Henrique", FamilyName: "Barbosa"},
}

type weightedStatus struct {
	Status types.ApplicationStatus
	Weight int
}

var weightedStatuses = []weightedStatus{
	{Status: types.ApplicationStatusNotReviewed, Weight: 45},
	{Status: types.ApplicationStatusInReview, Weight: 25},
	{Status: types.ApplicationStatusApproved, Weight: 15},
	{Status: types.ApplicationStatusRejected, Weight: 15},
}

// SeedFakeApplications adds count fake applications to every process. With
// reset, applications seeded earlier are removed first.
func SeedFakeApplications(
	ctx context.Context,
	processes *store.ProcessRepository,
	applications *store.ApplicationRepository,
	researchAreas []string,
	count int,
	reset bool,
	rng *rand.Rand,
) (int, error) {
	if count <= 0 {
		fmt.Println("Skipping fake applications seed because count <= 0")
		return 0, nil
	}

	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	all, err := processes.Processes(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to fetch processes: %w", err)
	}

	seeded := 0
	for _, process := range all {
		if reset {
			if err := resetFakeApplications(ctx, applications, process.ID); err != nil {
				return seeded, err
			}
		}

		for i := 0; i < count; i++ {
			candidate := fakeCandidates[(seeded+i)%len(fakeCandidates)]
			uid := fakeUIDPrefix + strconv.Itoa(i+1)
			email := fmt.Sprintf("%s.%s+%s@example.com", strings.ToLower(candidate.GivenName), strings.ToLower(candidate.FamilyName), uid)

			data := fakeCandidateData(process, i, researchAreas, rng)
			name := candidate.GivenName + " " + candidate.FamilyName

			if err := applications.AddApplication(ctx, process.ID, data, name, uid, email); err != nil {
				return seeded, fmt.Errorf("failed to add fake application %s to %s: %w", uid, process.ID, err)
			}

			status := pickWeightedStatus(rng)
			if status != types.ApplicationStatusNotReviewed {
				if err := applications.UpdateApplicationStatus(ctx, process.ID, uid, status); err != nil {
					return seeded, fmt.Errorf("failed to set status of %s in %s: %w", uid, process.ID, err)
				}
			}
		}
		seeded += count
	}

	fmt.Printf("Fake applications seeded: %d across %d processes\n", seeded, len(all))
	return seeded, nil
}

func resetFakeApplications(ctx context.Context, applications *store.ApplicationRepository, processID string) error {
	existing, err := applications.Applications(ctx, processID)
	if err != nil {
		return fmt.Errorf("failed to fetch applications of %s: %w", processID, err)
	}

	for _, application := range existing {
		if !strings.HasPrefix(application.ID, fakeUIDPrefix) {
			continue
		}
		if err := applications.DeleteApplication(ctx, processID, application.ID); err != nil {
			return fmt.Errorf("failed to reset fake application %s: %w", application.ID, err)
		}
	}

	return nil
}

func fakeCandidateData(process *types.SelectionProcess, index int, researchAreas []string, rng *rand.Rand) map[string]string {
	data := map[string]string{}

	for _, field := range process.RegistrationFieldsInfo {
		switch field.Type {
		case types.FieldTypeNumber:
			data[field.Name] = strconv.FormatInt(10000000000+rng.Int63n(89999999999), 10)
		case types.FieldTypeDate:
			born := time.Date(1980+rng.Intn(25), time.Month(1+rng.Intn(12)), 1+rng.Intn(28), 0, 0, 0, 0, time.UTC)
			data[field.Name] = born.Format(types.DateLayout)
		case types.FieldTypeEmail:
			data[field.Name] = fmt.Sprintf("candidato%d@example.com", index+1)
		case types.FieldTypeFile:
			// seeded applications carry no uploads
		default:
			data[field.Name] = fmt.Sprintf("[seed] %s %d", field.Name, index+1)
		}
	}

	if process.ResearchFieldRequired && len(researchAreas) > 0 {
		data[types.ResearchAreaKey] = researchAreas[rng.Intn(len(researchAreas))]
	}

	return data
}

func pickWeightedStatus(rng *rand.Rand) types.ApplicationStatus {
	total := 0
	for _, ws := range weightedStatuses {
		total += ws.Weight
	}

	n := rng.Intn(total)
	for _, ws := range weightedStatuses {
		if n < ws.Weight {
			return ws.Status
		}
		n -= ws.Weight
	}

	return types.ApplicationStatusNotReviewed
}
