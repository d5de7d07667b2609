package types

import "time"

type ApplicationStatus string

const (
	ApplicationStatusNotReviewed ApplicationStatus = "Não analisada"
	ApplicationStatusInReview    ApplicationStatus = "Em análise"
	ApplicationStatusApproved    ApplicationStatus = "Aprovado"
	ApplicationStatusRejected    ApplicationStatus = "Reprovado"
)

// ResearchAreaKey is the candidate value holding the chosen research area.
const ResearchAreaKey = "researchArea"

// Application is a candidate submission, keyed by the candidate uid.
// File fields in CandidateProvidedData hold object storage keys.
type Application struct {
	ID                    string            `json:"id"`
	CandidateProvidedData map[string]string `json:"candidateProvidedData"`
	Name                  string            `json:"name"`
	UID                   string            `json:"uid"`
	UserEmail             string            `json:"userEmail"`
	Status                ApplicationStatus `json:"status"`
	CreatedAt             *time.Time        `json:"createdAt,omitempty"`
}
