package types

import (
	"time"
)

// DateLayout is the calendar date format used for every process date.
const DateLayout = "2006-01-02"

// AnalysisPeriod is the gap between the end of registrations and the end of analysis.
const AnalysisPeriod = 10 * 24 * time.Hour

type FieldType string

const (
	FieldTypeText   FieldType = "text"
	FieldTypeNumber FieldType = "number"
	FieldTypeDate   FieldType = "date"
	FieldTypeEmail  FieldType = "email"
	FieldTypeFile   FieldType = "file"
)

var AllFieldTypes = []FieldType{
	FieldTypeText,
	FieldTypeNumber,
	FieldTypeDate,
	FieldTypeEmail,
	FieldTypeFile,
}

func (t FieldType) Valid() bool {
	for _, v := range AllFieldTypes {
		if v == t {
			return true
		}
	}
	return false
}

// FieldDescriptor describes one field of a process registration form.
type FieldDescriptor struct {
	Name     string    `json:"name" form:"name" yaml:"name"`
	Type     FieldType `json:"type" form:"type" yaml:"type"`
	Required bool      `json:"required" form:"required" yaml:"required"`
}

type SelectionProcess struct {
	ID                     string            `json:"id" yaml:"-"`
	Name                   string            `json:"name" form:"name" yaml:"name"`
	Places                 int               `json:"places" form:"places" yaml:"places"`
	MiniDescription        string            `json:"miniDescription" form:"miniDescription" yaml:"miniDescription"`
	Description            string            `json:"description" form:"description" yaml:"description"`
	ResearchFieldRequired  bool              `json:"researchFieldRequired" form:"researchFieldRequired" yaml:"researchFieldRequired"`
	StartDate              string            `json:"startDate" form:"startDate" yaml:"startDate"`
	EndDate                string            `json:"endDate" form:"endDate" yaml:"endDate"`
	EndAnalysisDate        string            `json:"endAnalysisDate" form:"endAnalysisDate" yaml:"endAnalysisDate"`
	RegistrationFieldsInfo []FieldDescriptor `json:"registrationFieldsInfo" form:"registrationFieldsInfo" yaml:"registrationFieldsInfo"`
	CreatedAt              *time.Time        `json:"createdAt,omitempty" yaml:"-"`
}

// IsActive reports whether registrations are open on the given date, both ends inclusive.
func (p *SelectionProcess) IsActive(asOf time.Time) bool {
	day := asOf.Format(DateLayout)
	return p.StartDate <= day && day <= p.EndDate
}

// Field returns the descriptor with the given name.
func (p *SelectionProcess) Field(name string) (FieldDescriptor, bool) {
	for _, f := range p.RegistrationFieldsInfo {
		if f.Name == name {
			return f, true
		}
	}
	return FieldDescriptor{}, false
}

// ProcessUpdate is a partial update. Nil fields are left untouched.
type ProcessUpdate struct {
	Name                   *string           `json:"name,omitempty" form:"name"`
	Places                 *int              `json:"places,omitempty" form:"places"`
	MiniDescription        *string           `json:"miniDescription,omitempty" form:"miniDescription"`
	Description            *string           `json:"description,omitempty" form:"description"`
	ResearchFieldRequired  *bool             `json:"researchFieldRequired,omitempty" form:"researchFieldRequired"`
	StartDate              *string           `json:"startDate,omitempty" form:"startDate"`
	EndDate                *string           `json:"endDate,omitempty" form:"endDate"`
	EndAnalysisDate        *string           `json:"endAnalysisDate,omitempty" form:"endAnalysisDate"`
	RegistrationFieldsInfo []FieldDescriptor `json:"registrationFieldsInfo,omitempty" form:"registrationFieldsInfo"`
}

// Apply returns a copy of p with the update applied.
func (u *ProcessUpdate) Apply(p SelectionProcess) SelectionProcess {
	if u.Name != nil {
		p.Name = *u.Name
	}
	if u.Places != nil {
		p.Places = *u.Places
	}
	if u.MiniDescription != nil {
		p.MiniDescription = *u.MiniDescription
	}
	if u.Description != nil {
		p.Description = *u.Description
	}
	if u.ResearchFieldRequired != nil {
		p.ResearchFieldRequired = *u.ResearchFieldRequired
	}
	if u.StartDate != nil {
		p.StartDate = *u.StartDate
	}
	if u.EndDate != nil {
		p.EndDate = *u.EndDate
	}
	if u.EndAnalysisDate != nil {
		p.EndAnalysisDate = *u.EndAnalysisDate
	}
	if u.RegistrationFieldsInfo != nil {
		p.RegistrationFieldsInfo = u.RegistrationFieldsInfo
	}
	return p
}

// EndAnalysisDateFor derives the analysis deadline from the registration end date.
func EndAnalysisDateFor(endDate string) (string, error) {
	end, err := time.Parse(DateLayout, endDate)
	if err != nil {
		return "", err
	}
	return end.Add(AnalysisPeriod).Format(DateLayout), nil
}
