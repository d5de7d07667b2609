package forms

import (
	"fmt"
	"strings"
	"time"

	"selecao/internal/store"
	"selecao/internal/utils"
	"selecao/pkg/types"
)

// SanitizeProcess cleans the free text of a process before it is stored.
func SanitizeProcess(p *types.SelectionProcess) {
	p.Name = utils.SanitizeInput(p.Name)
	p.MiniDescription = utils.SanitizeInput(p.MiniDescription)
	p.Description = utils.SanitizeInput(p.Description)
	p.StartDate = strings.TrimSpace(p.StartDate)
	p.EndDate = strings.TrimSpace(p.EndDate)
	p.EndAnalysisDate = strings.TrimSpace(p.EndAnalysisDate)
}

// SanitizeUpdate cleans the fields present in u the way SanitizeProcess and
// NormalizeField clean a full process. Descriptor errors are left for
// ValidateProcess to report.
func SanitizeUpdate(u *types.ProcessUpdate) {
	for _, field := range []**string{&u.Name, &u.MiniDescription, &u.Description} {
		if *field != nil {
			*field = utils.StringPtr(utils.SanitizeInput(**field))
		}
	}
	for _, field := range []**string{&u.StartDate, &u.EndDate, &u.EndAnalysisDate} {
		if *field != nil {
			*field = utils.StringPtr(strings.TrimSpace(**field))
		}
	}

	for i, field := range u.RegistrationFieldsInfo {
		u.RegistrationFieldsInfo[i], _ = NormalizeField(field)
	}
}

// ValidateProcess returns the field errors of p, keyed by json field name.
// A start date in the past is only rejected when creating.
func ValidateProcess(p *types.SelectionProcess, today time.Time, creating bool) map[string]string {
	errs := map[string]string{}

	if p.Name == "" {
		errs["name"] = "O nome é obrigatório."
	} else if _, err := store.DeriveProcessID(p.Name); err != nil {
		errs["name"] = "O nome não pode conter barras nem ser reservado."
	}

	if p.Places <= 0 {
		errs["places"] = "O número de vagas deve ser maior que zero."
	}

	if p.MiniDescription == "" {
		errs["miniDescription"] = "A descrição curta é obrigatória."
	}

	if p.Description == "" {
		errs["description"] = "A descrição é obrigatória."
	}

	start, startOK := parseDate(errs, "startDate", p.StartDate)
	end, endOK := parseDate(errs, "endDate", p.EndDate)

	var analysis time.Time
	analysisOK := false
	if p.EndAnalysisDate != "" {
		analysis, analysisOK = parseDate(errs, "endAnalysisDate", p.EndAnalysisDate)
	}

	day := time.Date(today.Year(), today.Month(), today.Day(), 0, 0, 0, 0, time.UTC)
	if creating && startOK && start.Before(day) {
		errs["startDate"] = "A data de início não pode estar no passado."
	}

	if startOK && endOK && !end.After(start) {
		errs["endDate"] = "A data de término deve ser posterior à data de início."
	}

	if endOK && analysisOK && !analysis.After(end) {
		errs["endAnalysisDate"] = "A data final de análise deve ser posterior à data de término."
	}

	seen := map[string]bool{}
	for i, field := range p.RegistrationFieldsInfo {
		key := fmt.Sprintf("registrationFieldsInfo.%d", i)

		normalized, err := NormalizeField(field)
		if err != nil {
			errs[key] = err.Error()
			continue
		}

		name := strings.ToLower(normalized.Name)
		if seen[name] {
			errs[key] = ErrDuplicateField.Error()
			continue
		}
		seen[name] = true
	}

	return errs
}

func parseDate(errs map[string]string, key, value string) (time.Time, bool) {
	if value == "" {
		errs[key] = "A data é obrigatória."
		return time.Time{}, false
	}

	t, err := time.Parse(types.DateLayout, value)
	if err != nil {
		errs[key] = "Use o formato AAAA-MM-DD."
		return time.Time{}, false
	}

	return t, true
}
