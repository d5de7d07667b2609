package store

import (
	"fmt"
	"strings"

	"selecao/internal/utils"
	"selecao/pkg/types"
)

const (
	processesCollection    = "processes"
	applicationsCollection = "applications"
	newsCollection         = "news"

	// PlaceholderID is the sentinel document keeping each child collection
	// addressable. It is never returned by reads.
	PlaceholderID = "placeholder"
)

func applicationsPath(processID string) string {
	return fmt.Sprintf("%s/%s/%s", processesCollection, processID, applicationsCollection)
}

func newsPath(processID string) string {
	return fmt.Sprintf("%s/%s/%s", processesCollection, processID, newsCollection)
}

// DeriveProcessID turns a process name into its document id.
func DeriveProcessID(name string) (string, error) {
	id := utils.CollapseSpaces(utils.SanitizeInput(name))

	switch {
	case id == "", id == ".", id == "..":
		return "", fmt.Errorf("%w: %q", types.ErrInvalidProcessName, name)
	case strings.Contains(id, "/"):
		return "", fmt.Errorf("%w: %q contains a slash", types.ErrInvalidProcessName, name)
	case strings.HasPrefix(id, "__") && strings.HasSuffix(id, "__"):
		return "", fmt.Errorf("%w: %q is reserved", types.ErrInvalidProcessName, name)
	}

	return id, nil
}
