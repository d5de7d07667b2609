package types

import (
	"errors"
	"fmt"
)

var ErrNotFound = errors.New("not found")

var (
	ErrProcessNotFound     = fmt.Errorf("process %w", ErrNotFound)
	ErrApplicationNotFound = fmt.Errorf("application %w", ErrNotFound)
	ErrNewsNotFound        = fmt.Errorf("news %w", ErrNotFound)
	ErrFileNotFound        = fmt.Errorf("file %w", ErrNotFound)

	ErrDuplicateProcess     = errors.New("a process with this id already exists")
	ErrDuplicateApplication = errors.New("user already has an application for this process")
	ErrHasApplications      = errors.New("process has applications and cannot be deleted")
	ErrRegistrationClosed   = errors.New("registrations are closed for this process")

	ErrInvalidProcessName = errors.New("process name cannot be used as an id")
	ErrInvalidUID         = errors.New("invalid user id")
	ErrEmptyStatus        = errors.New("application status cannot be empty")
)
