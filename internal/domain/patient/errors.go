package patient

import (
	"errors"
	"strings"
)

var (
	ErrNotFound      = errors.New("patient not found")
	ErrEmptyList     = errors.New("the operation was successful, however, there are no patients recorded. The list is empty")
	ErrCorruptRecord = errors.New("corrupt patient record")
)

// ValidationError lists the required fields that were missing on create.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "patient name, last name, CI or blood group must not be empty: " + strings.Join(e.Fields, "; ")
}
