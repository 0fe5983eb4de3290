package services

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dmitrijs2005/taskkeeper/internal/common"
)

// ValidationError describes rejected input. Fields maps an input field to
// what is wrong with it; Message is used for request-level problems such as
// unknown update keys. It matches common.ErrorValidation under errors.Is.
type ValidationError struct {
	Message string
	Fields  map[string]string
}

func (e *ValidationError) Error() string {
	if len(e.Fields) == 0 {
		return e.Message
	}

	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, fmt.Sprintf("%s: %s", k, e.Fields[k]))
	}
	return e.Message + ": " + strings.Join(parts, ", ")
}

func (e *ValidationError) Unwrap() error {
	return common.ErrorValidation
}

func fieldError(field, msg string) *ValidationError {
	return &ValidationError{Message: "validation failed", Fields: map[string]string{field: msg}}
}

// internalError keeps the cause for logs while matching common.ErrorInternal.
func internalError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", common.ErrorInternal, op, err)
}
