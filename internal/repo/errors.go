package repo

import (
	"errors"
	"fmt"
)

var (
	ErrorNotFound = errors.New("not found")
	ErrorConflict = errors.New("conflict")

	ErrFetchFailed  = errors.New("fetch failed")
	ErrCreateFailed = errors.New("create failed")
	ErrUpdateFailed = errors.New("update failed")
	ErrDeleteFailed = errors.New("delete failed")
	ErrUnauthorized = errors.New("unauthorized")
)

// StoreError carries the reason a Task Store call failed. It matches both its
// Kind and its cause under errors.Is.
type StoreError struct {
	Op     string
	Kind   error
	Reason string
	Err    error
}

func (e *StoreError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("%s: %v", e.Op, e.Kind)
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

func (e *StoreError) Unwrap() []error {
	if e == nil {
		return nil
	}
	errs := make([]error, 0, 2)
	if e.Kind != nil {
		errs = append(errs, e.Kind)
	}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// Reason returns the human-readable reason of a store failure, falling back
// to the error text.
func Reason(err error) string {
	var se *StoreError
	if errors.As(err, &se) && se.Reason != "" {
		return se.Reason
	}
	if err == nil {
		return ""
	}
	return err.Error()
}
