package services

import (
	"errors"
	"fmt"
)

var (
	ErrNoValidRows       = errors.New("no valid rows found in file")
	ErrConsumerNotFound  = errors.New("consumer not found")
	ErrPurgeNotConfirmed = errors.New("purge must be explicitly confirmed")
)

// ValidationError is returned before anything has been written.
type ValidationError struct {
	Op  string
	Msg string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Msg)
}

// IntegrityError means the store is not in the state an operation verified
// it should be in. Stage is "in-transaction" when the change was rolled back
// and "post-commit" when it was detected after commit.
type IntegrityError struct {
	Op       string
	Stage    string
	Residual int
}

// Integrity check stages
const (
	StageInTransaction = "in-transaction"
	StagePostCommit    = "post-commit"
)

func (e *IntegrityError) Error() string {
	return fmt.Sprintf("%s: integrity check failed %s: %d records remain", e.Op, e.Stage, e.Residual)
}

func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}

func IsIntegrity(err error) bool {
	var i *IntegrityError
	return errors.As(err, &i)
}
