package service

import (
	"errors"
	"fmt"
)

// ErrNilDependency is returned by constructors given a nil collaborator.
var ErrNilDependency = errors.New("dependency cannot be nil")

// ServiceError records which service operation failed. Store errors pass
// through Unwrap, so callers still match store.ErrNotFound and friends.
type ServiceError struct {
	Service string
	Op      string
	Err     error
}

func (e *ServiceError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s service %s operation failed: %v", e.Service, e.Op, e.Err)
	}
	return fmt.Sprintf("%s service %s operation failed", e.Service, e.Op)
}

func (e *ServiceError) Unwrap() error {
	return e.Err
}

// NewServiceError wraps err for the named service and operation.
func NewServiceError(service, op string, err error) *ServiceError {
	return &ServiceError{
		Service: service,
		Op:      op,
		Err:     err,
	}
}
