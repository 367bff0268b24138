package service

import (
	"errors"
	"fmt"

	"go-invoice-ws/internal/repository"
	"go-invoice-ws/pkg/validator"
)

var (
	ErrInvoiceNotFound     = errors.New("invoice not found")
	ErrProductNotFound     = errors.New("product not found")
	ErrInvalidInvoiceType  = errors.New("invalid invoice type")
	ErrInsufficientStock   = errors.New("insufficient stock")
	ErrValidation          = errors.New("validation failed")
	ErrStorageFailure      = errors.New("storage failure")
	ErrDuplicateBarcode    = errors.New("barcode already exists")
	ErrDuplicateInvoiceNum = errors.New("invoice number already exists")
)

// ValidationError names the first field that failed validation
type ValidationError struct {
	Field string
	Tag   string
	Param string
}

func (e *ValidationError) Error() string {
	if e.Param != "" {
		return fmt.Sprintf("validation failed: field '%s' failed on tag '%s=%s'", e.Field, e.Tag, e.Param)
	}
	return fmt.Sprintf("validation failed: field '%s' failed on tag '%s'", e.Field, e.Tag)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// StorageError wraps a persistence fault and keeps the driver message
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func (e *StorageError) Is(target error) bool { return target == ErrStorageFailure }

func storageErr(op string, err error) error {
	if err == nil {
		return nil
	}
	return &StorageError{Op: op, Err: err}
}

// notFoundOr maps repository.ErrNotFound to the given sentinel and wraps
// anything else as a storage failure.
func notFoundOr(sentinel error, op string, err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return sentinel
	}
	return storageErr(op, err)
}

func validate(v interface{}) error {
	errs := validator.ValidateStruct(v)
	if len(errs) == 0 {
		return nil
	}
	first := errs[0]
	return &ValidationError{Field: first.FailedField, Tag: first.Tag, Param: first.Value}
}
