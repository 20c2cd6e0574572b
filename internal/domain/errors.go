package domain

import (
	"errors"
	"fmt"
)

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is lets errors.Is match any DomainError carrying the same code.
func (e *DomainError) Is(target error) bool {
	t, ok := target.(*DomainError)
	if !ok {
		return false
	}
	return e.Code == t.Code && (t.Message == "" || t.Message == e.Message)
}

// IsDomainError reports whether err is a DomainError with the given code.
func IsDomainError(err error, code string) bool {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Code == code
	}
	return false
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation         = "VALIDATION_ERROR"
	ErrCodeEmbedding          = "EMBEDDING_ERROR"
	ErrCodeStorageUnavailable = "STORAGE_UNAVAILABLE"
	ErrCodeRateLimited        = "RATE_LIMITED"
	ErrCodeLLMProvider        = "LLM_PROVIDER_ERROR"
	ErrCodeNotFound           = "NOT_FOUND"
	ErrCodeInternalError      = "INTERNAL_ERROR"
)

// Validation errors
var (
	ErrContentTooShort = NewDomainError(ErrCodeValidation, "content too short, minimum 10 characters")
)

// Embedding errors
var (
	ErrEmptyText         = NewDomainError(ErrCodeEmbedding, "cannot embed empty text")
	ErrEmbeddingFailed   = NewDomainError(ErrCodeEmbedding, "embedding generation failed")
	ErrDimensionMismatch = NewDomainError(ErrCodeEmbedding, "embedding has wrong dimensions")
)

// Storage errors
var (
	ErrStorageUnavailable = NewDomainError(ErrCodeStorageUnavailable, "vector store unavailable")
	ErrItemNotFound       = NewDomainError(ErrCodeNotFound, "knowledge item not found")
)

// Admission and provider errors
var (
	ErrRateLimited = NewDomainError(ErrCodeRateLimited, "too many requests in window")
	ErrLLMProvider = NewDomainError(ErrCodeLLMProvider, "completion provider failed")
)
