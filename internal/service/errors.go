// Package service holds the business rules.  Handlers call services with
// the authenticated principal; services enforce tenant scope, validate
// input and translate storage failures into the Error taxonomy below.
package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/iliyamo/returns-desk/internal/rbac"
	"github.com/iliyamo/returns-desk/internal/repository"
	"github.com/iliyamo/returns-desk/internal/utils"
)

// Kind classifies an error for the HTTP boundary.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindUnauthorized
	KindForbidden
	KindNotFound
	KindConflict
	KindUpstream
)

// Error is a classified failure.  ExistingID is only set on enquiry
// conflicts so the client can open the existing enquiry.
type Error struct {
	Kind       Kind
	Message    string
	ExistingID uint64
	Err        error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Validation names the offending fields.
func Validation(format string, args ...any) error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// Missing reports required fields that were absent.
func Missing(fields ...string) error {
	return &Error{Kind: KindValidation, Message: "missing required field(s): " + strings.Join(fields, ", ")}
}

var (
	ErrUnauthorized       = &Error{Kind: KindUnauthorized, Message: "unauthorized"}
	ErrInvalidCredentials = &Error{Kind: KindUnauthorized, Message: "invalid username or password"}
	ErrForbidden          = &Error{Kind: KindForbidden, Message: "forbidden"}
)

func NotFound(what string) error {
	return &Error{Kind: KindNotFound, Message: what + " not found"}
}

// Upstream wraps a storage or third-party failure.  msg is shown to the
// client; err is only logged.
func Upstream(msg string, err error) error {
	return &Error{Kind: KindUpstream, Message: msg, Err: err}
}

// KindOf classifies err, recognising repository and rbac sentinels too.
func KindOf(err error) Kind {
	var se *Error
	switch {
	case err == nil:
		return KindInternal
	case errors.As(err, &se):
		return se.Kind
	case errors.Is(err, repository.ErrNotFound):
		return KindNotFound
	case errors.Is(err, rbac.ErrForbidden):
		return KindForbidden
	case errors.Is(err, repository.ErrConflict):
		return KindConflict
	case errors.Is(err, utils.ErrInvalidToken):
		return KindUnauthorized
	}
	return KindInternal
}

// scope maps rbac's forbidden error into the service taxonomy.
func scope(p rbac.Principal, businessID uint64) error {
	if err := rbac.AssertBusinessScope(p, businessID); err != nil {
		return ErrForbidden
	}
	return nil
}

// notFoundAs turns repository.ErrNotFound into a NotFound naming what.
func notFoundAs(err error, what string) error {
	if errors.Is(err, repository.ErrNotFound) {
		return NotFound(what)
	}
	return err
}
