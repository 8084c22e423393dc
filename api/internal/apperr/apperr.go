// Package apperr carries the typed failure kinds of the classification
// pipeline. Every error that leaves a pipeline stage is an *Error so callers
// can pick a user-facing message and status without string matching.
package apperr

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

type Kind string

const (
	KindInput            Kind = "input"
	KindUnsupportedMedia Kind = "unsupported_media"
	KindMediaDecode      Kind = "media_decode"
	KindTransport        Kind = "transport"
	KindAuth             Kind = "auth"
	KindUpstream         Kind = "upstream"
	KindExtraction       Kind = "extraction"
	KindInternal         Kind = "internal"
)

type Error struct {
	Kind    Kind
	Op      string
	Message string
	// Status is the provider HTTP status for auth/upstream failures, 0 otherwise.
	Status int
	// Files lists offending file names for unsupported_media and media_decode.
	Files []string
	Cause error
}

func (e *Error) Error() string {
	msg := e.Message
	if len(e.Files) > 0 {
		msg += " [" + strings.Join(e.Files, ", ") + "]"
	}
	if e.Status != 0 {
		msg = fmt.Sprintf("%s (status %d)", msg, e.Status)
	}
	if e.Cause != nil {
		return fmt.Sprintf("[%s:%s] %s: %v", e.Kind, e.Op, msg, e.Cause)
	}
	return fmt.Sprintf("[%s:%s] %s", e.Kind, e.Op, msg)
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Wrap attaches a kind to err. An err that already carries a kind is
// returned unchanged so the originating stage wins.
func Wrap(kind Kind, op, message string, err error) *Error {
	if err == nil {
		return nil
	}
	var typed *Error
	if errors.As(err, &typed) {
		return typed
	}
	return &Error{Kind: kind, Op: op, Message: message, Cause: err}
}

func New(kind Kind, op, message string) *Error {
	return &Error{Kind: kind, Op: op, Message: message}
}

// IsKind reports whether the first *Error in err's chain has the given kind.
func IsKind(err error, kind Kind) bool {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind == kind
	}
	return false
}

// KindOf returns the kind of err, treating unclassified errors as internal.
func KindOf(err error) Kind {
	var target *Error
	if errors.As(err, &target) {
		return target.Kind
	}
	return KindInternal
}

// As returns err as *Error, classifying anything foreign as internal.
func As(err error) *Error {
	if err == nil {
		return nil
	}
	var target *Error
	if errors.As(err, &target) {
		return target
	}
	return &Error{Kind: KindInternal, Op: "unknown", Message: "unexpected failure", Cause: err}
}

func Input(message string) *Error {
	return New(KindInput, "validate", message)
}

func UnsupportedMedia(files []string) *Error {
	e := New(KindUnsupportedMedia, "validate", "unsupported image type")
	e.Files = append([]string(nil), files...)
	return e
}

func MediaDecode(file string, cause error) *Error {
	return &Error{Kind: KindMediaDecode, Op: "normalize", Message: "image could not be decoded", Files: []string{file}, Cause: cause}
}

func Transport(op string, cause error) *Error {
	return &Error{Kind: KindTransport, Op: op, Message: "model endpoint unreachable", Cause: cause}
}

func Auth(op string, status int, message string, cause error) *Error {
	if message == "" {
		message = "credential missing or rejected"
	}
	return &Error{Kind: KindAuth, Op: op, Message: message, Status: status, Cause: cause}
}

func Upstream(op string, status int, message string, cause error) *Error {
	if strings.TrimSpace(message) == "" {
		message = "model API call failed"
	}
	return &Error{Kind: KindUpstream, Op: op, Message: message, Status: status, Cause: cause}
}

func Extraction(message string, length int) *Error {
	return New(KindExtraction, "extract", fmt.Sprintf("%s (reply length %d)", message, length))
}

func Internal(op string, cause error) *Error {
	return &Error{Kind: KindInternal, Op: op, Message: "internal error", Cause: cause}
}

// HTTPStatus maps err to the status the HTTP surface answers with.
func HTTPStatus(err error) int {
	e := As(err)
	if e == nil {
		return http.StatusOK
	}
	switch e.Kind {
	case KindInput:
		return http.StatusBadRequest
	case KindUnsupportedMedia:
		return http.StatusUnsupportedMediaType
	case KindMediaDecode:
		return http.StatusUnprocessableEntity
	case KindTransport:
		if errors.Is(e, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	case KindAuth:
		if e.Status >= 400 {
			return e.Status
		}
		return http.StatusInternalServerError
	case KindUpstream:
		if e.Status >= 400 {
			return e.Status
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
