package comic

import (
	"errors"
	"fmt"
)

// ErrorKind classifies errors reported by the archive service.
type ErrorKind string

// Service error kinds.
const (
	FailedToLoadArchive       ErrorKind = "FailedToLoadArchive"
	FailedToParseComicInfoXml ErrorKind = "FailedToParseComicInfoXml"
	ComicInfoXmlInvalid       ErrorKind = "ComicInfoXmlInvalid"
	ErrOther                  ErrorKind = "Other"
)

// ErrNoArchive is returned by operations that need an archive path when none
// is selected.
var ErrNoArchive = errors.New("no archive path available")

// ServiceError is an error record produced by the archive service, or a
// generic one wrapping a transport failure.
type ServiceError struct {
	Kind    ErrorKind `json:"error_type"`
	Message string    `json:"message"`
}

func (e *ServiceError) Error() string {
	if e.Message == "" {
		return string(e.Kind)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Errorf returns a ServiceError of the given kind.
func Errorf(kind ErrorKind, format string, args ...any) *ServiceError {
	return &ServiceError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// AsServiceError converts err to a ServiceError. Errors that are not already
// service errors become kind Other, keeping their message.
func AsServiceError(err error) *ServiceError {
	if err == nil {
		return nil
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return se
	}
	return &ServiceError{Kind: ErrOther, Message: err.Error()}
}

// ErrorKindOf returns the kind of a ServiceError inside err, or "" when err
// carries none.
func ErrorKindOf(err error) ErrorKind {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Kind
	}
	return ""
}

// ErrorMessage returns the human readable part of err.
func ErrorMessage(err error) string {
	if err == nil {
		return ""
	}
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Message
	}
	return err.Error()
}
