package errors

import (
	"context"
	stderrors "errors"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/louisbranch/decicourt/internal/platform/i18n/catalog"
)

// Domain is the error domain reported in gRPC error details.
const Domain = "github.com/louisbranch/decicourt"

// Error is the domain error type with structured metadata.
type Error struct {
	Code     Code              // Machine-readable error code
	Message  string            // Human reason, also used in logs
	Metadata map[string]string // Additional context for clients
	Cause    error             // Wrapped underlying error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause for error chain traversal.
func (e *Error) Unwrap() error {
	return e.Cause
}

// Is reports whether target matches this error by code.
func (e *Error) Is(target error) bool {
	if t, ok := target.(*Error); ok {
		return e.Code == t.Code
	}
	return false
}

// New creates a simple domain error with a code and message.
func New(code Code, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
	}
}

// WithMetadata creates a domain error with metadata.
func WithMetadata(code Code, message string, metadata map[string]string) *Error {
	return &Error{
		Code:     code,
		Message:  message,
		Metadata: metadata,
	}
}

// Wrap creates a domain error that wraps an underlying cause.
func Wrap(code Code, message string, cause error) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

// CodeOf returns the code of the first *Error in err's chain, or CodeUnknown.
func CodeOf(err error) Code {
	var target *Error
	if stderrors.As(err, &target) {
		return target.Code
	}
	return CodeUnknown
}

// ToGRPCStatus converts the error to a gRPC status with errdetails.
// The status message keeps the domain reason; LocalizedMessage carries the
// user-facing text for locale.
func (e *Error) ToGRPCStatus(locale string, userMessage string) error {
	grpcCode := e.Code.GRPCCode()
	st := status.New(grpcCode, e.Message)

	st, err := st.WithDetails(
		&errdetails.ErrorInfo{
			Reason:   string(e.Code),
			Domain:   Domain,
			Metadata: e.Metadata,
		},
		&errdetails.LocalizedMessage{
			Locale:  locale,
			Message: userMessage,
		},
	)
	if err != nil {
		return status.New(grpcCode, e.Message).Err()
	}
	return st.Err()
}

// GRPCStatus converts any error into a gRPC status error. Domain errors keep
// their code and gain a message localized for acceptLanguage; context errors
// map to their transport equivalents; everything else becomes Internal.
func GRPCStatus(err error, acceptLanguage string) error {
	if err == nil {
		return nil
	}
	if _, ok := status.FromError(err); ok {
		return err
	}
	var domainErr *Error
	if stderrors.As(err, &domainErr) {
		locale, msg := catalog.Default().Localize(acceptLanguage, string(domainErr.Code))
		return domainErr.ToGRPCStatus(locale, msg)
	}
	switch {
	case stderrors.Is(err, context.DeadlineExceeded):
		return status.Error(codes.DeadlineExceeded, err.Error())
	case stderrors.Is(err, context.Canceled):
		return status.Error(codes.Canceled, err.Error())
	}
	return status.Error(codes.Internal, err.Error())
}
