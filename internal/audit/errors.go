package audit

import (
	"errors"
	"fmt"
)

// Kind classifies audit errors
type Kind int

const (
	// KindUnknown is an unclassified failure
	KindUnknown Kind = iota
	// KindNetwork covers connect, DNS and timeout failures
	KindNetwork
	// KindParse covers malformed documents and payloads
	KindParse
	// KindConfig covers missing or invalid caller input
	KindConfig
	// KindExternalService covers error payloads returned by third party APIs
	KindExternalService
)

func (k Kind) String() string {
	switch k {
	case KindNetwork:
		return "network"
	case KindParse:
		return "parse"
	case KindConfig:
		return "config"
	case KindExternalService:
		return "external_service"
	default:
		return "unknown"
	}
}

// Error is a classified audit failure
type Error struct {
	Kind    Kind
	Op      string
	Message string
	Cause   error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Cause != nil {
		msg = e.Cause.Error()
	} else if e.Cause != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	if e.Op == "" {
		return msg
	}
	return e.Op + ": " + msg
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// NetworkError wraps a transport failure
func NetworkError(op string, cause error) error {
	return &Error{Kind: KindNetwork, Op: op, Cause: cause}
}

// ParseError wraps a document or payload decoding failure
func ParseError(op string, cause error) error {
	return &Error{Kind: KindParse, Op: op, Cause: cause}
}

// ConfigError reports invalid caller input
func ConfigError(op, message string) error {
	return &Error{Kind: KindConfig, Op: op, Message: message}
}

// ExternalServiceError reports an error payload returned by a third party API
func ExternalServiceError(op, message string) error {
	return &Error{Kind: KindExternalService, Op: op, Message: message}
}

// KindOf returns the kind of the first classified error in err's chain
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindUnknown
}

// IsKind reports whether err is classified as k
func IsKind(err error, k Kind) bool {
	return err != nil && KindOf(err) == k
}

// ErrNoDocument is returned by analyzers that need a parsed document when the fetch failed
var ErrNoDocument = &Error{Kind: KindParse, Message: "no document available"}
