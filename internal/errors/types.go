package errors

import (
	"errors"
	"fmt"
	"net"
	"strings"
	"syscall"
)

// ToolErrorKind classifies tool dispatch failures.
type ToolErrorKind string

const (
	KindUnknownTool      ToolErrorKind = "unknown_tool"
	KindPermissionDenied ToolErrorKind = "permission_denied"
	KindInvalidPayload   ToolErrorKind = "invalid_payload"
	KindMissingField     ToolErrorKind = "missing_field"
	KindValidationFailed ToolErrorKind = "validation_failed"
	KindExecutionFailed  ToolErrorKind = "execution_failed"
)

// ToolError is the single error type surfaced by tool execution. Handlers never
// leak raw store errors to the orchestrator; they are wrapped here with a
// human-readable message.
type ToolError struct {
	Tool    string
	Kind    ToolErrorKind
	Field   string // set for missing_field
	Message string
	Err     error
}

func (e *ToolError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("tool %s failed: %s", e.Tool, e.Kind)
}

func (e *ToolError) Unwrap() error {
	return e.Err
}

// NewUnknownTool reports a lookup miss in the registry.
func NewUnknownTool(name string) *ToolError {
	return &ToolError{Tool: name, Kind: KindUnknownTool, Message: fmt.Sprintf("unknown tool: %s", name)}
}

// NewPermissionDenied reports an invocation by a specialist outside the allow-set.
func NewPermissionDenied(tool, specialist string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Kind:    KindPermissionDenied,
		Message: fmt.Sprintf("specialist %q is not permitted to call %s", specialist, tool),
	}
}

// NewInvalidPayload reports a malformed argument mapping.
func NewInvalidPayload(tool, detail string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Kind:    KindInvalidPayload,
		Message: fmt.Sprintf("invalid payload for %s: %s", tool, detail),
	}
}

// NewMissingField names exactly the first absent required field.
func NewMissingField(tool, field string) *ToolError {
	return &ToolError{
		Tool:    tool,
		Kind:    KindMissingField,
		Field:   field,
		Message: fmt.Sprintf("%s requires field %q", tool, field),
	}
}

// NewValidationFailed wraps a validator rejection as the tool's own failure.
func NewValidationFailed(tool string, err error) *ToolError {
	return &ToolError{
		Tool:    tool,
		Kind:    KindValidationFailed,
		Err:     err,
		Message: fmt.Sprintf("%s rejected arguments: %v", tool, err),
	}
}

// NewExecutionFailed wraps a handler error with a user-presentable message.
func NewExecutionFailed(tool string, err error) *ToolError {
	return &ToolError{
		Tool:    tool,
		Kind:    KindExecutionFailed,
		Err:     err,
		Message: fmt.Sprintf("%s failed: %v", tool, err),
	}
}

// AsToolError extracts a ToolError from an error chain.
func AsToolError(err error) (*ToolError, bool) {
	var te *ToolError
	if errors.As(err, &te) {
		return te, true
	}
	return nil, false
}

// ConfigError marks a fatal configuration problem (missing API key, duplicate
// tool registration). Never retried.
type ConfigError struct {
	Message string
}

func (e *ConfigError) Error() string {
	return e.Message
}

// NewConfigError builds a ConfigError with printf formatting.
func NewConfigError(format string, args ...any) *ConfigError {
	return &ConfigError{Message: fmt.Sprintf(format, args...)}
}

// IsConfigError reports whether err is a fatal configuration error.
func IsConfigError(err error) bool {
	var ce *ConfigError
	return errors.As(err, &ce)
}

// ProviderError classifies a failed model-provider call. Retryable means the
// end user's next message may succeed (timeout, rate limit, 5xx). Auth errors
// are fatal for the turn.
type ProviderError struct {
	Err        error
	StatusCode int
	Retryable  bool
	Auth       bool
	Message    string
}

func (e *ProviderError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("provider error: %v", e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

// NewProviderAuthError reports invalid or missing credentials.
func NewProviderAuthError(detail string) *ProviderError {
	return &ProviderError{Auth: true, Message: fmt.Sprintf("provider authentication failed: %s", detail)}
}

// MapHTTPStatus converts a provider HTTP failure into a classified ProviderError.
func MapHTTPStatus(status int, body string) *ProviderError {
	msg := strings.TrimSpace(body)
	if len(msg) > 300 {
		msg = msg[:300]
	}
	pe := &ProviderError{
		StatusCode: status,
		Message:    fmt.Sprintf("provider returned status %d: %s", status, msg),
	}
	switch {
	case status == 401 || status == 403:
		pe.Auth = true
	case status == 408 || status == 429 || status >= 500:
		pe.Retryable = true
	}
	return pe
}

// WrapTransport classifies a transport-level failure (timeout, refused
// connection) as retryable.
func WrapTransport(err error) *ProviderError {
	return &ProviderError{
		Err:       err,
		Retryable: isNetworkError(err),
		Message:   fmt.Sprintf("provider request failed: %v", err),
	}
}

// IsRetryable reports whether the user's next message can plausibly succeed.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	var pe *ProviderError
	if errors.As(err, &pe) {
		return pe.Retryable
	}
	return isNetworkError(err)
}

// IsAuthError reports whether err stems from invalid provider credentials.
func IsAuthError(err error) bool {
	var pe *ProviderError
	return errors.As(err, &pe) && pe.Auth
}

func isNetworkError(err error) bool {
	if err == nil {
		return false
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	if errors.Is(err, syscall.ECONNREFUSED) || errors.Is(err, syscall.ECONNRESET) || errors.Is(err, syscall.EPIPE) {
		return true
	}
	errStr := err.Error()
	for _, pattern := range []string{"connection refused", "connection reset", "timeout", "deadline exceeded", "no such host"} {
		if strings.Contains(errStr, pattern) {
			return true
		}
	}
	return false
}
