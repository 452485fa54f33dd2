package errors

import (
	"fmt"
	"time"
)

// ErrorType represents the category of error
type ErrorType string

const (
	// ErrorTypeUser represents user input errors (wrong context, not in voice)
	ErrorTypeUser ErrorType = "user"
	// ErrorTypeConfig represents configuration errors (missing secrets)
	ErrorTypeConfig ErrorType = "config"
	// ErrorTypeSynthesis represents speech-synthesis provider errors
	ErrorTypeSynthesis ErrorType = "synthesis"
	// ErrorTypeWebhook represents automation webhook errors
	ErrorTypeWebhook ErrorType = "webhook"
	// ErrorTypeVoice represents voice transport errors (join, playback)
	ErrorTypeVoice ErrorType = "voice"
)

// BaseError is the base error type with common fields
type BaseError struct {
	Type      ErrorType
	Message   string
	Timestamp time.Time
	Err       error // Wrapped error
}

// Error implements the error interface
func (e *BaseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the wrapped error for error unwrapping
func (e *BaseError) Unwrap() error {
	return e.Err
}

// NewBaseError creates a new base error
func NewBaseError(errType ErrorType, message string, err error) *BaseError {
	return &BaseError{
		Type:      errType,
		Message:   message,
		Timestamp: time.Now(),
		Err:       err,
	}
}

// User Errors
//
// These carry a message meant to be shown to the invoking user verbatim.
// They are informational, not failures.

// ErrUser is a user input error with a user-visible message
type ErrUser struct {
	*BaseError
}

func NewUserError(message string) *ErrUser {
	return &ErrUser{
		BaseError: NewBaseError(ErrorTypeUser, message, nil),
	}
}

// UserMessage returns the reply text to show the invoking user
func (e *ErrUser) UserMessage() string {
	return e.Message
}

// Config Errors

// ErrConfigMissing is returned when a required config value is absent at
// the time a command needs it
type ErrConfigMissing struct {
	*BaseError
	UserText string
}

func NewConfigMissing(fields, userText string) *ErrConfigMissing {
	return &ErrConfigMissing{
		BaseError: NewBaseError(ErrorTypeConfig, fmt.Sprintf("missing required config: %s", fields), nil),
		UserText:  userText,
	}
}

func (e *ErrConfigMissing) UserMessage() string {
	return e.UserText
}

// Synthesis Errors

// ErrSynthesisFailed is returned when the speech provider did not produce
// audio. Detail holds a truncated excerpt of the provider's response body,
// safe to surface to the user.
type ErrSynthesisFailed struct {
	*BaseError
	StatusCode  int
	ContentType string
	Detail      string
}

func NewSynthesisFailed(statusCode int, contentType, detail string, err error) *ErrSynthesisFailed {
	return &ErrSynthesisFailed{
		BaseError:   NewBaseError(ErrorTypeSynthesis, fmt.Sprintf("synthesis failed: status=%d content-type=%s", statusCode, contentType), err),
		StatusCode:  statusCode,
		ContentType: contentType,
		Detail:      detail,
	}
}

func (e *ErrSynthesisFailed) UserMessage() string {
	if e.Detail != "" {
		return fmt.Sprintf("No he podido generar el audio: %s", e.Detail)
	}
	return "No he podido generar el audio."
}

// Webhook Errors

// ErrWebhookFailed is returned when the automation webhook call fails at
// the transport level (the router maps it to the generic failure reply)
type ErrWebhookFailed struct {
	*BaseError
	URL string
}

func NewWebhookFailed(url string, err error) *ErrWebhookFailed {
	return &ErrWebhookFailed{
		BaseError: NewBaseError(ErrorTypeWebhook, "webhook request failed", err),
		URL:       url,
	}
}

// Voice Errors

// ErrVoiceTimeout is returned when a bounded voice wait expires
type ErrVoiceTimeout struct {
	*BaseError
	Operation string
	Timeout   time.Duration
}

func NewVoiceTimeout(operation string, timeout time.Duration) *ErrVoiceTimeout {
	msg := fmt.Sprintf("voice operation timed out: %s", operation)
	if timeout > 0 {
		msg = fmt.Sprintf("%s (timeout: %v)", msg, timeout)
	}
	return &ErrVoiceTimeout{
		BaseError: NewBaseError(ErrorTypeVoice, msg, nil),
		Operation: operation,
		Timeout:   timeout,
	}
}

// ErrVoiceJoinFailed is returned when joining a voice channel fails
type ErrVoiceJoinFailed struct {
	*BaseError
	GuildID   string
	ChannelID string
}

func NewVoiceJoinFailed(guildID, channelID string, err error) *ErrVoiceJoinFailed {
	return &ErrVoiceJoinFailed{
		BaseError: NewBaseError(ErrorTypeVoice, fmt.Sprintf("failed to join voice channel %s", channelID), err),
		GuildID:   guildID,
		ChannelID: channelID,
	}
}

// Helper functions

// Typed is implemented by every error in this package via the embedded
// BaseError.
type Typed interface {
	ErrorType() ErrorType
}

// ErrorType reports the category of the error
func (e *BaseError) ErrorType() ErrorType {
	return e.Type
}

// IsErrorType checks if an error (or anything it wraps) is of a specific type
func IsErrorType(err error, errType ErrorType) bool {
	for err != nil {
		if typed, ok := err.(Typed); ok {
			return typed.ErrorType() == errType
		}
		unwrapper, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = unwrapper.Unwrap()
	}
	return false
}

// UserMessager is implemented by errors that carry a reply meant for the
// invoking user. Anything else gets the generic failure reply.
type UserMessager interface {
	UserMessage() string
}
