package dialog

import (
	"errors"
	"fmt"

	"voyager/services/flights"
	"voyager/services/validate"
)

// Error kinds surfaced to the platform. Validation and prerequisite kinds
// resolve locally with a corrective prompt; only a structurally invalid call
// (unknown step, unknown call) is fatal to the invocation.
const (
	KindUnauthorized        = "UNAUTHORIZED"
	KindMissingPrerequisite = "MISSING_PREREQUISITE"
	KindValidationFailed    = "VALIDATION_FAILED"
	KindConfirmationPending = "CONFIRMATION_PENDING"
	KindCooldownActive      = "COOLDOWN_ACTIVE"
	KindBackendUnavailable  = "BACKEND_UNAVAILABLE"
	KindStaleOffer          = "STALE_OFFER"
	KindPartyTooLarge       = "PARTY_TOO_LARGE"
	KindNotStarted          = "NOT_STARTED"
	KindAlreadyStarted      = "ALREADY_STARTED"
	KindOutOfOrder          = "OUT_OF_ORDER"
)

// FlowError is the conversation-level error: a kind, the field it concerns
// (when any), and the exact line to read to the caller.
type FlowError struct {
	Kind    string
	Field   string
	Message string
}

func (e *FlowError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s (%s): %s", e.Kind, e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// NewFlowError creates a FlowError.
func NewFlowError(kind, message string) *FlowError {
	return &FlowError{Kind: kind, Message: message}
}

// NewFieldError creates a FlowError tied to a named field.
func NewFieldError(kind, field, message string) *FlowError {
	return &FlowError{Kind: kind, Field: field, Message: message}
}

// KindOf extracts the error kind, or "" for non-flow errors.
func KindOf(err error) string {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// MessageOf returns the caller-facing line of a flow error, or a generic
// fallback for anything else.
func MessageOf(err error) string {
	var fe *FlowError
	if errors.As(err, &fe) {
		return fe.Message
	}
	return "I'm sorry, something went wrong on my end. Could you say that again?"
}

// FromValidation lifts a validation error into the flow taxonomy. Party-size
// violations keep their own kind so they are always surfaced verbatim.
func FromValidation(err error) *FlowError {
	ve, ok := err.(*validate.Error)
	if !ok {
		return NewFlowError(KindValidationFailed, err.Error())
	}
	kind := KindValidationFailed
	if ve.Code == validate.CodePartyTooLarge {
		kind = KindPartyTooLarge
	}
	return &FlowError{Kind: kind, Field: ve.Field, Message: ve.Message}
}

// FromBackend classifies a flight backend failure.
func FromBackend(err error, voiceMessage string) *FlowError {
	if errors.Is(err, flights.ErrStaleOffer) {
		return NewFlowError(KindStaleOffer, voiceMessage)
	}
	return NewFlowError(KindBackendUnavailable, voiceMessage)
}
