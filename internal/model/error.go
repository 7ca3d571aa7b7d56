package model

import "errors"

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON             = "INVALID_JSON"
	ErrCodeValidation              = "VALIDATION_ERROR"
	ErrCodeProductNotFound         = "PRODUCT_NOT_FOUND"
	ErrCodeProductExists           = "PRODUCT_EXISTS"
	ErrCodeOrderNotFound           = "ORDER_NOT_FOUND"
	ErrCodeCartConflict            = "CART_CONFLICT"
	ErrCodeOrderNotPayable         = "ORDER_NOT_PAYABLE"
	ErrCodeAmountMismatch          = "AMOUNT_MISMATCH"
	ErrCodePaymentInit             = "PAYMENT_INIT_FAILED"
	ErrCodeSignatureInvalid        = "SIGNATURE_INVALID"
	ErrCodeWebhookSignatureInvalid = "WEBHOOK_SIGNATURE_INVALID"
	ErrCodeMalformedPayload        = "MALFORMED_PAYLOAD"
	ErrCodeUnauthorised            = "UNAUTHORIZED"
	ErrCodeInternalError           = "INTERNAL_ERROR"
)

// ErrorKind groups domain errors by how callers are expected to react.
type ErrorKind int

const (
	KindValidation ErrorKind = iota + 1
	KindBadRequest
	KindNotFound
	KindConflict
	KindPaymentInit
	KindSignatureInvalid
	KindWebhookSignatureInvalid
)

// Domain errors for business logic
type DomainError struct {
	Kind    ErrorKind
	Code    string
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// Is matches domain errors by code so wrapped copies compare equal to the sentinels.
func (e *DomainError) Is(target error) bool {
	var t *DomainError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code && t.Message == e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(kind ErrorKind, code, message string) *DomainError {
	return &DomainError{
		Kind:    kind,
		Code:    code,
		Message: message,
	}
}

// NewValidationError creates a user-fixable validation error.
func NewValidationError(message string) *DomainError {
	return NewDomainError(KindValidation, ErrCodeValidation, message)
}

// NewPaymentInitError wraps a gateway failure as a retryable payment initialisation error.
func NewPaymentInitError(err error) *DomainError {
	return &DomainError{
		Kind:    KindPaymentInit,
		Code:    ErrCodePaymentInit,
		Message: ErrPaymentInit.Message,
		Err:     err,
	}
}

// Common domain errors
var (
	ErrEmptyCart               = NewValidationError("empty cart")
	ErrMissingAddress          = NewValidationError("missing address")
	ErrIncompleteAddress       = NewValidationError("shipping address requires street and city")
	ErrMissingUser             = NewValidationError("missing user")
	ErrMissingIdempotencyKey   = NewValidationError("missing idempotency key")
	ErrInvalidQuantity         = NewValidationError("quantity must be at least 1")
	ErrInvalidStatus           = NewValidationError("unknown order status")
	ErrProductNotFound         = NewDomainError(KindNotFound, ErrCodeProductNotFound, "product not found")
	ErrProductExists           = NewDomainError(KindConflict, ErrCodeProductExists, "product already exists")
	ErrOrderNotFound           = NewDomainError(KindNotFound, ErrCodeOrderNotFound, "order not found")
	ErrCartConflict            = NewDomainError(KindConflict, ErrCodeCartConflict, "cart is being updated elsewhere, please retry")
	ErrOrderNotPayable         = NewDomainError(KindConflict, ErrCodeOrderNotPayable, "order is not awaiting payment")
	ErrAmountMismatch          = NewDomainError(KindBadRequest, ErrCodeAmountMismatch, "amount mismatch")
	ErrMalformedPayload        = NewDomainError(KindBadRequest, ErrCodeMalformedPayload, "malformed payload")
	ErrPaymentInit             = NewDomainError(KindPaymentInit, ErrCodePaymentInit, "could not start payment, please retry")
	ErrSignatureInvalid        = NewDomainError(KindSignatureInvalid, ErrCodeSignatureInvalid, "payment could not be verified, please contact support")
	ErrWebhookSignatureInvalid = NewDomainError(KindWebhookSignatureInvalid, ErrCodeWebhookSignatureInvalid, "invalid signature")
)

// KindOf returns the kind of a domain error, or zero for infrastructure errors.
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return 0
}
