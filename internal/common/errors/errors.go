package errors

import (
	stderrors "errors"
	"fmt"
	"strings"
	"time"
)

type ErrorCode string

const (
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
	ErrCodeEmptyMessage ErrorCode = "EMPTY_MESSAGE"

	ErrCodeChatBackendFailed  ErrorCode = "CHAT_BACKEND_FAILED"
	ErrCodeChatBackendTimeout ErrorCode = "CHAT_BACKEND_TIMEOUT"

	ErrCodeUnknownVariant    ErrorCode = "UNKNOWN_VARIANT"
	ErrCodeItemNotSelectable ErrorCode = "ITEM_NOT_SELECTABLE"

	ErrCodeTrackingIDRequired ErrorCode = "TRACKING_ID_REQUIRED"
	ErrCodeTrackingCancelled  ErrorCode = "TRACKING_CANCELLED"

	ErrCodePaymentInProgress       ErrorCode = "PAYMENT_IN_PROGRESS"
	ErrCodePaymentAlreadyCompleted ErrorCode = "PAYMENT_ALREADY_COMPLETED"
	ErrCodePaymentCancelled        ErrorCode = "PAYMENT_CANCELLED"
	ErrCodeOrderIDExhausted        ErrorCode = "ORDER_ID_EXHAUSTED"

	ErrCodeDuplicateOrderID ErrorCode = "DUPLICATE_ORDER_ID"
	ErrCodeOrderStoreClosed ErrorCode = "ORDER_STORE_CLOSED"

	ErrCodeBrokerUnavailable ErrorCode = "BROKER_UNAVAILABLE"
	ErrCodeBrokerTimeout     ErrorCode = "BROKER_TIMEOUT"

	ErrCodeInternal ErrorCode = "INTERNAL_ERROR"
)

type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}

func (e *StandardError) Error() string {
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}

	for k, v := range e.ErrorVariables {
		vars[k] = v
	}

	return vars
}

type codeInfo struct {
	message   string
	retryable bool
}

var knownCodes = map[ErrorCode]codeInfo{
	ErrCodeInvalidInput:            {"Input failed validation", false},
	ErrCodeEmptyMessage:            {"Message must not be empty", false},
	ErrCodeChatBackendFailed:       {"Assistant backend request failed", true},
	ErrCodeChatBackendTimeout:      {"Assistant backend timed out", true},
	ErrCodeUnknownVariant:          {"Unknown action item variant", false},
	ErrCodeItemNotSelectable:       {"Action item cannot be selected", false},
	ErrCodeTrackingIDRequired:      {"Order id is required for tracking", false},
	ErrCodeTrackingCancelled:       {"Tracking lookup was cancelled", true},
	ErrCodePaymentInProgress:       {"Payment is already processing", false},
	ErrCodePaymentAlreadyCompleted: {"Payment attempt already completed", false},
	ErrCodePaymentCancelled:        {"Payment was cancelled before completion", false},
	ErrCodeOrderIDExhausted:        {"Could not allocate a unique order id", true},
	ErrCodeDuplicateOrderID:        {"Order id already exists", false},
	ErrCodeOrderStoreClosed:        {"Order store is closed", false},
	ErrCodeBrokerUnavailable:       {"Workflow broker is unavailable", true},
	ErrCodeBrokerTimeout:           {"Workflow broker timed out", true},
}

func New(code ErrorCode, details string) *StandardError {
	info, ok := knownCodes[code]
	if !ok {
		info = codeInfo{message: "Unexpected error"}
	}
	return &StandardError{
		Code:      code,
		Message:   info.message,
		Details:   details,
		Retryable: info.retryable,
		Timestamp: time.Now().UTC(),
	}
}

func NewInvalidInputError(details string) *StandardError {
	return New(ErrCodeInvalidInput, details)
}

func NewTrackingIDRequiredError() *StandardError {
	return New(ErrCodeTrackingIDRequired, "orderId is blank")
}

func NewChatBackendFailedError(err error) *StandardError {
	return New(ErrCodeChatBackendFailed, err.Error())
}

func NewInternalError(err error) *StandardError {
	return New(ErrCodeInternal, err.Error())
}

// FromError normalizes err into a StandardError. Worker packages declare
// sentinels whose text is an ErrorCode; the first such sentinel found while
// unwrapping decides the code and the full message becomes the details.
func FromError(err error) *StandardError {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}

	for e := err; e != nil; e = stderrors.Unwrap(e) {
		code := ErrorCode(e.Error())
		if _, ok := knownCodes[code]; ok {
			return New(code, err.Error())
		}
	}

	return NewInternalError(err)
}

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeBrokerUnavailable:
		return 3

	case ErrCodeTrackingCancelled, ErrCodeBrokerTimeout:
		return 2 // timeouts

	case ErrCodeOrderIDExhausted:
		return 1

	default:
		// business errors, and chat failures which are never retried automatically
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	return &BPMNError{
		Code:      string(stdErr.Code),
		Message:   stdErr.Message,
		Details:   stdErr.Details,
		Retryable: stdErr.Retryable,
		Retries:   retries,
		ErrorVariables: map[string]interface{}{
			"originalErrorCode": string(stdErr.Code),
			"timestamp":         stdErr.Timestamp.Format(time.RFC3339),
		},
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	codeStr := string(code)
	switch {
	case strings.Contains(codeStr, "CHAT") || strings.Contains(codeStr, "MESSAGE"):
		return "ASSISTANT"
	case strings.Contains(codeStr, "TRACKING"):
		return "TRACKING"
	case strings.Contains(codeStr, "PAYMENT"):
		return "PAYMENT"
	case strings.Contains(codeStr, "ORDER"):
		return "ORDER_STORE"
	case strings.Contains(codeStr, "BROKER"):
		return "BROKER"
	case strings.Contains(codeStr, "INVALID") || strings.Contains(codeStr, "VARIANT") || strings.Contains(codeStr, "SELECTABLE"):
		return "VALIDATION"
	default:
		return "OTHER"
	}
}
