package api

import (
	"encoding/json"
	"io"
	"net/http"

	"commerce-workers/internal/common/errors"
	"commerce-workers/internal/common/validation"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error *errors.StandardError `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	stdErr := errors.FromError(err)
	status := statusFor(stdErr.Code)

	fields := map[string]interface{}{
		"path":      r.URL.Path,
		"errorCode": stdErr.Code,
		"error":     err.Error(),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", fields)
	} else {
		s.logger.Info("request rejected", fields)
	}

	writeJSON(w, status, errorBody{Error: stdErr})
}

func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeInvalidInput, errors.ErrCodeEmptyMessage, errors.ErrCodeUnknownVariant,
		errors.ErrCodeItemNotSelectable, errors.ErrCodeTrackingIDRequired:
		return http.StatusBadRequest
	case errors.ErrCodePaymentInProgress, errors.ErrCodePaymentAlreadyCompleted, errors.ErrCodeDuplicateOrderID:
		return http.StatusConflict
	case errors.ErrCodePaymentCancelled, errors.ErrCodeTrackingCancelled:
		return http.StatusRequestTimeout
	case errors.ErrCodeChatBackendFailed:
		return http.StatusBadGateway
	case errors.ErrCodeChatBackendTimeout:
		return http.StatusGatewayTimeout
	case errors.ErrCodeOrderIDExhausted, errors.ErrCodeOrderStoreClosed,
		errors.ErrCodeBrokerUnavailable, errors.ErrCodeBrokerTimeout:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// decode validates the body against schema before unmarshalling into v.
func decode(r *http.Request, schema *validation.Schema, v interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return errors.NewInvalidInputError("read body: " + err.Error())
	}

	if result := schema.Validate(body); !result.Valid {
		return errors.NewInvalidInputError(result.Summary())
	}

	if err := json.Unmarshal(body, v); err != nil {
		return errors.NewInvalidInputError(err.Error())
	}
	return nil
}
