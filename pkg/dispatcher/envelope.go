package dispatcher

import (
	"net/http"

	"github.com/morezero/jaxon/pkg/errdefs"
	"github.com/morezero/jaxon/pkg/response"
)

// ErrorDetail holds structured error information.
type ErrorDetail struct {
	Code      string      `json:"code"`
	Message   string      `json:"message"`
	Details   interface{} `json:"details,omitempty"`
	Retryable bool        `json:"retryable"`
}

// ErrorEnvelope is the body returned for a failed request. It keeps the
// shape of a response so the client can read it the same way.
type ErrorEnvelope struct {
	Commands []response.Command `json:"jxnobj"`
	Error    *ErrorDetail       `json:"jxnerr"`
}

// NewErrorEnvelope wraps the detail of err.
func NewErrorEnvelope(err error) *ErrorEnvelope {
	return &ErrorEnvelope{Commands: []response.Command{}, Error: ErrorDetailOf(err)}
}

// ErrorDetailOf maps err to its structured form. Errors that are neither
// request nor upload errors are internal and retryable.
func ErrorDetailOf(err error) *ErrorDetail {
	if re, ok := errdefs.AsRequestError(err); ok {
		return &ErrorDetail{
			Code:      re.Code,
			Message:   re.Message,
			Details:   re.Details,
			Retryable: re.Code == errdefs.CodeInternal,
		}
	}
	if ue, ok := errdefs.AsUploadError(err); ok {
		var details interface{}
		if ue.Field != "" {
			details = map[string]string{"field": ue.Field}
		}
		return &ErrorDetail{Code: errdefs.CodeUploadFailed, Message: ue.Message, Details: details}
	}
	return &ErrorDetail{Code: errdefs.CodeInternal, Message: err.Error(), Retryable: true}
}

// HTTPStatus returns the status code of a failed request.
func (d *ErrorDetail) HTTPStatus() int {
	if d.Code == errdefs.CodeInternal {
		return http.StatusInternalServerError
	}
	return http.StatusBadRequest
}
