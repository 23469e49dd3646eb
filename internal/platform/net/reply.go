package net

import (
	"net/http"

	perr "tokeisrv/internal/platform/errors"
)

// Wire is the JSON envelope of the meta API and of badge failures negotiated as JSON
type Wire struct {
	StatusCode int            `json:"status_code"`
	Status     string         `json:"status"`
	Code       perr.ErrorCode `json:"code,omitempty"`
	Error      string         `json:"error,omitempty"`
	Field      string         `json:"field,omitempty"`
	RequestID  string         `json:"request_id,omitempty"`
	Data       any            `json:"data,omitempty"`
}

func envelope(status int, reqID string) Wire {
	return Wire{StatusCode: status, Status: http.StatusText(status), RequestID: reqID}
}

// OK wraps data in a 200 envelope
func OK(data any, reqID string) (int, Wire) {
	w := envelope(http.StatusOK, reqID)
	w.Data = data
	return w.StatusCode, w
}

// Error maps err onto its status and envelope, nil err is OK with no data
func Error(err error, reqID string) (int, Wire) {
	if err == nil {
		return OK(nil, reqID)
	}
	e := perr.WireFrom(err)
	w := envelope(perr.HTTPStatus(err), reqID)
	w.Code, w.Error, w.Field = e.Code, e.Message, e.Field
	return w.StatusCode, w
}
