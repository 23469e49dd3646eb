package http

import (
	"encoding/json"
	stdhttp "net/http"

	pnet "tokeisrv/internal/platform/net"
)

// Envelope is the standard JSON body for API endpoints
type Envelope = pnet.Wire

// JSON writes v as application/json with the given status
func JSON(w stdhttp.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// RespondOK writes a 200 envelope with data
func RespondOK(w stdhttp.ResponseWriter, r *stdhttp.Request, data any) {
	status, env := pnet.OK(data, pnet.RequestID(r.Context()))
	JSON(w, status, env)
}

// RespondError maps a project error into an envelope and writes it
func RespondError(w stdhttp.ResponseWriter, r *stdhttp.Request, err error) {
	status, env := pnet.Error(err, pnet.RequestID(r.Context()))
	JSON(w, status, env)
}

//
// Return-style helpers for early returns in handlers
//

// Response is a functional response object for return-style handlers
// Raw bodies bypass the envelope and are written with ContentType as-is
type Response struct {
	Status      int
	Body        any
	Raw         []byte
	ContentType string
	Header      stdhttp.Header
}

// Handle adapts a Response-returning handler to net/http
func Handle(h func(r *stdhttp.Request) Response) stdhttp.HandlerFunc {
	return func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		h(r).write(w, r)
	}
}

func (resp Response) write(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	status := resp.Status
	if status == 0 {
		status = stdhttp.StatusOK
	}
	for k, vv := range resp.Header {
		for _, v := range vv {
			w.Header().Add(k, v)
		}
	}

	switch {
	case status == stdhttp.StatusNoContent || status == stdhttp.StatusNotModified:
		w.WriteHeader(status)
		return
	case resp.ContentType != "":
		w.Header().Set("Content-Type", resp.ContentType)
		w.WriteHeader(status)
		if r.Method != stdhttp.MethodHead {
			_, _ = w.Write(resp.Raw)
		}
		return
	}

	reqID := pnet.RequestID(r.Context())
	if err, ok := resp.Body.(error); ok && err != nil {
		status, env := pnet.Error(err, reqID)
		JSON(w, status, env)
		return
	}
	_, env := pnet.OK(resp.Body, reqID)
	env.StatusCode = status
	env.Status = stdhttp.StatusText(status)
	JSON(w, status, env)
}

// OK returns a 200 enveloped response
func OK(data any) Response { return Response{Status: stdhttp.StatusOK, Body: data} }

// Error returns a response that maps the error to status and envelope
func Error(err error) Response { return Response{Body: err} }

// Bytes returns a raw response with an explicit content type (images, plain JSON documents)
func Bytes(status int, contentType string, body []byte) Response {
	return Response{Status: status, ContentType: contentType, Raw: body}
}

// NotModified returns a 304 with no body
func NotModified() Response { return Response{Status: stdhttp.StatusNotModified} }

// Redirect returns a response carrying a Location header
func Redirect(status int, location string) Response {
	return Response{Status: status, ContentType: "text/plain; charset=utf-8", Header: stdhttp.Header{"Location": {location}}}
}

// WithHeader returns a copy of resp with key set to value
func (resp Response) WithHeader(key, value string) Response {
	h := resp.Header.Clone()
	if h == nil {
		h = stdhttp.Header{}
	}
	h.Set(key, value)
	resp.Header = h
	return resp
}
