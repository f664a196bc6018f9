package core

import (
	"context"
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

func RequestBody[TRequest any](r *http.Request) (TRequest, error) {
	var request TRequest
	err := json.NewDecoder(r.Body).Decode(&request)
	return request, err
}

// Envelope is the shape of every response body: {message?, data, meta?}.
type Envelope struct {
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Meta    interface{} `json:"meta,omitempty"`
}

// Meta is the pagination block for list responses.
type Meta struct {
	Page        int `json:"page"`
	Limit       int `json:"limit"`
	Total       int `json:"total"`
	UnreadCount int `json:"unreadCount"`
}

type ResponseOption func(http.ResponseWriter, *http.Request)

func WithHeader(header, value string) ResponseOption {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Add(header, value)
	}
}

func WriteOK(w http.ResponseWriter, r *http.Request, body interface{}) {
	WriteResponse(w, r, http.StatusOK, body)
}

func WriteCreated(w http.ResponseWriter, r *http.Request, location string, body interface{}) {
	WriteResponse(w, r, http.StatusCreated, body, WithHeader("Location", location))
}

func WriteBadRequest(w http.ResponseWriter, r *http.Request, err error) {
	WriteResponse(w, r, http.StatusBadRequest, Envelope{Message: err.Error()})
}

func WriteUnauthorized(w http.ResponseWriter, r *http.Request) {
	WriteResponse(w, r, http.StatusUnauthorized, Envelope{Message: "unauthorized"})
}

func WriteInternalServerError(w http.ResponseWriter, r *http.Request) {
	WriteResponse(w, r, http.StatusInternalServerError, Envelope{Message: "internal server error"})
}

func WriteCommandError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode := http.StatusInternalServerError
	message := "internal server error"

	if commandErr, ok := err.(CommandError); ok {
		statusCode = commandErr.StatusCode
		message = commandErr.Message()
	}

	WriteResponse(w, r, statusCode, Envelope{Message: message})
}

// WriteResponse wraps the body into the response envelope unless the caller
// already provided one.
func WriteResponse(
	w http.ResponseWriter,
	r *http.Request,
	statusCode int,
	body interface{},
	opts ...ResponseOption,
) {
	for _, opt := range opts {
		opt(w, r)
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	writeBodyIfPresent(r.Context(), w, body)
}

func writeBodyIfPresent(ctx context.Context, w http.ResponseWriter, body interface{}) {
	if body == nil {
		return
	}

	envelope, ok := body.(Envelope)
	if !ok {
		envelope = Envelope{Data: body}
	}

	responseBytes, err := json.Marshal(envelope)
	if err != nil {
		LogError(ctx, "failed to serialize response body", zap.Error(err))
		return
	}

	if _, err := w.Write(responseBytes); err != nil {
		LogError(ctx, "failed to write response", zap.Error(err))
	}
}
