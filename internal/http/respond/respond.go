// Package respond writes JSON responses and renders service errors with the
// status code of their failure kind.
package respond

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/SahilSarmalkar99/MumbaiHacks/internal/apperr"
)

const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

type FailedItem struct {
	ProductID uuid.UUID `json:"product_id"`
	Requested int64     `json:"requested"`
	Available int64     `json:"available"`
}

// Failure is the body of every error response.
type Failure struct {
	Status      string       `json:"status"`
	Kind        apperr.Kind  `json:"kind"`
	Reason      string       `json:"reason"`
	FailedItems []FailedItem `json:"failed_items,omitempty"`
}

var statusByKind = map[apperr.Kind]int{
	apperr.KindInvalidRequest:         http.StatusUnprocessableEntity,
	apperr.KindNotFound:               http.StatusNotFound,
	apperr.KindInsufficientStock:      http.StatusConflict,
	apperr.KindNegativeStockRejected:  http.StatusConflict,
	apperr.KindStoreUnavailable:       http.StatusServiceUnavailable,
	apperr.KindWriteConflictExhausted: http.StatusServiceUnavailable,
}

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

// StatusOf returns the HTTP status for err.
func StatusOf(err error) int {
	if status, ok := statusByKind[apperr.KindOf(err)]; ok {
		return status
	}

	return http.StatusInternalServerError
}

// Error renders err. Services return taxonomy errors for everything they
// decide; anything else escaped a store read and is reported as such.
func Error(w http.ResponseWriter, r *http.Request, err error) {
	if errors.Is(err, context.Canceled) {
		slog.Info("request cancelled", "path", r.URL.Path)
		JSON(w, http.StatusServiceUnavailable, Failure{Status: StatusFailed, Kind: apperr.KindStoreUnavailable, Reason: "request cancelled"})

		return
	}

	var e *apperr.Error
	if !errors.As(apperr.FromStore(err), &e) {
		LogError(r, "unhandled error", err)
		JSON(w, http.StatusInternalServerError, Failure{Status: StatusFailed, Kind: "internal", Reason: "internal error"})

		return
	}

	if e.Retryable() {
		slog.Warn("store failure", "path", r.URL.Path, "kind", e.Kind, "error", err)
	}

	JSON(w, StatusOf(e), toFailure(e))
}

func toFailure(e *apperr.Error) Failure {
	f := Failure{Status: StatusFailed, Kind: e.Kind, Reason: e.Message}

	for _, it := range e.FailedItems {
		f.FailedItems = append(f.FailedItems, FailedItem(it))
	}

	return f
}

// BadRequest reports a request that could not be decoded at all.
func BadRequest(w http.ResponseWriter, reason string) {
	JSON(w, http.StatusBadRequest, Failure{Status: StatusFailed, Kind: apperr.KindInvalidRequest, Reason: reason})
}

func Unauthorized(w http.ResponseWriter, reason string) {
	JSON(w, http.StatusUnauthorized, Failure{Status: StatusFailed, Kind: "unauthorized", Reason: reason})
}

// Decode reads a JSON body into v.
func Decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()

	return dec.Decode(v)
}

// LogError records a failure that happened after the response was committed.
func LogError(r *http.Request, msg string, err error) {
	slog.Error(msg, "path", r.URL.Path, "request_id", middleware.GetReqID(r.Context()), "error", err)
}
