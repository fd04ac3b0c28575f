package web

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/seumarket/campus-market/internal/fault"
)

// UserID resolves the authenticated user from the X-User-ID header set by the
// auth gateway in front of this service. Zero means unauthenticated.
func UserID(r *http.Request) int64 {
	id, err := strconv.ParseInt(r.Header.Get("X-User-ID"), 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

func JSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

type errorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// Error maps a failure kind onto an HTTP status and a stable error body.
// Store failures stay generic on the wire.
func Error(w http.ResponseWriter, err error) {
	kind := fault.KindOf(err)
	status := http.StatusInternalServerError
	message := "internal error"

	switch kind {
	case fault.KindValidation:
		status, message = http.StatusBadRequest, fault.MessageOf(err)
	case fault.KindNotFound:
		status, message = http.StatusNotFound, fault.MessageOf(err)
	case fault.KindPermissionDenied:
		status, message = http.StatusForbidden, fault.MessageOf(err)
	case fault.KindInsufficientStock, fault.KindInvalidTransition, fault.KindSelfPurchase:
		status, message = http.StatusConflict, fault.MessageOf(err)
	case fault.KindLockTimeout:
		status, message = http.StatusServiceUnavailable, fault.MessageOf(err)
	case fault.KindStoreFailure:
		message = fault.MessageOf(err)
	}
	JSON(w, status, errorBody{Error: string(kind), Message: message})
}
