package controller

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/Uz11ps/bototelgara/cart"
	"github.com/Uz11ps/bototelgara/composition"
	"github.com/Uz11ps/bototelgara/order"
	"github.com/Uz11ps/bototelgara/repository"
	"github.com/Uz11ps/bototelgara/service"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// writeServiceError maps service errors to HTTP status codes
func writeServiceError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), err.Error())
}

func statusFor(err error) int {
	var submitErr *service.SubmitError
	var serverErr *service.ServerError

	switch {
	case errors.Is(err, order.ErrEmptyCart),
		errors.Is(err, order.ErrRoomRequired),
		errors.Is(err, cart.ErrDeltaOutOfRange),
		errors.Is(err, composition.ErrEmptyName),
		errors.Is(err, service.ErrItemNameRequired),
		errors.Is(err, service.ErrItemPriceRequired):
		return http.StatusBadRequest
	case errors.Is(err, order.ErrSubmitInFlight):
		return http.StatusConflict
	case errors.Is(err, repository.ErrSessionNotFound),
		errors.Is(err, service.ErrMenuItemNotFound),
		errors.Is(err, service.ErrDraftNotFound),
		errors.Is(err, service.ErrImageNotFound):
		return http.StatusNotFound
	case errors.As(err, &submitErr), errors.As(err, &serverErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("Invalid request body: %v", err)
	}
	return nil
}

func pathInt(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return n, nil
}
