package controllers

import (
	"net/http"

	"github.com/anayakapoor/luxethreads-backend/api/middleware"
	"github.com/anayakapoor/luxethreads-backend/api/responses"
	"github.com/anayakapoor/luxethreads-backend/api/validators"
	checkoutsvc "github.com/anayakapoor/luxethreads-backend/internal/checkout"
	"github.com/anayakapoor/luxethreads-backend/pkg/logger"
)

// CheckoutPreview prices the live cart without mutating anything.
func CheckoutPreview(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		preview, err := svc.Preview(r.Context(), middleware.UserIDFromContext(r.Context()))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, preview)
	}
}

// CheckoutExecute converts the cart into an order and attempts payment. A
// declined payment is a 201 with payment details, not an error; the order
// stays open for a retry.
func CheckoutExecute(svc checkoutsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload checkoutsvc.CheckoutRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.Execute(r.Context(), middleware.UserIDFromContext(r.Context()), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, result)
	}
}
