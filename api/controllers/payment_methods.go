package controllers

import (
	"net/http"

	"github.com/anayakapoor/luxethreads-backend/api/responses"
	"github.com/anayakapoor/luxethreads-backend/internal/payments"
)

func PaymentMethodsList(gateway payments.Gateway) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{"methods": gateway.Methods()})
	}
}
