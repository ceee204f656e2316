package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/anayakapoor/luxethreads-backend/api/responses"
	"github.com/anayakapoor/luxethreads-backend/api/validators"
	productsvc "github.com/anayakapoor/luxethreads-backend/internal/products"
	pkgerrors "github.com/anayakapoor/luxethreads-backend/pkg/errors"
	"github.com/anayakapoor/luxethreads-backend/pkg/logger"
	"github.com/anayakapoor/luxethreads-backend/pkg/pagination"
)

func ProductsList(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		input, err := parseProductListInput(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		result, err := svc.List(r.Context(), input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func ProductsGet(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Get(r.Context(), id)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func AdminProductsCreate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload productsvc.CreateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Create(r.Context(), payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, product)
	}
}

func AdminProductsUpdate(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload productsvc.UpdateProductRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		product, err := svc.Update(r.Context(), id, payload)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, product)
	}
}

func AdminProductsDelete(svc productsvc.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := validators.ParsePathUUID(chi.URLParam(r, "id"), "id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if err := svc.Delete(r.Context(), id); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

func parseProductListInput(r *http.Request) (productsvc.ListInput, error) {
	query := r.URL.Query()
	input := productsvc.ListInput{
		Filters: productsvc.ListFilters{
			Query: strings.TrimSpace(query.Get("q")),
		},
		Pagination: pagination.Params{
			Cursor: strings.TrimSpace(query.Get("cursor")),
		},
	}

	limit, err := validators.ParseQueryInt(r, "limit", 0, 1, pagination.MaxLimit)
	if err != nil {
		return productsvc.ListInput{}, err
	}
	input.Pagination.Limit = limit

	if category := strings.TrimSpace(query.Get("category")); category != "" {
		input.Filters.Category = &category
	}
	if raw := strings.TrimSpace(query.Get("in_stock")); raw != "" {
		inStock, parseErr := strconv.ParseBool(raw)
		if parseErr != nil {
			return productsvc.ListInput{}, pkgerrors.New(pkgerrors.CodeValidation, "in_stock must be a boolean").
				WithDetails(map[string]any{"field": "in_stock"})
		}
		input.Filters.InStock = &inStock
	}
	for _, bound := range []struct {
		key  string
		dest **decimal.Decimal
	}{
		{"price_min", &input.Filters.PriceMin},
		{"price_max", &input.Filters.PriceMax},
	} {
		raw := strings.TrimSpace(query.Get(bound.key))
		if raw == "" {
			continue
		}
		value, parseErr := decimal.NewFromString(raw)
		if parseErr != nil {
			return productsvc.ListInput{}, pkgerrors.New(pkgerrors.CodeValidation, "price bound must be numeric").
				WithDetails(map[string]any{"field": bound.key})
		}
		*bound.dest = &value
	}
	return input, nil
}
