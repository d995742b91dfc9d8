package freight

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"

	"github.com/lmcorreia/backend-pedidos/internal/common"
)

// Handler exposes the freight rate endpoints.
type Handler struct {
	Service *Service
}

// Regions handles GET /api/v1/freight/regions.
func (h *Handler) Regions(w http.ResponseWriter, r *http.Request) {
	rates, err := h.Service.Regions(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, rates)
}

// Quote handles GET /api/v1/freight/quote?region=X&weightKg=Y&volumeM3=Z.
// Weight and volume are optional; a bare region quotes the base fee.
func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	var load Load
	var err error
	if load.WeightKg, err = parseOptionalDecimal(q.Get("weightKg")); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "weightKg must be a decimal number", nil)
		return
	}
	if load.VolumeM3, err = parseOptionalDecimal(q.Get("volumeM3")); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "volumeM3 must be a decimal number", nil)
		return
	}
	delivery, err := h.Service.Quote(r.Context(), q.Get("region"), load)
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, delivery)
}

// UpsertRate handles PUT /api/v1/freight/regions/{region}.
func (h *Handler) UpsertRate(w http.ResponseWriter, r *http.Request) {
	var payload Rate
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	payload.Region = chi.URLParam(r, "region")
	stored, err := h.Service.UpsertRate(r.Context(), payload)
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, stored)
}

func parseOptionalDecimal(raw string) (decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return decimal.Decimal{}, nil
	}
	return decimal.NewFromString(raw)
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		common.JSONError(w, status, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
