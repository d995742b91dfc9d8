package order

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	validator "github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"

	"github.com/lmcorreia/backend-pedidos/internal/common"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Handler exposes the order endpoints.
type Handler struct {
	Service *Service
}

// Create handles POST /api/v1/orders.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var payload struct {
		CustomerID string `json:"customerId" validate:"required,uuid4"`
	}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	if err := validate.Struct(payload); err != nil {
		common.JSONError(w, http.StatusUnprocessableEntity, "VALIDATION", "customerId must be a UUID", nil)
		return
	}
	o, err := h.Service.Create(r.Context(), payload.CustomerID)
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusCreated, o)
}

// List handles GET /api/v1/orders.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, perPage := common.ParsePagination(r, 20)
	if perPage > 100 {
		perPage = 100
	}
	orders, total, err := h.Service.List(r.Context(), r.URL.Query().Get("customerId"), Status(r.URL.Query().Get("status")), page, perPage)
	if err != nil {
		writeError(w, err)
		return
	}
	w.Header().Set("X-Total-Count", strconv.FormatInt(total, 10))
	common.JSON(w, http.StatusOK, map[string]any{
		"data":       orders,
		"pagination": common.Pagination{Page: page, PerPage: perPage, TotalItems: int(total)},
	})
}

// Get handles GET /api/v1/orders/{orderId}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	o, err := h.Service.Get(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, o)
}

type linePayload struct {
	ProductID       string  `json:"productId" validate:"required,uuid4"`
	Quantity        int64   `json:"quantity"`
	DiscountPercent *string `json:"discountPercent"`
}

func (p linePayload) toInput() (LineInput, error) {
	if err := validate.Struct(p); err != nil {
		return LineInput{}, common.Validation("productId must be a UUID", nil)
	}
	in := LineInput{ProductID: p.ProductID, Quantity: p.Quantity}
	if p.DiscountPercent != nil {
		d, err := decimal.NewFromString(*p.DiscountPercent)
		if err != nil {
			return LineInput{}, common.Validation("discountPercent must be a decimal number", nil)
		}
		in.DiscountPercent = &d
	}
	return in, nil
}

// AddLine handles POST /api/v1/orders/{orderId}/lines.
func (h *Handler) AddLine(w http.ResponseWriter, r *http.Request) {
	var payload linePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	in, err := payload.toInput()
	if err != nil {
		writeError(w, err)
		return
	}
	o, err := h.Service.AddLine(r.Context(), chi.URLParam(r, "orderId"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, o)
}

// UpdateLine handles PATCH /api/v1/orders/{orderId}/lines/{lineId}.
func (h *Handler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	var payload linePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	in, err := payload.toInput()
	if err != nil {
		writeError(w, err)
		return
	}
	o, err := h.Service.UpdateLine(r.Context(), chi.URLParam(r, "orderId"), chi.URLParam(r, "lineId"), in)
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, o)
}

// RemoveLine handles DELETE /api/v1/orders/{orderId}/lines/{lineId}.
func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	o, err := h.Service.RemoveLine(r.Context(), chi.URLParam(r, "orderId"), chi.URLParam(r, "lineId"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, o)
}

// SetOptions handles PUT /api/v1/orders/{orderId}/options.
func (h *Handler) SetOptions(w http.ResponseWriter, r *http.Request) {
	var opts Options
	if err := json.NewDecoder(r.Body).Decode(&opts); err != nil {
		common.JSONError(w, http.StatusBadRequest, "BAD_REQUEST", "invalid JSON body", nil)
		return
	}
	o, err := h.Service.SetOptions(r.Context(), chi.URLParam(r, "orderId"), opts)
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, o)
}

// Submit handles POST /api/v1/orders/{orderId}/submit.
func (h *Handler) Submit(w http.ResponseWriter, r *http.Request) {
	o, err := h.Service.Submit(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, o)
}

// Cancel handles POST /api/v1/orders/{orderId}/cancel.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	o, err := h.Service.Cancel(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, o)
}

func writeError(w http.ResponseWriter, err error) {
	var appErr *common.AppError
	if errors.As(err, &appErr) {
		status := appErr.HTTPStatus
		if status == 0 {
			status = http.StatusInternalServerError
		}
		code := appErr.Code
		if code == "" {
			code = "INTERNAL"
		}
		common.JSONError(w, status, code, appErr.Message, appErr.Details)
		return
	}
	common.JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
