package document

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/lmcorreia/backend-pedidos/internal/common"
)

// Handler exposes the printable document endpoint.
type Handler struct {
	Service *Service
}

// Documents handles GET /api/v1/orders/{orderId}/documents. Drafts are
// rebuilt on every request; frozen orders serve the archived snapshot when
// the worker has produced one.
func (h *Handler) Documents(w http.ResponseWriter, r *http.Request) {
	p, err := h.Service.Get(r.Context(), chi.URLParam(r, "orderId"))
	if err != nil {
		writeError(w, err)
		return
	}
	common.Data(w, http.StatusOK, p)
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
