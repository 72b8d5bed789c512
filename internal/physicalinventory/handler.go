package physicalinventory

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/odyssey-erp/stockmanagement/internal/permission"
	"github.com/odyssey-erp/stockmanagement/internal/platform/httpx"
)

// maxBodyBytes bounds a submission document.
const maxBodyBytes = 1 << 20

// Handler wires HTTP endpoints for physical inventory submissions.
type Handler struct {
	logger  *slog.Logger
	service *Service
}

// NewHandler constructs physical inventory handler.
func NewHandler(logger *slog.Logger, service *Service) *Handler {
	return &Handler{logger: logger, service: service}
}

// MountRoutes registers physical inventory routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/", h.handleSubmit)
	r.Post("/events", h.handlePreview)
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.decode(w, r)
	if !ok {
		return
	}
	result, err := h.service.Submit(r.Context(), inv)
	if err != nil {
		h.fail(w, "submit physical inventory", err)
		return
	}
	httpx.JSON(w, http.StatusCreated, result)
}

func (h *Handler) handlePreview(w http.ResponseWriter, r *http.Request) {
	inv, ok := h.decode(w, r)
	if !ok {
		return
	}
	events, err := h.service.Preview(r.Context(), inv)
	if err != nil {
		h.fail(w, "preview physical inventory", err)
		return
	}
	httpx.JSON(w, http.StatusOK, events)
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (PhysicalInventory, bool) {
	var inv PhysicalInventory
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := httpx.DecodeJSON(r, &inv); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			httpx.Problem(w, http.StatusRequestEntityTooLarge, "Request Entity Too Large",
				fmt.Sprintf("document exceeds %d bytes", tooLarge.Limit))
			return PhysicalInventory{}, false
		}
		httpx.RespondError(w, fmt.Errorf("%w: %v", ErrInvalidInput, err))
		return PhysicalInventory{}, false
	}
	return inv, true
}

func (h *Handler) fail(w http.ResponseWriter, action string, err error) {
	if h.logger != nil {
		if _, denied := permission.KindOf(err); !denied {
			h.logger.Error(action, slog.Any("error", err))
		}
	}
	httpx.RespondError(w, err)
}
