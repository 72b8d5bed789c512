package permission

import (
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/odyssey-erp/stockmanagement/internal/platform/httpx"
)

// Handler exposes permission probes so clients can ask before acting.
type Handler struct {
	logger  *slog.Logger
	checker *Checker
}

// NewHandler constructs the permission probe handler.
func NewHandler(logger *slog.Logger, checker *Checker) *Handler {
	return &Handler{logger: logger, checker: checker}
}

// MountRoutes registers permission routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Get("/", h.listOperations)
	r.Get("/{operation}", h.probe)
}

type operationView struct {
	Name  string `json:"name"`
	Right Right  `json:"right"`
	Scope string `json:"scope"`
}

func (h *Handler) listOperations(w http.ResponseWriter, r *http.Request) {
	ops := Operations()
	out := make([]operationView, 0, len(ops))
	for _, op := range ops {
		out = append(out, operationView{Name: op.Name, Right: op.Right, Scope: op.Scope.String()})
	}
	httpx.JSON(w, http.StatusOK, out)
}

func (h *Handler) probe(w http.ResponseWriter, r *http.Request) {
	op, ok := LookupOperation(chi.URLParam(r, "operation"))
	if !ok {
		httpx.RespondError(w, fmt.Errorf("permission: unknown operation: %w", httpx.ErrNotFound))
		return
	}
	scope, err := parseScope(r)
	if err != nil {
		httpx.RespondError(w, err)
		return
	}
	if err := h.checker.Require(r.Context(), op, scope); err != nil {
		if _, isPermission := KindOf(err); !isPermission && h.logger != nil {
			h.logger.Error("permission probe", slog.String("operation", op.Name), slog.Any("error", err))
		}
		httpx.RespondError(w, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"operation": op.Name, "permitted": true})
}

func parseScope(r *http.Request) (Scope, error) {
	q := r.URL.Query()
	var scope Scope
	for _, field := range []struct {
		param string
		dst   *uuid.NullUUID
	}{
		{"programId", &scope.ProgramID},
		{"facilityId", &scope.FacilityID},
		{"warehouseId", &scope.WarehouseID},
		{"facilityTypeId", &scope.FacilityTypeID},
	} {
		raw := strings.TrimSpace(q.Get(field.param))
		if raw == "" {
			continue
		}
		id, err := uuid.Parse(raw)
		if err != nil {
			return Scope{}, fmt.Errorf("permission: invalid %s: %w", field.param, httpx.ErrValidation)
		}
		*field.dst = ID(id)
	}
	return scope, nil
}
