package handler

import (
	"encoding/json"
	"net/http"

	"pensio/internal/editlocks/service"
	apperrors "pensio/pkg/errors"
	httputil "pensio/pkg/http"
	"pensio/pkg/logger"

	"github.com/julienschmidt/httprouter"
)

type LockHandler struct {
	service service.LockService
	log     *logger.Logger
}

func NewLockHandler(service service.LockService, log *logger.Logger) *LockHandler {
	return &LockHandler{
		service: service,
		log:     log,
	}
}

type lockRequest struct {
	Holder string `json:"holder"`
}

func (h *LockHandler) Acquire(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	reservationID := ps.ByName("id")

	var req lockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Acquire", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	lock, err := h.service.Acquire(r.Context(), reservationID, req.Holder)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Acquire", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteCreated(w, lock); err != nil {
		h.log.Error("failed to write created response", "handler", "Acquire", "operation", "WriteCreated", "error", err)
	}
}

func (h *LockHandler) Heartbeat(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	reservationID := ps.ByName("id")

	var req lockRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		if writeErr := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
			Error: "Invalid request body",
		}); writeErr != nil {
			h.log.Error("failed to write JSON response", "handler", "Heartbeat", "operation", "WriteJSON", "error", writeErr)
		}
		return
	}

	lock, err := h.service.Heartbeat(r.Context(), reservationID, req.Holder)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Heartbeat", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, lock); err != nil {
		h.log.Error("failed to write success response", "handler", "Heartbeat", "operation", "WriteSuccess", "error", err)
	}
}

func (h *LockHandler) Release(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	reservationID := ps.ByName("id")
	holder := r.URL.Query().Get("holder")
	if holder == "" {
		if writeErr := httputil.WriteError(w, apperrors.InvalidInput("holder query parameter is required")); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Release", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := h.service.Release(r.Context(), reservationID, holder); err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Release", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	httputil.WriteNoContent(w)
}

func (h *LockHandler) Get(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	reservationID := ps.ByName("id")

	lock, err := h.service.Get(r.Context(), reservationID)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "Get", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, lock); err != nil {
		h.log.Error("failed to write success response", "handler", "Get", "operation", "WriteSuccess", "error", err)
	}
}

func (h *LockHandler) ListAll(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	locks, err := h.service.ListAll(r.Context())
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ListAll", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, locks); err != nil {
		h.log.Error("failed to write success response", "handler", "ListAll", "operation", "WriteSuccess", "error", err)
	}
}

func (h *LockHandler) ReleaseAllForHolder(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	holder := ps.ByName("holder")

	count, err := h.service.ReleaseAllForHolder(r.Context(), holder)
	if err != nil {
		if writeErr := httputil.WriteError(w, err); writeErr != nil {
			h.log.Error("failed to write error response", "handler", "ReleaseAllForHolder", "operation", "WriteError", "error", writeErr)
		}
		return
	}

	if err := httputil.WriteSuccess(w, map[string]int64{"released": count}); err != nil {
		h.log.Error("failed to write success response", "handler", "ReleaseAllForHolder", "operation", "WriteSuccess", "error", err)
	}
}

func (h *LockHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/reservations/:id/lock", h.Acquire)
	router.GET("/reservations/:id/lock", h.Get)
	router.PUT("/reservations/:id/lock/heartbeat", h.Heartbeat)
	router.DELETE("/reservations/:id/lock", h.Release)
	router.GET("/locks", h.ListAll)
	router.DELETE("/locks/:holder", h.ReleaseAllForHolder)
}
