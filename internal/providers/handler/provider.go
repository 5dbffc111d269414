package handler

import (
	"net/http"

	"github.com/julienschmidt/httprouter"

	"healthfirst/internal/providers/service"
	httputil "healthfirst/pkg/http"
	"healthfirst/pkg/logger"
)

type ProviderHandler struct {
	service service.ProviderService
	log     *logger.Logger
}

func NewProviderHandler(service service.ProviderService, log *logger.Logger) *ProviderHandler {
	return &ProviderHandler{
		service: service,
		log:     log,
	}
}

func (h *ProviderHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	provider, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, provider); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *ProviderHandler) GetByUserID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	userID := ps.ByName("userId")

	provider, err := h.service.GetByUserID(r.Context(), userID)
	if err != nil {
		h.writeError(w, "GetByUserID", err)
		return
	}

	if err := httputil.WriteSuccess(w, provider); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByUserID", "error", err)
	}
}

func (h *ProviderHandler) GetBySpecialization(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	specialization := ps.ByName("specialization")

	providers, err := h.service.GetBySpecialization(r.Context(), specialization)
	if err != nil {
		h.writeError(w, "GetBySpecialization", err)
		return
	}

	if err := httputil.WriteSuccess(w, providers); err != nil {
		h.log.Error("failed to write success response", "handler", "GetBySpecialization", "error", err)
	}
}

func (h *ProviderHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}

func (h *ProviderHandler) RegisterRoutes(router *httprouter.Router) {
	router.GET("/api/v1/providers/id/:id", h.GetByID)
	router.GET("/api/v1/providers/user/:userId", h.GetByUserID)
	router.GET("/api/v1/providers/specialization/:specialization", h.GetBySpecialization)
}
