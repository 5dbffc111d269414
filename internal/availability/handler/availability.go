package handler

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"

	"healthfirst/internal/availability/search"
	"healthfirst/internal/availability/service"
	apperrors "healthfirst/pkg/errors"
	httputil "healthfirst/pkg/http"
	"healthfirst/pkg/logger"
	"healthfirst/pkg/model"
)

type AvailabilityHandler struct {
	service service.AvailabilityService
	log     *logger.Logger
}

func NewAvailabilityHandler(service service.AvailabilityService, log *logger.Logger) *AvailabilityHandler {
	return &AvailabilityHandler{
		service: service,
		log:     log,
	}
}

func (h *AvailabilityHandler) Create(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	providerID := ps.ByName("providerId")

	var a model.Availability
	if err := json.NewDecoder(r.Body).Decode(&a); err != nil {
		h.writeBadRequest(w, "Create", "Invalid request body")
		return
	}
	a.ProviderID = providerID

	if err := h.service.Create(r.Context(), &a); err != nil {
		h.writeError(w, "Create", err)
		return
	}

	if err := httputil.WriteCreated(w, a); err != nil {
		h.log.Error("failed to write created response", "handler", "Create", "error", err)
	}
}

func (h *AvailabilityHandler) CreateRecurring(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	providerID := ps.ByName("providerId")

	var def model.Availability
	if err := json.NewDecoder(r.Body).Decode(&def); err != nil {
		h.writeBadRequest(w, "CreateRecurring", "Invalid request body")
		return
	}
	def.ProviderID = providerID

	slots, err := h.service.CreateRecurring(r.Context(), &def)
	if err != nil {
		h.writeError(w, "CreateRecurring", err)
		return
	}

	if err := httputil.WriteCreated(w, slots); err != nil {
		h.log.Error("failed to write created response", "handler", "CreateRecurring", "error", err)
	}
}

func (h *AvailabilityHandler) GetByProvider(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	providerID := ps.ByName("providerId")
	query := r.URL.Query()

	slots, err := h.service.GetByProvider(
		r.Context(),
		providerID,
		strings.TrimSpace(query.Get("start_date")),
		strings.TrimSpace(query.Get("end_date")),
		model.AvailabilityStatus(strings.TrimSpace(query.Get("status"))),
	)
	if err != nil {
		h.writeError(w, "GetByProvider", err)
		return
	}

	if err := httputil.WriteSuccess(w, slots); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByProvider", "error", err)
	}
}

func (h *AvailabilityHandler) GetByID(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	resp, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		h.writeError(w, "GetByID", err)
		return
	}

	if err := httputil.WriteSuccess(w, resp); err != nil {
		h.log.Error("failed to write success response", "handler", "GetByID", "error", err)
	}
}

func (h *AvailabilityHandler) Update(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	var updates model.AvailabilityUpdate
	if err := json.NewDecoder(r.Body).Decode(&updates); err != nil {
		h.writeBadRequest(w, "Update", "Invalid request body")
		return
	}

	updated, err := h.service.Update(r.Context(), id, &updates)
	if err != nil {
		h.writeError(w, "Update", err)
		return
	}

	if err := httputil.WriteSuccess(w, updated); err != nil {
		h.log.Error("failed to write success response", "handler", "Update", "error", err)
	}
}

func (h *AvailabilityHandler) Delete(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	if err := h.service.Delete(r.Context(), id); err != nil {
		h.writeError(w, "Delete", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *AvailabilityHandler) DeleteSeries(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	deleted, err := h.service.DeleteSeries(r.Context(), id)
	if err != nil {
		h.writeError(w, "DeleteSeries", err)
		return
	}

	if err := httputil.WriteSuccess(w, map[string]int64{"slots_deleted": deleted}); err != nil {
		h.log.Error("failed to write success response", "handler", "DeleteSeries", "error", err)
	}
}

func (h *AvailabilityHandler) Search(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
	criteria, err := parseSearchCriteria(r)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	limit, offset, err := httputil.ExtractLimitOffset(r)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	results, err := h.service.Search(r.Context(), criteria)
	if err != nil {
		h.writeError(w, "Search", err)
		return
	}

	total := int64(len(results))
	results = paginate(results, limit, offset)

	if err := httputil.WritePaginated(w, results, total, limit, offset); err != nil {
		h.log.Error("failed to write paginated response", "handler", "Search", "error", err)
	}
}

// paginate slices an in-memory result set. Search filtering already happens
// in memory, so there is no second query to push limit and offset into.
func paginate[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return []T{}
	}
	end := offset + limit
	if end > len(items) {
		end = len(items)
	}
	return items[offset:end]
}

func (h *AvailabilityHandler) SearchBySpecialization(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	specialization := ps.ByName("specialization")
	query := r.URL.Query()

	results, err := h.service.SearchBySpecialization(
		r.Context(),
		specialization,
		strings.TrimSpace(query.Get("start_date")),
		strings.TrimSpace(query.Get("end_date")),
	)
	if err != nil {
		h.writeError(w, "SearchBySpecialization", err)
		return
	}

	if err := httputil.WriteSuccess(w, results); err != nil {
		h.log.Error("failed to write success response", "handler", "SearchBySpecialization", "error", err)
	}
}

func (h *AvailabilityHandler) SearchByAppointmentType(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	appointmentType := model.AppointmentType(strings.ToUpper(strings.TrimSpace(ps.ByName("appointmentType"))))
	query := r.URL.Query()

	results, err := h.service.SearchByAppointmentType(
		r.Context(),
		appointmentType,
		strings.TrimSpace(query.Get("start_date")),
		strings.TrimSpace(query.Get("end_date")),
	)
	if err != nil {
		h.writeError(w, "SearchByAppointmentType", err)
		return
	}

	if err := httputil.WriteSuccess(w, results); err != nil {
		h.log.Error("failed to write success response", "handler", "SearchByAppointmentType", "error", err)
	}
}

func (h *AvailabilityHandler) RegisterAppointment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	if err := h.service.RegisterAppointment(r.Context(), id); err != nil {
		h.writeError(w, "RegisterAppointment", err)
		return
	}

	httputil.WriteNoContent(w)
}

func (h *AvailabilityHandler) ReleaseAppointment(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
	id := ps.ByName("id")

	if err := h.service.ReleaseAppointment(r.Context(), id); err != nil {
		h.writeError(w, "ReleaseAppointment", err)
		return
	}

	httputil.WriteNoContent(w)
}

func parseSearchCriteria(r *http.Request) (*search.Criteria, error) {
	query := r.URL.Query()

	criteria := &search.Criteria{
		StartDate:       strings.TrimSpace(query.Get("start_date")),
		EndDate:         strings.TrimSpace(query.Get("end_date")),
		Specialization:  strings.TrimSpace(query.Get("specialization")),
		AppointmentType: model.AppointmentType(strings.ToUpper(strings.TrimSpace(query.Get("appointment_type")))),
		City:            strings.TrimSpace(query.Get("city")),
		State:           strings.TrimSpace(query.Get("state")),
		ZipCode:         strings.TrimSpace(query.Get("zip_code")),
	}

	if raw := strings.TrimSpace(query.Get("max_fee")); raw != "" {
		fee, err := strconv.ParseFloat(raw, 64)
		if err != nil || fee < 0 {
			return nil, apperrors.InvalidInput("max_fee must be a non-negative number")
		}
		criteria.MaxFee = &fee
	}

	if raw := strings.TrimSpace(query.Get("insurance_accepted")); raw != "" {
		accepted, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, apperrors.InvalidInput("insurance_accepted must be a boolean")
		}
		criteria.InsuranceAccepted = &accepted
	}

	return criteria, nil
}

func (h *AvailabilityHandler) writeBadRequest(w http.ResponseWriter, handlerName, message string) {
	if err := httputil.WriteJSON(w, http.StatusBadRequest, httputil.ErrorResponse{
		Error: message,
	}); err != nil {
		h.log.Error("failed to write bad request response", "handler", handlerName, "error", err)
	}
}

func (h *AvailabilityHandler) writeError(w http.ResponseWriter, handlerName string, err error) {
	if writeErr := httputil.WriteError(w, err); writeErr != nil {
		h.log.Error("failed to write error response", "handler", handlerName, "error", writeErr)
	}
}

func (h *AvailabilityHandler) RegisterRoutes(router *httprouter.Router) {
	router.POST("/api/v1/provider/:providerId/availability", h.Create)
	router.POST("/api/v1/provider/:providerId/availability/recurring", h.CreateRecurring)
	router.GET("/api/v1/provider/:providerId/availability", h.GetByProvider)

	router.GET("/api/v1/availability/id/:id", h.GetByID)
	router.PUT("/api/v1/availability/id/:id", h.Update)
	router.DELETE("/api/v1/availability/id/:id", h.Delete)
	router.DELETE("/api/v1/availability/id/:id/recurring", h.DeleteSeries)

	router.POST("/api/v1/availability/id/:id/appointments", h.RegisterAppointment)
	router.DELETE("/api/v1/availability/id/:id/appointments", h.ReleaseAppointment)

	router.GET("/api/v1/availability/search", h.Search)
	router.GET("/api/v1/availability/search/specialization/:specialization", h.SearchBySpecialization)
	router.GET("/api/v1/availability/search/type/:appointmentType", h.SearchByAppointmentType)
}
