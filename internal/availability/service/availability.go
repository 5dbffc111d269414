package service

import (
	"context"
	"errors"
	"time"

	availerrors "healthfirst/internal/availability/errors"
	"healthfirst/internal/availability/events"
	"healthfirst/internal/availability/recurrence"
	"healthfirst/internal/availability/repository"
	"healthfirst/internal/availability/search"
	"healthfirst/internal/availability/validator"
	providersvc "healthfirst/internal/providers/service"
	"healthfirst/pkg/config"
	apperrors "healthfirst/pkg/errors"
	"healthfirst/pkg/model"
	"healthfirst/pkg/sanitizer"

	"go.mongodb.org/mongo-driver/mongo"
)

type AvailabilityService interface {
	Create(ctx context.Context, a *model.Availability) error
	CreateRecurring(ctx context.Context, def *model.Availability) ([]*model.Availability, error)
	GetByID(ctx context.Context, id string) (*model.AvailabilityResponse, error)
	GetByProvider(ctx context.Context, providerID, startDate, endDate string, status model.AvailabilityStatus) ([]*model.Availability, error)
	Update(ctx context.Context, id string, updates *model.AvailabilityUpdate) (*model.Availability, error)
	Delete(ctx context.Context, id string) error
	DeleteSeries(ctx context.Context, id string) (int64, error)
	Search(ctx context.Context, criteria *search.Criteria) ([]*model.AvailabilityResponse, error)
	SearchBySpecialization(ctx context.Context, specialization, startDate, endDate string) ([]*model.AvailabilityResponse, error)
	SearchByAppointmentType(ctx context.Context, appointmentType model.AppointmentType, startDate, endDate string) ([]*model.AvailabilityResponse, error)
	RegisterAppointment(ctx context.Context, id string) error
	ReleaseAppointment(ctx context.Context, id string) error
}

type availabilityService struct {
	repo      repository.AvailabilityRepository
	providers providersvc.ProviderService
	validator *validator.AvailabilityValidator
	publisher events.Publisher
	cfg       *config.Config
}

func NewAvailabilityService(
	repo repository.AvailabilityRepository,
	providers providersvc.ProviderService,
	validator *validator.AvailabilityValidator,
	publisher events.Publisher,
	cfg *config.Config,
) AvailabilityService {
	return &availabilityService{
		repo:      repo,
		providers: providers,
		validator: validator,
		publisher: publisher,
		cfg:       cfg,
	}
}

func (s *availabilityService) Create(ctx context.Context, a *model.Availability) error {
	s.sanitize(a)
	s.applyDefaults(a)
	// New slots always open as AVAILABLE with zero appointments, whatever
	// the request carried; bookings come later through the capacity guard.
	a.Status = model.StatusAvailable
	a.CurrentAppointments = 0

	if err := s.validator.Validate(a); err != nil {
		s.cfg.Log.Warn("Availability validation failed",
			"provider_id", a.ProviderID,
			"date", a.Date,
			"error", err,
		)
		return apperrors.Validation("Availability validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if _, err := s.providers.GetByID(ctx, a.ProviderID); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, a); err != nil {
		s.cfg.Log.Error("Failed to create availability",
			"provider_id", a.ProviderID,
			"date", a.Date,
			"error", err,
		)
		return apperrors.Internal("Failed to create availability", err)
	}

	s.publishSlotEvent(ctx, events.TypeCreated, a)

	s.cfg.Log.Info("Availability created successfully",
		"id", a.ID,
		"provider_id", a.ProviderID,
		"date", a.Date,
		"start_time", a.StartTime,
	)
	return nil
}

func (s *availabilityService) CreateRecurring(ctx context.Context, def *model.Availability) ([]*model.Availability, error) {
	s.sanitize(def)
	s.applyDefaults(def)
	def.IsRecurring = true

	if err := s.validator.ValidateRecurring(def); err != nil {
		s.cfg.Log.Warn("Recurring availability validation failed",
			"provider_id", def.ProviderID,
			"date", def.Date,
			"recurrence_pattern", def.RecurrencePattern,
			"error", err,
		)
		return nil, apperrors.Validation("Availability validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if _, err := s.providers.GetByID(ctx, def.ProviderID); err != nil {
		return nil, err
	}

	slots, err := recurrence.Expand(def)
	if err != nil {
		return nil, apperrors.InvalidInput(err.Error())
	}

	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		return s.repo.CreateAll(sessCtx, slots)
	})
	if err != nil {
		s.cfg.Log.Error("Failed to create recurring availability",
			"provider_id", def.ProviderID,
			"date", def.Date,
			"occurrences", len(slots),
			"error", err,
		)
		return nil, apperrors.Internal("Failed to create recurring availability", err)
	}

	if pubErr := s.publisher.PublishSeriesEvent(ctx, events.TypeSeriesCreated, slots[0], len(slots)); pubErr != nil {
		s.cfg.Log.Warn("Failed to publish series created event",
			"provider_id", def.ProviderID,
			"error", pubErr,
		)
	}

	s.cfg.Log.Info("Recurring availability created successfully",
		"provider_id", def.ProviderID,
		"recurrence_pattern", def.RecurrencePattern,
		"first_date", slots[0].Date,
		"occurrences", len(slots),
	)
	return slots, nil
}

func (s *availabilityService) GetByID(ctx context.Context, id string) (*model.AvailabilityResponse, error) {
	slot, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return model.NewAvailabilityResponse(slot, s.resolveProvider(ctx, slot.ProviderID)), nil
}

func (s *availabilityService) GetByProvider(ctx context.Context, providerID, startDate, endDate string, status model.AvailabilityStatus) ([]*model.Availability, error) {
	if providerID == "" {
		return nil, apperrors.InvalidInput("Provider ID cannot be empty")
	}
	if status != "" && !status.Valid() {
		return nil, apperrors.InvalidInput("Invalid availability status")
	}

	hasRange := startDate != "" || endDate != ""
	if hasRange {
		if err := validateDateRange(startDate, endDate); err != nil {
			return nil, err
		}
	}

	var slots []*model.Availability
	var err error
	switch {
	case hasRange:
		slots, err = s.repo.FindByProviderAndDateRange(ctx, providerID, startDate, endDate)
	case status != "":
		slots, err = s.repo.FindByProviderAndStatus(ctx, providerID, status)
	default:
		slots, err = s.repo.FindByProvider(ctx, providerID)
	}
	if err != nil {
		s.cfg.Log.Error("Failed to get provider availability",
			"provider_id", providerID,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve availability", err)
	}

	// A range query combined with a status narrows in memory; both filters
	// at once are rare enough not to warrant another index.
	if hasRange && status != "" {
		filtered := slots[:0]
		for _, slot := range slots {
			if slot.Status == status {
				filtered = append(filtered, slot)
			}
		}
		slots = filtered
	}

	return slots, nil
}

func (s *availabilityService) Update(ctx context.Context, id string, updates *model.AvailabilityUpdate) (*model.Availability, error) {
	existing, err := s.findByID(ctx, id)
	if err != nil {
		return nil, err
	}

	merged := s.mergeUpdates(existing, updates)
	s.sanitize(merged)

	if err := s.validator.Validate(merged); err != nil {
		s.cfg.Log.Warn("Availability validation failed",
			"id", id,
			"provider_id", merged.ProviderID,
			"error", err,
		)
		return nil, apperrors.Validation("Availability validation failed", map[string]any{
			"error": err.Error(),
		})
	}

	if err := s.repo.Update(ctx, id, merged); err != nil {
		if errors.Is(err, availerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Availability", id)
		}
		s.cfg.Log.Error("Failed to update availability",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to update availability", err)
	}

	s.publishSlotEvent(ctx, events.TypeUpdated, merged)

	s.cfg.Log.Info("Availability updated successfully", "id", id, "provider_id", merged.ProviderID)
	return merged, nil
}

func (s *availabilityService) Delete(ctx context.Context, id string) error {
	slot, err := s.findByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if errors.Is(err, availerrors.ErrNotFound) {
			return apperrors.NotFoundWithID("Availability", id)
		}
		s.cfg.Log.Error("Failed to delete availability",
			"id", id,
			"error", err,
		)
		return apperrors.Internal("Failed to delete availability", err)
	}

	s.publishSlotEvent(ctx, events.TypeDeleted, slot)

	s.cfg.Log.Info("Availability deleted successfully", "id", id, "provider_id", slot.ProviderID)
	return nil
}

// DeleteSeries removes the identified slot and all later occurrences that
// share its provider, recurrence pattern and time window. Returns the number
// of slots removed.
func (s *availabilityService) DeleteSeries(ctx context.Context, id string) (int64, error) {
	anchor, err := s.findByID(ctx, id)
	if err != nil {
		return 0, err
	}

	// An empty pattern would otherwise match one-off slots in the series
	// filter, so it is rejected together with non-recurring anchors.
	if !anchor.IsRecurring || anchor.RecurrencePattern == "" {
		return 0, apperrors.InvalidInput("Availability is not part of a recurring series")
	}

	var deleted int64
	err = s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		deleted, err = s.repo.DeleteSeries(sessCtx, anchor)
		return err
	})
	if err != nil {
		s.cfg.Log.Error("Failed to delete availability series",
			"id", id,
			"provider_id", anchor.ProviderID,
			"error", err,
		)
		return 0, apperrors.Internal("Failed to delete availability series", err)
	}

	if pubErr := s.publisher.PublishSeriesEvent(ctx, events.TypeSeriesDeleted, anchor, int(deleted)); pubErr != nil {
		s.cfg.Log.Warn("Failed to publish series deleted event",
			"id", id,
			"error", pubErr,
		)
	}

	s.cfg.Log.Info("Availability series deleted successfully",
		"id", id,
		"provider_id", anchor.ProviderID,
		"slots_deleted", deleted,
	)
	return deleted, nil
}

func (s *availabilityService) Search(ctx context.Context, criteria *search.Criteria) ([]*model.AvailabilityResponse, error) {
	if criteria == nil {
		return nil, apperrors.InvalidInput("Search criteria are required")
	}
	if err := validateDateRange(criteria.StartDate, criteria.EndDate); err != nil {
		return nil, err
	}
	if criteria.AppointmentType != "" && !criteria.AppointmentType.Valid() {
		return nil, apperrors.InvalidInput("Invalid appointment type")
	}

	slots, err := s.repo.FindAll(ctx)
	if err != nil {
		s.cfg.Log.Error("Failed to load availability for search", "error", err)
		return nil, apperrors.Internal("Failed to search availability", err)
	}

	// Providers are resolved once per provider, not once per slot. Failed
	// lookups leave the provider fields empty rather than failing the search.
	providerCache := make(map[string]*model.Provider)
	specializations := make(map[string]string)
	for _, slot := range slots {
		if _, seen := providerCache[slot.ProviderID]; seen {
			continue
		}
		p := s.resolveProvider(ctx, slot.ProviderID)
		providerCache[slot.ProviderID] = p
		if p != nil {
			specializations[slot.ProviderID] = p.Specialization
		}
	}

	matched := criteria.Apply(slots, specializations)

	responses := make([]*model.AvailabilityResponse, 0, len(matched))
	for _, slot := range matched {
		responses = append(responses, model.NewAvailabilityResponse(slot, providerCache[slot.ProviderID]))
	}

	s.cfg.Log.Debug("Availability search completed",
		"candidates", len(slots),
		"results_count", len(responses),
	)
	return responses, nil
}

// validateDateRange requires both bounds in YYYY-MM-DD with start not after
// end. Callers treat an all-empty pair as "no range" before calling this.
func validateDateRange(startDate, endDate string) error {
	if startDate == "" || endDate == "" {
		return apperrors.InvalidInput("Both start_date and end_date must be provided for a date range")
	}
	if _, err := time.Parse(model.DateLayout, startDate); err != nil {
		return apperrors.InvalidInput("start_date must match format YYYY-MM-DD")
	}
	if _, err := time.Parse(model.DateLayout, endDate); err != nil {
		return apperrors.InvalidInput("end_date must match format YYYY-MM-DD")
	}
	if endDate < startDate {
		return apperrors.InvalidInput("end_date cannot be before start_date")
	}
	return nil
}

// SearchBySpecialization resolves matching providers first, then pulls each
// provider's open slots. Unlike the generic search this never scans the whole
// collection.
func (s *availabilityService) SearchBySpecialization(ctx context.Context, specialization, startDate, endDate string) ([]*model.AvailabilityResponse, error) {
	hasRange := startDate != "" || endDate != ""
	if hasRange {
		if err := validateDateRange(startDate, endDate); err != nil {
			return nil, err
		}
	}

	providers, err := s.providers.GetBySpecialization(ctx, specialization)
	if err != nil {
		return nil, err
	}

	responses := make([]*model.AvailabilityResponse, 0)
	for _, p := range providers {
		slots, err := s.repo.FindByProviderAndStatus(ctx, p.ID, model.StatusAvailable)
		if err != nil {
			s.cfg.Log.Error("Failed to load availability for specialization search",
				"provider_id", p.ID,
				"specialization", specialization,
				"error", err,
			)
			return nil, apperrors.Internal("Failed to search availability", err)
		}
		for _, slot := range slots {
			if hasRange && (slot.Date < startDate || slot.Date > endDate) {
				continue
			}
			responses = append(responses, model.NewAvailabilityResponse(slot, p))
		}
	}

	s.cfg.Log.Debug("Specialization search completed",
		"specialization", specialization,
		"providers", len(providers),
		"results_count", len(responses),
	)
	return responses, nil
}

func (s *availabilityService) SearchByAppointmentType(ctx context.Context, appointmentType model.AppointmentType, startDate, endDate string) ([]*model.AvailabilityResponse, error) {
	if !appointmentType.Valid() {
		return nil, apperrors.InvalidInput("Invalid appointment type")
	}
	if startDate != "" || endDate != "" {
		if err := validateDateRange(startDate, endDate); err != nil {
			return nil, err
		}
	}

	slots, err := s.repo.FindAvailableByType(ctx, appointmentType, startDate, endDate)
	if err != nil {
		s.cfg.Log.Error("Failed to load availability for type search",
			"appointment_type", appointmentType,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to search availability", err)
	}

	providerCache := make(map[string]*model.Provider)
	responses := make([]*model.AvailabilityResponse, 0, len(slots))
	for _, slot := range slots {
		p, seen := providerCache[slot.ProviderID]
		if !seen {
			p = s.resolveProvider(ctx, slot.ProviderID)
			providerCache[slot.ProviderID] = p
		}
		responses = append(responses, model.NewAvailabilityResponse(slot, p))
	}
	return responses, nil
}

// RegisterAppointment reserves one appointment in a slot. The increment runs
// in a transaction so concurrent bookings cannot pass capacity. Filling the
// last opening flips the slot to BOOKED.
func (s *availabilityService) RegisterAppointment(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Availability ID cannot be empty")
	}

	var booked *model.Availability
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		slot, err := s.findByID(sessCtx, id)
		if err != nil {
			return err
		}

		if slot.Status != model.StatusAvailable {
			return apperrors.CapacityExceeded("Availability is not open for booking", map[string]any{
				"id":     id,
				"status": slot.Status,
			})
		}
		if slot.CurrentAppointments >= slot.MaxAppointmentsPerSlot {
			return apperrors.CapacityExceeded("Availability is fully booked", map[string]any{
				"id":                        id,
				"current_appointments":      slot.CurrentAppointments,
				"max_appointments_per_slot": slot.MaxAppointmentsPerSlot,
			})
		}

		slot.CurrentAppointments++
		if slot.CurrentAppointments >= slot.MaxAppointmentsPerSlot {
			slot.Status = model.StatusBooked
		}

		if err := s.repo.UpdateStatusAndCount(sessCtx, id, slot.Status, slot.CurrentAppointments); err != nil {
			return apperrors.Internal("Failed to register appointment", err)
		}
		booked = slot
		return nil
	})
	if err != nil {
		return err
	}

	s.publishSlotEvent(ctx, events.TypeSlotBooked, booked)

	s.cfg.Log.Info("Appointment registered",
		"id", id,
		"current_appointments", booked.CurrentAppointments,
		"status", booked.Status,
	)
	return nil
}

// ReleaseAppointment frees one appointment in a slot, reopening it when it
// was fully booked. Cancelled and blocked slots keep their status.
func (s *availabilityService) ReleaseAppointment(ctx context.Context, id string) error {
	if id == "" {
		return apperrors.InvalidInput("Availability ID cannot be empty")
	}

	var released *model.Availability
	err := s.repo.ExecuteTransaction(ctx, func(sessCtx mongo.SessionContext) error {
		slot, err := s.findByID(sessCtx, id)
		if err != nil {
			return err
		}

		if slot.CurrentAppointments <= 0 {
			return apperrors.Conflict("Availability has no appointments to release")
		}

		slot.CurrentAppointments--
		if slot.Status == model.StatusBooked {
			slot.Status = model.StatusAvailable
		}

		if err := s.repo.UpdateStatusAndCount(sessCtx, id, slot.Status, slot.CurrentAppointments); err != nil {
			return apperrors.Internal("Failed to release appointment", err)
		}
		released = slot
		return nil
	})
	if err != nil {
		return err
	}

	s.publishSlotEvent(ctx, events.TypeSlotReleased, released)

	s.cfg.Log.Info("Appointment released",
		"id", id,
		"current_appointments", released.CurrentAppointments,
		"status", released.Status,
	)
	return nil
}

func (s *availabilityService) findByID(ctx context.Context, id string) (*model.Availability, error) {
	if id == "" {
		return nil, apperrors.InvalidInput("Availability ID cannot be empty")
	}

	slot, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, availerrors.ErrNotFound) {
			return nil, apperrors.NotFoundWithID("Availability", id)
		}
		if errors.Is(err, availerrors.ErrInvalidID) {
			return nil, apperrors.InvalidInput("Invalid availability ID format")
		}
		s.cfg.Log.Error("Failed to get availability by ID",
			"id", id,
			"error", err,
		)
		return nil, apperrors.Internal("Failed to retrieve availability", err)
	}

	return slot, nil
}

func (s *availabilityService) resolveProvider(ctx context.Context, providerID string) *model.Provider {
	p, err := s.providers.GetByID(ctx, providerID)
	if err != nil {
		s.cfg.Log.Warn("Failed to resolve provider for availability",
			"provider_id", providerID,
			"error", err,
		)
		return nil
	}
	return p
}

func (s *availabilityService) publishSlotEvent(ctx context.Context, eventType string, slot *model.Availability) {
	if err := s.publisher.PublishSlotEvent(ctx, eventType, slot); err != nil {
		s.cfg.Log.Warn("Failed to publish availability event",
			"event_type", eventType,
			"id", slot.ID,
			"error", err,
		)
	}
}

func (s *availabilityService) sanitize(a *model.Availability) {
	a.Notes = sanitizer.TrimAndNormalize(a.Notes)
	a.SpecialRequirements = sanitizer.NormalizeRequirements(a.SpecialRequirements)
	if a.Location != nil {
		a.Location.Type = sanitizer.NormalizeLabel(a.Location.Type)
		a.Location.RoomNumber = sanitizer.TrimAndNormalize(a.Location.RoomNumber)
		if a.Location.Address != nil {
			a.Location.Address.Street = sanitizer.TrimAndNormalize(a.Location.Address.Street)
			a.Location.Address.City = sanitizer.TrimAndNormalize(a.Location.Address.City)
			a.Location.Address.State = sanitizer.TrimAndNormalize(a.Location.Address.State)
			a.Location.Address.ZipCode = sanitizer.TrimAndNormalize(a.Location.Address.ZipCode)
			a.Location.Address.Country = sanitizer.TrimAndNormalize(a.Location.Address.Country)
		}
	}
	if a.Pricing != nil {
		a.Pricing.Currency = sanitizer.NormalizeCurrency(a.Pricing.Currency)
	}
}

func (s *availabilityService) applyDefaults(a *model.Availability) {
	if a.Status == "" {
		a.Status = model.StatusAvailable
	}
	if a.SlotDuration == 0 {
		a.SlotDuration = s.cfg.DefaultSlotDurationMin
	}
	if a.BreakDuration == 0 {
		a.BreakDuration = s.cfg.DefaultBreakDurationMin
	}
	if a.MaxAppointmentsPerSlot == 0 {
		a.MaxAppointmentsPerSlot = s.cfg.DefaultMaxAppointmentsPerSlot
	}
	if a.Timezone == "" {
		a.Timezone = s.cfg.DefaultTimezone
	}
	if a.AppointmentType == "" {
		a.AppointmentType = model.TypeConsultation
	}
}

func (s *availabilityService) mergeUpdates(existing *model.Availability, updates *model.AvailabilityUpdate) *model.Availability {
	merged := *existing

	if updates.Date != "" {
		merged.Date = updates.Date
	}
	if updates.StartTime != "" {
		merged.StartTime = updates.StartTime
	}
	if updates.EndTime != "" {
		merged.EndTime = updates.EndTime
	}
	if updates.Timezone != "" {
		merged.Timezone = updates.Timezone
	}
	if updates.RecurrencePattern != "" {
		merged.RecurrencePattern = updates.RecurrencePattern
	}
	if updates.RecurrenceEndDate != "" {
		merged.RecurrenceEndDate = updates.RecurrenceEndDate
	}
	if updates.SlotDuration != nil {
		merged.SlotDuration = *updates.SlotDuration
	}
	if updates.BreakDuration != nil {
		merged.BreakDuration = *updates.BreakDuration
	}
	if updates.MaxAppointmentsPerSlot != nil {
		merged.MaxAppointmentsPerSlot = *updates.MaxAppointmentsPerSlot
	}
	if updates.AppointmentType != "" {
		merged.AppointmentType = updates.AppointmentType
	}
	if updates.Location != nil {
		merged.Location = updates.Location
	}
	if updates.Pricing != nil {
		merged.Pricing = updates.Pricing
	}
	if updates.Notes != nil {
		merged.Notes = *updates.Notes
	}
	if updates.SpecialRequirements != nil {
		merged.SpecialRequirements = *updates.SpecialRequirements
	}

	merged.ID = existing.ID
	merged.ProviderID = existing.ProviderID
	merged.Status = existing.Status
	merged.CurrentAppointments = existing.CurrentAppointments
	merged.CreatedAt = existing.CreatedAt
	return &merged
}
