package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	availerrors "healthfirst/internal/availability/errors"
	"healthfirst/internal/availability/search"
	"healthfirst/internal/availability/validator"
	"healthfirst/pkg/config"
	mongotx "healthfirst/pkg/db/mongo"
	apperrors "healthfirst/pkg/errors"
	"healthfirst/pkg/logger"
	"healthfirst/pkg/model"
)

type mockAvailabilityRepository struct {
	createFunc               func(ctx context.Context, a *model.Availability) error
	createAllFunc            func(ctx context.Context, slots []*model.Availability) error
	findByIDFunc             func(ctx context.Context, id string) (*model.Availability, error)
	findByProviderFunc       func(ctx context.Context, providerID string) ([]*model.Availability, error)
	findByProviderRangeFunc  func(ctx context.Context, providerID, startDate, endDate string) ([]*model.Availability, error)
	findByProviderStatusFunc func(ctx context.Context, providerID string, status model.AvailabilityStatus) ([]*model.Availability, error)
	findAvailableByTypeFunc  func(ctx context.Context, appointmentType model.AppointmentType, startDate, endDate string) ([]*model.Availability, error)
	findAllFunc              func(ctx context.Context) ([]*model.Availability, error)
	updateFunc               func(ctx context.Context, id string, a *model.Availability) error
	updateStatusCountFunc    func(ctx context.Context, id string, status model.AvailabilityStatus, count int) error
	deleteFunc               func(ctx context.Context, id string) error
	deleteSeriesFunc         func(ctx context.Context, anchor *model.Availability) (int64, error)
	countFunc                func(ctx context.Context) (int64, error)
}

func (m *mockAvailabilityRepository) Create(ctx context.Context, a *model.Availability) error {
	if m.createFunc != nil {
		return m.createFunc(ctx, a)
	}
	a.ID = "507f1f77bcf86cd799439021"
	return nil
}

func (m *mockAvailabilityRepository) CreateAll(ctx context.Context, slots []*model.Availability) error {
	if m.createAllFunc != nil {
		return m.createAllFunc(ctx, slots)
	}
	for i, slot := range slots {
		slot.ID = fmt.Sprintf("507f1f77bcf86cd7994390%02d", i+1)
	}
	return nil
}

func (m *mockAvailabilityRepository) FindByID(ctx context.Context, id string) (*model.Availability, error) {
	if m.findByIDFunc != nil {
		return m.findByIDFunc(ctx, id)
	}
	return nil, availerrors.ErrNotFound
}

func (m *mockAvailabilityRepository) FindByProvider(ctx context.Context, providerID string) ([]*model.Availability, error) {
	if m.findByProviderFunc != nil {
		return m.findByProviderFunc(ctx, providerID)
	}
	return []*model.Availability{}, nil
}

func (m *mockAvailabilityRepository) FindByProviderAndDateRange(ctx context.Context, providerID, startDate, endDate string) ([]*model.Availability, error) {
	if m.findByProviderRangeFunc != nil {
		return m.findByProviderRangeFunc(ctx, providerID, startDate, endDate)
	}
	return []*model.Availability{}, nil
}

func (m *mockAvailabilityRepository) FindByProviderAndStatus(ctx context.Context, providerID string, status model.AvailabilityStatus) ([]*model.Availability, error) {
	if m.findByProviderStatusFunc != nil {
		return m.findByProviderStatusFunc(ctx, providerID, status)
	}
	return []*model.Availability{}, nil
}

func (m *mockAvailabilityRepository) FindAvailableByType(ctx context.Context, appointmentType model.AppointmentType, startDate, endDate string) ([]*model.Availability, error) {
	if m.findAvailableByTypeFunc != nil {
		return m.findAvailableByTypeFunc(ctx, appointmentType, startDate, endDate)
	}
	return []*model.Availability{}, nil
}

func (m *mockAvailabilityRepository) FindAll(ctx context.Context) ([]*model.Availability, error) {
	if m.findAllFunc != nil {
		return m.findAllFunc(ctx)
	}
	return []*model.Availability{}, nil
}

func (m *mockAvailabilityRepository) Update(ctx context.Context, id string, a *model.Availability) error {
	if m.updateFunc != nil {
		return m.updateFunc(ctx, id, a)
	}
	return nil
}

func (m *mockAvailabilityRepository) UpdateStatusAndCount(ctx context.Context, id string, status model.AvailabilityStatus, count int) error {
	if m.updateStatusCountFunc != nil {
		return m.updateStatusCountFunc(ctx, id, status, count)
	}
	return nil
}

func (m *mockAvailabilityRepository) Delete(ctx context.Context, id string) error {
	if m.deleteFunc != nil {
		return m.deleteFunc(ctx, id)
	}
	return nil
}

func (m *mockAvailabilityRepository) DeleteSeries(ctx context.Context, anchor *model.Availability) (int64, error) {
	if m.deleteSeriesFunc != nil {
		return m.deleteSeriesFunc(ctx, anchor)
	}
	return 0, nil
}

func (m *mockAvailabilityRepository) Count(ctx context.Context) (int64, error) {
	if m.countFunc != nil {
		return m.countFunc(ctx)
	}
	return 0, nil
}

func (m *mockAvailabilityRepository) ExecuteTransaction(ctx context.Context, fn mongotx.TransactionFunc) error {
	return fn(nil)
}

type mockProviderService struct {
	getByIDFunc             func(ctx context.Context, id string) (*model.Provider, error)
	getBySpecializationFunc func(ctx context.Context, specialization string) ([]*model.Provider, error)
}

func (m *mockProviderService) GetByID(ctx context.Context, id string) (*model.Provider, error) {
	if m.getByIDFunc != nil {
		return m.getByIDFunc(ctx, id)
	}
	return &model.Provider{
		ID:             id,
		UserID:         "507f1f77bcf86cd799439099",
		FirstName:      "Dana",
		LastName:       "Levi",
		Specialization: "Cardiology",
	}, nil
}

func (m *mockProviderService) GetByUserID(ctx context.Context, userID string) (*model.Provider, error) {
	return nil, apperrors.NotFound("Provider")
}

func (m *mockProviderService) GetBySpecialization(ctx context.Context, specialization string) ([]*model.Provider, error) {
	if m.getBySpecializationFunc != nil {
		return m.getBySpecializationFunc(ctx, specialization)
	}
	return []*model.Provider{}, nil
}

type capturedEvent struct {
	eventType     string
	slotID        string
	slotsAffected int
}

type mockPublisher struct {
	events []capturedEvent
}

func (m *mockPublisher) PublishSlotEvent(ctx context.Context, eventType string, slot *model.Availability) error {
	m.events = append(m.events, capturedEvent{eventType: eventType, slotID: slot.ID})
	return nil
}

func (m *mockPublisher) PublishSeriesEvent(ctx context.Context, eventType string, anchor *model.Availability, slotsAffected int) error {
	m.events = append(m.events, capturedEvent{eventType: eventType, slotID: anchor.ID, slotsAffected: slotsAffected})
	return nil
}

func (m *mockPublisher) Close() error { return nil }

func newTestService(repo *mockAvailabilityRepository, providers *mockProviderService, publisher *mockPublisher) *availabilityService {
	log := logger.New(logger.Config{
		Level:     "info",
		Format:    logger.JSON,
		AddSource: false,
		Service:   "test",
	})

	cfg := &config.Config{
		Log:                           log,
		ReadTimeout:                   5 * time.Second,
		WriteTimeout:                  5 * time.Second,
		DefaultSlotDurationMin:        30,
		DefaultBreakDurationMin:       10,
		DefaultMaxAppointmentsPerSlot: 1,
		DefaultTimezone:               "America/New_York",
	}

	return &availabilityService{
		repo:      repo,
		providers: providers,
		validator: validator.NewAvailabilityValidator(log),
		publisher: publisher,
		cfg:       cfg,
	}
}

func futureDate(days int) string {
	return time.Now().AddDate(0, 0, days).Format(model.DateLayout)
}

func newSlot() *model.Availability {
	return &model.Availability{
		ProviderID:             "507f1f77bcf86cd799439011",
		Date:                   futureDate(7),
		StartTime:              "09:00",
		EndTime:                "12:00",
		Timezone:               "America/New_York",
		SlotDuration:           30,
		MaxAppointmentsPerSlot: 2,
		AppointmentType:        model.TypeConsultation,
	}
}

func TestCreate_AppliesDefaultsAndPublishes(t *testing.T) {
	publisher := &mockPublisher{}
	svc := newTestService(&mockAvailabilityRepository{}, &mockProviderService{}, publisher)

	slot := newSlot()
	slot.SlotDuration = 0
	slot.MaxAppointmentsPerSlot = 0
	slot.Timezone = ""

	if err := svc.Create(context.Background(), slot); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	if slot.Status != model.StatusAvailable {
		t.Errorf("status = %s, want AVAILABLE", slot.Status)
	}
	if slot.SlotDuration != 30 {
		t.Errorf("slot duration default = %d, want 30", slot.SlotDuration)
	}
	if slot.MaxAppointmentsPerSlot != 1 {
		t.Errorf("capacity default = %d, want 1", slot.MaxAppointmentsPerSlot)
	}
	if slot.Timezone != "America/New_York" {
		t.Errorf("timezone default = %s", slot.Timezone)
	}

	if len(publisher.events) != 1 || publisher.events[0].eventType != "availability.created" {
		t.Errorf("expected one created event, got %+v", publisher.events)
	}
}

func TestCreate_ForcesOpenBookingState(t *testing.T) {
	var persisted *model.Availability
	repo := &mockAvailabilityRepository{
		createFunc: func(ctx context.Context, a *model.Availability) error {
			a.ID = "507f1f77bcf86cd799439021"
			persisted = a
			return nil
		},
	}
	svc := newTestService(repo, &mockProviderService{}, &mockPublisher{})

	slot := newSlot()
	slot.Status = model.StatusBlocked
	slot.CurrentAppointments = 1

	if err := svc.Create(context.Background(), slot); err != nil {
		t.Fatalf("Create() unexpected error: %v", err)
	}

	if persisted == nil {
		t.Fatal("expected repository to receive the slot")
	}
	if persisted.Status != model.StatusAvailable {
		t.Errorf("status = %s, want AVAILABLE regardless of request", persisted.Status)
	}
	if persisted.CurrentAppointments != 0 {
		t.Errorf("current appointments = %d, want 0", persisted.CurrentAppointments)
	}
}

func TestCreate_ValidationFailure(t *testing.T) {
	svc := newTestService(&mockAvailabilityRepository{}, &mockProviderService{}, &mockPublisher{})

	slot := newSlot()
	slot.StartTime = "14:00"
	slot.EndTime = "09:00"

	err := svc.Create(context.Background(), slot)
	if err == nil {
		t.Fatal("Create() expected validation error")
	}
	appErr := apperrors.AsAppError(err)
	if appErr.Code != apperrors.CodeValidation {
		t.Errorf("error code = %s, want %s", appErr.Code, apperrors.CodeValidation)
	}
}

func TestCreate_UnknownProvider(t *testing.T) {
	providers := &mockProviderService{
		getByIDFunc: func(ctx context.Context, id string) (*model.Provider, error) {
			return nil, apperrors.NotFoundWithID("Provider", id)
		},
	}
	svc := newTestService(&mockAvailabilityRepository{}, providers, &mockPublisher{})

	err := svc.Create(context.Background(), newSlot())
	if err == nil {
		t.Fatal("Create() expected not found error")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeNotFound {
		t.Errorf("error code = %s, want NOT_FOUND", apperrors.AsAppError(err).Code)
	}
}

func TestCreateRecurring_ExpandsWeekly(t *testing.T) {
	var inserted []*model.Availability
	repo := &mockAvailabilityRepository{
		createAllFunc: func(ctx context.Context, slots []*model.Availability) error {
			inserted = slots
			for i, slot := range slots {
				slot.ID = fmt.Sprintf("507f1f77bcf86cd7994390%02d", i+1)
			}
			return nil
		},
	}
	publisher := &mockPublisher{}
	svc := newTestService(repo, &mockProviderService{}, publisher)

	def := newSlot()
	def.IsRecurring = true
	def.RecurrencePattern = model.PatternWeekly
	def.Date = futureDate(7)
	def.RecurrenceEndDate = futureDate(28) // three weekly steps after the start

	slots, err := svc.CreateRecurring(context.Background(), def)
	if err != nil {
		t.Fatalf("CreateRecurring() unexpected error: %v", err)
	}

	if len(slots) != 4 {
		t.Fatalf("CreateRecurring() produced %d slots, want 4", len(slots))
	}
	if len(inserted) != 4 {
		t.Fatalf("repository received %d slots, want 4", len(inserted))
	}
	for _, slot := range slots {
		if !slot.IsRecurring || slot.RecurrencePattern != model.PatternWeekly {
			t.Errorf("slot %s lost recurrence metadata", slot.ID)
		}
	}

	if len(publisher.events) != 1 || publisher.events[0].eventType != "availability.series_created" {
		t.Fatalf("expected one series created event, got %+v", publisher.events)
	}
	if publisher.events[0].slotsAffected != 4 {
		t.Errorf("series event slots affected = %d, want 4", publisher.events[0].slotsAffected)
	}
}

func TestCreateRecurring_RejectsMissingEndDate(t *testing.T) {
	svc := newTestService(&mockAvailabilityRepository{}, &mockProviderService{}, &mockPublisher{})

	def := newSlot()
	def.IsRecurring = true
	def.RecurrencePattern = model.PatternDaily

	_, err := svc.CreateRecurring(context.Background(), def)
	if err == nil {
		t.Fatal("CreateRecurring() expected validation error")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeValidation {
		t.Errorf("error code = %s, want VALIDATION_ERROR", apperrors.AsAppError(err).Code)
	}
}

func TestRegisterAppointment_CapacityGuard(t *testing.T) {
	slot := newSlot()
	slot.ID = "507f1f77bcf86cd799439021"
	slot.Status = model.StatusAvailable
	slot.MaxAppointmentsPerSlot = 2
	slot.CurrentAppointments = 0

	var savedStatus model.AvailabilityStatus
	var savedCount int
	repo := &mockAvailabilityRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Availability, error) {
			copy := *slot
			return &copy, nil
		},
		updateStatusCountFunc: func(ctx context.Context, id string, status model.AvailabilityStatus, count int) error {
			savedStatus = status
			savedCount = count
			slot.Status = status
			slot.CurrentAppointments = count
			return nil
		},
	}
	publisher := &mockPublisher{}
	svc := newTestService(repo, &mockProviderService{}, publisher)

	// First booking leaves one opening.
	if err := svc.RegisterAppointment(context.Background(), slot.ID); err != nil {
		t.Fatalf("first RegisterAppointment() error: %v", err)
	}
	if savedCount != 1 || savedStatus != model.StatusAvailable {
		t.Errorf("after first booking count = %d status = %s, want 1 AVAILABLE", savedCount, savedStatus)
	}

	// Second booking fills the slot.
	if err := svc.RegisterAppointment(context.Background(), slot.ID); err != nil {
		t.Fatalf("second RegisterAppointment() error: %v", err)
	}
	if savedCount != 2 || savedStatus != model.StatusBooked {
		t.Errorf("after second booking count = %d status = %s, want 2 BOOKED", savedCount, savedStatus)
	}

	// Third booking must be rejected, never clamped.
	err := svc.RegisterAppointment(context.Background(), slot.ID)
	if err == nil {
		t.Fatal("third RegisterAppointment() expected capacity error")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeCapacityExceeded {
		t.Errorf("error code = %s, want CAPACITY_EXCEEDED", apperrors.AsAppError(err).Code)
	}
	if slot.CurrentAppointments != 2 {
		t.Errorf("rejected booking mutated count to %d", slot.CurrentAppointments)
	}

	booked := 0
	for _, e := range publisher.events {
		if e.eventType == "availability.slot_booked" {
			booked++
		}
	}
	if booked != 2 {
		t.Errorf("published %d slot_booked events, want 2", booked)
	}
}

func TestRegisterAppointment_RejectsNonAvailable(t *testing.T) {
	for _, status := range []model.AvailabilityStatus{model.StatusCancelled, model.StatusBlocked, model.StatusBooked} {
		t.Run(string(status), func(t *testing.T) {
			slot := newSlot()
			slot.ID = "507f1f77bcf86cd799439021"
			slot.Status = status
			repo := &mockAvailabilityRepository{
				findByIDFunc: func(ctx context.Context, id string) (*model.Availability, error) {
					copy := *slot
					return &copy, nil
				},
			}
			svc := newTestService(repo, &mockProviderService{}, &mockPublisher{})

			err := svc.RegisterAppointment(context.Background(), slot.ID)
			if err == nil {
				t.Fatal("expected capacity error")
			}
			if apperrors.AsAppError(err).Code != apperrors.CodeCapacityExceeded {
				t.Errorf("error code = %s, want CAPACITY_EXCEEDED", apperrors.AsAppError(err).Code)
			}
		})
	}
}

func TestReleaseAppointment(t *testing.T) {
	slot := newSlot()
	slot.ID = "507f1f77bcf86cd799439021"
	slot.Status = model.StatusBooked
	slot.MaxAppointmentsPerSlot = 2
	slot.CurrentAppointments = 2

	var savedStatus model.AvailabilityStatus
	var savedCount int
	repo := &mockAvailabilityRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Availability, error) {
			copy := *slot
			return &copy, nil
		},
		updateStatusCountFunc: func(ctx context.Context, id string, status model.AvailabilityStatus, count int) error {
			savedStatus = status
			savedCount = count
			slot.Status = status
			slot.CurrentAppointments = count
			return nil
		},
	}
	svc := newTestService(repo, &mockProviderService{}, &mockPublisher{})

	if err := svc.ReleaseAppointment(context.Background(), slot.ID); err != nil {
		t.Fatalf("ReleaseAppointment() error: %v", err)
	}
	if savedCount != 1 || savedStatus != model.StatusAvailable {
		t.Errorf("after release count = %d status = %s, want 1 AVAILABLE", savedCount, savedStatus)
	}

	slot.CurrentAppointments = 0
	slot.Status = model.StatusAvailable
	err := svc.ReleaseAppointment(context.Background(), slot.ID)
	if err == nil {
		t.Fatal("release on empty slot expected error")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeConflict {
		t.Errorf("error code = %s, want CONFLICT", apperrors.AsAppError(err).Code)
	}
}

func TestReleaseAppointment_KeepsCancelledStatus(t *testing.T) {
	slot := newSlot()
	slot.ID = "507f1f77bcf86cd799439021"
	slot.Status = model.StatusCancelled
	slot.CurrentAppointments = 1

	var savedStatus model.AvailabilityStatus
	repo := &mockAvailabilityRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Availability, error) {
			copy := *slot
			return &copy, nil
		},
		updateStatusCountFunc: func(ctx context.Context, id string, status model.AvailabilityStatus, count int) error {
			savedStatus = status
			return nil
		},
	}
	svc := newTestService(repo, &mockProviderService{}, &mockPublisher{})

	if err := svc.ReleaseAppointment(context.Background(), slot.ID); err != nil {
		t.Fatalf("ReleaseAppointment() error: %v", err)
	}
	if savedStatus != model.StatusCancelled {
		t.Errorf("release changed status to %s, want CANCELLED preserved", savedStatus)
	}
}

func TestDeleteSeries(t *testing.T) {
	anchor := newSlot()
	anchor.ID = "507f1f77bcf86cd799439021"
	anchor.IsRecurring = true
	anchor.RecurrencePattern = model.PatternWeekly
	anchor.RecurrenceEndDate = futureDate(60)

	var capturedAnchor *model.Availability
	repo := &mockAvailabilityRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Availability, error) {
			return anchor, nil
		},
		deleteSeriesFunc: func(ctx context.Context, a *model.Availability) (int64, error) {
			capturedAnchor = a
			return 5, nil
		},
	}
	publisher := &mockPublisher{}
	svc := newTestService(repo, &mockProviderService{}, publisher)

	deleted, err := svc.DeleteSeries(context.Background(), anchor.ID)
	if err != nil {
		t.Fatalf("DeleteSeries() error: %v", err)
	}
	if deleted != 5 {
		t.Errorf("DeleteSeries() = %d, want 5", deleted)
	}
	if capturedAnchor == nil || capturedAnchor.ID != anchor.ID {
		t.Error("repository did not receive the anchor slot")
	}

	if len(publisher.events) != 1 || publisher.events[0].eventType != "availability.series_deleted" {
		t.Fatalf("expected series deleted event, got %+v", publisher.events)
	}
	if publisher.events[0].slotsAffected != 5 {
		t.Errorf("event slots affected = %d, want 5", publisher.events[0].slotsAffected)
	}
}

func TestDeleteSeries_RejectsOneOffSlot(t *testing.T) {
	slot := newSlot()
	slot.ID = "507f1f77bcf86cd799439021"
	repo := &mockAvailabilityRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Availability, error) {
			return slot, nil
		},
	}
	svc := newTestService(repo, &mockProviderService{}, &mockPublisher{})

	_, err := svc.DeleteSeries(context.Background(), slot.ID)
	if err == nil {
		t.Fatal("DeleteSeries() expected error for one-off slot")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeInvalidInput {
		t.Errorf("error code = %s, want INVALID_INPUT", apperrors.AsAppError(err).Code)
	}
}

func TestDeleteSeries_RejectsMissingPattern(t *testing.T) {
	slot := newSlot()
	slot.ID = "507f1f77bcf86cd799439021"
	slot.IsRecurring = true
	slot.RecurrencePattern = ""
	repo := &mockAvailabilityRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Availability, error) {
			return slot, nil
		},
		deleteSeriesFunc: func(ctx context.Context, anchor *model.Availability) (int64, error) {
			t.Fatal("DeleteSeries should not reach the repository without a pattern")
			return 0, nil
		},
	}
	svc := newTestService(repo, &mockProviderService{}, &mockPublisher{})

	_, err := svc.DeleteSeries(context.Background(), slot.ID)
	if err == nil {
		t.Fatal("DeleteSeries() expected error for anchor without a pattern")
	}
	if apperrors.AsAppError(err).Code != apperrors.CodeInvalidInput {
		t.Errorf("error code = %s, want INVALID_INPUT", apperrors.AsAppError(err).Code)
	}
}

func TestSearch_ResolvesProvidersOnce(t *testing.T) {
	providerID := "507f1f77bcf86cd799439011"
	date := futureDate(7)
	slots := []*model.Availability{}
	for i := 0; i < 3; i++ {
		slot := newSlot()
		slot.ID = fmt.Sprintf("507f1f77bcf86cd7994390%02d", i+1)
		slot.Date = date
		slot.Status = model.StatusAvailable
		slots = append(slots, slot)
	}
	booked := newSlot()
	booked.ID = "507f1f77bcf86cd799439099"
	booked.Date = date
	booked.Status = model.StatusBooked
	slots = append(slots, booked)

	repo := &mockAvailabilityRepository{
		findAllFunc: func(ctx context.Context) ([]*model.Availability, error) {
			return slots, nil
		},
	}
	lookups := 0
	providers := &mockProviderService{
		getByIDFunc: func(ctx context.Context, id string) (*model.Provider, error) {
			lookups++
			return &model.Provider{
				ID:             id,
				FirstName:      "Dana",
				LastName:       "Levi",
				Specialization: "Cardiology",
			}, nil
		},
	}
	svc := newTestService(repo, providers, &mockPublisher{})

	results, err := svc.Search(context.Background(), &search.Criteria{
		StartDate:      date,
		EndDate:        date,
		Specialization: "cardiology",
	})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("Search() returned %d results, want 3 (booked slot excluded)", len(results))
	}
	if lookups != 1 {
		t.Errorf("provider resolved %d times, want 1 (memoized per provider)", lookups)
	}
	for _, r := range results {
		if r.ProviderName != "Dana Levi" || r.Specialization != "Cardiology" {
			t.Errorf("result %s missing provider fields: %q %q", r.ID, r.ProviderName, r.Specialization)
		}
		if r.ProviderID != providerID {
			t.Errorf("unexpected provider %s", r.ProviderID)
		}
	}
}

func TestSearch_RequiresDateRange(t *testing.T) {
	svc := newTestService(&mockAvailabilityRepository{
		findAllFunc: func(ctx context.Context) ([]*model.Availability, error) {
			t.Fatal("FindAll should not be reached without a valid date range")
			return nil, nil
		},
	}, &mockProviderService{}, &mockPublisher{})

	tests := []struct {
		name     string
		criteria *search.Criteria
	}{
		{"nil criteria", nil},
		{"missing both bounds", &search.Criteria{Specialization: "cardiology"}},
		{"missing end date", &search.Criteria{StartDate: "2030-01-01"}},
		{"missing start date", &search.Criteria{EndDate: "2030-01-31"}},
		{"malformed start date", &search.Criteria{StartDate: "01/01/2030", EndDate: "2030-01-31"}},
		{"end before start", &search.Criteria{StartDate: "2030-01-31", EndDate: "2030-01-01"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Search(context.Background(), tt.criteria)
			if err == nil {
				t.Fatal("Search() expected error")
			}
			if apperrors.AsAppError(err).Code != apperrors.CodeInvalidInput {
				t.Errorf("error code = %s, want INVALID_INPUT", apperrors.AsAppError(err).Code)
			}
		})
	}
}

func TestSearch_FiltersByDateRange(t *testing.T) {
	dates := []string{"2030-01-01", "2030-01-02", "2030-01-03", "2030-02-01"}
	slots := make([]*model.Availability, 0, len(dates))
	for i, date := range dates {
		slot := newSlot()
		slot.ID = fmt.Sprintf("507f1f77bcf86cd7994391%02d", i)
		slot.Date = date
		slot.Status = model.StatusAvailable
		slots = append(slots, slot)
	}

	repo := &mockAvailabilityRepository{
		findAllFunc: func(ctx context.Context) ([]*model.Availability, error) {
			return slots, nil
		},
	}
	svc := newTestService(repo, &mockProviderService{}, &mockPublisher{})

	results, err := svc.Search(context.Background(), &search.Criteria{
		StartDate: "2030-01-01",
		EndDate:   "2030-01-03",
	})
	if err != nil {
		t.Fatalf("Search() error: %v", err)
	}

	if len(results) != 3 {
		t.Fatalf("Search() returned %d results, want 3 inside the window", len(results))
	}
	for _, r := range results {
		if r.Date < "2030-01-01" || r.Date > "2030-01-03" {
			t.Errorf("result %s dated %s is outside the requested window", r.ID, r.Date)
		}
	}
}

func TestGetByProvider_Validation(t *testing.T) {
	svc := newTestService(&mockAvailabilityRepository{}, &mockProviderService{}, &mockPublisher{})
	ctx := context.Background()

	if _, err := svc.GetByProvider(ctx, "", "", "", ""); err == nil {
		t.Error("empty provider ID should be rejected")
	}
	if _, err := svc.GetByProvider(ctx, "507f1f77bcf86cd799439011", "2025-01-01", "", ""); err == nil {
		t.Error("half-open date range should be rejected")
	}
	if _, err := svc.GetByProvider(ctx, "507f1f77bcf86cd799439011", "2025-02-01", "2025-01-01", ""); err == nil {
		t.Error("inverted date range should be rejected")
	}
	if _, err := svc.GetByProvider(ctx, "507f1f77bcf86cd799439011", "", "", "PENDING"); err == nil {
		t.Error("unknown status should be rejected")
	}
}

func TestGetByProvider_CombinesRangeAndStatus(t *testing.T) {
	providerID := "507f1f77bcf86cd799439011"
	available := newSlot()
	available.ID = "507f1f77bcf86cd799439021"
	available.Status = model.StatusAvailable
	cancelled := newSlot()
	cancelled.ID = "507f1f77bcf86cd799439022"
	cancelled.Status = model.StatusCancelled

	repo := &mockAvailabilityRepository{
		findByProviderRangeFunc: func(ctx context.Context, pid, startDate, endDate string) ([]*model.Availability, error) {
			return []*model.Availability{available, cancelled}, nil
		},
	}
	svc := newTestService(repo, &mockProviderService{}, &mockPublisher{})

	slots, err := svc.GetByProvider(context.Background(), providerID, futureDate(1), futureDate(30), model.StatusAvailable)
	if err != nil {
		t.Fatalf("GetByProvider() error: %v", err)
	}
	if len(slots) != 1 || slots[0].ID != available.ID {
		t.Errorf("GetByProvider() = %d slots, want only the AVAILABLE one", len(slots))
	}
}

func TestUpdate_MergePreservesIdentityAndStatus(t *testing.T) {
	existing := newSlot()
	existing.ID = "507f1f77bcf86cd799439021"
	existing.Status = model.StatusAvailable
	existing.CurrentAppointments = 1
	existing.MaxAppointmentsPerSlot = 3
	existing.Notes = "bring referral"

	var saved *model.Availability
	repo := &mockAvailabilityRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Availability, error) {
			copy := *existing
			return &copy, nil
		},
		updateFunc: func(ctx context.Context, id string, a *model.Availability) error {
			saved = a
			return nil
		},
	}
	svc := newTestService(repo, &mockProviderService{}, &mockPublisher{})

	newDuration := 45
	emptyNotes := ""
	updated, err := svc.Update(context.Background(), existing.ID, &model.AvailabilityUpdate{
		StartTime:    "10:00",
		SlotDuration: &newDuration,
		Notes:        &emptyNotes,
	})
	if err != nil {
		t.Fatalf("Update() error: %v", err)
	}

	if saved == nil {
		t.Fatal("repository update was not called")
	}
	if updated.StartTime != "10:00" || updated.SlotDuration != 45 {
		t.Errorf("update not applied: start=%s duration=%d", updated.StartTime, updated.SlotDuration)
	}
	if updated.Notes != "" {
		t.Errorf("pointer update should clear notes, got %q", updated.Notes)
	}
	if updated.ProviderID != existing.ProviderID {
		t.Error("provider ownership must not change on update")
	}
	if updated.Status != existing.Status || updated.CurrentAppointments != existing.CurrentAppointments {
		t.Error("status and booking count must not change on update")
	}
}

func TestUpdate_RejectsInvalidMerge(t *testing.T) {
	existing := newSlot()
	existing.ID = "507f1f77bcf86cd799439021"

	repo := &mockAvailabilityRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Availability, error) {
			copy := *existing
			return &copy, nil
		},
	}
	svc := newTestService(repo, &mockProviderService{}, &mockPublisher{})

	_, err := svc.Update(context.Background(), existing.ID, &model.AvailabilityUpdate{
		StartTime: "13:00",
		EndTime:   "09:00",
	})
	if err == nil {
		t.Fatal("Update() expected validation error")
	}
	if !strings.Contains(err.Error(), "Availability validation failed") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestGetByID_InvalidAndMissing(t *testing.T) {
	repo := &mockAvailabilityRepository{
		findByIDFunc: func(ctx context.Context, id string) (*model.Availability, error) {
			if id == "bad" {
				return nil, fmt.Errorf("%w: %s", availerrors.ErrInvalidID, id)
			}
			return nil, fmt.Errorf("%w: %s", availerrors.ErrNotFound, id)
		},
	}
	svc := newTestService(repo, &mockProviderService{}, &mockPublisher{})
	ctx := context.Background()

	if _, err := svc.GetByID(ctx, "bad"); apperrors.AsAppError(err).Code != apperrors.CodeInvalidInput {
		t.Errorf("invalid ID should map to INVALID_INPUT, got %v", err)
	}
	if _, err := svc.GetByID(ctx, "507f1f77bcf86cd799439021"); apperrors.AsAppError(err).Code != apperrors.CodeNotFound {
		t.Errorf("missing slot should map to NOT_FOUND, got %v", err)
	}
	if _, err := svc.GetByID(ctx, ""); apperrors.AsAppError(err).Code != apperrors.CodeInvalidInput {
		t.Errorf("empty ID should map to INVALID_INPUT, got %v", err)
	}
}

func TestSearchBySpecialization_ResolvesProvidersFirst(t *testing.T) {
	cardiologist := &model.Provider{
		ID:             "507f1f77bcf86cd799439011",
		FirstName:      "Dana",
		LastName:       "Levi",
		Specialization: "Cardiology",
	}

	targetDate := futureDate(7)
	slotInRange := newSlot()
	slotInRange.ID = "507f1f77bcf86cd799439031"
	slotOutOfRange := newSlot()
	slotOutOfRange.ID = "507f1f77bcf86cd799439032"
	slotOutOfRange.Date = futureDate(8)

	var statusQueried model.AvailabilityStatus
	repo := &mockAvailabilityRepository{
		findByProviderStatusFunc: func(ctx context.Context, providerID string, status model.AvailabilityStatus) ([]*model.Availability, error) {
			statusQueried = status
			if providerID != cardiologist.ID {
				t.Errorf("unexpected provider queried: %s", providerID)
			}
			return []*model.Availability{slotInRange, slotOutOfRange}, nil
		},
	}
	providers := &mockProviderService{
		getBySpecializationFunc: func(ctx context.Context, specialization string) ([]*model.Provider, error) {
			if specialization != "Cardiology" {
				t.Errorf("unexpected specialization: %s", specialization)
			}
			return []*model.Provider{cardiologist}, nil
		},
	}
	svc := newTestService(repo, providers, &mockPublisher{})

	results, err := svc.SearchBySpecialization(context.Background(), "Cardiology", targetDate, targetDate)
	if err != nil {
		t.Fatalf("SearchBySpecialization() error: %v", err)
	}

	if statusQueried != model.StatusAvailable {
		t.Errorf("expected AVAILABLE slots queried, got %s", statusQueried)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result on %s, got %d", targetDate, len(results))
	}
	if results[0].ID != slotInRange.ID {
		t.Errorf("expected slot %s, got %s", slotInRange.ID, results[0].ID)
	}
	if results[0].ProviderName != "Dana Levi" || results[0].Specialization != "Cardiology" {
		t.Errorf("provider fields not populated: %+v", results[0])
	}
}

func TestSearchBySpecialization_NoProviders(t *testing.T) {
	providers := &mockProviderService{
		getBySpecializationFunc: func(ctx context.Context, specialization string) ([]*model.Provider, error) {
			return []*model.Provider{}, nil
		},
	}
	svc := newTestService(&mockAvailabilityRepository{}, providers, &mockPublisher{})

	results, err := svc.SearchBySpecialization(context.Background(), "Dermatology", "", "")
	if err != nil {
		t.Fatalf("SearchBySpecialization() error: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("expected no results, got %d", len(results))
	}
}

func TestSearchByAppointmentType_QueriesRepository(t *testing.T) {
	targetDate := futureDate(7)
	slot := newSlot()
	slot.ID = "507f1f77bcf86cd799439041"
	slot.AppointmentType = model.TypeTelemedicine

	var queriedType model.AppointmentType
	var queriedStart, queriedEnd string
	repo := &mockAvailabilityRepository{
		findAvailableByTypeFunc: func(ctx context.Context, appointmentType model.AppointmentType, startDate, endDate string) ([]*model.Availability, error) {
			queriedType = appointmentType
			queriedStart = startDate
			queriedEnd = endDate
			return []*model.Availability{slot}, nil
		},
	}
	svc := newTestService(repo, &mockProviderService{}, &mockPublisher{})

	results, err := svc.SearchByAppointmentType(context.Background(), model.TypeTelemedicine, targetDate, targetDate)
	if err != nil {
		t.Fatalf("SearchByAppointmentType() error: %v", err)
	}

	if queriedType != model.TypeTelemedicine || queriedStart != targetDate || queriedEnd != targetDate {
		t.Errorf("unexpected query: type=%s start=%s end=%s", queriedType, queriedStart, queriedEnd)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	if results[0].ProviderName == "" {
		t.Error("expected provider fields populated")
	}
}

func TestSearchByAppointmentType_RejectsInvalidType(t *testing.T) {
	svc := newTestService(&mockAvailabilityRepository{}, &mockProviderService{}, &mockPublisher{})

	_, err := svc.SearchByAppointmentType(context.Background(), "HOUSE_CALL", "", "")
	if apperrors.AsAppError(err).Code != apperrors.CodeInvalidInput {
		t.Errorf("expected INVALID_INPUT, got %v", err)
	}
}

func TestNarrowSearch_RejectsPartialDateRange(t *testing.T) {
	svc := newTestService(&mockAvailabilityRepository{}, &mockProviderService{}, &mockPublisher{})

	_, err := svc.SearchBySpecialization(context.Background(), "Cardiology", futureDate(1), "")
	if apperrors.AsAppError(err).Code != apperrors.CodeInvalidInput {
		t.Errorf("expected INVALID_INPUT for missing end_date, got %v", err)
	}

	_, err = svc.SearchByAppointmentType(context.Background(), model.TypeConsultation, futureDate(5), futureDate(1))
	if apperrors.AsAppError(err).Code != apperrors.CodeInvalidInput {
		t.Errorf("expected INVALID_INPUT for inverted range, got %v", err)
	}
}
