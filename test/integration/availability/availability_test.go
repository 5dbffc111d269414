package integrationtests

import (
	"fmt"
	"math/rand"
	"net/url"
	"testing"
	"time"

	"healthfirst/pkg/model"
	"healthfirst/test/common"
)

const ServiceName = "availability-integration-tests"

func TestAvailabilityAPI(t *testing.T) {
	suite := common.NewIntegrationSuite(t, ServiceName)
	defer suite.Teardown(t)

	t.Run("CreateAndGet", func(t *testing.T) { testCreateAndGet(t, suite) })
	t.Run("CreateForcesOpenState", func(t *testing.T) { testCreateForcesOpenState(t, suite) })
	t.Run("CreateUnknownProvider", func(t *testing.T) { testCreateUnknownProvider(t, suite) })
	t.Run("CreateInvalidWindow", func(t *testing.T) { testCreateInvalidWindow(t, suite) })
	t.Run("RecurringSeries", func(t *testing.T) { testRecurringSeries(t, suite) })
	t.Run("SearchDateRange", func(t *testing.T) { testSearchDateRange(t, suite) })
	t.Run("SearchBySpecialization", func(t *testing.T) { testSearchBySpecialization(t, suite) })
	t.Run("SearchByAppointmentType", func(t *testing.T) { testSearchByAppointmentType(t, suite) })
	t.Run("AppointmentLifecycle", func(t *testing.T) { testAppointmentLifecycle(t, suite) })
	t.Run("UpdateAndDelete", func(t *testing.T) { testUpdateAndDelete(t, suite) })
}

func cleanSlots(t *testing.T, suite *common.IntegrationSuite) {
	t.Helper()
	suite.Mongo.CleanCollection(t, common.AvailabilitiesCollection)
	suite.Mongo.CleanCollection(t, common.ProvidersCollection)
}

func seedProvider(t *testing.T, suite *common.IntegrationSuite, specialization string) string {
	t.Helper()
	suffix := rand.Intn(1_000_000)
	return suite.Mongo.SeedProvider(t, model.Provider{
		UserID:         fmt.Sprintf("%024x", suffix),
		FirstName:      "Dana",
		LastName:       "Levi",
		Specialization: specialization,
		ClinicName:     "Downtown Clinic",
	})
}

func futureDate(days int) string {
	return time.Now().AddDate(0, 0, days).Format(model.DateLayout)
}

func slotPayload(date string) map[string]any {
	return map[string]any{
		"date":                      date,
		"start_time":                "09:00",
		"end_time":                  "12:00",
		"timezone":                  "America/New_York",
		"slot_duration":             30,
		"max_appointments_per_slot": 2,
		"appointment_type":          "CONSULTATION",
		"location": map[string]any{
			"type": "clinic",
			"address": map[string]any{
				"street":   "100 Main St",
				"city":     "Boston",
				"state":    "MA",
				"zip_code": "02101",
				"country":  "USA",
			},
		},
		"pricing": map[string]any{
			"base_fee":           150.0,
			"currency":           "USD",
			"insurance_accepted": true,
		},
	}
}

func createSlot(t *testing.T, suite *common.IntegrationSuite, providerID string, payload map[string]any) *model.AvailabilityResponse {
	t.Helper()
	resp1, err1 := suite.Availability.Create(providerID, payload)
	resp := common.RequireResponse(t, resp1, err1)
	common.AssertStatusCode(t, resp, 201)

	slot, err := suite.Availability.DecodeAvailability(resp)
	if err != nil {
		t.Fatalf("failed to decode created slot: %v", err)
	}
	return slot
}

func testCreateAndGet(t *testing.T, suite *common.IntegrationSuite) {
	defer cleanSlots(t, suite)
	providerID := seedProvider(t, suite, "Cardiology")

	created := createSlot(t, suite, providerID, slotPayload(futureDate(7)))
	if created.ID == "" {
		t.Fatal("created slot has no ID")
	}
	if created.ProviderID != providerID {
		t.Errorf("provider_id = %s, want %s", created.ProviderID, providerID)
	}

	resp2, err2 := suite.Availability.GetByID(created.ID)
	resp := common.RequireResponse(t, resp2, err2)
	common.AssertStatusCode(t, resp, 200)

	fetched, err := suite.Availability.DecodeAvailability(resp)
	if err != nil {
		t.Fatalf("failed to decode slot: %v", err)
	}
	if fetched.ID != created.ID {
		t.Errorf("fetched slot %s, want %s", fetched.ID, created.ID)
	}
	if fetched.ProviderName != "Dana Levi" || fetched.Specialization != "Cardiology" {
		t.Errorf("provider fields not resolved: %q %q", fetched.ProviderName, fetched.Specialization)
	}

	resp3, err3 := suite.Availability.GetByProvider(providerID, futureDate(1), futureDate(14), "")
	resp = common.RequireResponse(t, resp3, err3)
	common.AssertStatusCode(t, resp, 200)

	slots, err := suite.Availability.DecodeAvailabilities(resp)
	if err != nil {
		t.Fatalf("failed to decode slots: %v", err)
	}
	if len(slots) != 1 {
		t.Errorf("provider listing returned %d slots, want 1", len(slots))
	}
}

func testCreateForcesOpenState(t *testing.T, suite *common.IntegrationSuite) {
	defer cleanSlots(t, suite)
	providerID := seedProvider(t, suite, "Cardiology")

	payload := slotPayload(futureDate(7))
	payload["status"] = "BLOCKED"
	payload["current_appointments"] = 1

	created := createSlot(t, suite, providerID, payload)
	if created.Status != model.StatusAvailable {
		t.Errorf("status = %s, want AVAILABLE regardless of request", created.Status)
	}
	if created.CurrentAppointments != 0 {
		t.Errorf("current_appointments = %d, want 0", created.CurrentAppointments)
	}
}

func testCreateUnknownProvider(t *testing.T, suite *common.IntegrationSuite) {
	defer cleanSlots(t, suite)

	resp4, err4 := suite.Availability.Create("507f1f77bcf86cd799439011", slotPayload(futureDate(7)))
	resp := common.RequireResponse(t, resp4, err4)
	common.AssertStatusCode(t, resp, 404)
	common.AssertContains(t, resp, "not found")
}

func testCreateInvalidWindow(t *testing.T, suite *common.IntegrationSuite) {
	defer cleanSlots(t, suite)
	providerID := seedProvider(t, suite, "Cardiology")

	payload := slotPayload(futureDate(7))
	payload["start_time"] = "14:00"
	payload["end_time"] = "09:00"

	resp5, err5 := suite.Availability.Create(providerID, payload)
	resp := common.RequireResponse(t, resp5, err5)
	common.AssertStatusCode(t, resp, 422)
}

func testRecurringSeries(t *testing.T, suite *common.IntegrationSuite) {
	defer cleanSlots(t, suite)
	providerID := seedProvider(t, suite, "Cardiology")

	payload := slotPayload(futureDate(7))
	payload["is_recurring"] = true
	payload["recurrence_pattern"] = "WEEKLY"
	payload["recurrence_end_date"] = futureDate(28)

	resp6, err6 := suite.Availability.CreateRecurring(providerID, payload)
	resp := common.RequireResponse(t, resp6, err6)
	common.AssertStatusCode(t, resp, 201)

	slots, err := suite.Availability.DecodeAvailabilities(resp)
	if err != nil {
		t.Fatalf("failed to decode series: %v", err)
	}
	if len(slots) != 4 {
		t.Fatalf("series expanded to %d slots, want 4 weekly occurrences", len(slots))
	}

	resp7, err7 := suite.Availability.DeleteRecurring(slots[0].ID)
	resp = common.RequireResponse(t, resp7, err7)
	common.AssertStatusCode(t, resp, 200)

	var result struct {
		Data struct {
			SlotsDeleted int64 `json:"slots_deleted"`
		} `json:"data"`
	}
	if err := resp.DecodeJSON(&result); err != nil {
		t.Fatalf("failed to decode delete result: %v", err)
	}
	if result.Data.SlotsDeleted != 4 {
		t.Errorf("slots_deleted = %d, want 4", result.Data.SlotsDeleted)
	}

	resp8, err8 := suite.Availability.GetByID(slots[0].ID)
	resp = common.RequireResponse(t, resp8, err8)
	common.AssertStatusCode(t, resp, 404)
}

func testSearchDateRange(t *testing.T, suite *common.IntegrationSuite) {
	defer cleanSlots(t, suite)
	providerID := seedProvider(t, suite, "Cardiology")

	for _, days := range []int{5, 6, 7, 40} {
		createSlot(t, suite, providerID, slotPayload(futureDate(days)))
	}

	criteria := url.Values{}
	criteria.Set("start_date", futureDate(5))
	criteria.Set("end_date", futureDate(7))
	resp9, err9 := suite.Availability.Search(criteria)
	resp := common.RequireResponse(t, resp9, err9)
	common.AssertStatusCode(t, resp, 200)

	var result struct {
		Data       []model.AvailabilityResponse `json:"data"`
		TotalCount int64                        `json:"total_count"`
	}
	if err := resp.DecodeJSON(&result); err != nil {
		t.Fatalf("failed to decode search result: %v", err)
	}
	if result.TotalCount != 3 {
		t.Errorf("search matched %d slots, want 3 inside the window", result.TotalCount)
	}
	for _, slot := range result.Data {
		if slot.Date > futureDate(7) {
			t.Errorf("slot dated %s is outside the requested window", slot.Date)
		}
	}

	// Both bounds are mandatory for the generic search.
	partial := url.Values{}
	partial.Set("start_date", futureDate(5))
	resp10, err10 := suite.Availability.Search(partial)
	resp = common.RequireResponse(t, resp10, err10)
	common.AssertStatusCode(t, resp, 400)
}

func testSearchBySpecialization(t *testing.T, suite *common.IntegrationSuite) {
	defer cleanSlots(t, suite)
	cardioID := seedProvider(t, suite, "Cardiology")
	dermaID := seedProvider(t, suite, "Dermatology")

	createSlot(t, suite, cardioID, slotPayload(futureDate(7)))
	createSlot(t, suite, dermaID, slotPayload(futureDate(7)))

	resp11, err11 := suite.Availability.SearchBySpecialization("cardiology", "", "")
	resp := common.RequireResponse(t, resp11, err11)
	common.AssertStatusCode(t, resp, 200)

	slots, err := suite.Availability.DecodeAvailabilities(resp)
	if err != nil {
		t.Fatalf("failed to decode slots: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("specialization search returned %d slots, want 1", len(slots))
	}
	if slots[0].ProviderID != cardioID {
		t.Errorf("matched provider %s, want %s", slots[0].ProviderID, cardioID)
	}

	resp12, err12 := suite.Availability.SearchBySpecialization("cardiology", futureDate(1), "")
	resp = common.RequireResponse(t, resp12, err12)
	common.AssertStatusCode(t, resp, 400)
}

func testSearchByAppointmentType(t *testing.T, suite *common.IntegrationSuite) {
	defer cleanSlots(t, suite)
	providerID := seedProvider(t, suite, "Cardiology")

	createSlot(t, suite, providerID, slotPayload(futureDate(7)))
	telehealth := slotPayload(futureDate(8))
	telehealth["appointment_type"] = "TELEMEDICINE"
	createSlot(t, suite, providerID, telehealth)

	resp13, err13 := suite.Availability.SearchByAppointmentType("TELEMEDICINE", futureDate(1), futureDate(14))
	resp := common.RequireResponse(t, resp13, err13)
	common.AssertStatusCode(t, resp, 200)

	slots, err := suite.Availability.DecodeAvailabilities(resp)
	if err != nil {
		t.Fatalf("failed to decode slots: %v", err)
	}
	if len(slots) != 1 {
		t.Fatalf("type search returned %d slots, want 1", len(slots))
	}
	if slots[0].AppointmentType != model.TypeTelemedicine {
		t.Errorf("matched type %s, want TELEMEDICINE", slots[0].AppointmentType)
	}
}

func testAppointmentLifecycle(t *testing.T, suite *common.IntegrationSuite) {
	defer cleanSlots(t, suite)
	providerID := seedProvider(t, suite, "Cardiology")

	created := createSlot(t, suite, providerID, slotPayload(futureDate(7)))

	// Capacity is 2; the second registration closes the slot.
	for i := 0; i < 2; i++ {
		resp14, err14 := suite.Availability.RegisterAppointment(created.ID)
		resp := common.RequireResponse(t, resp14, err14)
		common.AssertStatusCode(t, resp, 204)
	}

	resp15, err15 := suite.Availability.GetByID(created.ID)
	resp := common.RequireResponse(t, resp15, err15)
	common.AssertStatusCode(t, resp, 200)
	booked, err := suite.Availability.DecodeAvailability(resp)
	if err != nil {
		t.Fatalf("failed to decode slot: %v", err)
	}
	if booked.Status != model.StatusBooked || booked.CurrentAppointments != 2 {
		t.Errorf("slot at capacity has status %s count %d", booked.Status, booked.CurrentAppointments)
	}

	resp16, err16 := suite.Availability.RegisterAppointment(created.ID)
	resp = common.RequireResponse(t, resp16, err16)
	common.AssertStatusCode(t, resp, 409)
	if code := common.ErrorCode(t, resp); code != "CAPACITY_EXCEEDED" {
		t.Errorf("error code = %s, want CAPACITY_EXCEEDED", code)
	}

	resp17, err17 := suite.Availability.ReleaseAppointment(created.ID)
	resp = common.RequireResponse(t, resp17, err17)
	common.AssertStatusCode(t, resp, 204)

	resp18, err18 := suite.Availability.GetByID(created.ID)
	resp = common.RequireResponse(t, resp18, err18)
	common.AssertStatusCode(t, resp, 200)
	reopened, err := suite.Availability.DecodeAvailability(resp)
	if err != nil {
		t.Fatalf("failed to decode slot: %v", err)
	}
	if reopened.Status != model.StatusAvailable || reopened.CurrentAppointments != 1 {
		t.Errorf("released slot has status %s count %d", reopened.Status, reopened.CurrentAppointments)
	}
}

func testUpdateAndDelete(t *testing.T, suite *common.IntegrationSuite) {
	defer cleanSlots(t, suite)
	providerID := seedProvider(t, suite, "Cardiology")

	created := createSlot(t, suite, providerID, slotPayload(futureDate(7)))

	resp19, err19 := suite.Availability.Update(created.ID, map[string]any{
		"start_time": "10:00",
		"end_time":   "13:00",
		"notes":      "moved to the afternoon block",
	})
	resp := common.RequireResponse(t, resp19, err19)
	common.AssertStatusCode(t, resp, 200)

	updated, err := suite.Availability.DecodeAvailability(resp)
	if err != nil {
		t.Fatalf("failed to decode updated slot: %v", err)
	}
	if updated.StartTime != "10:00" || updated.EndTime != "13:00" {
		t.Errorf("window = %s-%s, want 10:00-13:00", updated.StartTime, updated.EndTime)
	}

	resp20, err20 := suite.Availability.Delete(created.ID)
	resp = common.RequireResponse(t, resp20, err20)
	common.AssertStatusCode(t, resp, 204)

	resp21, err21 := suite.Availability.GetByID(created.ID)
	resp = common.RequireResponse(t, resp21, err21)
	common.AssertStatusCode(t, resp, 404)
}
