package model

import "time"

const (
	DateLayout = "2006-01-02"
	TimeLayout = "15:04"
)

// Availability is one bookable time window published by a provider.
// Dates are YYYY-MM-DD strings and times are HH:MM strings; both order
// correctly under plain string comparison.
type Availability struct {
	ID                     string             `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	ProviderID             string             `json:"provider_id" bson:"provider_id" validate:"required,mongodb"`
	Date                   string             `json:"date" bson:"date" validate:"required,datetime=2006-01-02"`
	StartTime              string             `json:"start_time" bson:"start_time" validate:"required,datetime=15:04"`
	EndTime                string             `json:"end_time" bson:"end_time" validate:"required,datetime=15:04"`
	Timezone               string             `json:"timezone" bson:"timezone" validate:"required,timezone"`
	IsRecurring            bool               `json:"is_recurring" bson:"is_recurring"`
	RecurrencePattern      RecurrencePattern  `json:"recurrence_pattern,omitempty" bson:"recurrence_pattern,omitempty" validate:"omitempty,oneof=DAILY WEEKLY MONTHLY"`
	RecurrenceEndDate      string             `json:"recurrence_end_date,omitempty" bson:"recurrence_end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	SlotDuration           int                `json:"slot_duration" bson:"slot_duration" validate:"required,min=5,max=480"`
	BreakDuration          int                `json:"break_duration" bson:"break_duration" validate:"min=0,max=480"`
	Status                 AvailabilityStatus `json:"status" bson:"status" validate:"omitempty,oneof=AVAILABLE BOOKED CANCELLED BLOCKED"`
	MaxAppointmentsPerSlot int                `json:"max_appointments_per_slot" bson:"max_appointments_per_slot" validate:"required,min=1,max=200"`
	CurrentAppointments    int                `json:"current_appointments" bson:"current_appointments" validate:"min=0,ltefield=MaxAppointmentsPerSlot"`
	AppointmentType        AppointmentType    `json:"appointment_type" bson:"appointment_type" validate:"required,oneof=CONSULTATION FOLLOW_UP EMERGENCY TELEMEDICINE"`
	Location               *Location          `json:"location,omitempty" bson:"location,omitempty"`
	Pricing                *Pricing           `json:"pricing,omitempty" bson:"pricing,omitempty"`
	Notes                  string             `json:"notes,omitempty" bson:"notes,omitempty" validate:"omitempty,max=500"`
	SpecialRequirements    []string           `json:"special_requirements,omitempty" bson:"special_requirements" validate:"omitempty,dive,min=1,max=200"`
	CreatedAt              time.Time          `json:"created_at" bson:"created_at" validate:"omitempty"`
}

type Location struct {
	Type       string   `json:"type" bson:"type" validate:"required,min=2,max=50"`
	Address    *Address `json:"address,omitempty" bson:"address,omitempty"`
	RoomNumber string   `json:"room_number,omitempty" bson:"room_number,omitempty" validate:"omitempty,max=20"`
}

type Address struct {
	Street  string `json:"street" bson:"street" validate:"required,min=2,max=200"`
	City    string `json:"city" bson:"city" validate:"required,min=2,max=50"`
	State   string `json:"state" bson:"state" validate:"required,min=2,max=50"`
	ZipCode string `json:"zip_code" bson:"zip_code" validate:"required,min=3,max=10"`
	Country string `json:"country" bson:"country" validate:"required,min=2,max=50"`
}

type Pricing struct {
	BaseFee           float64 `json:"base_fee" bson:"base_fee" validate:"min=0"`
	Currency          string  `json:"currency" bson:"currency" validate:"required,len=3,uppercase"`
	InsuranceAccepted bool    `json:"insurance_accepted" bson:"insurance_accepted"`
}

// AvailabilityUpdate carries partial updates. Identity, provider ownership
// and status are never updatable.
type AvailabilityUpdate struct {
	Date                   string            `json:"date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	StartTime              string            `json:"start_time,omitempty" validate:"omitempty,datetime=15:04"`
	EndTime                string            `json:"end_time,omitempty" validate:"omitempty,datetime=15:04"`
	Timezone               string            `json:"timezone,omitempty" validate:"omitempty,timezone"`
	RecurrencePattern      RecurrencePattern `json:"recurrence_pattern,omitempty" validate:"omitempty,oneof=DAILY WEEKLY MONTHLY"`
	RecurrenceEndDate      string            `json:"recurrence_end_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	SlotDuration           *int              `json:"slot_duration,omitempty" validate:"omitempty,min=5,max=480"`
	BreakDuration          *int              `json:"break_duration,omitempty" validate:"omitempty,min=0,max=480"`
	MaxAppointmentsPerSlot *int              `json:"max_appointments_per_slot,omitempty" validate:"omitempty,min=1,max=200"`
	AppointmentType        AppointmentType   `json:"appointment_type,omitempty" validate:"omitempty,oneof=CONSULTATION FOLLOW_UP EMERGENCY TELEMEDICINE"`
	Location               *Location         `json:"location,omitempty"`
	Pricing                *Pricing          `json:"pricing,omitempty"`
	Notes                  *string           `json:"notes,omitempty"`
	SpecialRequirements    *[]string         `json:"special_requirements,omitempty" validate:"omitempty,dive,min=1,max=200"`
}

// AvailabilityResponse is an Availability enriched with provider display
// fields resolved at read time, never stored on the slot.
type AvailabilityResponse struct {
	Availability
	ProviderName   string `json:"provider_name"`
	Specialization string `json:"specialization"`
}

func NewAvailabilityResponse(a *Availability, p *Provider) *AvailabilityResponse {
	resp := &AvailabilityResponse{Availability: *a}
	if p != nil {
		resp.ProviderName = p.FullName()
		resp.Specialization = p.Specialization
	}
	return resp
}
