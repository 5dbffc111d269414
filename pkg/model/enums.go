package model

// AvailabilityStatus is the lifecycle state of a slot. Only AVAILABLE slots
// are returned by patient-facing search.
type AvailabilityStatus string

const (
	StatusAvailable AvailabilityStatus = "AVAILABLE"
	StatusBooked    AvailabilityStatus = "BOOKED"
	StatusCancelled AvailabilityStatus = "CANCELLED"
	StatusBlocked   AvailabilityStatus = "BLOCKED"
)

func (s AvailabilityStatus) Valid() bool {
	switch s {
	case StatusAvailable, StatusBooked, StatusCancelled, StatusBlocked:
		return true
	}
	return false
}

// RecurrencePattern is the step applied between occurrences of a recurring
// series.
type RecurrencePattern string

const (
	PatternDaily   RecurrencePattern = "DAILY"
	PatternWeekly  RecurrencePattern = "WEEKLY"
	PatternMonthly RecurrencePattern = "MONTHLY"
)

func (p RecurrencePattern) Valid() bool {
	switch p {
	case PatternDaily, PatternWeekly, PatternMonthly:
		return true
	}
	return false
}

type AppointmentType string

const (
	TypeConsultation AppointmentType = "CONSULTATION"
	TypeFollowUp     AppointmentType = "FOLLOW_UP"
	TypeEmergency    AppointmentType = "EMERGENCY"
	TypeTelemedicine AppointmentType = "TELEMEDICINE"
)

func (t AppointmentType) Valid() bool {
	switch t {
	case TypeConsultation, TypeFollowUp, TypeEmergency, TypeTelemedicine:
		return true
	}
	return false
}
