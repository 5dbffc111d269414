package search

import (
	"strings"

	"healthfirst/pkg/model"
)

// Criteria is the full set of patient-facing search filters. StartDate and
// EndDate bound the search window and are always required; the remaining
// filters are optional, with zero values meaning "not filtered". All
// populated filters must match for a slot to be included.
type Criteria struct {
	StartDate         string
	EndDate           string
	Specialization    string
	AppointmentType   model.AppointmentType
	City              string
	State             string
	ZipCode           string
	MaxFee            *float64
	InsuranceAccepted *bool
}

// Match reports whether a slot satisfies the date window and every populated
// filter. The provider's specialization is resolved by the caller since
// slots do not store it. Slots that are not AVAILABLE never match.
func (c *Criteria) Match(slot *model.Availability, specialization string) bool {
	if slot.Status != model.StatusAvailable {
		return false
	}

	// Dates are YYYY-MM-DD and compare correctly as strings. Both bounds
	// are inclusive.
	if slot.Date < c.StartDate || slot.Date > c.EndDate {
		return false
	}

	if c.Specialization != "" && !strings.EqualFold(specialization, c.Specialization) {
		return false
	}

	if c.AppointmentType != "" && slot.AppointmentType != c.AppointmentType {
		return false
	}

	if !c.matchLocation(slot.Location) {
		return false
	}

	if !c.matchPricing(slot.Pricing) {
		return false
	}

	return true
}

func (c *Criteria) matchLocation(loc *model.Location) bool {
	if c.City == "" && c.State == "" && c.ZipCode == "" {
		return true
	}

	if loc == nil || loc.Address == nil {
		return false
	}

	if c.City != "" && !strings.EqualFold(loc.Address.City, c.City) {
		return false
	}
	if c.State != "" && !strings.EqualFold(loc.Address.State, c.State) {
		return false
	}
	if c.ZipCode != "" && !strings.EqualFold(loc.Address.ZipCode, c.ZipCode) {
		return false
	}

	return true
}

func (c *Criteria) matchPricing(p *model.Pricing) bool {
	if c.MaxFee == nil && c.InsuranceAccepted == nil {
		return true
	}

	if p == nil {
		return false
	}

	if c.MaxFee != nil && p.BaseFee > *c.MaxFee {
		return false
	}
	if c.InsuranceAccepted != nil && p.InsuranceAccepted != *c.InsuranceAccepted {
		return false
	}

	return true
}

// Apply filters slots against the criteria. specializations maps provider ID
// to that provider's specialization; providers missing from the map are
// treated as having none.
func (c *Criteria) Apply(slots []*model.Availability, specializations map[string]string) []*model.Availability {
	matched := make([]*model.Availability, 0, len(slots))
	for _, slot := range slots {
		if c.Match(slot, specializations[slot.ProviderID]) {
			matched = append(matched, slot)
		}
	}
	return matched
}
