package model

import "time"

// Provider is the external collaborator entity. This service only reads it:
// registration, verification and credentials live elsewhere.
type Provider struct {
	ID             string    `json:"id,omitempty" bson:"_id,omitempty" validate:"omitempty,mongodb"`
	UserID         string    `json:"user_id" bson:"user_id" validate:"required,mongodb"`
	FirstName      string    `json:"first_name" bson:"first_name" validate:"required,min=2,max=50"`
	LastName       string    `json:"last_name" bson:"last_name" validate:"required,min=2,max=50"`
	Specialization string    `json:"specialization" bson:"specialization" validate:"required,min=2,max=100"`
	ClinicName     string    `json:"clinic_name,omitempty" bson:"clinic_name,omitempty" validate:"omitempty,max=100"`
	CreatedAt      time.Time `json:"created_at" bson:"created_at" validate:"omitempty"`
}

func (p *Provider) FullName() string {
	if p.FirstName == "" {
		return p.LastName
	}
	if p.LastName == "" {
		return p.FirstName
	}
	return p.FirstName + " " + p.LastName
}
