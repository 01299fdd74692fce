package models

import (
	"errors"
	"time"
)

// ApplicationStatus is the triage state of a membership application.
type ApplicationStatus string

const (
	StatusPending  ApplicationStatus = "pending"
	StatusApproved ApplicationStatus = "approved"
	StatusRejected ApplicationStatus = "rejected"
)

// ErrInvalidStatus is returned when a status value is outside the known set.
var ErrInvalidStatus = errors.New("invalid application status")

// Valid reports whether the status is one of the three recognized values.
func (s ApplicationStatus) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// MembershipApplication is created by the public funnel and triaged by admins.
type MembershipApplication struct {
	ID           string            `bson:"_id" json:"id"`
	Name         string            `bson:"name" json:"name"`
	Email        string            `bson:"email" json:"email"`
	Phone        string            `bson:"phone" json:"phone"`
	FarmName     string            `bson:"farm_name,omitempty" json:"farmName,omitempty"`
	FarmLocation string            `bson:"farm_location" json:"farmLocation"`
	FarmSize     string            `bson:"farm_size" json:"farmSize"`
	Status       ApplicationStatus `bson:"status" json:"status"`
	SubmittedAt  time.Time         `bson:"submitted_at" json:"submittedAt"`
}
