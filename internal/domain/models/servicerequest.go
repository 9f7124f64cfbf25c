// internal/domain/models/servicerequest.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ServiceRequest statuses. A request only ever moves received→approved or
// received→rejected; both outcomes are terminal.
const (
	RequestReceived = "received"
	RequestApproved = "approved"
	RequestRejected = "rejected"
)

// ServiceRequest is a client's request for a service. ServiceID points at
// the exact service version current at submission time, and IntakeForms
// freezes the intake forms' descriptive shapes (no access metadata) so the
// request stays renderable after the service or its templates change.
type ServiceRequest struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CompanyID primitive.ObjectID `bson:"company_id" json:"company_id"`
	ServiceID primitive.ObjectID `bson:"service_id" json:"service_id"`
	ClientID  primitive.ObjectID `bson:"client_id" json:"client_id"`

	Status      string         `bson:"status" json:"status"`
	Note        string         `bson:"note,omitempty" json:"note,omitempty"`
	IntakeForms []FormSnapshot `bson:"intake_forms" json:"intake_forms"`

	DecidedBy *primitive.ObjectID `bson:"decided_by,omitempty" json:"decided_by,omitempty"`
	DecidedAt *time.Time          `bson:"decided_at,omitempty" json:"decided_at,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
