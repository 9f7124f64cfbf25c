// internal/domain/models/service.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// StaffRequirement constrains how many staff holding a position a work
// order derived from this service should have assigned.
type StaffRequirement struct {
	PositionID primitive.ObjectID `bson:"position_id" json:"position_id"`
	MinCount   int                `bson:"min_count" json:"min_count"`
	MaxCount   int                `bson:"max_count" json:"max_count"`
}

// ServiceFormRef references a form template by its stable key. Access is
// nil on client-intake entries; work-order and report entries carry the
// fill/view lists that get copied into derived snapshots.
type ServiceFormRef struct {
	Order   int         `bson:"order" json:"order"`
	FormKey string      `bson:"form_key" json:"form_key"`
	Access  *AccessMeta `bson:"access,omitempty" json:"access,omitempty"`
}

// Service is one immutable version of a company's published service, with
// the same append-only version scheme as FormTemplate: all versions share
// ServiceKey, Version increases by exactly one per edit, old versions stay
// queryable by document id.
type Service struct {
	ID         primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	ServiceKey string             `bson:"service_key" json:"service_key"`
	Version    int                `bson:"version" json:"version"`

	CompanyID   primitive.ObjectID `bson:"company_id" json:"company_id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Published   bool               `bson:"published" json:"published"`

	StaffRequirements []StaffRequirement `bson:"staff_requirements" json:"staff_requirements"`
	ClientIntakeForms []ServiceFormRef   `bson:"client_intake_forms" json:"client_intake_forms"`
	WorkOrderForms    []ServiceFormRef   `bson:"work_order_forms" json:"work_order_forms"`
	ReportForms       []ServiceFormRef   `bson:"report_forms" json:"report_forms"`

	CreatedBy primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
