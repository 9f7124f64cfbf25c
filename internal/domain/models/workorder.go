// internal/domain/models/workorder.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkOrder statuses, in forward order. Ready requires every work-order
// form to have at least one submission; in_progress requires ready;
// completed requires in_progress.
const (
	OrderDrafted    = "drafted"
	OrderReady      = "ready"
	OrderInProgress = "in_progress"
	OrderCompleted  = "completed"
)

// WorkOrder priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// WorkOrder is derived from an approved ServiceRequest. WorkOrderForms is
// frozen from the originating service version's work-order form list, with
// each entry's fill/view access lists copied verbatim. Work orders are
// soft-deleted via DeletedAt rather than removed.
type WorkOrder struct {
	ID        primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CompanyID primitive.ObjectID `bson:"company_id" json:"company_id"`
	RequestID primitive.ObjectID `bson:"request_id" json:"request_id"`
	ServiceID primitive.ObjectID `bson:"service_id" json:"service_id"`
	ClientID  primitive.ObjectID `bson:"client_id" json:"client_id"`

	Status   string `bson:"status" json:"status"`
	Priority string `bson:"priority" json:"priority"`

	AssignedStaffIDs []primitive.ObjectID `bson:"assigned_staff_ids" json:"assigned_staff_ids"`
	WorkOrderForms   []FormSnapshot       `bson:"work_order_forms" json:"work_order_forms"`

	CreatedBy primitive.ObjectID `bson:"created_by" json:"created_by"`
	DeletedAt *time.Time         `bson:"deleted_at,omitempty" json:"deleted_at,omitempty"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}
