// internal/domain/models/workreport.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// WorkReport statuses.
const (
	ReportInProgress = "in_progress"
	ReportCompleted  = "completed"
	ReportCancelled  = "cancelled"
	ReportRejected   = "rejected"
)

// WorkReport pairs one-to-one with a WorkOrder and is created in the same
// approval step. ReportForms is frozen from the originating service
// version's report form list, access lists included.
type WorkReport struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CompanyID   primitive.ObjectID `bson:"company_id" json:"company_id"`
	WorkOrderID primitive.ObjectID `bson:"work_order_id" json:"work_order_id"`

	Status      string         `bson:"status" json:"status"`
	ReportForms []FormSnapshot `bson:"report_forms" json:"report_forms"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
