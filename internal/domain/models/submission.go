// internal/domain/models/submission.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Submission types, tagging which kind of owner a submission belongs to.
const (
	SubmissionIntake     = "intake"
	SubmissionWorkOrder  = "work_order"
	SubmissionWorkReport = "work_report"
)

// FieldAnswer holds one answer keyed by the field's order in the original
// template version, not by a stable field identifier.
type FieldAnswer struct {
	Order int `bson:"order" json:"order"`
	Value any `bson:"value" json:"value"`
}

// FormSubmission is a flat answer set against an owning request, work
// order, or work report. FormID is the exact template version the answers
// were filled against; every FieldsData order must exist among that
// version's field orders.
type FormSubmission struct {
	ID             primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CompanyID      primitive.ObjectID `bson:"company_id" json:"company_id"`
	OwnerID        primitive.ObjectID `bson:"owner_id" json:"owner_id"`
	SubmissionType string             `bson:"submission_type" json:"submission_type"`
	FormID         primitive.ObjectID `bson:"form_id" json:"form_id"`
	SubmittedBy    primitive.ObjectID `bson:"submitted_by" json:"submitted_by"`
	FieldsData     []FieldAnswer      `bson:"fields_data" json:"fields_data"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
}
