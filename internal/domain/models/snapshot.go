// internal/domain/models/snapshot.go
package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AccessMeta lists the roles and position ids that may fill or view one
// form entry of a work order or report. Empty lists mean nobody is allowed
// via that axis; they never mean "everybody".
type AccessMeta struct {
	FillableRoles       []string             `bson:"fillable_roles" json:"fillable_roles"`
	ViewableRoles       []string             `bson:"viewable_roles" json:"viewable_roles"`
	FillablePositionIDs []primitive.ObjectID `bson:"fillable_position_ids" json:"fillable_position_ids"`
	ViewablePositionIDs []primitive.ObjectID `bson:"viewable_position_ids" json:"viewable_position_ids"`
}

// FormShape is the minimal descriptive shape of a template version that
// gets frozen into downstream documents. FormID is the exact version's
// document id, so the full field list is always recoverable even after the
// template evolves.
type FormShape struct {
	FormID      primitive.ObjectID `bson:"form_id" json:"form_id"`
	Title       string             `bson:"title" json:"title"`
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Type        string             `bson:"type" json:"type"`
}

// FormSnapshot is one entry of a frozen form list embedded in a request,
// work order, or work report. Access is nil for client-intake snapshots and
// carries the service entry's lists verbatim for work-order and report
// snapshots.
type FormSnapshot struct {
	Order  int         `bson:"order" json:"order"`
	Form   FormShape   `bson:"form" json:"form"`
	Access *AccessMeta `bson:"access,omitempty" json:"access,omitempty"`
}
