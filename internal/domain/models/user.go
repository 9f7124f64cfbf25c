// internal/domain/models/user.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// User roles.
const (
	RoleSuperAdmin = "superadmin" // app-wide administrator, not tied to a company
	RoleCompany    = "company"    // company owner/operator
	RoleStaff      = "staff"      // company staff member, optionally tied to a Position
	RoleClient     = "client"     // client submitting service requests
)

// User account statuses.
const (
	UserActive   = "active"
	UserDisabled = "disabled"
)

// User represents superadmins, company operators, staff, and clients.
//
// CompanyID is nil for superadmins and for clients that have not been
// attached to a company. PositionID is only meaningful for staff.
type User struct {
	ID           primitive.ObjectID  `bson:"_id,omitempty" json:"id"`
	FullName     string              `bson:"full_name" json:"full_name"`
	FullNameCI   string              `bson:"full_name_ci" json:"-"` // lowercase, diacritics-stripped
	Email        string              `bson:"email" json:"email"`
	PasswordHash string              `bson:"password_hash" json:"-"`
	Role         string              `bson:"role" json:"role"`
	Status       string              `bson:"status" json:"status"`
	CompanyID    *primitive.ObjectID `bson:"company_id,omitempty" json:"company_id,omitempty"`
	PositionID   *primitive.ObjectID `bson:"position_id,omitempty" json:"position_id,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
