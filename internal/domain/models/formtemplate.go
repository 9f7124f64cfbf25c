// internal/domain/models/formtemplate.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Form field types.
const (
	FieldText     = "text"
	FieldTextarea = "textarea"
	FieldNumber   = "number"
	FieldSelect   = "select"
	FieldCheckbox = "checkbox"
	FieldDate     = "date"
)

// FormField is one entry in a template's ordered field list. Order is the
// field's position in the template and is what submissions key their
// answers on, so it must be stable within a version.
type FormField struct {
	Order     int      `bson:"order" json:"order"`
	Label     string   `bson:"label" json:"label"`
	Type      string   `bson:"type" json:"type"`
	Required  bool     `bson:"required" json:"required"`
	Min       *float64 `bson:"min,omitempty" json:"min,omitempty"`
	Max       *float64 `bson:"max,omitempty" json:"max,omitempty"`
	MaxLength *int     `bson:"max_length,omitempty" json:"max_length,omitempty"`
	Options   []string `bson:"options,omitempty" json:"options,omitempty"`
}

// FormTemplate is one immutable version of a logical form. All versions of
// the same form share FormKey; Version starts at 0 and increases by exactly
// one per edit. Editing inserts a new document and never mutates an old one,
// so historical snapshots stay resolvable by document id.
type FormTemplate struct {
	ID      primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	FormKey string             `bson:"form_key" json:"form_key"`
	Version int                `bson:"version" json:"version"`

	CompanyID   primitive.ObjectID `bson:"company_id" json:"company_id"`
	Title       string             `bson:"title" json:"title"`
	TitleCI     string             `bson:"title_ci" json:"-"` // lowercase, diacritics-stripped
	Description string             `bson:"description,omitempty" json:"description,omitempty"`
	Type        string             `bson:"type" json:"type"` // e.g. "general", "checklist", "inspection"
	Fields      []FormField        `bson:"fields" json:"fields"`

	CreatedBy primitive.ObjectID `bson:"created_by" json:"created_by"`
	CreatedAt time.Time          `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time          `bson:"updated_at" json:"updated_at"`
}

// FieldOrders returns the set of valid field orders for this version.
func (t *FormTemplate) FieldOrders() map[int]struct{} {
	orders := make(map[int]struct{}, len(t.Fields))
	for _, f := range t.Fields {
		orders[f.Order] = struct{}{}
	}
	return orders
}
