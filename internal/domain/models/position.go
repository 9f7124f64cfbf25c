// internal/domain/models/position.go
package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Position is a staff job title defined by a company. Services reference
// positions in their staff requirements and in form access lists.
type Position struct {
	ID          primitive.ObjectID `bson:"_id,omitempty" json:"id"`
	CompanyID   primitive.ObjectID `bson:"company_id" json:"company_id"`
	Name        string             `bson:"name" json:"name"`
	NameCI      string             `bson:"name_ci" json:"-"` // lowercase, diacritics-stripped
	Description string             `bson:"description,omitempty" json:"description,omitempty"`

	CreatedAt time.Time `bson:"created_at" json:"created_at"`
	UpdatedAt time.Time `bson:"updated_at" json:"updated_at"`
}
