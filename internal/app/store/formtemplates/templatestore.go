// internal/app/store/formtemplates/templatestore.go

// Package templatestore persists form templates as an append-only version
// log. Every edit inserts a whole new document with version+1 under the
// same form_key; old versions stay untouched so snapshots taken against
// them remain valid forever.
package templatestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/fault"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/versioning"
	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"

	"github.com/dalemusser/waffle/pantry/text"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicateFieldOrder = errors.New("template fields must have distinct orders")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("form_templates")}
}

// Create inserts version 0 of a brand-new template under a fresh form key.
func (s *Store) Create(ctx context.Context, t models.FormTemplate) (models.FormTemplate, error) {
	if err := checkFieldOrders(t.Fields); err != nil {
		return models.FormTemplate{}, err
	}
	now := time.Now().UTC()
	t.ID = primitive.NewObjectID()
	t.FormKey = uuid.NewString()
	t.Version = 0
	t.TitleCI = text.Fold(t.Title)
	t.CreatedAt = now
	t.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, t); err != nil {
		return models.FormTemplate{}, err
	}
	return t, nil
}

// Patch carries the fields an edit may change. Nil means "keep the
// current value".
type Patch struct {
	Title       *string
	Description *string
	Type        *string
	Fields      *[]models.FormField
}

// UpdateNewVersion appends the next version of the template identified by
// formKey within the company, merging patch over the latest version.
func (s *Store) UpdateNewVersion(ctx context.Context, companyID primitive.ObjectID, formKey string, editedBy primitive.ObjectID, patch Patch) (models.FormTemplate, error) {
	if patch.Fields != nil {
		if err := checkFieldOrders(*patch.Fields); err != nil {
			return models.FormTemplate{}, err
		}
	}

	filter := bson.M{"form_key": formKey, "company_id": companyID}
	var out models.FormTemplate
	err := versioning.InsertNext(ctx, s.c, filter, func(prev *models.FormTemplate, next int) (any, error) {
		if prev == nil {
			return nil, fmt.Errorf("form %s: %w", formKey, fault.ErrNotFound)
		}
		nt := *prev
		nt.ID = primitive.NewObjectID()
		nt.Version = next
		if patch.Title != nil {
			nt.Title = *patch.Title
			nt.TitleCI = text.Fold(*patch.Title)
		}
		if patch.Description != nil {
			nt.Description = *patch.Description
		}
		if patch.Type != nil {
			nt.Type = *patch.Type
		}
		if patch.Fields != nil {
			nt.Fields = *patch.Fields
		}
		nt.CreatedBy = editedBy
		now := time.Now().UTC()
		nt.CreatedAt = now
		nt.UpdatedAt = now
		out = nt
		return nt, nil
	})
	if err != nil {
		return models.FormTemplate{}, err
	}
	return out, nil
}

// GetByID loads one exact version by its document id. Old versions remain
// reachable here even after later edits.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.FormTemplate, error) {
	var t models.FormTemplate
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&t); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.FormTemplate{}, fmt.Errorf("template %s: %w", id.Hex(), fault.ErrNotFound)
		}
		return models.FormTemplate{}, err
	}
	return t, nil
}

// LatestByKey returns the highest version of the template regardless of
// company. Used where a reference has already been validated, e.g. when
// snapshotting a published service's forms.
func (s *Store) LatestByKey(ctx context.Context, formKey string) (models.FormTemplate, error) {
	t, err := versioning.Latest[models.FormTemplate](ctx, s.c, bson.M{"form_key": formKey})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.FormTemplate{}, fmt.Errorf("form %s: %w", formKey, fault.ErrNotFound)
		}
		return models.FormTemplate{}, err
	}
	return t, nil
}

// LatestByKeyForCompany is the company-scoped variant used by authoring
// endpoints.
func (s *Store) LatestByKeyForCompany(ctx context.Context, companyID primitive.ObjectID, formKey string) (models.FormTemplate, error) {
	t, err := versioning.Latest[models.FormTemplate](ctx, s.c, bson.M{
		"form_key":   formKey,
		"company_id": companyID,
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.FormTemplate{}, fmt.Errorf("form %s: %w", formKey, fault.ErrNotFound)
		}
		return models.FormTemplate{}, err
	}
	return t, nil
}

// ListLatestForCompany returns the newest version of every template the
// company owns, sorted by title.
func (s *Store) ListLatestForCompany(ctx context.Context, companyID primitive.ObjectID) ([]models.FormTemplate, error) {
	return versioning.ListLatest[models.FormTemplate](ctx, s.c, "form_key",
		bson.M{"company_id": companyID}, "title_ci")
}

// ListVersions returns the full version history of one template, newest
// first.
func (s *Store) ListVersions(ctx context.Context, companyID primitive.ObjectID, formKey string) ([]models.FormTemplate, error) {
	cur, err := s.c.Find(ctx,
		bson.M{"form_key": formKey, "company_id": companyID},
		options.Find().SetSort(bson.D{{Key: "version", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.FormTemplate
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func checkFieldOrders(fields []models.FormField) error {
	seen := make(map[int]struct{}, len(fields))
	for _, f := range fields {
		if _, dup := seen[f.Order]; dup {
			return ErrDuplicateFieldOrder
		}
		seen[f.Order] = struct{}{}
	}
	return nil
}
