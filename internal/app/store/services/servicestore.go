// internal/app/store/services/servicestore.go

// Package servicestore persists services with the same append-only version
// scheme as templatestore: stable service_key, version+1 per edit, old
// versions immutable.
package servicestore

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
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("services")}
}

// Create inserts version 0 of a new service under a fresh service key.
func (s *Store) Create(ctx context.Context, svc models.Service) (models.Service, error) {
	now := time.Now().UTC()
	svc.ID = primitive.NewObjectID()
	svc.ServiceKey = uuid.NewString()
	svc.Version = 0
	svc.NameCI = text.Fold(svc.Name)
	svc.CreatedAt = now
	svc.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, svc); err != nil {
		return models.Service{}, err
	}
	return svc, nil
}

// Patch carries the fields a service edit may change. Nil keeps the
// current value; Published can flip either way.
type Patch struct {
	Name              *string
	Description       *string
	Published         *bool
	StaffRequirements *[]models.StaffRequirement
	ClientIntakeForms *[]models.ServiceFormRef
	WorkOrderForms    *[]models.ServiceFormRef
	ReportForms       *[]models.ServiceFormRef
}

// UpdateNewVersion appends the next version of the service identified by
// serviceKey within the company, merging patch over the latest version.
func (s *Store) UpdateNewVersion(ctx context.Context, companyID primitive.ObjectID, serviceKey string, editedBy primitive.ObjectID, patch Patch) (models.Service, error) {
	filter := bson.M{"service_key": serviceKey, "company_id": companyID}
	var out models.Service
	err := versioning.InsertNext(ctx, s.c, filter, func(prev *models.Service, next int) (any, error) {
		if prev == nil {
			return nil, fmt.Errorf("service %s: %w", serviceKey, fault.ErrNotFound)
		}
		ns := *prev
		ns.ID = primitive.NewObjectID()
		ns.Version = next
		if patch.Name != nil {
			ns.Name = *patch.Name
			ns.NameCI = text.Fold(*patch.Name)
		}
		if patch.Description != nil {
			ns.Description = *patch.Description
		}
		if patch.Published != nil {
			ns.Published = *patch.Published
		}
		if patch.StaffRequirements != nil {
			ns.StaffRequirements = *patch.StaffRequirements
		}
		if patch.ClientIntakeForms != nil {
			ns.ClientIntakeForms = *patch.ClientIntakeForms
		}
		if patch.WorkOrderForms != nil {
			ns.WorkOrderForms = *patch.WorkOrderForms
		}
		if patch.ReportForms != nil {
			ns.ReportForms = *patch.ReportForms
		}
		ns.CreatedBy = editedBy
		now := time.Now().UTC()
		ns.CreatedAt = now
		ns.UpdatedAt = now
		out = ns
		return ns, nil
	})
	if err != nil {
		return models.Service{}, err
	}
	return out, nil
}

// GetByID loads one exact service version by document id. Approvals use
// this to resolve the precise version a request referenced.
func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Service, error) {
	var svc models.Service
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&svc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Service{}, fmt.Errorf("service %s: %w", id.Hex(), fault.ErrNotFound)
		}
		return models.Service{}, err
	}
	return svc, nil
}

// LatestByKey returns the highest version regardless of company. If
// publishedOnly is set, unpublished latest versions are reported as not
// found; clients never learn a hidden service exists.
func (s *Store) LatestByKey(ctx context.Context, serviceKey string, publishedOnly bool) (models.Service, error) {
	svc, err := versioning.Latest[models.Service](ctx, s.c, bson.M{"service_key": serviceKey})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Service{}, fmt.Errorf("service %s: %w", serviceKey, fault.ErrNotFound)
		}
		return models.Service{}, err
	}
	if publishedOnly && !svc.Published {
		return models.Service{}, fmt.Errorf("service %s: %w", serviceKey, fault.ErrNotFound)
	}
	return svc, nil
}

// LatestByKeyForCompany is the company-scoped variant used by authoring
// endpoints.
func (s *Store) LatestByKeyForCompany(ctx context.Context, companyID primitive.ObjectID, serviceKey string) (models.Service, error) {
	svc, err := versioning.Latest[models.Service](ctx, s.c, bson.M{
		"service_key": serviceKey,
		"company_id":  companyID,
	})
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Service{}, fmt.Errorf("service %s: %w", serviceKey, fault.ErrNotFound)
		}
		return models.Service{}, err
	}
	return svc, nil
}

// ListLatestForCompany returns the newest version of every service the
// company owns, published or not.
func (s *Store) ListLatestForCompany(ctx context.Context, companyID primitive.ObjectID) ([]models.Service, error) {
	return versioning.ListLatest[models.Service](ctx, s.c, "service_key",
		bson.M{"company_id": companyID}, "name_ci")
}

// ListPublished returns the client-facing catalog: the newest version of
// every service whose latest version is published.
func (s *Store) ListPublished(ctx context.Context) ([]models.Service, error) {
	latest, err := versioning.ListLatest[models.Service](ctx, s.c, "service_key", bson.M{}, "name_ci")
	if err != nil {
		return nil, err
	}
	// Published is a property of the latest version, so the filter has to
	// run after the per-key grouping, not before it.
	out := latest[:0]
	for _, svc := range latest {
		if svc.Published {
			out = append(out, svc)
		}
	}
	return out, nil
}
