// internal/app/store/submissions/submissionstore.go

// Package submissionstore is the append-only answer ledger. Submissions
// are validated against the exact template version they were filled
// against (FormID), with answers keyed by field order.
package submissionstore

import (
	"context"
	"fmt"
	"time"

	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/fault"
	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// TemplateGetter resolves the exact template version a submission claims
// to answer. templatestore.Store satisfies it.
type TemplateGetter interface {
	GetByID(ctx context.Context, id primitive.ObjectID) (models.FormTemplate, error)
}

type Store struct {
	c         *mongo.Collection
	templates TemplateGetter
}

func New(db *mongo.Database, templates TemplateGetter) *Store {
	return &Store{c: db.Collection("form_submissions"), templates: templates}
}

// Submit validates the answers against the referenced template version and
// appends the submission. An answer keyed to an order the version does not
// have, or a FormID that resolves to nothing, is an invalid reference.
func (s *Store) Submit(ctx context.Context, sub models.FormSubmission) (models.FormSubmission, error) {
	tmpl, err := s.templates.GetByID(ctx, sub.FormID)
	if err != nil {
		return models.FormSubmission{}, fmt.Errorf("form %s: %w", sub.FormID.Hex(), fault.ErrInvalidReference)
	}

	orders := tmpl.FieldOrders()
	for _, ans := range sub.FieldsData {
		if _, ok := orders[ans.Order]; !ok {
			return models.FormSubmission{}, fmt.Errorf(
				"field order %d not in form %s v%d: %w",
				ans.Order, tmpl.FormKey, tmpl.Version, fault.ErrInvalidReference)
		}
	}

	sub.ID = primitive.NewObjectID()
	sub.CompanyID = tmpl.CompanyID
	if sub.FieldsData == nil {
		sub.FieldsData = []models.FieldAnswer{}
	}
	sub.CreatedAt = time.Now().UTC()
	if _, err := s.c.InsertOne(ctx, sub); err != nil {
		return models.FormSubmission{}, err
	}
	return sub, nil
}

// ListByOwner returns the submissions for one owning entity, oldest first
// so repeated fills read as a history. An empty submissionType matches
// all types.
func (s *Store) ListByOwner(ctx context.Context, ownerID primitive.ObjectID, submissionType string) ([]models.FormSubmission, error) {
	filter := bson.M{"owner_id": ownerID}
	if submissionType != "" {
		filter["submission_type"] = submissionType
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.FormSubmission
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// SubmittedFormIDs returns the distinct template version ids that have at
// least one submission against the owner. The ready transition checks the
// work order's form list against this set.
func (s *Store) SubmittedFormIDs(ctx context.Context, ownerID primitive.ObjectID, submissionType string) (map[primitive.ObjectID]struct{}, error) {
	raw, err := s.c.Distinct(ctx, "form_id", bson.M{
		"owner_id":        ownerID,
		"submission_type": submissionType,
	})
	if err != nil {
		return nil, err
	}
	out := make(map[primitive.ObjectID]struct{}, len(raw))
	for _, v := range raw {
		if id, ok := v.(primitive.ObjectID); ok {
			out[id] = struct{}{}
		}
	}
	return out, nil
}
