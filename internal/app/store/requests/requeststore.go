// internal/app/store/requests/requeststore.go
package requeststore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/fault"
	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("service_requests")}
}

// Create inserts a new request in the received state. The caller supplies
// the frozen intake snapshots.
func (s *Store) Create(ctx context.Context, req models.ServiceRequest) (models.ServiceRequest, error) {
	now := time.Now().UTC()
	req.ID = primitive.NewObjectID()
	req.Status = models.RequestReceived
	req.DecidedBy = nil
	req.DecidedAt = nil
	req.CreatedAt = now
	req.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, req); err != nil {
		return models.ServiceRequest{}, err
	}
	return req, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.ServiceRequest, error) {
	var req models.ServiceRequest
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&req); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.ServiceRequest{}, fmt.Errorf("request %s: %w", id.Hex(), fault.ErrNotFound)
		}
		return models.ServiceRequest{}, err
	}
	return req, nil
}

// UpdateStatusIf transitions the request from one status to another with a
// compare-and-set on the current status. If the request is not in `from`
// any more (a concurrent decision won), it returns fault.ErrConflict.
func (s *Store) UpdateStatusIf(ctx context.Context, id primitive.ObjectID, from, to string, decidedBy primitive.ObjectID) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx,
		bson.M{"_id": id, "status": from},
		bson.M{"$set": bson.M{
			"status":     to,
			"decided_by": decidedBy,
			"decided_at": now,
			"updated_at": now,
		}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		// Distinguish "gone" from "already decided".
		n, err := s.c.CountDocuments(ctx, bson.M{"_id": id})
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("request %s: %w", id.Hex(), fault.ErrNotFound)
		}
		return fmt.Errorf("request %s is no longer %s: %w", id.Hex(), from, fault.ErrConflict)
	}
	return nil
}

// RevertStatus is the compensation path for a failed approval: puts the
// request back to received and clears the decision fields.
func (s *Store) RevertStatus(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.UpdateByID(ctx, id, bson.M{
		"$set":   bson.M{"status": models.RequestReceived, "updated_at": time.Now().UTC()},
		"$unset": bson.M{"decided_by": "", "decided_at": ""},
	})
	return err
}

// ListByCompany returns a company's requests newest first, optionally
// filtered by status.
func (s *Store) ListByCompany(ctx context.Context, companyID primitive.ObjectID, status string) ([]models.ServiceRequest, error) {
	filter := bson.M{"company_id": companyID}
	if status != "" {
		filter["status"] = status
	}
	return s.list(ctx, filter)
}

// ListByClient returns a client's own requests newest first.
func (s *Store) ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]models.ServiceRequest, error) {
	return s.list(ctx, bson.M{"client_id": clientID})
}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.ServiceRequest, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.ServiceRequest
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
