// internal/app/store/workreports/reportstore.go
package reportstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/fault"
	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("work_reports")}
}

// Create inserts the report paired with a work order. The unique index on
// work_order_id makes a second report for the same order a conflict.
func (s *Store) Create(ctx context.Context, rep models.WorkReport) (models.WorkReport, error) {
	now := time.Now().UTC()
	rep.ID = primitive.NewObjectID()
	if rep.Status == "" {
		rep.Status = models.ReportInProgress
	}
	rep.CreatedAt = now
	rep.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, rep); err != nil {
		if wafflemongo.IsDup(err) {
			return models.WorkReport{}, fmt.Errorf("work order %s already has a report: %w",
				rep.WorkOrderID.Hex(), fault.ErrConflict)
		}
		return models.WorkReport{}, err
	}
	return rep, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.WorkReport, error) {
	var rep models.WorkReport
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&rep); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.WorkReport{}, fmt.Errorf("work report %s: %w", id.Hex(), fault.ErrNotFound)
		}
		return models.WorkReport{}, err
	}
	return rep, nil
}

// GetByWorkOrder loads the single report paired with a work order.
func (s *Store) GetByWorkOrder(ctx context.Context, workOrderID primitive.ObjectID) (models.WorkReport, error) {
	var rep models.WorkReport
	err := s.c.FindOne(ctx, bson.M{"work_order_id": workOrderID}).Decode(&rep)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.WorkReport{}, fmt.Errorf("report for work order %s: %w", workOrderID.Hex(), fault.ErrNotFound)
		}
		return models.WorkReport{}, err
	}
	return rep, nil
}

func (s *Store) SetStatus(ctx context.Context, id primitive.ObjectID, status string) error {
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": bson.M{
		"status":     status,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("work report %s: %w", id.Hex(), fault.ErrNotFound)
	}
	return nil
}

// DeleteByWorkOrder removes the report paired with a work order. Used by
// the approval compensation path.
func (s *Store) DeleteByWorkOrder(ctx context.Context, workOrderID primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"work_order_id": workOrderID})
	return err
}

// ListByCompany returns a company's reports newest first, optionally
// filtered by status.
func (s *Store) ListByCompany(ctx context.Context, companyID primitive.ObjectID, status string) ([]models.WorkReport, error) {
	filter := bson.M{"company_id": companyID}
	if status != "" {
		filter["status"] = status
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.WorkReport
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
