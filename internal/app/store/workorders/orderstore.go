// internal/app/store/workorders/orderstore.go
package orderstore

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
	return &Store{c: db.Collection("work_orders")}
}

// notDeleted excludes soft-deleted orders from every read path.
func notDeleted(filter bson.M) bson.M {
	filter["deleted_at"] = bson.M{"$exists": false}
	return filter
}

// Create inserts a drafted work order. The caller supplies the frozen
// work-order form snapshots derived at approval time.
func (s *Store) Create(ctx context.Context, wo models.WorkOrder) (models.WorkOrder, error) {
	now := time.Now().UTC()
	wo.ID = primitive.NewObjectID()
	wo.Status = models.OrderDrafted
	if wo.Priority == "" {
		wo.Priority = models.PriorityMedium
	}
	if wo.AssignedStaffIDs == nil {
		wo.AssignedStaffIDs = []primitive.ObjectID{}
	}
	wo.CreatedAt = now
	wo.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, wo); err != nil {
		return models.WorkOrder{}, err
	}
	return wo, nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.WorkOrder, error) {
	var wo models.WorkOrder
	err := s.c.FindOne(ctx, notDeleted(bson.M{"_id": id})).Decode(&wo)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.WorkOrder{}, fmt.Errorf("work order %s: %w", id.Hex(), fault.ErrNotFound)
		}
		return models.WorkOrder{}, err
	}
	return wo, nil
}

// GetForCompany loads a work order and verifies company ownership.
func (s *Store) GetForCompany(ctx context.Context, id, companyID primitive.ObjectID) (models.WorkOrder, error) {
	var wo models.WorkOrder
	err := s.c.FindOne(ctx, notDeleted(bson.M{"_id": id, "company_id": companyID})).Decode(&wo)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.WorkOrder{}, fmt.Errorf("work order %s: %w", id.Hex(), fault.ErrNotFound)
		}
		return models.WorkOrder{}, err
	}
	return wo, nil
}

// SetAssignedStaff replaces the assignment list wholesale.
func (s *Store) SetAssignedStaff(ctx context.Context, id primitive.ObjectID, staffIDs []primitive.ObjectID) error {
	if staffIDs == nil {
		staffIDs = []primitive.ObjectID{}
	}
	res, err := s.c.UpdateOne(ctx, notDeleted(bson.M{"_id": id}), bson.M{"$set": bson.M{
		"assigned_staff_ids": staffIDs,
		"updated_at":         time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("work order %s: %w", id.Hex(), fault.ErrNotFound)
	}
	return nil
}

// SetPriority updates the priority of a live work order.
func (s *Store) SetPriority(ctx context.Context, id primitive.ObjectID, priority string) error {
	res, err := s.c.UpdateOne(ctx, notDeleted(bson.M{"_id": id}), bson.M{"$set": bson.M{
		"priority":   priority,
		"updated_at": time.Now().UTC(),
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("work order %s: %w", id.Hex(), fault.ErrNotFound)
	}
	return nil
}

// UpdateStatusIf moves the order from one status to the next with a
// compare-and-set. A missed CAS on an existing order is a conflict, so
// racing transitions cannot skip a step.
func (s *Store) UpdateStatusIf(ctx context.Context, id primitive.ObjectID, from, to string) error {
	res, err := s.c.UpdateOne(ctx,
		notDeleted(bson.M{"_id": id, "status": from}),
		bson.M{"$set": bson.M{"status": to, "updated_at": time.Now().UTC()}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		n, err := s.c.CountDocuments(ctx, notDeleted(bson.M{"_id": id}))
		if err != nil {
			return err
		}
		if n == 0 {
			return fmt.Errorf("work order %s: %w", id.Hex(), fault.ErrNotFound)
		}
		return fmt.Errorf("work order %s is not %s: %w", id.Hex(), from, fault.ErrConflict)
	}
	return nil
}

// SoftDelete hides the order from all reads but keeps the document, so
// its snapshots and submissions stay auditable.
func (s *Store) SoftDelete(ctx context.Context, id primitive.ObjectID) error {
	now := time.Now().UTC()
	res, err := s.c.UpdateOne(ctx, notDeleted(bson.M{"_id": id}), bson.M{"$set": bson.M{
		"deleted_at": now,
		"updated_at": now,
	}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("work order %s: %w", id.Hex(), fault.ErrNotFound)
	}
	return nil
}

// Delete removes the document outright. The approval compensation path
// uses this; everything else soft-deletes.
func (s *Store) Delete(ctx context.Context, id primitive.ObjectID) error {
	_, err := s.c.DeleteOne(ctx, bson.M{"_id": id})
	return err
}

// ListByCompany returns a company's live work orders newest first,
// optionally filtered by status.
func (s *Store) ListByCompany(ctx context.Context, companyID primitive.ObjectID, status string) ([]models.WorkOrder, error) {
	filter := notDeleted(bson.M{"company_id": companyID})
	if status != "" {
		filter["status"] = status
	}
	return s.list(ctx, filter)
}

// ListByAssignedStaff returns the live work orders a staff member is
// assigned to.
func (s *Store) ListByAssignedStaff(ctx context.Context, staffID primitive.ObjectID) ([]models.WorkOrder, error) {
	return s.list(ctx, notDeleted(bson.M{"assigned_staff_ids": staffID}))
}

// ListByClient returns the live work orders derived from a client's
// requests.
func (s *Store) ListByClient(ctx context.Context, clientID primitive.ObjectID) ([]models.WorkOrder, error) {
	return s.list(ctx, notDeleted(bson.M{"client_id": clientID}))
}

func (s *Store) list(ctx context.Context, filter bson.M) ([]models.WorkOrder, error) {
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.WorkOrder
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}
