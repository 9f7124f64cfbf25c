// internal/app/store/positions/positionstore.go
package positionstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/fault"
	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type Store struct {
	c *mongo.Collection
}

var ErrDuplicatePositionName = errors.New("a position with this name already exists in the company")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("positions")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Position, error) {
	var p models.Position
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&p); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Position{}, fmt.Errorf("position %s: %w", id.Hex(), fault.ErrNotFound)
		}
		return models.Position{}, err
	}
	return p, nil
}

// GetForCompany loads a position and verifies it belongs to the company.
func (s *Store) GetForCompany(ctx context.Context, id, companyID primitive.ObjectID) (models.Position, error) {
	var p models.Position
	err := s.c.FindOne(ctx, bson.M{"_id": id, "company_id": companyID}).Decode(&p)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Position{}, fmt.Errorf("position %s: %w", id.Hex(), fault.ErrNotFound)
		}
		return models.Position{}, err
	}
	return p, nil
}

func (s *Store) Create(ctx context.Context, p models.Position) (models.Position, error) {
	now := time.Now().UTC()
	p.ID = primitive.NewObjectID()
	p.NameCI = text.Fold(p.Name)
	p.CreatedAt = now
	p.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, p); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Position{}, ErrDuplicatePositionName
		}
		return models.Position{}, err
	}
	return p, nil
}

func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, name, desc string) error {
	set := bson.M{
		"updated_at":  time.Now().UTC(),
		"description": desc,
	}
	if name != "" {
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicatePositionName
		}
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("position %s: %w", id.Hex(), fault.ErrNotFound)
	}
	return nil
}

func (s *Store) ListByCompany(ctx context.Context, companyID primitive.ObjectID) ([]models.Position, error) {
	cur, err := s.c.Find(ctx, bson.M{"company_id": companyID},
		options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Position
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) Delete(ctx context.Context, id, companyID primitive.ObjectID) (int64, error) {
	res, err := s.c.DeleteOne(ctx, bson.M{"_id": id, "company_id": companyID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}
