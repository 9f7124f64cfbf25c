// internal/app/store/companies/companystore.go
package companystore

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

var ErrDuplicateCompanyName = errors.New("a company with this name already exists")

func New(db *mongo.Database) *Store {
	return &Store{c: db.Collection("companies")}
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.Company, error) {
	var co models.Company
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&co); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.Company{}, fmt.Errorf("company %s: %w", id.Hex(), fault.ErrNotFound)
		}
		return models.Company{}, err
	}
	return co, nil
}

func (s *Store) Create(ctx context.Context, co models.Company) (models.Company, error) {
	now := time.Now().UTC()
	co.ID = primitive.NewObjectID()
	co.NameCI = text.Fold(co.Name)
	if co.Status == "" {
		co.Status = models.CompanyActive
	}
	co.CreatedAt = now
	co.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, co); err != nil {
		if wafflemongo.IsDup(err) {
			return models.Company{}, ErrDuplicateCompanyName
		}
		return models.Company{}, err
	}
	return co, nil
}

// UpdateInfo patches name/address/phone. Empty strings leave the current
// value in place except address and phone, which can be cleared.
func (s *Store) UpdateInfo(ctx context.Context, id primitive.ObjectID, name, address, phone string) error {
	set := bson.M{
		"updated_at": time.Now().UTC(),
		"address":    address,
		"phone":      phone,
	}
	if name != "" {
		set["name"] = name
		set["name_ci"] = text.Fold(name)
	}
	res, err := s.c.UpdateByID(ctx, id, bson.M{"$set": set})
	if err != nil {
		if wafflemongo.IsDup(err) {
			return ErrDuplicateCompanyName
		}
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("company %s: %w", id.Hex(), fault.ErrNotFound)
	}
	return nil
}

func (s *Store) List(ctx context.Context) ([]models.Company, error) {
	cur, err := s.c.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.Company
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
