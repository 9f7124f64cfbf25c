// internal/app/store/users/userstore.go
package userstore

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/auth"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/fault"
	"github.com/NandaFebian/workorder-portal-sub000/internal/domain/models"
	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"

	"github.com/dalemusser/waffle/pantry/text"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const bcryptCost = 12

type Store struct {
	c   *mongo.Collection
	log *zap.Logger
}

var (
	ErrDuplicateEmail   = errors.New("a user with this email already exists")
	ErrBadCredentials   = errors.New("invalid email or password")
	ErrAccountSuspended = errors.New("account is suspended")
)

func New(db *mongo.Database, log *zap.Logger) *Store {
	return &Store{c: db.Collection("users"), log: log}
}

// HashPassword returns a bcrypt hash of the plaintext password.
func HashPassword(plain string) (string, error) {
	b, err := bcrypt.GenerateFromPassword([]byte(plain), bcryptCost)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func (s *Store) GetByID(ctx context.Context, id primitive.ObjectID) (models.User, error) {
	var u models.User
	if err := s.c.FindOne(ctx, bson.M{"_id": id}).Decode(&u); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, fmt.Errorf("user %s: %w", id.Hex(), fault.ErrNotFound)
		}
		return models.User{}, err
	}
	return u, nil
}

func (s *Store) GetByEmail(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.c.FindOne(ctx, bson.M{"email": normalizeEmail(email)}).Decode(&u)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return models.User{}, fmt.Errorf("user %s: %w", email, fault.ErrNotFound)
		}
		return models.User{}, err
	}
	return u, nil
}

// Create inserts a user. The PasswordHash must already be set by the
// caller (via HashPassword).
func (s *Store) Create(ctx context.Context, u models.User) (models.User, error) {
	now := time.Now().UTC()
	u.ID = primitive.NewObjectID()
	u.Email = normalizeEmail(u.Email)
	u.FullNameCI = text.Fold(u.FullName)
	if u.Status == "" {
		u.Status = models.UserActive
	}
	u.CreatedAt = now
	u.UpdatedAt = now
	if _, err := s.c.InsertOne(ctx, u); err != nil {
		if wafflemongo.IsDup(err) {
			return models.User{}, ErrDuplicateEmail
		}
		return models.User{}, err
	}
	return u, nil
}

// Authenticate checks email+password and returns the user on success.
func (s *Store) Authenticate(ctx context.Context, email, password string) (models.User, error) {
	u, err := s.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, fault.ErrNotFound) {
			return models.User{}, ErrBadCredentials
		}
		return models.User{}, err
	}
	if u.Status != models.UserActive {
		return models.User{}, ErrAccountSuspended
	}
	if bcrypt.CompareHashAndPassword([]byte(u.PasswordHash), []byte(password)) != nil {
		return models.User{}, ErrBadCredentials
	}
	return u, nil
}

// SetPosition assigns or clears a staff member's position.
func (s *Store) SetPosition(ctx context.Context, id primitive.ObjectID, positionID *primitive.ObjectID) error {
	update := bson.M{"$set": bson.M{"updated_at": time.Now().UTC()}}
	if positionID == nil {
		update["$unset"] = bson.M{"position_id": ""}
	} else {
		update["$set"].(bson.M)["position_id"] = *positionID
	}
	res, err := s.c.UpdateByID(ctx, id, update)
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return fmt.Errorf("user %s: %w", id.Hex(), fault.ErrNotFound)
	}
	return nil
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
		return fmt.Errorf("user %s: %w", id.Hex(), fault.ErrNotFound)
	}
	return nil
}

// ListByCompany returns users for a company filtered by role, sorted by
// folded name. An empty role returns every role.
func (s *Store) ListByCompany(ctx context.Context, companyID primitive.ObjectID, role string) ([]models.User, error) {
	filter := bson.M{"company_id": companyID}
	if role != "" {
		filter["role"] = role
	}
	cur, err := s.c.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "full_name_ci", Value: 1}}))
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []models.User
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) CountByEmail(ctx context.Context, email string) (int64, error) {
	return s.c.CountDocuments(ctx, bson.M{"email": normalizeEmail(email)})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// FetchUser implements auth.UserFetcher. Suspended or missing users yield
// nil so their tokens stop working immediately.
func (s *Store) FetchUser(ctx context.Context, userID string) *auth.TokenUser {
	id, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return nil
	}
	u, err := s.GetByID(ctx, id)
	if err != nil {
		if !errors.Is(err, fault.ErrNotFound) {
			s.log.Warn("fetch token user", zap.String("user_id", userID), zap.Error(err))
		}
		return nil
	}
	if u.Status != models.UserActive {
		return nil
	}
	return &auth.TokenUser{
		ID:         u.ID,
		FullName:   u.FullName,
		Email:      u.Email,
		Role:       u.Role,
		CompanyID:  u.CompanyID,
		PositionID: u.PositionID,
	}
}
