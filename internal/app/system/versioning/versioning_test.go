package versioning_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/fault"
	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/versioning"
	"github.com/NandaFebian/workorder-portal-sub000/internal/testutil"
	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// versionedDoc is a minimal document for the form_templates collection,
// which carries the unique (form_key, version) index that arbitrates
// racing writers.
type versionedDoc struct {
	ID      primitive.ObjectID `bson:"_id,omitempty"`
	FormKey string             `bson:"form_key"`
	Version int                `bson:"version"`
	Title   string             `bson:"title"`
}

func TestInsertNext_RetriesPastCompetingWriter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	coll := db.Collection("form_templates")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	key := uuid.NewString()
	if _, err := coll.InsertOne(ctx, versionedDoc{ID: primitive.NewObjectID(), FormKey: key, Version: 0, Title: "v0"}); err != nil {
		t.Fatalf("seed insert failed: %v", err)
	}

	// The first build simulates a writer that lands the same version
	// just before our insert, forcing the duplicate-key retry.
	calls := 0
	var rebuildBase *versionedDoc
	err := versioning.InsertNext(ctx, coll, bson.M{"form_key": key}, func(prev *versionedDoc, next int) (any, error) {
		calls++
		if calls == 1 {
			competitor := versionedDoc{ID: primitive.NewObjectID(), FormKey: key, Version: next, Title: "competitor"}
			if _, err := coll.InsertOne(ctx, competitor); err != nil {
				t.Fatalf("competitor insert failed: %v", err)
			}
		} else {
			rebuildBase = prev
		}
		return versionedDoc{ID: primitive.NewObjectID(), FormKey: key, Version: next, Title: fmt.Sprintf("mine attempt %d", calls)}, nil
	})
	if err != nil {
		t.Fatalf("InsertNext failed: %v", err)
	}
	if calls != 2 {
		t.Errorf("build calls: got %d, want 2", calls)
	}
	if rebuildBase == nil || rebuildBase.Title != "competitor" {
		t.Error("expected the retry to rebuild from the competitor's document, not the stale base")
	}

	// Versions 0, 1, 2 with no duplicates: seed, competitor, then ours.
	latest, err := versioning.Latest[versionedDoc](ctx, coll, bson.M{"form_key": key})
	if err != nil {
		t.Fatalf("Latest failed: %v", err)
	}
	if latest.Version != 2 {
		t.Errorf("latest version: got %d, want 2", latest.Version)
	}
	n, err := coll.CountDocuments(ctx, bson.M{"form_key": key})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if n != 3 {
		t.Errorf("document count: got %d, want 3", n)
	}
}

func TestInsertNext_GivesUpAfterBoundedAttempts(t *testing.T) {
	db := testutil.SetupTestDB(t)
	coll := db.Collection("form_templates")
	ctx, cancel := testutil.TestContext()
	defer cancel()

	key := uuid.NewString()

	// A writer that loses every race: each attempt's version is taken
	// before the insert lands.
	calls := 0
	err := versioning.InsertNext(ctx, coll, bson.M{"form_key": key}, func(prev *versionedDoc, next int) (any, error) {
		calls++
		competitor := versionedDoc{ID: primitive.NewObjectID(), FormKey: key, Version: next, Title: "competitor"}
		if _, err := coll.InsertOne(ctx, competitor); err != nil {
			t.Fatalf("competitor insert failed: %v", err)
		}
		return versionedDoc{ID: primitive.NewObjectID(), FormKey: key, Version: next, Title: "mine"}, nil
	})
	if !errors.Is(err, fault.ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if calls != 3 {
		t.Errorf("build calls: got %d, want 3", calls)
	}

	// Only the competitors landed, one per attempt.
	n, err := coll.CountDocuments(ctx, bson.M{"form_key": key, "title": "mine"})
	if err != nil {
		t.Fatalf("CountDocuments failed: %v", err)
	}
	if n != 0 {
		t.Errorf("losing writer left %d documents, want 0", n)
	}
}
