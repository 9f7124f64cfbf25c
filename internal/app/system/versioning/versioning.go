// internal/app/system/versioning/versioning.go

// Package versioning implements the append-only version scheme shared by
// form templates and services: every logical entity has a stable key, each
// edit inserts a whole new document with version incremented by exactly
// one, and old versions are never mutated or deleted.
//
// The strict-increase invariant is enforced by a unique compound index on
// (key, version): two racing writers can both read the same current
// version, but only one insert lands; the loser re-reads and retries, and
// surfaces a conflict after bounded attempts.
package versioning

import (
	"context"
	"errors"
	"fmt"

	wafflemongo "github.com/dalemusser/waffle/pantry/mongo"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/NandaFebian/workorder-portal-sub000/internal/app/system/fault"
)

// maxInsertAttempts bounds the duplicate-key retry loop in InsertNext.
const maxInsertAttempts = 3

// Latest returns the document with the maximum version among those
// matching filter. One FindOne with a version sort, never two round trips,
// so it cannot observe a half-finished update. Returns mongo.ErrNoDocuments
// when nothing matches.
func Latest[T any](ctx context.Context, coll *mongo.Collection, filter bson.M) (T, error) {
	var doc T
	opts := options.FindOne().SetSort(bson.D{{Key: "version", Value: -1}})
	if err := coll.FindOne(ctx, filter, opts).Decode(&doc); err != nil {
		return doc, err
	}
	return doc, nil
}

// ListLatest returns, for every distinct key matching filter, only the
// highest-version document. Implemented as a single aggregation: sort by
// (key asc, version desc), group taking the first document per key, then
// sort the survivors for stable output.
func ListLatest[T any](ctx context.Context, coll *mongo.Collection, keyField string, filter bson.M, outSortField string) ([]T, error) {
	pipeline := []bson.M{
		{"$match": filter},
		{"$sort": bson.D{{Key: keyField, Value: 1}, {Key: "version", Value: -1}}},
		{"$group": bson.M{"_id": "$" + keyField, "doc": bson.M{"$first": "$$ROOT"}}},
		{"$replaceRoot": bson.M{"newRoot": "$doc"}},
		{"$sort": bson.M{outSortField: 1}},
	}

	cur, err := coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cur.Close(ctx)

	var out []T
	if err := cur.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// InsertNext appends the next version for the key selected by filter.
// build receives the current latest document (nil when the key has no
// versions yet) and the next version number, and returns the full document
// to insert. On a duplicate-key collision with a concurrent writer the
// loop re-reads and rebuilds from the fresh latest, so a merge never works
// from a stale base; after maxInsertAttempts it gives up with
// fault.ErrConflict.
func InsertNext[T any](ctx context.Context, coll *mongo.Collection, filter bson.M, build func(prev *T, next int) (any, error)) error {
	for attempt := 0; attempt < maxInsertAttempts; attempt++ {
		var prev *T
		next := 0

		opts := options.FindOne().SetSort(bson.D{{Key: "version", Value: -1}})
		raw, err := coll.FindOne(ctx, filter, opts).Raw()
		switch {
		case err == nil:
			var cur T
			if err := bson.Unmarshal(raw, &cur); err != nil {
				return err
			}
			prev = &cur
			if v, ok := raw.Lookup("version").AsInt64OK(); ok {
				next = int(v) + 1
			}
		case errors.Is(err, mongo.ErrNoDocuments):
			// first version for this key
		default:
			return err
		}

		doc, err := build(prev, next)
		if err != nil {
			return err
		}
		if _, err := coll.InsertOne(ctx, doc); err != nil {
			if wafflemongo.IsDup(err) {
				continue
			}
			return err
		}
		return nil
	}
	return fmt.Errorf("version race on %s: %w", coll.Name(), fault.ErrConflict)
}
