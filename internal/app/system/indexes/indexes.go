// internal/app/system/indexes/indexes.go
package indexes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.uber.org/zap"
)

/*
EnsureAll is called at startup. Each ensure* function is idempotent.
Errors are aggregated so every problem is visible and startup can fail
fast.

The unique (form_key, version) and (service_key, version) indexes are
load-bearing: they are what turns a lost read-increment-insert race into a
duplicate-key error the version stores can retry on, instead of a silent
duplicate version. The unique work_reports.work_order_id index likewise
guarantees at most one report per work order.
*/
func EnsureAll(ctx context.Context, db *mongo.Database) error {
	var problems []string

	ensure := func(name string, fn func(context.Context, *mongo.Database) error) {
		if err := fn(ctx, db); err != nil {
			problems = append(problems, name+": "+err.Error())
		}
	}

	ensure("companies", ensureCompanies)
	ensure("users", ensureUsers)
	ensure("positions", ensurePositions)
	ensure("form_templates", ensureFormTemplates)
	ensure("services", ensureServices)
	ensure("service_requests", ensureServiceRequests)
	ensure("work_orders", ensureWorkOrders)
	ensure("work_reports", ensureWorkReports)
	ensure("form_submissions", ensureFormSubmissions)

	if len(problems) > 0 {
		return errors.New(strings.Join(problems, "; "))
	}
	return nil
}

type existingIndex struct {
	Name   string `bson:"name"`
	Key    bson.D `bson:"key"`
	Unique *bool  `bson:"unique,omitempty"`
}

func keySig(keys bson.D) string {
	parts := make([]string, 0, len(keys))
	for _, kv := range keys {
		parts = append(parts, fmt.Sprintf("%s:%v", kv.Key, kv.Value))
	}
	return strings.Join(parts, ", ")
}

func sameUnique(a, b *bool) bool {
	av := a != nil && *a
	bv := b != nil && *b
	return av == bv
}

// ensureIndexSet reconciles the desired indexes for one collection:
// an existing index with the same keys and uniqueness is reused, a
// mismatched one is dropped and recreated, and missing ones are created.
func ensureIndexSet(ctx context.Context, coll *mongo.Collection, models []mongo.IndexModel) error {
	existing := map[string]existingIndex{} // sig -> index
	cur, err := coll.Indexes().List(ctx)
	if err == nil {
		for cur.Next(ctx) {
			var idx existingIndex
			if err := cur.Decode(&idx); err != nil {
				zap.L().Warn("failed to decode existing index",
					zap.String("collection", coll.Name()),
					zap.Error(err))
				continue
			}
			existing[keySig(idx.Key)] = idx
		}
		cur.Close(ctx)
	}

	var errs []string
	for _, m := range models {
		var desiredName string
		var desiredUnique *bool
		if m.Options != nil {
			if m.Options.Name != nil {
				desiredName = *m.Options.Name
			}
			desiredUnique = m.Options.Unique
		}
		sig := keySig(m.Keys.(bson.D))

		if ex, ok := existing[sig]; ok {
			if sameUnique(desiredUnique, ex.Unique) {
				continue
			}
			// Uniqueness changed (e.g. upgrading to unique): drop & recreate.
			if _, err := coll.Indexes().DropOne(ctx, ex.Name); err != nil {
				errs = append(errs, fmt.Sprintf("%s(%s): drop failed: %v", coll.Name(), desiredName, err))
				continue
			}
		}

		if _, err := coll.Indexes().CreateOne(ctx, m); err != nil {
			errs = append(errs, fmt.Sprintf("%s(%s): %v", coll.Name(), desiredName, err))
			continue
		}
		zap.L().Info("index ensured",
			zap.String("collection", coll.Name()),
			zap.String("name", desiredName),
			zap.String("keys", sig),
			zap.Bool("unique", desiredUnique != nil && *desiredUnique))
	}

	if len(errs) > 0 {
		return errors.New(strings.Join(errs, "; "))
	}
	return nil
}

func ensureCompanies(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("companies")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Company names are globally unique (case/diacritics folded).
		{
			Keys:    bson.D{{Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_companies_nameci"),
		},
	})
}

func ensureUsers(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("users")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_users_email"),
		},
		// Company staff listings.
		{
			Keys:    bson.D{{Key: "company_id", Value: 1}, {Key: "role", Value: 1}, {Key: "full_name_ci", Value: 1}},
			Options: options.Index().SetName("idx_users_company_role_nameci"),
		},
	})
}

func ensurePositions(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("positions")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// No duplicate position names inside one company.
		{
			Keys:    bson.D{{Key: "company_id", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_positions_company_nameci"),
		},
	})
}

func ensureFormTemplates(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("form_templates")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Strict-increase guard for the append-only version log.
		{
			Keys:    bson.D{{Key: "form_key", Value: 1}, {Key: "version", Value: -1}},
			Options: options.Index().SetUnique(true).SetName("uniq_templates_key_version"),
		},
		// Per-company latest-version grouping.
		{
			Keys:    bson.D{{Key: "company_id", Value: 1}, {Key: "form_key", Value: 1}, {Key: "version", Value: -1}},
			Options: options.Index().SetName("idx_templates_company_key_version"),
		},
	})
}

func ensureServices(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("services")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "service_key", Value: 1}, {Key: "version", Value: -1}},
			Options: options.Index().SetUnique(true).SetName("uniq_services_key_version"),
		},
		{
			Keys:    bson.D{{Key: "company_id", Value: 1}, {Key: "service_key", Value: 1}, {Key: "version", Value: -1}},
			Options: options.Index().SetName("idx_services_company_key_version"),
		},
		// Client catalog browsing.
		{
			Keys:    bson.D{{Key: "published", Value: 1}, {Key: "name_ci", Value: 1}},
			Options: options.Index().SetName("idx_services_published_nameci"),
		},
	})
}

func ensureServiceRequests(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("service_requests")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "company_id", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_requests_company_status_created"),
		},
		{
			Keys:    bson.D{{Key: "client_id", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_requests_client_created"),
		},
	})
}

func ensureWorkOrders(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("work_orders")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "company_id", Value: 1}, {Key: "status", Value: 1}, {Key: "created_at", Value: -1}},
			Options: options.Index().SetName("idx_orders_company_status_created"),
		},
		{
			Keys:    bson.D{{Key: "request_id", Value: 1}},
			Options: options.Index().SetName("idx_orders_request"),
		},
		// Staff "my work orders" lookups (multikey over the array).
		{
			Keys:    bson.D{{Key: "assigned_staff_ids", Value: 1}},
			Options: options.Index().SetName("idx_orders_assigned_staff"),
		},
	})
}

func ensureWorkReports(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("work_reports")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		// Exactly one report per work order.
		{
			Keys:    bson.D{{Key: "work_order_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetName("uniq_reports_work_order"),
		},
	})
}

func ensureFormSubmissions(ctx context.Context, db *mongo.Database) error {
	c := db.Collection("form_submissions")
	return ensureIndexSet(ctx, c, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "owner_id", Value: 1}, {Key: "submission_type", Value: 1}, {Key: "created_at", Value: 1}},
			Options: options.Index().SetName("idx_submissions_owner_type_created"),
		},
		{
			Keys:    bson.D{{Key: "form_id", Value: 1}},
			Options: options.Index().SetName("idx_submissions_form"),
		},
	})
}
