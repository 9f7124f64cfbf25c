// internal/app/system/txn/txn.go

// Package txn runs multi-collection write sequences inside a Mongo
// multi-document transaction when the server supports them (replica set or
// sharded cluster), and falls back to plain sequential writes with caller
// supplied compensation on a standalone server.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"
)

// Server error codes that indicate transactions are unavailable rather
// than that the transaction failed.
var notSupportedCodes = map[int32]bool{
	20:  true, // IllegalOperation
	51:  true, // no such command / not supported
	263: true, // OperationNotSupportedInTransaction
}

// Keyword pairs that, when both appear in an error string, indicate the
// deployment does not support transactions.
var notSupportedPairs = [][2]string{
	{"transaction", "replica set"},
	{"session", "not supported"},
	{"transaction", "session"},
	{"illegal operation", "transaction"},
}

// IsNotSupported reports whether err indicates that the connected MongoDB
// deployment cannot run multi-document transactions (e.g. a standalone
// mongod). It matches known server error codes first and falls back to a
// case-insensitive message heuristic that works across vendors.
func IsNotSupported(err error) bool {
	if err == nil {
		return false
	}

	var ce mongo.CommandError
	if errors.As(err, &ce) && notSupportedCodes[ce.Code] {
		return true
	}
	var we mongo.WriteException
	if errors.As(err, &we) {
		for _, e := range we.WriteErrors {
			if notSupportedCodes[int32(e.Code)] {
				return true
			}
		}
	}

	msg := strings.ToLower(err.Error())
	for _, pair := range notSupportedPairs {
		if strings.Contains(msg, pair[0]) && strings.Contains(msg, pair[1]) {
			return true
		}
	}
	return false
}

// Run executes fn transactionally when possible. If starting or running
// the transaction fails because the deployment does not support
// transactions, fn is re-run outside a transaction; if that run fails,
// compensate is invoked so the caller can undo any writes that landed.
//
// compensate may be nil when fn performs a single write.
func Run(ctx context.Context, client *mongo.Client, log *zap.Logger, fn func(ctx context.Context) error, compensate func(ctx context.Context)) error {
	sess, err := client.StartSession()
	if err != nil {
		if !IsNotSupported(err) {
			return err
		}
		return runWithCompensation(ctx, log, fn, compensate)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return nil, fn(sc)
	})
	if err != nil && IsNotSupported(err) {
		log.Warn("transactions unsupported on this deployment, running writes sequentially")
		return runWithCompensation(ctx, log, fn, compensate)
	}
	return err
}

func runWithCompensation(ctx context.Context, log *zap.Logger, fn func(ctx context.Context) error, compensate func(ctx context.Context)) error {
	if err := fn(ctx); err != nil {
		if compensate != nil {
			log.Warn("sequential write failed, compensating", zap.Error(err))
			compensate(ctx)
		}
		return err
	}
	return nil
}
