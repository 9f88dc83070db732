package db

import (
	"context"
	"os"

	"go.mongodb.org/mongo-driver/mongo"
)

// WithTransaction runs fn inside a session transaction when the deployment supports
// them (MONGO_SUPPORTS_TRANSACTIONS=true), otherwise directly on ctx.
func WithTransaction[T any](ctx context.Context, db *mongo.Database, fn func(ctx context.Context) (T, error)) (T, error) {
	if os.Getenv("MONGO_SUPPORTS_TRANSACTIONS") != "true" {
		return fn(ctx)
	}

	var zero T
	session, err := db.Client().StartSession()
	if err != nil {
		return zero, err
	}
	defer session.EndSession(ctx)

	result, err := session.WithTransaction(ctx, func(sc mongo.SessionContext) (any, error) {
		return fn(sc)
	})
	if err != nil {
		return zero, err
	}
	return result.(T), nil
}
