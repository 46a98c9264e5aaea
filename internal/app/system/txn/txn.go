// Package txn runs multi-document write sequences in a Mongo transaction
// when the deployment supports one (replica set / mongos), and falls back to
// running the writes sequentially on standalone servers.
//
// The membership mutators use this for the two-collection join/leave writes;
// with the fallback the individual writes are still idempotent
// ($addToSet/$pull), so a failure between them leaves a state the next sync
// pass converges out of.
package txn

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/mongo"
)

// WithTransaction executes fn inside a session transaction. If the server
// rejects transactions outright (standalone deployment), fn is re-run once
// without a transaction.
func WithTransaction(ctx context.Context, client *mongo.Client, fn func(ctx context.Context) error) error {
	sess, err := client.StartSession()
	if err != nil {
		// No session support at all; run plainly.
		return fn(ctx)
	}
	defer sess.EndSession(ctx)

	_, err = sess.WithTransaction(ctx, func(sc mongo.SessionContext) (interface{}, error) {
		return nil, fn(sc)
	})
	if err != nil && transactionsUnsupported(err) {
		return fn(ctx)
	}
	return err
}

// transactionsUnsupported detects the errors standalone mongod returns when
// a transaction is attempted.
func transactionsUnsupported(err error) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		// 20 = IllegalOperation ("Transaction numbers are only allowed on a
		// replica set member or mongos").
		if ce.Code == 20 {
			return true
		}
	}
	s := err.Error()
	return strings.Contains(s, "Transaction numbers are only allowed") ||
		strings.Contains(s, "transactions are not supported")
}
