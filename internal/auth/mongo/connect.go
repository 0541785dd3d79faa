// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 HoloMUSH Contributors

package mongo

import (
	"context"

	"github.com/samber/oops"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
	"go.mongodb.org/mongo-driver/v2/mongo/readpref"
)

// Connect opens a client for uri and verifies the primary is reachable.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	if uri == "" {
		return nil, oops.Code("MONGO_CONFIG_INVALID").Errorf("mongo uri is required")
	}

	client, err := mongo.Connect(options.Client().ApplyURI(uri))
	if err != nil {
		return nil, oops.Code("MONGO_CONNECT_FAILED").With("operation", "create client").Wrap(err)
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.WithoutCancel(ctx)) //nolint:errcheck // ping error takes precedence
		return nil, oops.Code("MONGO_CONNECT_FAILED").With("operation", "ping primary").Wrap(err)
	}
	return client, nil
}
