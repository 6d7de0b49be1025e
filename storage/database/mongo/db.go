package mongorepos

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// collections
const (
	usersColl  = "users"
	groupsColl = "groups"
	postsColl  = "posts"
)

// Connect opens a client to uri and waits until the server answers.
func Connect(ctx context.Context, uri string, timeout time.Duration) (*mongo.Client, error) {
	opts := options.Client().ApplyURI(uri)
	if timeout > 0 {
		opts.SetTimeout(timeout)
		opts.SetServerSelectionTimeout(timeout)
	}
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, errors.Wrap(err, "connecting")
	}
	if err = client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, errors.Wrap(err, "pinging")
	}
	return client, nil
}

// EnsureIndexes creates the indexes the repositories rely on; it is idempotent.
func EnsureIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		usersColl: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true)},
		},
		groupsColl: {
			{Keys: bson.D{{Key: "name", Value: "text"}}},
			{Keys: bson.D{{Key: "owners", Value: 1}}},
			{Keys: bson.D{{Key: "members", Value: 1}}},
		},
		postsColl: {
			{Keys: bson.D{{Key: "group_id", Value: 1}, {Key: "date_created", Value: -1}}},
			{Keys: bson.D{{Key: "title", Value: "text"}, {Key: "body", Value: "text"}}},
		},
	}
	for coll, models := range indexes {
		if _, err := db.Collection(coll).Indexes().CreateMany(ctx, models); err != nil {
			return errors.Wrapf(err, "creating %s indexes", coll)
		}
	}
	return nil
}

// objectIDs parses the valid hex ids; others cannot match any document and are skipped.
func objectIDs(ids []string) []primitive.ObjectID {
	oids := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		if oid, err := primitive.ObjectIDFromHex(id); err == nil {
			oids = append(oids, oid)
		}
	}
	return oids
}

func textSearch(query string) bson.E {
	return bson.E{Key: "$text", Value: bson.D{{Key: "$search", Value: query}}}
}
