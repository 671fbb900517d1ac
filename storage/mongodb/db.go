package mongodb

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/seenelm/tanwir-students-sub000/core"
)

// Collection names. `sessions` and `attendance-records` are the two
// collections the attendance core operates on.
const (
	usersCollection    = "users"
	coursesCollection  = "courses"
	rosterCollection   = "roster"
	sessionsCollection = "sessions"
	recordsCollection  = "attendance-records"
)

// Open connects to MongoDB and pings the primary before returning.
func Open(conf *core.Config) (*mongo.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(conf.Mongo.URI))
	if err != nil {
		return nil, errors.Wrap(err, "connecting to mongodb")
	}
	if err = client.Ping(ctx, readpref.Primary()); err != nil {
		return nil, errors.Wrap(err, "pinging mongodb")
	}
	return client, nil
}

// Close disconnects the client, waiting at most 5s for in-flight operations.
func Close(client *mongo.Client) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return client.Disconnect(ctx)
}
