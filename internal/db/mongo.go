package db

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/ruby4mag/alert-normalizer/internal/config"
)

// Collection names.
const (
	TemplatesCollection = "alerttemplates"
	MappingsCollection  = "fieldmappings"
	WhitelistCollection = "whitelistrules"
	UsersCollection     = "users"
)

// ConnectMongo opens a client and checks the server is reachable.
func ConnectMongo(ctx context.Context, cfg config.MongoConfig) (*mongo.Database, func(context.Context) error, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, errors.Wrap(err, "connect mongo")
	}
	if err := client.Ping(ctx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, errors.Wrap(err, "ping mongo")
	}
	return client.Database(cfg.Database), client.Disconnect, nil
}
