package store

import (
	"context"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/ruby4mag/alert-normalizer/internal/db"
	"github.com/ruby4mag/alert-normalizer/internal/models"
)

// findAll decodes every document matching filter, never returning nil.
func findAll[T any](ctx context.Context, coll *mongo.Collection, filter any, opts ...*options.FindOptions) ([]T, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	cur, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "find %s", coll.Name())
	}
	defer cur.Close(ctx)

	records := []T{}
	for cur.Next(ctx) {
		var record T
		if err := cur.Decode(&record); err != nil {
			return nil, errors.Wrapf(err, "decode %s", coll.Name())
		}
		records = append(records, record)
	}
	if err := cur.Err(); err != nil {
		return nil, errors.Wrapf(err, "iterate %s", coll.Name())
	}
	return records, nil
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter any) (*T, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	var record T
	err := coll.FindOne(ctx, filter).Decode(&record)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, errors.Wrapf(err, "find one %s", coll.Name())
	}
	return &record, nil
}

func insert(ctx context.Context, coll *mongo.Collection, doc any) (primitive.ObjectID, error) {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := coll.InsertOne(ctx, doc)
	if mongo.IsDuplicateKeyError(err) {
		return primitive.NilObjectID, ErrDuplicate
	}
	if err != nil {
		return primitive.NilObjectID, errors.Wrapf(err, "insert %s", coll.Name())
	}
	id, _ := res.InsertedID.(primitive.ObjectID)
	return id, nil
}

func update(ctx context.Context, coll *mongo.Collection, id primitive.ObjectID, set bson.M) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()

	res, err := coll.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return errors.Wrapf(err, "update %s", coll.Name())
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// byInsertion keeps store order for templates and mappings.
var byInsertion = options.Find().SetSort(bson.D{{Key: "_id", Value: 1}})

type MongoTemplates struct {
	coll *mongo.Collection
}

func NewMongoTemplates(database *mongo.Database) *MongoTemplates {
	return &MongoTemplates{coll: database.Collection(db.TemplatesCollection)}
}

func (s *MongoTemplates) List(ctx context.Context) ([]models.AlertFormatTemplate, error) {
	return findAll[models.AlertFormatTemplate](ctx, s.coll, bson.M{}, byInsertion)
}

func (s *MongoTemplates) Get(ctx context.Context, id primitive.ObjectID) (*models.AlertFormatTemplate, error) {
	return findOne[models.AlertFormatTemplate](ctx, s.coll, bson.M{"_id": id})
}

func (s *MongoTemplates) Create(ctx context.Context, t *models.AlertFormatTemplate) error {
	t.Normalize()
	t.ID = primitive.NilObjectID
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}
	id, err := insert(ctx, s.coll, t)
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}

func (s *MongoTemplates) Update(ctx context.Context, id primitive.ObjectID, t *models.AlertFormatTemplate) error {
	t.Normalize()
	t.ID = id
	return update(ctx, s.coll, id, bson.M{
		"alert_identifier": t.AlertIdentifier,
		"alert_name":       t.AlertName,
		"event_name":       t.EventName,
		"expected_format":  t.ExpectedFormat,
		"field_mappings":   t.FieldMappings,
	})
}

type MongoMappings struct {
	coll *mongo.Collection
}

func NewMongoMappings(database *mongo.Database) *MongoMappings {
	return &MongoMappings{coll: database.Collection(db.MappingsCollection)}
}

func (s *MongoMappings) List(ctx context.Context) ([]models.DbFieldMapping, error) {
	return findAll[models.DbFieldMapping](ctx, s.coll, bson.M{}, byInsertion)
}

func (s *MongoMappings) Create(ctx context.Context, m *models.DbFieldMapping) error {
	m.Label = strings.TrimSpace(m.Label)
	m.Path = strings.TrimSpace(m.Path)
	m.ID = primitive.NilObjectID
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}
	id, err := insert(ctx, s.coll, m)
	if err != nil {
		return err
	}
	m.ID = id
	return nil
}

func (s *MongoMappings) Update(ctx context.Context, id primitive.ObjectID, m models.FieldMapping) error {
	return update(ctx, s.coll, id, bson.M{
		"label": strings.TrimSpace(m.Label),
		"path":  strings.TrimSpace(m.Path),
	})
}

type MongoRules struct {
	coll *mongo.Collection
}

func NewMongoRules(database *mongo.Database) *MongoRules {
	return &MongoRules{coll: database.Collection(db.WhitelistCollection)}
}

func (s *MongoRules) List(ctx context.Context) ([]models.WhitelistRule, error) {
	newestFirst := options.Find().SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "_id", Value: -1}})
	return findAll[models.WhitelistRule](ctx, s.coll, bson.M{}, newestFirst)
}

func (s *MongoRules) Get(ctx context.Context, id primitive.ObjectID) (*models.WhitelistRule, error) {
	return findOne[models.WhitelistRule](ctx, s.coll, bson.M{"_id": id})
}

func (s *MongoRules) Create(ctx context.Context, r *models.WhitelistRule) error {
	r.ID = primitive.NilObjectID
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	id, err := insert(ctx, s.coll, r)
	if err != nil {
		return err
	}
	r.ID = id
	return nil
}

type MongoUsers struct {
	coll *mongo.Collection
}

func NewMongoUsers(database *mongo.Database) *MongoUsers {
	return &MongoUsers{coll: database.Collection(db.UsersCollection)}
}

// EnsureIndexes makes usernames unique.
func (s *MongoUsers) EnsureIndexes(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, queryTimeout)
	defer cancel()
	_, err := s.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	return errors.Wrap(err, "create users index")
}

func (s *MongoUsers) FindByUsername(ctx context.Context, username string) (*models.User, error) {
	return findOne[models.User](ctx, s.coll, bson.M{"username": username})
}

func (s *MongoUsers) Create(ctx context.Context, u *models.User) error {
	u.ID = primitive.NilObjectID
	id, err := insert(ctx, s.coll, u)
	if err != nil {
		return err
	}
	u.ID = id
	return nil
}
