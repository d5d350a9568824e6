// Package store persists templates, mappings, whitelist rules and users,
// and assembles the read-only snapshot the engine runs on.
package store

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/ruby4mag/alert-normalizer/internal/models"
)

var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a unique value is already taken.
var ErrDuplicate = errors.New("already exists")

// queryTimeout bounds every single store call.
const queryTimeout = 10 * time.Second

type Templates interface {
	List(ctx context.Context) ([]models.AlertFormatTemplate, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.AlertFormatTemplate, error)
	Create(ctx context.Context, t *models.AlertFormatTemplate) error
	Update(ctx context.Context, id primitive.ObjectID, t *models.AlertFormatTemplate) error
}

type Mappings interface {
	List(ctx context.Context) ([]models.DbFieldMapping, error)
	Create(ctx context.Context, m *models.DbFieldMapping) error
	Update(ctx context.Context, id primitive.ObjectID, m models.FieldMapping) error
}

type Rules interface {
	// List returns rules newest first; matching relies on that order.
	List(ctx context.Context) ([]models.WhitelistRule, error)
	Get(ctx context.Context, id primitive.ObjectID) (*models.WhitelistRule, error)
	Create(ctx context.Context, r *models.WhitelistRule) error
}

type Users interface {
	FindByUsername(ctx context.Context, username string) (*models.User, error)
	Create(ctx context.Context, u *models.User) error
}

type RefreshTokens interface {
	Save(ctx context.Context, token, username string, ttl time.Duration) error
	Lookup(ctx context.Context, token string) (string, error)
}

// Snapshots loads everything one engine call needs.
type Snapshots interface {
	Load(ctx context.Context) (models.Snapshot, error)
	Invalidate(ctx context.Context) error
}

// Loader builds snapshots straight from the repositories.
type Loader struct {
	Templates Templates
	Mappings  Mappings
	Rules     Rules
}

func (l Loader) Load(ctx context.Context) (models.Snapshot, error) {
	templates, err := l.Templates.List(ctx)
	if err != nil {
		return models.Snapshot{}, errors.Wrap(err, "load templates")
	}
	mappings, err := l.Mappings.List(ctx)
	if err != nil {
		return models.Snapshot{}, errors.Wrap(err, "load mappings")
	}
	rules, err := l.Rules.List(ctx)
	if err != nil {
		return models.Snapshot{}, errors.Wrap(err, "load whitelist rules")
	}

	global := make([]models.FieldMapping, 0, len(mappings))
	for _, m := range mappings {
		global = append(global, m.FieldMapping)
	}
	return models.Snapshot{Templates: templates, GlobalMappings: global, Rules: rules}, nil
}

// Invalidate is a no-op; Loader keeps nothing.
func (l Loader) Invalidate(context.Context) error {
	return nil
}
