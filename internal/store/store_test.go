package store

import (
	"context"
	"testing"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/ruby4mag/alert-normalizer/internal/models"
)

func TestLoader(t *testing.T) {
	ctx := context.Background()
	templates := &MemoryTemplates{}
	mappings := &MemoryMappings{}
	rules := &MemoryRules{}

	require.NoError(t, templates.Create(ctx, &models.AlertFormatTemplate{AlertName: "Port Scan"}))
	require.NoError(t, mappings.Create(ctx, &models.DbFieldMapping{FieldMapping: models.FieldMapping{Label: "Source IP", Path: "srcip"}}))
	older := &models.WhitelistRule{Reason: "older", CreatedAt: time.Now().Add(-time.Hour)}
	require.NoError(t, rules.Create(ctx, older))
	require.NoError(t, rules.Create(ctx, &models.WhitelistRule{Reason: "newer"}))

	snap, err := Loader{Templates: templates, Mappings: mappings, Rules: rules}.Load(ctx)
	require.NoError(t, err)
	require.Len(t, snap.Templates, 1)
	assert.Equal(t, "port scan", snap.Templates[0].AlertIdentifier)
	assert.Equal(t, []models.FieldMapping{{Label: "Source IP", Path: "srcip"}}, snap.GlobalMappings)
	require.Len(t, snap.Rules, 2)
	assert.Equal(t, "newer", snap.Rules[0].Reason)
	assert.Equal(t, "older", snap.Rules[1].Reason)
}

type failingTemplates struct{ MemoryTemplates }

func (*failingTemplates) List(context.Context) ([]models.AlertFormatTemplate, error) {
	return nil, errors.New("boom")
}

func TestLoaderError(t *testing.T) {
	_, err := Loader{Templates: &failingTemplates{}, Mappings: &MemoryMappings{}, Rules: &MemoryRules{}}.Load(context.Background())
	assert.ErrorContains(t, err, "load templates")
}

func TestMemoryTemplates(t *testing.T) {
	ctx := context.Background()
	s := &MemoryTemplates{}
	tmpl := &models.AlertFormatTemplate{AlertName: "DNS Tunnel"}
	require.NoError(t, s.Create(ctx, tmpl))
	assert.False(t, tmpl.ID.IsZero())

	got, err := s.Get(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "dns tunnel", got.AlertIdentifier)

	require.NoError(t, s.Update(ctx, tmpl.ID, &models.AlertFormatTemplate{AlertName: "DNS Tunnel v2"}))
	got, err = s.Get(ctx, tmpl.ID)
	require.NoError(t, err)
	assert.Equal(t, "dns tunnel v2", got.AlertIdentifier)
	assert.Equal(t, tmpl.CreatedAt, got.CreatedAt)

	_, err = s.Get(ctx, primitive.NewObjectID())
	assert.ErrorIs(t, err, ErrNotFound)
	assert.ErrorIs(t, s.Update(ctx, primitive.NewObjectID(), &models.AlertFormatTemplate{}), ErrNotFound)
}

func TestMemoryUsers(t *testing.T) {
	ctx := context.Background()
	s := &MemoryUsers{}
	require.NoError(t, s.Create(ctx, &models.User{Username: "ana"}))
	assert.ErrorIs(t, s.Create(ctx, &models.User{Username: "ana"}), ErrDuplicate)

	u, err := s.FindByUsername(ctx, "ana")
	require.NoError(t, err)
	assert.Equal(t, "ana", u.Username)

	_, err = s.FindByUsername(ctx, "bob")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestMemoryRefreshTokens(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 6, 10, 7, 0, 0, 0, time.UTC)
	s := &MemoryRefreshTokens{now: func() time.Time { return now }}

	require.NoError(t, s.Save(ctx, "tok", "ana", time.Hour))
	name, err := s.Lookup(ctx, "tok")
	require.NoError(t, err)
	assert.Equal(t, "ana", name)

	now = now.Add(2 * time.Hour)
	_, err = s.Lookup(ctx, "tok")
	assert.ErrorIs(t, err, ErrNotFound)
}

// unreachableRedis fails fast on every command.
func unreachableRedis() *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 50 * time.Millisecond,
		MaxRetries:  -1,
	})
}

func TestCachedSnapshotsFallsBackWhenRedisIsDown(t *testing.T) {
	ctx := context.Background()
	templates := &MemoryTemplates{}
	require.NoError(t, templates.Create(ctx, &models.AlertFormatTemplate{AlertName: "Port Scan"}))

	rdb := unreachableRedis()
	defer rdb.Close()
	c := &CachedSnapshots{
		Next:  Loader{Templates: templates, Mappings: &MemoryMappings{}, Rules: &MemoryRules{}},
		Redis: rdb,
		TTL:   time.Minute,
		Log:   zap.NewNop(),
	}

	snap, err := c.Load(ctx)
	require.NoError(t, err)
	assert.Len(t, snap.Templates, 1)
	assert.Error(t, c.Invalidate(ctx))
}

func TestRedisRefreshTokensError(t *testing.T) {
	rdb := unreachableRedis()
	defer rdb.Close()
	_, err := RedisRefreshTokens{Redis: rdb}.Lookup(context.Background(), "tok")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
