package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type cachedUser struct {
	ID     string `json:"id"`
	Points int    `json:"points"`
}

func setupMiniredis(t *testing.T) *miniredis.Miniredis {
	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	SetClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { SetClient(nil) })

	return mr
}

func TestAside_MissThenHit(t *testing.T) {
	setupMiniredis(t)
	ctx := context.Background()

	fetches := 0
	fetch := func(dest *cachedUser) func() error {
		return func() error {
			fetches++
			dest.ID = "u1"
			dest.Points = 35
			return nil
		}
	}

	var first cachedUser
	err := Aside(ctx, UserKey("u1"), &first, UserTTL, fetch(&first))
	assert.NoError(t, err)
	assert.Equal(t, 1, fetches)
	assert.Equal(t, 35, first.Points)

	// Second call must come from the cache.
	var second cachedUser
	err = Aside(ctx, UserKey("u1"), &second, UserTTL, fetch(&second))
	assert.NoError(t, err)
	assert.Equal(t, 1, fetches)
	assert.Equal(t, first, second)
}

func TestAside_FetchErrorNotCached(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	var out cachedUser
	err := Aside(ctx, UserKey("u2"), &out, UserTTL, func() error {
		return errors.New("db down")
	})
	assert.Error(t, err)
	assert.False(t, mr.Exists(UserKey("u2")))
}

func TestInvalidateUser_DropsUserAndLeaderboard(t *testing.T) {
	mr := setupMiniredis(t)
	ctx := context.Background()

	require.NoError(t, SetJSON(ctx, UserKey("u3"), cachedUser{ID: "u3"}, UserTTL))
	require.NoError(t, SetJSON(ctx, LeaderboardKey, []cachedUser{{ID: "u3"}}, LeaderboardTTL))

	InvalidateUser(ctx, "u3")

	assert.False(t, mr.Exists(UserKey("u3")))
	assert.False(t, mr.Exists(LeaderboardKey))
}

func TestHelpers_NoopWithoutClient(t *testing.T) {
	SetClient(nil)
	ctx := context.Background()

	assert.NoError(t, SetJSON(ctx, "k", "v", time.Minute))

	var out string
	found, err := GetJSON(ctx, "k", &out)
	assert.NoError(t, err)
	assert.False(t, found)
}
