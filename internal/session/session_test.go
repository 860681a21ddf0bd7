package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iliyamo/ticketbari-web/internal/model"
	"github.com/iliyamo/ticketbari-web/internal/role"
)

func TestRoleCachedPerPrincipal(t *testing.T) {
	s := New("sid")
	assert.False(t, s.SetResolution(alice.Email, role.Resolution{Role: role.Vendor}), "no principal yet")

	s.set(alice, "tok")
	_, resolved := s.Role()
	assert.False(t, resolved)

	require.True(t, s.SetResolution(alice.Email, role.Resolution{Role: role.Vendor}))
	r, resolved := s.Role()
	assert.True(t, resolved)
	assert.Equal(t, role.Vendor, r)

	// Same principal again keeps the role; a different one drops it.
	s.set(alice, "tok2")
	_, resolved = s.Role()
	assert.True(t, resolved)
	s.set(model.Principal{Email: "bob@example.com"}, "tok3")
	_, resolved = s.Role()
	assert.False(t, resolved)

	// A late answer for alice is not attached to bob.
	assert.False(t, s.SetResolution(alice.Email, role.Resolution{Role: role.Administrator}))
}

func TestRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	st := NewRedisStore(rdb)
	ctx := context.Background()

	_, ok, err := st.Load(ctx, "sid")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.Save(ctx, "sid", Record{Principal: &alice, Token: "tok"}, time.Minute))
	assert.Equal(t, "tok", mr.HGet("session:sid", "token"))
	assert.Equal(t, time.Minute, mr.TTL("session:sid"))

	rec, ok, err := st.Load(ctx, "sid")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, alice, *rec.Principal)
	assert.Equal(t, "tok", rec.Token)

	mr.FastForward(2 * time.Minute)
	_, ok, err = st.Load(ctx, "sid")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, st.Save(ctx, "sid", Record{Principal: &alice}, time.Minute))
	require.NoError(t, st.Delete(ctx, "sid"))
	assert.False(t, mr.Exists("session:sid"))
}
