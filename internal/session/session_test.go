package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/elmasnur/nurcombinator/internal/models"
)

func TestAnonymousByDefault(t *testing.T) {
	s := FromContext(context.Background())
	assert.False(t, s.Authenticated())
	assert.Equal(t, "", s.UserID())
	assert.False(t, s.Verified())
}

func TestVerified(t *testing.T) {
	trusted := New("t", &models.User{ID: "u", Profile: &models.Profile{TrustLevel: 1}})
	assert.True(t, trusted.Verified())

	fresh := New("t", &models.User{ID: "u", Profile: &models.Profile{}})
	assert.False(t, fresh.Verified())

	mod := New("t", &models.User{ID: "u", Roles: []models.UserRole{models.UserRoleModerator}})
	assert.True(t, mod.Verified())
}

func TestResetDropsIdentityAndCache(t *testing.T) {
	s := New("t", &models.User{ID: "u"})
	s.CacheLevel("p", 3)
	ctx := NewContext(context.Background(), s)

	FromContext(ctx).Reset()

	assert.False(t, s.Authenticated())
	assert.Equal(t, "", s.Token)
	_, ok := s.CachedLevel("p")
	assert.False(t, ok)
}

func TestForget(t *testing.T) {
	s := New("t", &models.User{ID: "u"})
	s.CacheLevel("p", 1)
	s.Forget("p")
	_, ok := s.CachedLevel("p")
	assert.False(t, ok)
}
