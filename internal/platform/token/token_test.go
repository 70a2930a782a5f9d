package token

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aide/internal/actor"
	id "aide/pkg/domain"
	dErrors "aide/pkg/domain-errors"
)

func newTestService() *Service {
	return NewService("test-signing-key", "aide", "aide-api")
}

func TestIssueAndValidate(t *testing.T) {
	svc := newTestService()
	userID := id.UserID(uuid.New())
	act := actor.NewUser(userID, "knowledge:read", "knowledge:write")

	signed, err := svc.Issue(act, time.Hour)
	require.NoError(t, err)

	claims, err := svc.Validate(signed)
	require.NoError(t, err)
	assert.Equal(t, "user", claims.Kind)
	assert.Equal(t, userID.String(), claims.Subject)
	assert.Equal(t, []string{"knowledge:read", "knowledge:write"}, claims.Permissions)

	restored, err := ActorFrom(claims)
	require.NoError(t, err)
	assert.Equal(t, act.Kind, restored.Kind)
	assert.Equal(t, act.ID, restored.ID)
	assert.Equal(t, act.Permissions, restored.Permissions)
}

func TestValidate_Failures(t *testing.T) {
	svc := newTestService()

	t.Run("expired token", func(t *testing.T) {
		signed, err := svc.Issue(actor.NewUser(id.UserID(uuid.New())), -time.Minute)
		require.NoError(t, err)
		_, err = svc.Validate(signed)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("wrong signing key", func(t *testing.T) {
		other := NewService("other-key", "aide", "aide-api")
		signed, err := other.Issue(actor.NewUser(id.UserID(uuid.New())), time.Hour)
		require.NoError(t, err)
		_, err = svc.Validate(signed)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("garbage token", func(t *testing.T) {
		_, err := svc.Validate("not.a.token")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}

func TestActorFrom(t *testing.T) {
	svc := newTestService()

	t.Run("admin kind restores an admin actor", func(t *testing.T) {
		signed, err := svc.Issue(actor.NewAdmin(id.UserID(uuid.New()), "admin:ops"), time.Hour)
		require.NoError(t, err)
		claims, err := svc.Validate(signed)
		require.NoError(t, err)
		restored, err := ActorFrom(claims)
		require.NoError(t, err)
		assert.Equal(t, actor.KindAdmin, restored.Kind)
	})

	t.Run("system and ai kinds carry no subject", func(t *testing.T) {
		for _, act := range []actor.Context{actor.NewSystem(), actor.NewAI()} {
			signed, err := svc.Issue(act, time.Hour)
			require.NoError(t, err)
			claims, err := svc.Validate(signed)
			require.NoError(t, err)
			restored, err := ActorFrom(claims)
			require.NoError(t, err)
			assert.Equal(t, act.Kind, restored.Kind)
		}
	})

	t.Run("unknown kind is rejected", func(t *testing.T) {
		_, err := ActorFrom(&Claims{Kind: "superuser"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})

	t.Run("user kind with bad subject is rejected", func(t *testing.T) {
		_, err := ActorFrom(&Claims{Kind: "user"})
		assert.True(t, dErrors.HasCode(err, dErrors.CodeUnauthorized))
	})
}
