package approval_test

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"aide/internal/actor"
	"aide/internal/approval"
	"aide/internal/approval/store/memory"
	"aide/internal/governance/service"
	id "aide/pkg/domain"
	dErrors "aide/pkg/domain-errors"
	"aide/pkg/requestcontext"
)

func newService(t *testing.T) (*approval.Service, *memory.Store, context.Context) {
	t.Helper()
	store := memory.New()
	svc := approval.NewService(store, slog.New(slog.DiscardHandler))
	ctx := requestcontext.WithTime(context.Background(), time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	return svc, store, ctx
}

func TestService_Open(t *testing.T) {
	svc, _, ctx := newService(t)
	author := actor.NewUser(id.UserID(uuid.New()))
	rid := id.ResourceID(uuid.New())

	ticket, err := svc.Open(ctx, author, service.ApprovalRequest{
		ResourceType: "knowledge",
		ResourceID:   rid,
		Action:       "review",
		Notes:        "please check the MFA section",
	})
	require.NoError(t, err)
	require.NotEmpty(t, ticket.ID)

	t.Run("resubmit reuses the open task", func(t *testing.T) {
		again, err := svc.Open(ctx, author, service.ApprovalRequest{ResourceType: "knowledge", ResourceID: rid})
		require.NoError(t, err)
		assert.Equal(t, ticket.ID, again.ID)
	})
}

func TestService_Inbox(t *testing.T) {
	svc, _, ctx := newService(t)
	author := actor.NewUser(id.UserID(uuid.New()))

	for i := 0; i < 2; i++ {
		_, err := svc.Open(ctx, author, service.ApprovalRequest{ResourceType: "knowledge", ResourceID: id.ResourceID(uuid.New())})
		require.NoError(t, err)
	}
	_, err := svc.Open(ctx, author, service.ApprovalRequest{ResourceType: "prompt", ResourceID: id.ResourceID(uuid.New())})
	require.NoError(t, err)

	t.Run("requires the read permission", func(t *testing.T) {
		_, err := svc.Inbox(ctx, author, "knowledge")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeForbidden))
	})

	t.Run("lists open tasks for one type", func(t *testing.T) {
		reviewer := actor.NewUser(id.UserID(uuid.New()), approval.ReadPermission)
		tasks, err := svc.Inbox(ctx, reviewer, "knowledge")
		require.NoError(t, err)
		assert.Len(t, tasks, 2)
	})
}

func TestService_Resolve(t *testing.T) {
	svc, store, ctx := newService(t)
	author := actor.NewUser(id.UserID(uuid.New()))
	rid := id.ResourceID(uuid.New())

	ticket, err := svc.Open(ctx, author, service.ApprovalRequest{ResourceType: "knowledge", ResourceID: rid})
	require.NoError(t, err)

	svc.Resolve(ctx, rid, "approved")

	task, err := store.Get(ctx, ticket.ID)
	require.NoError(t, err)
	assert.Equal(t, approval.TaskClosed, task.Status)
	assert.Equal(t, "approved", task.Outcome)
	require.NotNil(t, task.ClosedAt)

	t.Run("resolving again is a silent no-op", func(t *testing.T) {
		svc.Resolve(ctx, rid, "approved")
	})

	t.Run("unknown resource is a silent no-op", func(t *testing.T) {
		svc.Resolve(ctx, id.ResourceID(uuid.New()), "rejected")
	})
}
