package service

import (
	"aide/internal/actor"
	"aide/internal/governance/models"
)

// CanView is the read-access policy, distinct from the write/transition
// policy. Published content is broadly readable - including by the assistant
// itself, which consumes it for retrieval without an explicit grant.
// Unpublished content is visible only to its author, reviewers, and system.
func (e *Engine) CanView(act actor.Context, resource *models.Resource) bool {
	if act.Kind == actor.KindSystem {
		return true
	}

	if resource.Status == models.StatusPublished || resource.Active {
		return act.Kind == actor.KindAI || act.HasPermission(e.perms.Read)
	}

	// Draft, pending_review, approved, archived: never visible to the
	// assistant, only to the author and permission-holding reviewers.
	if act.Kind == actor.KindAI {
		return false
	}
	return resource.IsAuthoredBy(act.UserID()) || act.HasPermission(e.perms.Review)
}
