// Package actor defines the identity model every operation runs under.
//
// An actor is a closed variant over four kinds; there is no hierarchy and no
// process-wide singleton. Callers construct the value they need (services
// under test construct fixtures directly) and pass it through explicitly.
package actor

import (
	"strings"

	id "aide/pkg/domain"
)

// Kind is the closed set of identity variants. Decision points switch
// exhaustively over these four values.
type Kind string

const (
	KindUser   Kind = "user"
	KindAdmin  Kind = "admin"
	KindSystem Kind = "system"
	KindAI     Kind = "ai"
)

// Stand-in identities for actors without a user account. These are the values
// written into authorId/reviewerId fields when a non-human actor mutates a
// resource, so ownership comparisons stay plain string equality.
const (
	SystemActorID = "system"
	AIActorID     = "ai"
)

// Wildcard grants every permission. AdminNamespace-prefixed entries are
// treated as a superset grant (an operator provisioned through the admin
// plane holds everything).
const (
	Wildcard       = "*"
	AdminNamespace = "admin:"
)

// Context is the identity and permission set an operation runs under, plus
// request provenance copied verbatim into audit entries.
type Context struct {
	Kind        Kind
	ID          id.UserID // set for user/admin; zero for system/ai
	Permissions []string

	RequestID string
	IP        string
	UserAgent string
}

// NewUser constructs a user actor with the given permission grants.
func NewUser(userID id.UserID, permissions ...string) Context {
	return Context{Kind: KindUser, ID: userID, Permissions: permissions}
}

// NewAdmin constructs an admin actor with the given permission grants.
func NewAdmin(userID id.UserID, permissions ...string) Context {
	return Context{Kind: KindAdmin, ID: userID, Permissions: permissions}
}

// NewSystem constructs a system actor. System actors are authorized by
// construction; they carry no permission strings.
func NewSystem() Context {
	return Context{Kind: KindSystem}
}

// NewAI constructs an assistant actor. AI actors hold read-only access to
// published content and are denied every governance mutation.
func NewAI() Context {
	return Context{Kind: KindAI}
}

// WithRequest returns a copy carrying request provenance for audit stamping.
func (a Context) WithRequest(requestID, ip, userAgent string) Context {
	a.RequestID = requestID
	a.IP = ip
	a.UserAgent = userAgent
	return a
}

// HasPermission reports whether the actor may perform the named capability.
//
// Rules, in order:
//  1. system actors are always authorized, by construction - never by
//     holding a wildcard in their set.
//  2. otherwise the set must contain the permission verbatim, the wildcard,
//     or any admin-namespace entry (superset grant).
//
// Total: never panics, safe on the zero value.
func (a Context) HasPermission(permission string) bool {
	if a.Kind == KindSystem {
		return true
	}
	for _, grant := range a.Permissions {
		if grant == permission || grant == Wildcard {
			return true
		}
		if strings.HasPrefix(grant, AdminNamespace) {
			return true
		}
	}
	return false
}

// UserID returns the identity string used when comparing against
// authorId/reviewerId fields: the account UUID for user/admin kinds, the
// fixed sentinel for system/ai.
func (a Context) UserID() string {
	switch a.Kind {
	case KindSystem:
		return SystemActorID
	case KindAI:
		return AIActorID
	default:
		return a.ID.String()
	}
}
