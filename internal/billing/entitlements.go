// Package billing answers one question: may this account use this feature.
// Plans map to feature sets; there is no metering or invoicing here. Denials
// are audited so support can explain why a request was refused.
package billing

import (
	"context"
	"log/slog"

	"aide/internal/actor"
	"aide/internal/audit"
	dErrors "aide/pkg/domain-errors"
)

// Plan is a named tier.
type Plan string

const (
	PlanFree Plan = "free"
	PlanPro  Plan = "pro"
	PlanTeam Plan = "team"
)

// Feature names the capabilities gated by plan.
type Feature string

const (
	FeatureTools      Feature = "tools"
	FeatureMemoryBank Feature = "memory_bank"
	FeatureLongChats  Feature = "long_chats"
)

// planFeatures is the entitlement matrix. Higher tiers are supersets.
var planFeatures = map[Plan]map[Feature]bool{
	PlanFree: {},
	PlanPro:  {FeatureTools: true, FeatureMemoryBank: true},
	PlanTeam: {FeatureTools: true, FeatureMemoryBank: true, FeatureLongChats: true},
}

// PlanResolver looks up the plan an account is on. Backed by the billing
// provider in production, a fixture in tests.
type PlanResolver interface {
	PlanFor(ctx context.Context, accountID string) (Plan, error)
}

// StaticPlans is a fixed account -> plan mapping; accounts not present are
// on the free tier.
type StaticPlans map[string]Plan

func (s StaticPlans) PlanFor(_ context.Context, accountID string) (Plan, error) {
	if plan, ok := s[accountID]; ok {
		return plan, nil
	}
	return PlanFree, nil
}

// Auditor records entitlement denials. *audit.Ledger satisfies this.
type Auditor interface {
	Log(ctx context.Context, act actor.Context, rec audit.Record) error
}

// Service performs entitlement checks.
type Service struct {
	plans   PlanResolver
	auditor Auditor
	logger  *slog.Logger
}

func NewService(plans PlanResolver, auditor Auditor, logger *slog.Logger) *Service {
	return &Service{plans: plans, auditor: auditor, logger: logger}
}

// Require returns nil when the acting account's plan includes the feature.
// System actors bypass the check. Denials are audited; grants are not.
func (s *Service) Require(ctx context.Context, act actor.Context, feature Feature) error {
	if act.Kind == actor.KindSystem {
		return nil
	}
	accountID := act.UserID()
	plan, err := s.plans.PlanFor(ctx, accountID)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to resolve billing plan")
	}
	if planFeatures[plan][feature] {
		return nil
	}

	rec := audit.Record{
		Action:       "billing.entitlement_denied",
		ResourceType: "entitlement",
		ResourceID:   string(feature),
		Details:      map[string]any{"plan": string(plan)},
	}
	if err := s.auditor.Log(ctx, act, rec); err != nil {
		s.logger.WarnContext(ctx, "audit entry lost for entitlement denial", "feature", string(feature), "error", err)
	}
	return dErrors.Newf(dErrors.CodeForbidden, "plan %s does not include %s", plan, feature)
}
