// Package access computes role and feature access decisions for a resolved
// identity. Every failure mode is fail-closed: lookups degrade to the lowest
// role or to no-access, never to allow.
package access

import (
	"context"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/castward/castlink/internal/metrics"
	"github.com/castward/castlink/internal/observability/logger"
)

// RoleSource resolves the stored role name for an identity.
type RoleSource interface {
	RoleOf(ctx context.Context, identity string) (string, error)
}

// FeatureSource exposes the backend feature catalog and per-feature checks.
// Treated as black-box RPCs: each call returns a value or fails.
type FeatureSource interface {
	// Catalog returns the set of known feature names.
	Catalog(ctx context.Context) ([]string, error)

	// Check evaluates access to one feature for one identity.
	Check(ctx context.Context, identity, feature string) (bool, error)
}

// FeatureMap maps feature name to access. A missing entry means "unknown"
// and must be treated as no access.
type FeatureMap map[string]bool

// Allowed reports access for a feature, failing closed on missing entries.
func (m FeatureMap) Allowed(feature string) bool {
	return m[feature]
}

// Evaluator computes access decisions. It holds no cache: results are
// recomputed per call so they always reflect the current account context.
type Evaluator struct {
	roles    RoleSource
	features FeatureSource
}

func NewEvaluator(roles RoleSource, features FeatureSource) *Evaluator {
	return &Evaluator{roles: roles, features: features}
}

// Role returns the identity's role, defaulting to the lowest-privilege role
// on any lookup failure. It never returns an error to callers.
func (e *Evaluator) Role(ctx context.Context, identity string) Role {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("access.evaluator"))

	if identity == "" {
		return RoleUnverified
	}

	name, err := e.roles.RoleOf(ctx, identity)
	if err != nil {
		metrics.RoleLookupFailures.Inc()
		log.Warn("role lookup failed, defaulting to lowest role",
			logger.Identity(identity),
			logger.Err(err),
		)
		return RoleUnverified
	}

	role, ok := ParseRole(name)
	if !ok && name != "" {
		log.Warn("unknown role name, defaulting to lowest role",
			logger.Identity(identity),
			logger.Role(name),
		)
	}
	return role
}

// FeatureAccess enumerates the backend catalog and evaluates every feature
// concurrently. A per-feature failure degrades only that feature to false;
// a catalog failure yields an empty (all-false) map. The result is complete:
// it is returned only after every check has settled.
func (e *Evaluator) FeatureAccess(ctx context.Context, identity string) FeatureMap {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Component("access.evaluator"))

	out := make(FeatureMap)
	if identity == "" || e.features == nil {
		return out
	}

	catalog, err := e.features.Catalog(ctx)
	if err != nil {
		metrics.FeatureLookupFailures.Inc()
		log.Warn("feature catalog lookup failed, all features denied", logger.Err(err))
		return out
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	for _, feature := range catalog {
		feature := feature
		g.Go(func() error {
			allowed, err := e.features.Check(gctx, identity, feature)
			if err != nil {
				metrics.FeatureLookupFailures.Inc()
				log.Warn("feature check failed, denied",
					logger.Identity(identity),
					logger.Feature(feature),
					logger.Err(err),
				)
				allowed = false
			}
			mu.Lock()
			out[feature] = allowed
			mu.Unlock()
			// Always nil: one failed feature must not abort the rest.
			return nil
		})
	}
	_ = g.Wait()

	return out
}
