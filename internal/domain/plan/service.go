package plan

import (
	"context"
	"fmt"
	"log"
	"time"
)

// Repository reads plan data for an organization. OrganizationPlan returns
// an empty plan when the organization has none recorded.
type Repository interface {
	PlanConfigs(ctx context.Context) ([]Config, error)
	OrganizationPlan(ctx context.Context, orgID string) (string, error)
	CountUsage(ctx context.Context, orgID string, since time.Time) (Usage, error)
	SubscriptionValidUntil(ctx context.Context, orgID string) (*time.Time, error)
}

// Cache holds plan configs between requests. Any GetConfigs error is a miss.
type Cache interface {
	GetConfigs(ctx context.Context) ([]Config, error)
	SetConfigs(ctx context.Context, configs []Config) error
}

type Service struct {
	repo  Repository
	cache Cache
	now   func() time.Time
}

// NewService creates a plan service. cache may be nil.
func NewService(repo Repository, cache Cache) *Service {
	return &Service{repo: repo, cache: cache, now: time.Now}
}

// Configs returns plan tiers keyed by id: cached, then from the repository,
// then the built-in defaults when neither has any.
func (s *Service) Configs(ctx context.Context) map[string]Config {
	if s.cache != nil {
		if cached, err := s.cache.GetConfigs(ctx); err == nil && len(cached) > 0 {
			return index(cached)
		}
	}

	configs, err := s.repo.PlanConfigs(ctx)
	if err != nil {
		log.Printf("[Plan] Failed to load plan configs, using defaults: %v", err)
		return DefaultConfigs()
	}
	if len(configs) == 0 {
		return DefaultConfigs()
	}

	if s.cache != nil {
		if err := s.cache.SetConfigs(ctx, configs); err != nil {
			log.Printf("[Plan] Failed to cache plan configs: %v", err)
		}
	}
	return index(configs)
}

func index(configs []Config) map[string]Config {
	out := make(map[string]Config, len(configs))
	for _, c := range configs {
		out[c.ID] = c
	}
	return out
}

// Status resolves the organization's plan, limits and usage this month.
// Unknown or missing plans fall back to starter.
func (s *Service) Status(ctx context.Context, orgID string) (*Status, error) {
	configs := s.Configs(ctx)

	planID, err := s.repo.OrganizationPlan(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("load organization plan: %w", err)
	}
	limits, ok := configs[planID]
	if !ok {
		planID = Starter
		limits, ok = configs[Starter]
		if !ok {
			limits = DefaultConfigs()[Starter]
		}
	}

	usage, err := s.repo.CountUsage(ctx, orgID, MonthStart(s.now()))
	if err != nil {
		return nil, fmt.Errorf("count usage: %w", err)
	}

	return &Status{Plan: planID, Limits: limits, Usage: usage}, nil
}

func (s *Service) Subscription(ctx context.Context, orgID string) (Subscription, error) {
	validUntil, err := s.repo.SubscriptionValidUntil(ctx, orgID)
	if err != nil {
		return Subscription{}, fmt.Errorf("load subscription: %w", err)
	}
	return NewSubscription(validUntil, s.now()), nil
}
