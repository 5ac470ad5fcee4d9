package plan

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	configs     []Config
	configsErr  error
	configCalls int
	plan        string
	usage       Usage
	since       time.Time
	validUntil  *time.Time
	err         error
}

func (f *fakeRepo) PlanConfigs(context.Context) ([]Config, error) {
	f.configCalls++
	return f.configs, f.configsErr
}

func (f *fakeRepo) OrganizationPlan(context.Context, string) (string, error) {
	return f.plan, f.err
}

func (f *fakeRepo) CountUsage(_ context.Context, _ string, since time.Time) (Usage, error) {
	f.since = since
	return f.usage, f.err
}

func (f *fakeRepo) SubscriptionValidUntil(context.Context, string) (*time.Time, error) {
	return f.validUntil, f.err
}

type fakeCache struct {
	configs []Config
	sets    int
}

func (c *fakeCache) GetConfigs(context.Context) ([]Config, error) {
	if c.configs == nil {
		return nil, errors.New("miss")
	}
	return c.configs, nil
}

func (c *fakeCache) SetConfigs(_ context.Context, configs []Config) error {
	c.sets++
	c.configs = configs
	return nil
}

// ============================================
// Limits
// ============================================

func TestStatus_Check(t *testing.T) {
	starter := DefaultConfigs()[Starter]
	business := DefaultConfigs()[Business]

	tests := []struct {
		name     string
		status   Status
		feature  Feature
		expected bool
	}{
		{"starter branch available", Status{Limits: starter, Usage: Usage{Branches: 0}}, FeatureAddBranch, true},
		{"starter branch used", Status{Limits: starter, Usage: Usage{Branches: 1}}, FeatureAddBranch, false},
		{"starter items under", Status{Limits: starter, Usage: Usage{Items: 14}}, FeatureAddItem, true},
		{"starter items at limit", Status{Limits: starter, Usage: Usage{Items: 15}}, FeatureAddItem, false},
		{"starter orders at limit", Status{Limits: starter, Usage: Usage{OrdersThisMonth: 300}}, FeatureCreateOrder, false},
		{"starter no logo", Status{Limits: starter}, FeatureCustomLogo, false},
		{"business unlimited branches", Status{Limits: business, Usage: Usage{Branches: 500}}, FeatureAddBranch, true},
		{"business logo", Status{Limits: business}, FeatureCustomLogo, true},
		{"unknown feature allowed", Status{Limits: starter}, Feature("export_csv"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.status.Check(tt.feature))
		})
	}
}

func TestStatus_Enforce(t *testing.T) {
	s := Status{Plan: Starter, Limits: DefaultConfigs()[Starter], Usage: Usage{Items: 15}}

	assert.ErrorIs(t, s.Enforce(FeatureAddItem), ErrLimitReached)
	assert.NoError(t, s.Enforce(FeatureAddBranch))
}

func TestParseFeature(t *testing.T) {
	f, err := ParseFeature("add_item")
	require.NoError(t, err)
	assert.Equal(t, FeatureAddItem, f)

	_, err = ParseFeature("teleport")
	assert.ErrorIs(t, err, ErrUnknownFeature)
}

func TestMonthStart(t *testing.T) {
	now := time.Date(2026, 3, 17, 15, 4, 5, 0, time.UTC)

	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), MonthStart(now))
}

func TestNewSubscription(t *testing.T) {
	now := time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC)
	past := now.Add(-time.Hour)
	future := now.Add(time.Hour)

	assert.False(t, NewSubscription(nil, now).Expired)
	assert.True(t, NewSubscription(&past, now).Expired)
	assert.False(t, NewSubscription(&future, now).Expired)
	assert.False(t, NewSubscription(&now, now).Expired)
}

// ============================================
// Service
// ============================================

func TestService_StatusUsesRepositoryConfigs(t *testing.T) {
	repo := &fakeRepo{
		configs: []Config{{ID: Starter, MaxItems: Limit(5)}},
		plan:    Starter,
		usage:   Usage{Items: 5},
	}
	svc := NewService(repo, nil)
	svc.now = func() time.Time { return time.Date(2026, 3, 17, 0, 0, 0, 0, time.UTC) }

	status, err := svc.Status(context.Background(), "org-1")

	require.NoError(t, err)
	assert.Equal(t, Starter, status.Plan)
	assert.False(t, status.Check(FeatureAddItem))
	assert.Equal(t, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC), repo.since)
}

func TestService_StatusFallsBackToDefaults(t *testing.T) {
	repo := &fakeRepo{configsErr: errors.New("db down"), plan: Standard}
	svc := NewService(repo, nil)

	status, err := svc.Status(context.Background(), "org-1")

	require.NoError(t, err)
	assert.Equal(t, Standard, status.Plan)
	assert.Nil(t, status.Limits.MaxItems)
	assert.True(t, status.Limits.AllowCustomLogo)
}

func TestService_UnknownPlanIsStarter(t *testing.T) {
	svc := NewService(&fakeRepo{plan: "platinum"}, nil)

	status, err := svc.Status(context.Background(), "org-1")

	require.NoError(t, err)
	assert.Equal(t, Starter, status.Plan)
	assert.Equal(t, 15, *status.Limits.MaxItems)
}

func TestService_ConfigsCached(t *testing.T) {
	repo := &fakeRepo{configs: []Config{{ID: Business}}, plan: Business}
	cache := &fakeCache{}
	svc := NewService(repo, cache)

	_, err := svc.Status(context.Background(), "org-1")
	require.NoError(t, err)
	_, err = svc.Status(context.Background(), "org-1")
	require.NoError(t, err)

	assert.Equal(t, 1, repo.configCalls)
	assert.Equal(t, 1, cache.sets)
}

func TestService_StatusRepositoryError(t *testing.T) {
	svc := NewService(&fakeRepo{err: errors.New("timeout")}, nil)

	_, err := svc.Status(context.Background(), "org-1")

	assert.Error(t, err)
}

func TestService_Subscription(t *testing.T) {
	expired := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	svc := NewService(&fakeRepo{validUntil: &expired}, nil)

	sub, err := svc.Subscription(context.Background(), "org-1")

	require.NoError(t, err)
	assert.True(t, sub.Expired)
	assert.Equal(t, expired, *sub.ValidUntil)
}
