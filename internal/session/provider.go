// Package session resolves who is operating the register and which store and
// organization their sales belong to.
package session

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"sync"

	"github.com/example/pos-register/internal/domain/order"
	"golang.org/x/sync/singleflight"
)

const (
	RoleAdmin = "admin"
	RoleStaff = "staff"
)

var (
	ErrNoUser             = errors.New("no user in session")
	ErrIdentityUnresolved = errors.New("store or organization could not be resolved")
)

type contextKey string

const userContextKey contextKey = "session.user"

func WithUser(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, userContextKey, userID)
}

func UserFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(userContextKey).(string)
	return userID, ok && userID != ""
}

type Profile struct {
	UserID         string `json:"user_id"`
	Role           string `json:"role"`
	StoreID        string `json:"store_id"`
	StoreName      string `json:"store_name"`
	OrganizationID string `json:"organization_id"`
}

func (p Profile) Tenant() order.Tenant {
	return order.Tenant{StoreID: p.StoreID, OrganizationID: p.OrganizationID}
}

// ProfileFetcher loads a profile from the remote database. A user with no
// role row yields a profile with an empty role and no store.
type ProfileFetcher interface {
	FetchProfile(ctx context.Context, userID string) (*Profile, error)
}

// Provider caches one profile per user. Concurrent misses for the same user
// share a single fetch.
type Provider struct {
	fetcher ProfileFetcher
	group   singleflight.Group

	mu       sync.RWMutex
	profiles map[string]Profile
}

func NewProvider(fetcher ProfileFetcher) *Provider {
	return &Provider{
		fetcher:  fetcher,
		profiles: make(map[string]Profile),
	}
}

// Profile returns the profile of the user bound to ctx.
func (p *Provider) Profile(ctx context.Context) (Profile, error) {
	userID, ok := UserFromContext(ctx)
	if !ok {
		return Profile{}, ErrNoUser
	}

	p.mu.RLock()
	cached, ok := p.profiles[userID]
	p.mu.RUnlock()
	if ok {
		return cached, nil
	}

	v, err, _ := p.group.Do(userID, func() (interface{}, error) {
		profile, err := p.fetcher.FetchProfile(ctx, userID)
		if err != nil {
			return nil, err
		}
		resolved := normalize(userID, profile)

		p.mu.Lock()
		p.profiles[userID] = resolved
		p.mu.Unlock()

		log.Printf("[Session] Resolved profile for %s: role=%s store=%s", userID, resolved.Role, resolved.StoreID)
		return resolved, nil
	})
	if err != nil {
		return Profile{}, fmt.Errorf("fetch profile: %w", err)
	}
	return v.(Profile), nil
}

// Tenant returns the acting store and organization. Failing to resolve
// either is reported as ErrIdentityUnresolved so no order is ever tagged
// with a blank tenant.
func (p *Provider) Tenant(ctx context.Context) (order.Tenant, error) {
	profile, err := p.Profile(ctx)
	if err != nil {
		return order.Tenant{}, fmt.Errorf("%w: %w", ErrIdentityUnresolved, err)
	}
	tenant := profile.Tenant()
	if err := tenant.Validate(); err != nil {
		return order.Tenant{}, fmt.Errorf("%w: user %s", ErrIdentityUnresolved, profile.UserID)
	}
	return tenant, nil
}

// Forget drops the cached profile, e.g. on logout.
func (p *Provider) Forget(userID string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	delete(p.profiles, userID)
}

func normalize(userID string, profile *Profile) Profile {
	var out Profile
	if profile != nil {
		out = *profile
	}
	out.UserID = userID
	out.StoreID = strings.TrimSpace(out.StoreID)
	out.OrganizationID = strings.TrimSpace(out.OrganizationID)
	if out.Role == "" {
		out.Role = RoleStaff
	}
	return out
}
