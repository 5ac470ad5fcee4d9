package plan

import (
	"errors"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

const (
	Starter  = "starter"
	Standard = "standard"
	Business = "business"
)

type Feature string

const (
	FeatureAddBranch   Feature = "add_branch"
	FeatureAddItem     Feature = "add_item"
	FeatureCreateOrder Feature = "create_order"
	FeatureCustomLogo  Feature = "custom_logo"
)

var (
	ErrUnknownFeature = errors.New("unknown plan feature")
	ErrLimitReached   = errors.New("plan limit reached")
)

func ParseFeature(s string) (Feature, error) {
	switch f := Feature(s); f {
	case FeatureAddBranch, FeatureAddItem, FeatureCreateOrder, FeatureCustomLogo:
		return f, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownFeature, s)
	}
}

// Config is one plan tier. A nil limit means unlimited.
type Config struct {
	ID              string          `json:"id"`
	Name            string          `json:"name"`
	Price           decimal.Decimal `json:"price"`
	MaxBranches     *int            `json:"max_branches"`
	MaxItems        *int            `json:"max_items"`
	MaxOrders       *int            `json:"max_orders"`
	AllowCustomLogo bool            `json:"allow_custom_logo"`
}

func Limit(n int) *int { return &n }

// DefaultConfigs are used when plan_configs cannot be read.
func DefaultConfigs() map[string]Config {
	return map[string]Config{
		Starter: {
			ID:          Starter,
			Name:        "Starter",
			Price:       decimal.Zero,
			MaxBranches: Limit(1),
			MaxItems:    Limit(15),
			MaxOrders:   Limit(300),
		},
		Standard: {
			ID:              Standard,
			Name:            "Standard",
			Price:           decimal.NewFromInt(15),
			MaxBranches:     Limit(1),
			AllowCustomLogo: true,
		},
		Business: {
			ID:              Business,
			Name:            "Business",
			Price:           decimal.NewFromInt(35),
			AllowCustomLogo: true,
		},
	}
}

// Usage counts what an organization currently consumes.
type Usage struct {
	Branches        int `json:"branches"`
	Items           int `json:"items"`
	OrdersThisMonth int `json:"orders_month"`
}

type Status struct {
	Plan   string `json:"plan"`
	Limits Config `json:"limits"`
	Usage  Usage  `json:"usage"`
}

// Check reports whether the organization may use feature. Features without a
// limit are always allowed.
func (s Status) Check(feature Feature) bool {
	switch feature {
	case FeatureAddBranch:
		return under(s.Usage.Branches, s.Limits.MaxBranches)
	case FeatureAddItem:
		return under(s.Usage.Items, s.Limits.MaxItems)
	case FeatureCreateOrder:
		return under(s.Usage.OrdersThisMonth, s.Limits.MaxOrders)
	case FeatureCustomLogo:
		return s.Limits.AllowCustomLogo
	default:
		return true
	}
}

// Enforce is Check as an error.
func (s Status) Enforce(feature Feature) error {
	if !s.Check(feature) {
		return fmt.Errorf("%w: %s on %s plan", ErrLimitReached, feature, s.Plan)
	}
	return nil
}

func under(used int, limit *int) bool {
	return limit == nil || used < *limit
}

// MonthStart returns midnight UTC on the first day of now's month.
func MonthStart(now time.Time) time.Time {
	now = now.UTC()
	return time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
}
