package staff

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
)

var ErrMissingOrganization = errors.New("organization id is required")

// Member is one row of the staff directory.
type Member struct {
	UserID         string `json:"user_id"`
	FullName       string `json:"full_name"`
	Email          string `json:"email"`
	Role           string `json:"role"`
	StoreID        string `json:"store_id"`
	StoreName      string `json:"store_name"`
	OrganizationID string `json:"organization_id"`
}

type Directory interface {
	ListStaff(ctx context.Context, orgID string) ([]Member, error)
}

type Service struct {
	directory Directory
}

func NewService(directory Directory) *Service {
	return &Service{directory: directory}
}

// List returns the organization's staff ordered by full name.
func (s *Service) List(ctx context.Context, orgID string) ([]Member, error) {
	if strings.TrimSpace(orgID) == "" {
		return nil, ErrMissingOrganization
	}

	members, err := s.directory.ListStaff(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("list staff: %w", err)
	}
	if members == nil {
		members = []Member{}
	}
	sort.SliceStable(members, func(i, j int) bool {
		return members[i].FullName < members[j].FullName
	})
	return members, nil
}
