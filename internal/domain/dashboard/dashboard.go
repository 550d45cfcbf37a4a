// Package dashboard aggregates the counters shown on the home screen, scoped to the
// caller's role.
package dashboard

import (
	"context"
	"time"

	"github.com/Spok95/school-supply/internal/access"
	"github.com/Spok95/school-supply/internal/domain/requests"
)

type Stats struct {
	TotalMaterials    int
	PendingRequests   int
	LowStockItems     int
	RecentEntries     int
	TotalUsers        int
	RequestsThisMonth int
}

type Materials interface {
	Count(ctx context.Context) (int, error)
	CountLowStock(ctx context.Context) (int, error)
}

type Requests interface {
	Count(ctx context.Context, f requests.Filter, since time.Time) (int, error)
}

type Entries interface {
	CountSince(ctx context.Context, since time.Time) (int, error)
}

type Users interface {
	Count(ctx context.Context) (int, error)
}

type Service struct {
	materials Materials
	requests  Requests
	entries   Entries
	users     Users
	loc       *time.Location
	now       func() time.Time
}

// NewService counts "this month" from midnight on the 1st in loc; nil means UTC.
func NewService(m Materials, r Requests, e Entries, u Users, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{materials: m, requests: r, entries: e, users: u, loc: loc, now: time.Now}
}

// Stats counts only the caller's own requests for requesters; stock and entry
// figures are for staff and the user count for administrators, zero otherwise.
func (s *Service) Stats(ctx context.Context, who access.Identity) (Stats, error) {
	var st Stats
	var err error
	now := s.now().In(s.loc)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	scope := requests.Filter{}
	if !who.IsStaff() {
		scope.RequesterID = who.UserID
	}

	if st.TotalMaterials, err = s.materials.Count(ctx); err != nil {
		return st, err
	}
	pending := scope
	pending.Status = requests.StatusPending
	if st.PendingRequests, err = s.requests.Count(ctx, pending, time.Time{}); err != nil {
		return st, err
	}
	if st.RequestsThisMonth, err = s.requests.Count(ctx, scope, monthStart); err != nil {
		return st, err
	}

	if who.IsStaff() {
		if st.LowStockItems, err = s.materials.CountLowStock(ctx); err != nil {
			return st, err
		}
		if st.RecentEntries, err = s.entries.CountSince(ctx, now.AddDate(0, 0, -7)); err != nil {
			return st, err
		}
	}
	if who.IsAdmin() {
		if st.TotalUsers, err = s.users.Count(ctx); err != nil {
			return st, err
		}
	}
	return st, nil
}
