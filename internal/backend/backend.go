// Package backend is the composition point between the visit store and the
// front ends. Front ends call in through the Backend capability interface;
// mutations that report a change trigger an announcement back out through
// the Announcer.
package backend

import (
	"context"
	"fmt"

	"github.com/xecut-space/xecut-bot/internal/visit"
)

// Backend is the set of operations a front end may invoke. Keeping it an
// interface lets the bot and the REST server stay ignorant of the wiring and
// lets tests substitute a double.
type Backend interface {
	CheckIn(ctx context.Context, person visit.Uid, purpose *string) error
	CheckOut(ctx context.Context, person visit.Uid) error
	PlanVisit(ctx context.Context, person visit.Uid, day visit.Day, purpose *string) error
	UnplanVisit(ctx context.Context, person visit.Uid, day visit.Day) error
	CheckOutEverybody(ctx context.Context) error
	GetVisits(ctx context.Context, from, to visit.Day) ([]visit.Visit, error)
}

// Announcer posts one-shot announcements when a visit meaningfully changes.
type Announcer interface {
	AnnounceCheckIn(ctx context.Context, update visit.Update) error
	AnnouncePlan(ctx context.Context, update visit.Update) error
	AnnounceUnplan(ctx context.Context, person visit.Uid, day visit.Day) error
}

// Service implements Backend over the visit store. The announcement step is
// not transactional with the store write; a crash between the two loses at
// most one announcement, which is accepted.
type Service struct {
	store     *visit.Store
	announcer Announcer
}

// New creates the backend service.
func New(store *visit.Store, announcer Announcer) *Service {
	return &Service{store: store, announcer: announcer}
}

// CheckIn marks the person as checked in today.
func (s *Service) CheckIn(ctx context.Context, person visit.Uid, purpose *string) error {
	update := visit.Update{
		Person:  person,
		Day:     visit.Today(),
		Purpose: purpose,
		Status:  visit.CheckedIn,
	}

	changed, err := s.store.UpsertVisit(ctx, update)
	if err != nil {
		return fmt.Errorf("checking in: %w", err)
	}

	if changed {
		if err := s.announcer.AnnounceCheckIn(ctx, update); err != nil {
			return fmt.Errorf("announcing check-in: %w", err)
		}
	}

	return nil
}

// CheckOut marks the person as checked out today. Leaving is not announced.
func (s *Service) CheckOut(ctx context.Context, person visit.Uid) error {
	update := visit.Update{
		Person: person,
		Day:    visit.Today(),
		Status: visit.CheckedOut,
	}

	if _, err := s.store.UpsertVisit(ctx, update); err != nil {
		return fmt.Errorf("checking out: %w", err)
	}

	return nil
}

// PlanVisit records a plan to visit on the given day.
func (s *Service) PlanVisit(ctx context.Context, person visit.Uid, day visit.Day, purpose *string) error {
	update := visit.Update{
		Person:  person,
		Day:     day,
		Purpose: purpose,
		Status:  visit.Planned,
	}

	changed, err := s.store.UpsertVisit(ctx, update)
	if err != nil {
		return fmt.Errorf("planning visit: %w", err)
	}

	if changed {
		if err := s.announcer.AnnouncePlan(ctx, update); err != nil {
			return fmt.Errorf("announcing plan: %w", err)
		}
	}

	return nil
}

// UnplanVisit removes the plan for the given day, if any.
func (s *Service) UnplanVisit(ctx context.Context, person visit.Uid, day visit.Day) error {
	deleted, err := s.store.DeleteVisit(ctx, person, day)
	if err != nil {
		return fmt.Errorf("unplanning visit: %w", err)
	}

	if deleted {
		if err := s.announcer.AnnounceUnplan(ctx, person, day); err != nil {
			return fmt.Errorf("announcing unplan: %w", err)
		}
	}

	return nil
}

// CheckOutEverybody closes the space: every record for today becomes
// CheckedOut.
func (s *Service) CheckOutEverybody(ctx context.Context) error {
	if err := s.store.CheckOutEverybody(ctx, visit.Today()); err != nil {
		return fmt.Errorf("closing the space: %w", err)
	}
	return nil
}

// GetVisits returns all visits in the inclusive day range.
func (s *Service) GetVisits(ctx context.Context, from, to visit.Day) ([]visit.Visit, error) {
	return s.store.GetVisits(ctx, from, to)
}
