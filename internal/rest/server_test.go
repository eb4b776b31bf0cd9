package rest

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/xecut-space/xecut-bot/internal/visit"
)

type fakeBackend struct {
	visits []visit.Visit
	err    error
}

func (f *fakeBackend) CheckIn(context.Context, visit.Uid, *string) error {
	return errors.New("not implemented")
}

func (f *fakeBackend) CheckOut(context.Context, visit.Uid) error {
	return errors.New("not implemented")
}

func (f *fakeBackend) PlanVisit(context.Context, visit.Uid, visit.Day, *string) error {
	return errors.New("not implemented")
}

func (f *fakeBackend) UnplanVisit(context.Context, visit.Uid, visit.Day) error {
	return errors.New("not implemented")
}

func (f *fakeBackend) CheckOutEverybody(context.Context) error {
	return errors.New("not implemented")
}

func (f *fakeBackend) GetVisits(context.Context, visit.Day, visit.Day) ([]visit.Visit, error) {
	return f.visits, f.err
}

func TestCheckedInCount(t *testing.T) {
	today := visit.Today()
	server := NewServer(&fakeBackend{visits: []visit.Visit{
		{Person: 1, Day: today, Status: visit.CheckedIn},
		{Person: 2, Day: today, Status: visit.CheckedIn},
		{Person: 3, Day: today, Status: visit.Planned},
		{Person: 4, Day: today, Status: visit.CheckedOut},
	}})

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/checked_in_count", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); body != "2" {
		t.Errorf("body = %q, want %q", body, "2")
	}
}

func TestCheckedInCountEmpty(t *testing.T) {
	server := NewServer(&fakeBackend{})

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/checked_in_count", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if body := rec.Body.String(); body != "0" {
		t.Errorf("body = %q, want %q", body, "0")
	}
}

func TestCheckedInCountError(t *testing.T) {
	server := NewServer(&fakeBackend{err: errors.New("database is on fire")})

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/checked_in_count", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
	if body := rec.Body.String(); strings.Contains(body, "fire") {
		t.Errorf("body %q leaks internal error detail", body)
	}
}

func TestUnknownPath(t *testing.T) {
	server := NewServer(&fakeBackend{})

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nope", nil))

	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}
