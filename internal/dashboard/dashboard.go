// Package dashboard buckets a person's schedules into an upcoming window
// (today through the end of the seventh day ahead) and a recent window (the
// three whole days before today).
package dashboard

import (
	"context"
	"fmt"
	"time"

	"github.com/dukerupert/simp/internal/model"
)

const (
	UpcomingDays = 7
	RecentDays   = 3
)

// Source is the slice of the schedule store the windower reads from.
type Source interface {
	ListStartingBetween(ctx context.Context, ownerID int64, from, to time.Time) ([]model.Schedule, error)
	ListCreatedBetween(ctx context.Context, ownerID int64, from, to time.Time) ([]model.Schedule, error)
}

// Window is the half-open interval [From, To).
type Window struct {
	From time.Time
	To   time.Time
}

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.From) && t.Before(w.To)
}

// StartOfDay returns midnight of t's calendar day in t's location.
func StartOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

// Upcoming covers start dates from the start of today through the end of
// day now+7.
func Upcoming(now time.Time) Window {
	today := StartOfDay(now)
	return Window{From: today, To: today.AddDate(0, 0, UpcomingDays+1)}
}

// Recent covers creation times from the start of day now-3 up to, but not
// including, the start of today.
func Recent(now time.Time) Window {
	today := StartOfDay(now)
	return Window{From: today.AddDate(0, 0, -RecentDays), To: today}
}

type Windower struct {
	src Source
}

func New(src Source) *Windower {
	return &Windower{src: src}
}

// Get evaluates both windows against the same now. A schedule may appear in
// both lists.
func (w *Windower) Get(ctx context.Context, ownerID int64, now time.Time) (*model.Dashboard, error) {
	up := Upcoming(now)
	next, err := w.src.ListStartingBetween(ctx, ownerID, up.From, up.To)
	if err != nil {
		return nil, fmt.Errorf("upcoming schedules: %w", err)
	}

	recent := Recent(now)
	past, err := w.src.ListCreatedBetween(ctx, ownerID, recent.From, recent.To)
	if err != nil {
		return nil, fmt.Errorf("recent schedules: %w", err)
	}

	return &model.Dashboard{Next7Days: next, Past3Days: past}, nil
}
