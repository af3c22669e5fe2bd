package goals

import (
	"context"
	"errors"
	"log/slog"
	"path/filepath"
	"testing"
	"time"

	"nestegg/internal/core"
	"nestegg/internal/log"
	"nestegg/internal/storage"
)

func newTestService(t *testing.T) *Service {
	t.Helper()
	kv, err := storage.Open(filepath.Join(t.TempDir(), "goals.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { kv.Close() })
	logger := log.New(log.Config{Level: slog.LevelError})
	return New(kv, logger)
}

func createGoal(t *testing.T, s *Service, title string, targetCents int64) core.Goal {
	t.Helper()
	g, err := s.Create(context.Background(), CreateParams{
		Title:        title,
		TargetAmount: core.Money{Cents: targetCents},
		Deadline:     time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("create goal: %v", err)
	}
	return g
}

func TestCreateGoal(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	g := createGoal(t, s, "Emergency Fund", 100000)
	if g.ID == "" {
		t.Fatal("expected assigned ID")
	}
	if g.SavedAmount.Cents != 0 {
		t.Fatalf("expected zero saved amount, got %d", g.SavedAmount.Cents)
	}
	if g.Icon != core.IconBriefcase {
		t.Fatalf("expected fallback icon, got %q", g.Icon)
	}

	goals, err := s.List(ctx)
	if err != nil || len(goals) != 1 {
		t.Fatalf("expected 1 goal, got %d (err=%v)", len(goals), err)
	}

	g2 := createGoal(t, s, "Vacation", 50000)
	if g2.ID == g.ID {
		t.Fatal("expected distinct IDs for rapid creations")
	}
}

func TestCreateRejectsInvalid(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	deadline := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	cases := []struct {
		name string
		p    CreateParams
	}{
		{"empty title", CreateParams{Title: "  ", TargetAmount: core.Money{Cents: 100}, Deadline: deadline}},
		{"zero target", CreateParams{Title: "t", TargetAmount: core.Money{Cents: 0}, Deadline: deadline}},
		{"negative target", CreateParams{Title: "t", TargetAmount: core.Money{Cents: -5}, Deadline: deadline}},
		{"missing deadline", CreateParams{Title: "t", TargetAmount: core.Money{Cents: 100}}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := s.Create(ctx, tc.p); err == nil {
				t.Fatal("expected rejection")
			}
		})
	}

	goals, _ := s.List(ctx)
	if len(goals) != 0 {
		t.Fatalf("expected no goals after rejected creates, got %d", len(goals))
	}
}

func TestFund(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	g := createGoal(t, s, "Vacation", 100000)

	got, err := s.Fund(ctx, g.ID, core.Money{Cents: 25000})
	if err != nil {
		t.Fatalf("fund: %v", err)
	}
	if got.SavedAmount.Cents != 25000 {
		t.Fatalf("expected 25000 saved, got %d", got.SavedAmount.Cents)
	}

	got, err = s.Fund(ctx, g.ID, core.Money{Cents: 75000})
	if err != nil {
		t.Fatalf("fund to target: %v", err)
	}
	if got.SavedAmount.Cents != 100000 {
		t.Fatalf("expected fully funded, got %d", got.SavedAmount.Cents)
	}

	history, err := s.History(ctx, g.ID)
	if err != nil {
		t.Fatalf("history: %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 events, got %d", len(history))
	}
	if history[0].Type != EventFund || history[0].Amount.Cents != 25000 {
		t.Fatalf("unexpected first event: %+v", history[0])
	}
	if history[0].ID == history[1].ID {
		t.Fatal("expected distinct event IDs")
	}
}

func TestFundRejections(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	g := createGoal(t, s, "Vacation", 100000)

	if _, err := s.Fund(ctx, g.ID, core.Money{Cents: 0}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero delta, got %v", err)
	}
	if _, err := s.Fund(ctx, g.ID, core.Money{Cents: -100}); !errors.Is(err, core.ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative delta, got %v", err)
	}
	if _, err := s.Fund(ctx, g.ID, core.Money{Cents: 100001}); !errors.Is(err, core.ErrOverTarget) {
		t.Fatalf("expected ErrOverTarget, got %v", err)
	}
	if _, err := s.Fund(ctx, "missing", core.Money{Cents: 100}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	// rejected operations leave no trace
	got, err := s.Get(ctx, g.ID)
	if err != nil || got.SavedAmount.Cents != 0 {
		t.Fatalf("expected saved amount untouched, got %d (err=%v)", got.SavedAmount.Cents, err)
	}
	history, _ := s.History(ctx, g.ID)
	if len(history) != 0 {
		t.Fatalf("expected no history after rejections, got %d events", len(history))
	}
}

func TestSetSaved(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	g := createGoal(t, s, "Vacation", 100000)

	got, err := s.SetSaved(ctx, g.ID, core.Money{Cents: 40000})
	if err != nil {
		t.Fatalf("set saved: %v", err)
	}
	if got.SavedAmount.Cents != 40000 {
		t.Fatalf("expected 40000, got %d", got.SavedAmount.Cents)
	}

	// overwrite downward is allowed
	got, err = s.SetSaved(ctx, g.ID, core.Money{Cents: 10000})
	if err != nil || got.SavedAmount.Cents != 10000 {
		t.Fatalf("expected 10000 after overwrite, got %d (err=%v)", got.SavedAmount.Cents, err)
	}

	if _, err := s.SetSaved(ctx, g.ID, core.Money{Cents: -1}); !errors.Is(err, core.ErrNegativeSaved) {
		t.Fatalf("expected ErrNegativeSaved, got %v", err)
	}
	if _, err := s.SetSaved(ctx, g.ID, core.Money{Cents: 100001}); !errors.Is(err, core.ErrOverTarget) {
		t.Fatalf("expected ErrOverTarget, got %v", err)
	}

	history, _ := s.History(ctx, g.ID)
	if len(history) != 2 {
		t.Fatalf("expected 2 events, got %d", len(history))
	}
	if history[1].Type != EventSet || history[1].Amount.Cents != 10000 {
		t.Fatalf("expected set event with absolute amount, got %+v", history[1])
	}
}

func TestRemoveCascadesHistory(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()

	g1 := createGoal(t, s, "One", 100000)
	g2 := createGoal(t, s, "Two", 100000)
	if _, err := s.Fund(ctx, g1.ID, core.Money{Cents: 100}); err != nil {
		t.Fatalf("fund: %v", err)
	}
	if _, err := s.Fund(ctx, g2.ID, core.Money{Cents: 200}); err != nil {
		t.Fatalf("fund: %v", err)
	}

	if err := s.Remove(ctx, g1.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}

	goals, _ := s.List(ctx)
	if len(goals) != 1 || goals[0].ID != g2.ID {
		t.Fatalf("expected only second goal, got %+v", goals)
	}
	if h, _ := s.History(ctx, g1.ID); len(h) != 0 {
		t.Fatalf("expected cascaded history removal, got %d events", len(h))
	}
	if h, _ := s.History(ctx, g2.ID); len(h) != 1 {
		t.Fatalf("expected other goal history untouched, got %d events", len(h))
	}

	if err := s.Remove(ctx, g1.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestCompleteWithoutFullFunding(t *testing.T) {
	s := newTestService(t)
	ctx := context.Background()
	g := createGoal(t, s, "Half Done", 100000)
	if _, err := s.Fund(ctx, g.ID, core.Money{Cents: 100}); err != nil {
		t.Fatalf("fund: %v", err)
	}

	if err := s.Complete(ctx, g.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}
	goals, _ := s.List(ctx)
	if len(goals) != 0 {
		t.Fatalf("expected empty active set, got %d", len(goals))
	}
}

func TestProgress(t *testing.T) {
	cases := []struct {
		name          string
		saved, target int64
		want          float64
	}{
		{"zero", 0, 100000, 0},
		{"partial", 25000, 100000, 25},
		{"full", 100000, 100000, 100},
		{"over", 150000, 100000, 100},
		{"zero target", 100, 0, 0},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := core.Goal{SavedAmount: core.Money{Cents: tc.saved}, TargetAmount: core.Money{Cents: tc.target}}
			if got := Progress(g); got != tc.want {
				t.Fatalf("expected %v, got %v", tc.want, got)
			}
		})
	}
}

func TestPacing(t *testing.T) {
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	g := core.Goal{
		TargetAmount: core.Money{Cents: 100000},
		SavedAmount:  core.Money{Cents: 40000},
		Deadline:     asOf.AddDate(0, 0, 10),
	}

	p := PacingFor(g, asOf)
	if p.DaysRemaining != 10 {
		t.Fatalf("expected 10 days, got %d", p.DaysRemaining)
	}
	if p.Remaining.Cents != 60000 {
		t.Fatalf("expected 60000 remaining, got %d", p.Remaining.Cents)
	}
	if p.Daily.Cents != 6000 {
		t.Fatalf("expected 6000 daily, got %d", p.Daily.Cents)
	}
	if p.Weekly.Cents != 42000 {
		t.Fatalf("expected 42000 weekly, got %d", p.Weekly.Cents)
	}
	if p.Monthly.Cents != 180000 {
		t.Fatalf("expected 180000 monthly, got %d", p.Monthly.Cents)
	}
}

func TestPacingPastDeadline(t *testing.T) {
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	g := core.Goal{
		TargetAmount: core.Money{Cents: 100000},
		SavedAmount:  core.Money{Cents: 40000},
		Deadline:     asOf.AddDate(0, 0, -5),
	}

	p := PacingFor(g, asOf)
	if p.DaysRemaining != 0 {
		t.Fatalf("expected 0 days remaining, got %d", p.DaysRemaining)
	}
	if p.Daily.Cents != 0 || p.Weekly.Cents != 0 || p.Monthly.Cents != 0 {
		t.Fatalf("expected zero suggestions past deadline, got %+v", p)
	}
	if p.Remaining.Cents != 60000 {
		t.Fatalf("expected remaining still reported, got %d", p.Remaining.Cents)
	}
}

func TestPacingFullyFunded(t *testing.T) {
	asOf := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	g := core.Goal{
		TargetAmount: core.Money{Cents: 100000},
		SavedAmount:  core.Money{Cents: 100000},
		Deadline:     asOf.AddDate(0, 0, 30),
	}

	p := PacingFor(g, asOf)
	if p.Remaining.Cents != 0 || p.Daily.Cents != 0 {
		t.Fatalf("expected nothing remaining, got %+v", p)
	}
}
