// Package goals owns savings goals and their funding history. Each goal
// carries an independent saved amount, mutated only through Fund and
// SetSaved; every accepted mutation appends one history event. The service
// is the single writer for the goals and goalHistory store keys.
package goals

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"nestegg/internal/core"
	"nestegg/internal/log"
	"nestegg/internal/storage"
)

// History event types.
const (
	EventFund = "add"
	EventSet  = "set"
)

type Service struct {
	mu     sync.Mutex
	store  *storage.KV
	logger *log.Logger
}

func New(store *storage.KV, logger *log.Logger) *Service {
	return &Service{
		store:  store,
		logger: logger.WithComponent(log.ComponentGoals),
	}
}

// CreateParams carries user input for a new goal. Icon and category tags are
// normalized; the service assigns ID and creation timestamp.
type CreateParams struct {
	Title        string
	TargetAmount core.Money
	Deadline     time.Time
	Icon         string
	Description  string
}

func (s *Service) Create(ctx context.Context, p CreateParams) (core.Goal, error) {
	goal := core.Goal{
		ID:           newGoalID(),
		Title:        strings.TrimSpace(p.Title),
		TargetAmount: p.TargetAmount,
		Deadline:     p.Deadline,
		CreatedAt:    time.Now().UTC(),
		Icon:         core.NormalizeGoalIcon(p.Icon),
		Description:  strings.TrimSpace(p.Description),
	}
	if err := goal.Validate(); err != nil {
		return core.Goal{}, fmt.Errorf("validate goal: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	goals, err := s.loadGoalsLocked(ctx)
	if err != nil {
		return core.Goal{}, err
	}
	goals = append(goals, goal)
	if err := s.store.Put(ctx, storage.KeyGoals, goals); err != nil {
		return core.Goal{}, fmt.Errorf("persist goals: %w", err)
	}

	s.logger.InfoContext(ctx, "Goal created",
		log.FieldGoalID, goal.ID,
		"title", goal.Title,
		"target_cents", goal.TargetAmount.Cents,
		"deadline", goal.Deadline.Format(time.RFC3339))
	return goal, nil
}

// List returns all active goals.
func (s *Service) List(ctx context.Context) ([]core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loadGoalsLocked(ctx)
}

// Get returns one goal by ID.
func (s *Service) Get(ctx context.Context, goalID string) (core.Goal, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	goals, err := s.loadGoalsLocked(ctx)
	if err != nil {
		return core.Goal{}, err
	}
	for _, g := range goals {
		if g.ID == goalID {
			return g, nil
		}
	}
	return core.Goal{}, fmt.Errorf("goal %s: %w", goalID, core.ErrNotFound)
}

// Fund adds delta to the goal's saved amount. The operation is rejected with
// no state change and no history entry when delta is not positive or the
// result would exceed the target. One history event of type "add" is
// appended on success.
func (s *Service) Fund(ctx context.Context, goalID string, delta core.Money) (core.Goal, error) {
	if delta.Cents <= 0 {
		return core.Goal{}, fmt.Errorf("fund goal: %w", core.ErrInvalidAmount)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.applyFundingLocked(ctx, goalID, EventFund, delta, func(g core.Goal) (core.Money, error) {
		next := g.SavedAmount.Add(delta)
		if next.Cents > g.TargetAmount.Cents {
			return core.Money{}, fmt.Errorf("fund goal: %w", core.ErrOverTarget)
		}
		return next, nil
	})
}

// SetSaved overwrites the goal's saved amount with an absolute value,
// rejecting negative or over-target values. A history event of type "set"
// records the new absolute amount.
func (s *Service) SetSaved(ctx context.Context, goalID string, amount core.Money) (core.Goal, error) {
	if amount.Cents < 0 {
		return core.Goal{}, fmt.Errorf("set saved: %w", core.ErrNegativeSaved)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	return s.applyFundingLocked(ctx, goalID, EventSet, amount, func(g core.Goal) (core.Money, error) {
		if amount.Cents > g.TargetAmount.Cents {
			return core.Money{}, fmt.Errorf("set saved: %w", core.ErrOverTarget)
		}
		return amount, nil
	})
}

func (s *Service) applyFundingLocked(ctx context.Context, goalID, eventType string, eventAmount core.Money, next func(core.Goal) (core.Money, error)) (core.Goal, error) {
	goals, err := s.loadGoalsLocked(ctx)
	if err != nil {
		return core.Goal{}, err
	}

	idx := -1
	for i, g := range goals {
		if g.ID == goalID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return core.Goal{}, fmt.Errorf("goal %s: %w", goalID, core.ErrNotFound)
	}

	saved, err := next(goals[idx])
	if err != nil {
		return core.Goal{}, err
	}
	goals[idx].SavedAmount = saved

	if err := s.store.Put(ctx, storage.KeyGoals, goals); err != nil {
		return core.Goal{}, fmt.Errorf("persist goals: %w", err)
	}

	event := core.FundingEvent{
		ID:     uuid.NewString(),
		GoalID: goalID,
		Amount: eventAmount,
		Date:   time.Now().UTC(),
		Type:   eventType,
	}
	history, err := s.loadHistoryLocked(ctx)
	if err != nil {
		return core.Goal{}, err
	}
	history = append(history, event)
	if err := s.store.Put(ctx, storage.KeyGoalHistory, history); err != nil {
		return core.Goal{}, fmt.Errorf("persist goal history: %w", err)
	}

	s.logger.InfoContext(ctx, "Goal funding applied",
		log.FieldGoalID, goalID,
		log.FieldOperation, log.OpFund,
		"event_type", eventType,
		log.FieldAmountCents, eventAmount.Cents,
		"saved_cents", saved.Cents)
	return goals[idx], nil
}

// Remove deletes the goal and every history entry that references it, so no
// orphaned history remains.
func (s *Service) Remove(ctx context.Context, goalID string) error {
	return s.dropGoal(ctx, goalID, log.OpDelete)
}

// Complete removes the goal from the active set. Completion does not require
// the goal to be fully funded, and no archived record is kept; its history
// is dropped with it.
func (s *Service) Complete(ctx context.Context, goalID string) error {
	return s.dropGoal(ctx, goalID, log.OpComplete)
}

func (s *Service) dropGoal(ctx context.Context, goalID, op string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	goals, err := s.loadGoalsLocked(ctx)
	if err != nil {
		return err
	}

	kept := goals[:0:0]
	for _, g := range goals {
		if g.ID != goalID {
			kept = append(kept, g)
		}
	}
	if len(kept) == len(goals) {
		return fmt.Errorf("goal %s: %w", goalID, core.ErrNotFound)
	}
	if err := s.store.Put(ctx, storage.KeyGoals, kept); err != nil {
		return fmt.Errorf("persist goals: %w", err)
	}

	history, err := s.loadHistoryLocked(ctx)
	if err != nil {
		return err
	}
	keptHistory := history[:0:0]
	for _, ev := range history {
		if ev.GoalID != goalID {
			keptHistory = append(keptHistory, ev)
		}
	}
	if len(keptHistory) != len(history) {
		if err := s.store.Put(ctx, storage.KeyGoalHistory, keptHistory); err != nil {
			return fmt.Errorf("persist goal history: %w", err)
		}
	}

	s.logger.InfoContext(ctx, "Goal removed",
		log.FieldGoalID, goalID,
		log.FieldOperation, op,
		"history_removed", len(history)-len(keptHistory))
	return nil
}

// History returns the funding events for one goal, oldest first.
func (s *Service) History(ctx context.Context, goalID string) ([]core.FundingEvent, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	history, err := s.loadHistoryLocked(ctx)
	if err != nil {
		return nil, err
	}
	var out []core.FundingEvent
	for _, ev := range history {
		if ev.GoalID == goalID {
			out = append(out, ev)
		}
	}
	return out, nil
}

func (s *Service) loadGoalsLocked(ctx context.Context) ([]core.Goal, error) {
	var goals []core.Goal
	if _, err := s.store.Get(ctx, storage.KeyGoals, &goals); err != nil {
		s.logger.ErrorContext(ctx, "Failed to load goals, starting empty",
			log.FieldError, err, log.FieldOperation, log.OpRead)
		return nil, nil
	}
	return goals, nil
}

func (s *Service) loadHistoryLocked(ctx context.Context) ([]core.FundingEvent, error) {
	var history []core.FundingEvent
	if _, err := s.store.Get(ctx, storage.KeyGoalHistory, &history); err != nil {
		s.logger.ErrorContext(ctx, "Failed to load goal history, starting empty",
			log.FieldError, err, log.FieldOperation, log.OpRead)
		return nil, nil
	}
	return history, nil
}

// Progress returns the funded percentage of a goal, clamped to [0, 100] even
// if the underlying ratio overshoots.
func Progress(g core.Goal) float64 {
	if g.TargetAmount.Cents <= 0 {
		return 0
	}
	p := float64(g.SavedAmount.Cents) / float64(g.TargetAmount.Cents) * 100
	return math.Min(100, math.Max(0, p))
}

// Pacing is advisory contribution arithmetic toward a deadline. Nothing here
// is persisted.
type Pacing struct {
	DaysRemaining int        `json:"daysRemaining"`
	Remaining     core.Money `json:"remaining"`
	Daily         core.Money `json:"daily"`
	Weekly        core.Money `json:"weekly"`
	Monthly       core.Money `json:"monthly"`
}

// PacingFor computes the suggested daily, weekly (×7), and monthly (×30)
// contributions needed to close the remaining gap by the deadline. All
// suggestions are zero once the deadline has passed.
func PacingFor(g core.Goal, asOf time.Time) Pacing {
	days := int(math.Ceil(g.Deadline.Sub(asOf).Hours() / 24))
	if days < 0 {
		days = 0
	}

	remaining := g.TargetAmount.Sub(g.SavedAmount)
	if remaining.Cents < 0 {
		remaining = core.Money{}
	}

	p := Pacing{DaysRemaining: days, Remaining: remaining}
	if days == 0 || remaining.Cents == 0 {
		return p
	}

	// Rounded integer division keeps the suggestion in whole cents.
	daily := (remaining.Cents + int64(days)/2) / int64(days)
	p.Daily = core.Money{Cents: daily}
	p.Weekly = core.Money{Cents: daily * 7}
	p.Monthly = core.Money{Cents: daily * 30}
	return p
}

// newGoalID combines a millisecond timestamp with a short random suffix to
// keep IDs unique across rapid creations.
func newGoalID() string {
	suffix := make([]byte, 4)
	if _, err := rand.Read(suffix); err != nil {
		return fmt.Sprintf("%d", time.Now().UnixNano())
	}
	return fmt.Sprintf("%d-%s", time.Now().UnixMilli(), hex.EncodeToString(suffix))
}
