// Package metrics derives engagement statistics for leads from their stored
// interaction and order history. Nothing here writes to the store.
//
// Calendar days are UTC days throughout: "today", distinct-day counts and
// due dates all truncate to 00:00 UTC.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"time"

	"kam-backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

var ErrLeadNotFound = errors.New("lead not found")

// Repository is the read side the engine needs from persistence.
type Repository interface {
	FindLeadByID(ctx context.Context, id primitive.ObjectID) (*models.Lead, error)
	ListLeads(ctx context.Context) ([]models.Lead, error)
	// ActivityByDay groups matching records by UTC calendar day.
	ActivityByDay(ctx context.Context, q models.ActivityQuery) ([]models.DayBucket, error)
	// LastActivity returns the newest matching timestamp; ok is false when nothing matches.
	LastActivity(ctx context.Context, q models.ActivityQuery) (t time.Time, ok bool, err error)
	CountActivity(ctx context.Context, q models.ActivityQuery) (int64, error)
}

type Engine struct {
	repo Repository
	now  func() time.Time
}

func NewEngine(repo Repository) *Engine {
	return &Engine{repo: repo, now: time.Now}
}

// WithClock replaces the engine's time source.
func (e *Engine) WithClock(now func() time.Time) *Engine {
	e.now = now
	return e
}

func (e *Engine) Now() time.Time {
	return e.now().UTC()
}

// StartOfDay truncates t to 00:00 UTC of its calendar day.
func StartOfDay(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}

// AveragePerDay is floor(records / distinct days), or 0 when there are no days.
func AveragePerDay(buckets []models.DayBucket) int64 {
	if len(buckets) == 0 {
		return 0
	}
	var total int64
	for _, b := range buckets {
		total += b.Count
	}
	return total / int64(len(buckets))
}

func (e *Engine) lead(ctx context.Context, id primitive.ObjectID) (*models.Lead, error) {
	lead, err := e.repo.FindLeadByID(ctx, id)
	if errors.Is(err, models.ErrNotFound) {
		return nil, ErrLeadNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load lead %s: %w", id.Hex(), err)
	}
	return lead, nil
}

func (e *Engine) averagePerDay(ctx context.Context, q models.ActivityQuery) (int64, error) {
	buckets, err := e.repo.ActivityByDay(ctx, q)
	if err != nil {
		return 0, fmt.Errorf("group %s by day: %w", q.Kind, err)
	}
	return AveragePerDay(buckets), nil
}

func (e *Engine) averageInteractions(ctx context.Context, id primitive.ObjectID) (int64, error) {
	return e.averagePerDay(ctx, models.ActivityQuery{Kind: models.ActivityInteractions, RestaurantID: id})
}

func (e *Engine) averageOrders(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (int64, error) {
	return e.averagePerDay(ctx, models.ActivityQuery{Kind: models.ActivityOrders, RestaurantID: id, Status: status})
}

func (e *Engine) lastInteraction(ctx context.Context, id primitive.ObjectID) (*time.Time, error) {
	t, ok, err := e.repo.LastActivity(ctx, models.ActivityQuery{Kind: models.ActivityInteractions, RestaurantID: id})
	if err != nil {
		return nil, fmt.Errorf("last interaction: %w", err)
	}
	if !ok {
		return nil, nil
	}
	return &t, nil
}

// AverageInteractions is the per-day interaction average for an existing lead.
func (e *Engine) AverageInteractions(ctx context.Context, id primitive.ObjectID) (int64, error) {
	if _, err := e.lead(ctx, id); err != nil {
		return 0, err
	}
	return e.averageInteractions(ctx, id)
}

// AverageOrders is the per-day order average for an existing lead, restricted to status.
func (e *Engine) AverageOrders(ctx context.Context, id primitive.ObjectID, status models.OrderStatus) (int64, error) {
	if _, err := e.lead(ctx, id); err != nil {
		return 0, err
	}
	return e.averageOrders(ctx, id, status)
}

// LastInteractionTime returns nil when the lead has no interactions.
func (e *Engine) LastInteractionTime(ctx context.Context, id primitive.ObjectID) (*time.Time, error) {
	if _, err := e.lead(ctx, id); err != nil {
		return nil, err
	}
	return e.lastInteraction(ctx, id)
}

func (e *Engine) LeadStats(ctx context.Context, id primitive.ObjectID) (*models.LeadStats, error) {
	if _, err := e.lead(ctx, id); err != nil {
		return nil, err
	}
	today := StartOfDay(e.Now())

	var stats models.LeadStats
	var err error
	if stats.InteractionsToday, err = e.repo.CountActivity(ctx, models.ActivityQuery{
		Kind: models.ActivityInteractions, RestaurantID: id, Since: today,
	}); err != nil {
		return nil, fmt.Errorf("count interactions today: %w", err)
	}
	if stats.OrdersToday, err = e.repo.CountActivity(ctx, models.ActivityQuery{
		Kind: models.ActivityOrders, RestaurantID: id, Since: today,
	}); err != nil {
		return nil, fmt.Errorf("count orders today: %w", err)
	}
	if stats.PendingOrders, err = e.repo.CountActivity(ctx, models.ActivityQuery{
		Kind: models.ActivityOrders, RestaurantID: id, Status: models.OrderStatusPending,
	}); err != nil {
		return nil, fmt.Errorf("count pending orders: %w", err)
	}
	if stats.AverageInteractions, err = e.averageInteractions(ctx, id); err != nil {
		return nil, err
	}
	if stats.AverageCompletedOrders, err = e.averageOrders(ctx, id, models.OrderStatusCompleted); err != nil {
		return nil, err
	}
	if stats.AverageCanceledOrders, err = e.averageOrders(ctx, id, models.OrderStatusCancelled); err != nil {
		return nil, err
	}
	if stats.LastInteractionTime, err = e.lastInteraction(ctx, id); err != nil {
		return nil, err
	}
	return &stats, nil
}
