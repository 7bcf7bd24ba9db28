package metrics

import (
	"context"
	"fmt"
	"time"

	"kam-backend/models"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// NextInteractionDue is the start of the day frequency days after the last
// Regular-Update, or the start of today when there has never been one.
func NextInteractionDue(lastRegularUpdate *time.Time, frequency int, now time.Time) time.Time {
	if lastRegularUpdate == nil {
		return StartOfDay(now)
	}
	return StartOfDay(*lastRegularUpdate).AddDate(0, 0, frequency)
}

// IsDue is inclusive: a lead is due on its due date.
func IsDue(now, due time.Time) bool {
	return !now.UTC().Before(due)
}

func (e *Engine) nextDue(ctx context.Context, lead *models.Lead) (time.Time, error) {
	t, ok, err := e.repo.LastActivity(ctx, models.ActivityQuery{
		Kind:         models.ActivityInteractions,
		RestaurantID: lead.ID,
		Type:         models.InteractionRegularUpdate,
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("last regular update: %w", err)
	}
	var last *time.Time
	if ok {
		last = &t
	}
	return NextInteractionDue(last, lead.Frequency(), e.Now()), nil
}

func (e *Engine) NextDue(ctx context.Context, id primitive.ObjectID) (time.Time, error) {
	lead, err := e.lead(ctx, id)
	if err != nil {
		return time.Time{}, err
	}
	return e.nextDue(ctx, lead)
}

// DueLeads scans every lead and returns the ones requiring an interaction today.
func (e *Engine) DueLeads(ctx context.Context) ([]models.DueLead, error) {
	leads, err := e.repo.ListLeads(ctx)
	if err != nil {
		return nil, err
	}
	now := e.Now()
	due := []models.DueLead{}
	for i := range leads {
		next, err := e.nextDue(ctx, &leads[i])
		if err != nil {
			return nil, err
		}
		if IsDue(now, next) {
			due = append(due, models.DueLead{
				ID:                 leads[i].ID,
				Name:               leads[i].Name,
				AssignedKAM:        leads[i].AssignedKAM,
				NextInteractionDue: next,
			})
		}
	}
	return due, nil
}
