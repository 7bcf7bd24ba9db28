package metrics

import (
	"context"
	"fmt"
	"sort"

	"kam-backend/models"
)

type SortKey string

const (
	SortByLastInteraction     SortKey = ""
	SortByAverageInteractions SortKey = "averageInteractions"
	SortByAverageOrders       SortKey = "averageOrders"
)

func ParseSortKey(s string) (SortKey, error) {
	switch k := SortKey(s); k {
	case SortByLastInteraction, SortByAverageInteractions, SortByAverageOrders:
		return k, nil
	case "lastInteractionTime":
		return SortByLastInteraction, nil
	}
	return "", fmt.Errorf("invalid sortBy %q: use averageInteractions or averageOrders", s)
}

// EnrichLeads annotates every lead with its averages and last interaction time.
// It queries the store per lead and caches nothing.
func (e *Engine) EnrichLeads(ctx context.Context, key SortKey) ([]models.LeadSummary, error) {
	leads, err := e.repo.ListLeads(ctx)
	if err != nil {
		return nil, err
	}
	summaries := make([]models.LeadSummary, 0, len(leads))
	for _, lead := range leads {
		interactions, err := e.averageInteractions(ctx, lead.ID)
		if err != nil {
			return nil, err
		}
		orders, err := e.averageOrders(ctx, lead.ID, models.OrderStatusCompleted)
		if err != nil {
			return nil, err
		}
		last, err := e.lastInteraction(ctx, lead.ID)
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, models.LeadSummary{
			Lead:                lead,
			AverageInteractions: interactions,
			AverageOrders:       orders,
			LastInteractionTime: last,
		})
	}
	SortSummaries(summaries, key)
	return summaries, nil
}

// SortSummaries orders summaries descending by key. The default key is the last
// interaction time, with never-contacted leads last.
func SortSummaries(summaries []models.LeadSummary, key SortKey) {
	sort.SliceStable(summaries, func(i, j int) bool {
		a, b := summaries[i], summaries[j]
		switch key {
		case SortByAverageInteractions:
			return a.AverageInteractions > b.AverageInteractions
		case SortByAverageOrders:
			return a.AverageOrders > b.AverageOrders
		}
		if a.LastInteractionTime == nil {
			return false
		}
		if b.LastInteractionTime == nil {
			return true
		}
		return a.LastInteractionTime.After(*b.LastInteractionTime)
	})
}
