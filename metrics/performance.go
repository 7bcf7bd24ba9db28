package metrics

import (
	"context"
	"math"
	"sort"

	"kam-backend/models"
)

const (
	completedWeight   = 2.0
	cancelledWeight   = -1.0
	interactionWeight = 0.5
)

// WeightedScore rewards completed orders, penalises cancellations and lightly
// rewards interactions. It is negative when cancellations dominate.
func WeightedScore(completed, cancelled, interactions int64) float64 {
	return completedWeight*float64(completed) + cancelledWeight*float64(cancelled) + interactionWeight*float64(interactions)
}

// PerformanceIndex scales every score against the best one to [0,100], rounded to
// two decimals. When the best score is not positive every index is 0.
func PerformanceIndex(scores []float64) []float64 {
	indexes := make([]float64, len(scores))
	if len(scores) == 0 {
		return indexes
	}
	best := scores[0]
	for _, s := range scores[1:] {
		if s > best {
			best = s
		}
	}
	if best <= 0 {
		return indexes
	}
	for i, s := range scores {
		indexes[i] = round2(s / best * 100)
	}
	return indexes
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// PerformanceMatrix computes the metrics of every lead, ranked by raw weighted score.
func (e *Engine) PerformanceMatrix(ctx context.Context) ([]models.PerformanceMetric, error) {
	leads, err := e.repo.ListLeads(ctx)
	if err != nil {
		return nil, err
	}

	rows := make([]models.PerformanceMetric, 0, len(leads))
	scores := make([]float64, 0, len(leads))
	for _, lead := range leads {
		completed, err := e.averageOrders(ctx, lead.ID, models.OrderStatusCompleted)
		if err != nil {
			return nil, err
		}
		cancelled, err := e.averageOrders(ctx, lead.ID, models.OrderStatusCancelled)
		if err != nil {
			return nil, err
		}
		interactions, err := e.averageInteractions(ctx, lead.ID)
		if err != nil {
			return nil, err
		}
		score := WeightedScore(completed, cancelled, interactions)
		rows = append(rows, models.PerformanceMetric{
			ID:                     lead.ID,
			Name:                   lead.Name,
			AverageCompletedOrders: completed,
			AverageCanceledOrders:  cancelled,
			AverageInteractions:    interactions,
			WeightedScore:          score,
		})
		scores = append(scores, score)
	}

	for i, index := range PerformanceIndex(scores) {
		rows[i].PerformanceIndex = index
	}
	sort.SliceStable(rows, func(i, j int) bool {
		return rows[i].WeightedScore > rows[j].WeightedScore
	})
	return rows, nil
}
