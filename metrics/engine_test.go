package metrics_test

import (
	"context"
	"testing"
	"time"

	"kam-backend/database"
	"kam-backend/metrics"
	"kam-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

var fixedNow = time.Date(2024, 3, 15, 14, 30, 0, 0, time.UTC)

func setupEngine(t *testing.T) (*database.MemoryStore, *metrics.Engine) {
	t.Helper()
	store := database.NewMemoryStore()
	engine := metrics.NewEngine(store).WithClock(func() time.Time { return fixedNow })
	return store, engine
}

func addLead(t *testing.T, store *database.MemoryStore, name string, frequency int) models.Lead {
	t.Helper()
	lead := models.Lead{
		ID:                    primitive.NewObjectID(),
		Name:                  name,
		ContactNumber:         "1234567890",
		Status:                models.LeadStatusNew,
		NotificationFrequency: frequency,
		CreatedAt:             fixedNow,
	}
	require.NoError(t, store.InsertLead(context.Background(), &lead))
	return lead
}

func addOrder(t *testing.T, store *database.MemoryStore, leadID primitive.ObjectID, status models.OrderStatus, at time.Time) {
	t.Helper()
	require.NoError(t, store.InsertOrder(context.Background(), &models.Order{
		ID:           primitive.NewObjectID(),
		RestaurantID: leadID,
		Status:       status,
		CreatedAt:    at,
	}))
}

func addInteraction(t *testing.T, store *database.MemoryStore, leadID primitive.ObjectID, kind models.InteractionType, at time.Time) {
	t.Helper()
	require.NoError(t, store.InsertInteraction(context.Background(), &models.Interaction{
		ID:           primitive.NewObjectID(),
		RestaurantID: leadID,
		Type:         kind,
		Time:         at,
	}))
}

func TestAveragePerDay(t *testing.T) {
	tests := []struct {
		name    string
		buckets []models.DayBucket
		want    int64
	}{
		{"no days", nil, 0},
		{"single day", []models.DayBucket{{Day: "2024-03-01", Count: 3}}, 3},
		{"floors", []models.DayBucket{{Day: "2024-03-01", Count: 2}, {Day: "2024-03-02", Count: 1}}, 1},
		{"even", []models.DayBucket{{Day: "2024-03-01", Count: 4}, {Day: "2024-03-02", Count: 2}}, 3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, metrics.AveragePerDay(tt.buckets))
		})
	}
}

func TestStartOfDay_UsesUTC(t *testing.T) {
	loc := time.FixedZone("UTC+5", 5*3600)
	// 02:00 on the 16th at +5 is 21:00 UTC on the 15th.
	local := time.Date(2024, 3, 16, 2, 0, 0, 0, loc)
	assert.Equal(t, time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), metrics.StartOfDay(local))
}

func TestEngine_AveragesAreZeroWithoutRecords(t *testing.T) {
	store, engine := setupEngine(t)
	lead := addLead(t, store, "Quiet Cafe", 7)
	ctx := context.Background()

	interactions, err := engine.AverageInteractions(ctx, lead.ID)
	require.NoError(t, err)
	assert.Zero(t, interactions)

	for _, status := range []models.OrderStatus{models.OrderStatusCompleted, models.OrderStatusCancelled} {
		orders, err := engine.AverageOrders(ctx, lead.ID, status)
		require.NoError(t, err)
		assert.Zero(t, orders)
	}

	last, err := engine.LastInteractionTime(ctx, lead.ID)
	require.NoError(t, err)
	assert.Nil(t, last)
}

func TestEngine_SameDayRecordsOnlyGrowNumerator(t *testing.T) {
	store, engine := setupEngine(t)
	lead := addLead(t, store, "Busy Bistro", 7)
	ctx := context.Background()

	day1 := time.Date(2024, 3, 10, 9, 0, 0, 0, time.UTC)
	day2 := time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC)
	addInteraction(t, store, lead.ID, models.InteractionCall, day1)
	addInteraction(t, store, lead.ID, models.InteractionEmail, day2)

	avg, err := engine.AverageInteractions(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), avg)

	for i := 0; i < 4; i++ {
		addInteraction(t, store, lead.ID, models.InteractionCall, day1.Add(time.Duration(i)*time.Hour))
	}
	avg, err = engine.AverageInteractions(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(3), avg, "6 interactions over 2 days")
}

func TestEngine_OrderAveragesFilterByStatus(t *testing.T) {
	store, engine := setupEngine(t)
	lead := addLead(t, store, "Split Kitchen", 7)
	ctx := context.Background()

	at := time.Date(2024, 3, 12, 12, 0, 0, 0, time.UTC)
	addOrder(t, store, lead.ID, models.OrderStatusCompleted, at)
	addOrder(t, store, lead.ID, models.OrderStatusCompleted, at.Add(time.Hour))
	addOrder(t, store, lead.ID, models.OrderStatusCancelled, at)
	addOrder(t, store, lead.ID, models.OrderStatusPending, at)

	completed, err := engine.AverageOrders(ctx, lead.ID, models.OrderStatusCompleted)
	require.NoError(t, err)
	assert.Equal(t, int64(2), completed)

	cancelled, err := engine.AverageOrders(ctx, lead.ID, models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, int64(1), cancelled)
}

func TestEngine_UnknownLead(t *testing.T) {
	_, engine := setupEngine(t)
	ctx := context.Background()
	missing := primitive.NewObjectID()

	_, err := engine.AverageInteractions(ctx, missing)
	assert.ErrorIs(t, err, metrics.ErrLeadNotFound)

	_, err = engine.LeadStats(ctx, missing)
	assert.ErrorIs(t, err, metrics.ErrLeadNotFound)

	_, err = engine.NextDue(ctx, missing)
	assert.ErrorIs(t, err, metrics.ErrLeadNotFound)
}

func TestEngine_LeadStats(t *testing.T) {
	store, engine := setupEngine(t)
	lead := addLead(t, store, "Stats Diner", 7)
	ctx := context.Background()

	yesterday := fixedNow.AddDate(0, 0, -1)
	addInteraction(t, store, lead.ID, models.InteractionCall, yesterday)
	addInteraction(t, store, lead.ID, models.InteractionEmail, fixedNow.Add(-time.Hour))
	addOrder(t, store, lead.ID, models.OrderStatusCompleted, fixedNow.Add(-2*time.Hour))
	addOrder(t, store, lead.ID, models.OrderStatusCancelled, fixedNow.Add(-2*time.Hour))
	addOrder(t, store, lead.ID, models.OrderStatusPending, yesterday)

	stats, err := engine.LeadStats(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.InteractionsToday)
	assert.Equal(t, int64(2), stats.OrdersToday)
	assert.Equal(t, int64(1), stats.PendingOrders)
	assert.Equal(t, int64(1), stats.AverageInteractions)
	assert.Equal(t, int64(1), stats.AverageCompletedOrders)
	assert.Equal(t, int64(1), stats.AverageCanceledOrders)
	require.NotNil(t, stats.LastInteractionTime)
	assert.True(t, stats.LastInteractionTime.Equal(fixedNow.Add(-time.Hour)))
}
