package database

import (
	"errors"
	"testing"
	"time"

	"kam-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestActivityFilter(t *testing.T) {
	leadID := primitive.NewObjectID()
	since := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)

	t.Run("orders by status since", func(t *testing.T) {
		got := activityFilter(models.ActivityQuery{
			Kind:         models.ActivityOrders,
			RestaurantID: leadID,
			Status:       models.OrderStatusCompleted,
			Type:         models.InteractionCall,
			Since:        since,
		})
		want := bson.D{
			{Key: "restaurantId", Value: leadID},
			{Key: "status", Value: models.OrderStatusCompleted},
			{Key: "createdAt", Value: bson.D{{Key: "$gte", Value: since}}},
		}
		assert.Equal(t, want, got)
	})

	t.Run("interactions by type", func(t *testing.T) {
		got := activityFilter(models.ActivityQuery{
			Kind:         models.ActivityInteractions,
			RestaurantID: leadID,
			Type:         models.InteractionRegularUpdate,
			Status:       models.OrderStatusPending,
		})
		want := bson.D{
			{Key: "restaurantId", Value: leadID},
			{Key: "type", Value: models.InteractionRegularUpdate},
		}
		assert.Equal(t, want, got)
	})
}

func TestActivityByDayPipeline_GroupsOnUTCDay(t *testing.T) {
	pipeline := activityByDayPipeline(models.ActivityQuery{
		Kind:         models.ActivityInteractions,
		RestaurantID: primitive.NewObjectID(),
	})
	require.Len(t, pipeline, 3)
	assert.Equal(t, "$match", pipeline[0][0].Key)
	assert.Equal(t, "$sort", pipeline[2][0].Key)

	group := pipeline[1][0]
	require.Equal(t, "$group", group.Key)
	fields := group.Value.(bson.D)
	dateToString := fields[0].Value.(bson.D)[0].Value.(bson.D)
	assert.Contains(t, dateToString, bson.E{Key: "date", Value: "$time"})
	assert.Contains(t, dateToString, bson.E{Key: "timezone", Value: "UTC"})
	assert.Contains(t, dateToString, bson.E{Key: "format", Value: "%Y-%m-%d"})
	assert.Equal(t, "count", fields[1].Key)
}

func TestLeadUpdateDoc_SetsOnlyProvidedFields(t *testing.T) {
	name := "Renamed"
	freq := 3
	now := time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC)

	got := leadUpdateDoc(models.LeadUpdate{Name: &name, NotificationFrequency: &freq}, now)
	want := bson.D{{Key: "$set", Value: primitive.D{
		{Key: "name", Value: "Renamed"},
		{Key: "notificationFrequency", Value: 3},
		{Key: "updatedAt", Value: now},
	}}}
	assert.Equal(t, want, got)
}

func TestTranslate(t *testing.T) {
	assert.NoError(t, translate(nil))
	assert.ErrorIs(t, translate(mongo.ErrNoDocuments), ErrNotFound)

	dup := mongo.WriteException{WriteErrors: mongo.WriteErrors{{Code: 11000, Message: "E11000 duplicate key"}}}
	assert.ErrorIs(t, translate(dup), ErrDuplicate)

	other := errors.New("connection reset")
	assert.Equal(t, other, translate(other))
}

func TestTranslateUser(t *testing.T) {
	admin := mongo.WriteException{WriteErrors: mongo.WriteErrors{{
		Code:    11000,
		Message: `E11000 duplicate key error collection: kam.users index: unique_admin dup key: { role: "admin" }`,
	}}}
	err := translateUser(admin)
	assert.ErrorIs(t, err, ErrAdminExists)
	assert.ErrorIs(t, err, ErrDuplicate)

	email := mongo.WriteException{WriteErrors: mongo.WriteErrors{{
		Code:    11000,
		Message: `E11000 duplicate key error collection: kam.users index: email_1 dup key: { email: "a@x.com" }`,
	}}}
	err = translateUser(email)
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NotErrorIs(t, err, ErrAdminExists)
}
