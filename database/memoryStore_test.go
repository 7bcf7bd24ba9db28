package database_test

import (
	"context"
	"testing"
	"time"

	"kam-backend/database"
	"kam-backend/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func newLead(name string) *models.Lead {
	return &models.Lead{
		ID:                    primitive.NewObjectID(),
		Name:                  name,
		ContactNumber:         "1234567890",
		Status:                models.LeadStatusNew,
		NotificationFrequency: models.DefaultNotificationFrequency,
	}
}

func TestMemoryStore_LeadLifecycle(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()

	lead := newLead("Corner Cafe")
	require.NoError(t, store.InsertLead(ctx, lead))
	assert.ErrorIs(t, store.InsertLead(ctx, lead), database.ErrDuplicate)

	status := models.LeadStatusActive
	updated, err := store.UpdateLead(ctx, lead.ID, models.LeadUpdate{Status: &status})
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusActive, updated.Status)
	assert.Equal(t, "Corner Cafe", updated.Name)

	loginAt := time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)
	updated, err = store.SetLeadStatus(ctx, lead.ID, models.LeadStatusInactive, &loginAt)
	require.NoError(t, err)
	assert.Equal(t, models.LeadStatusInactive, updated.Status)
	require.NotNil(t, updated.LastLoginTime)
	assert.True(t, loginAt.Equal(*updated.LastLoginTime))

	n, err := store.CountLeads(ctx, models.LeadStatusInactive)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	require.NoError(t, store.DeleteLead(ctx, lead.ID))
	_, err = store.FindLeadByID(ctx, lead.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)
	assert.ErrorIs(t, store.DeleteLead(ctx, lead.ID), database.ErrNotFound)
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	lead := newLead("Copy Shop")
	require.NoError(t, store.InsertLead(ctx, lead))

	contact := models.Contact{ID: primitive.NewObjectID(), Name: "Ann", Role: "Owner", Phone: "1", Email: "ann@x.com"}
	_, err := store.AddContact(ctx, lead.ID, contact)
	require.NoError(t, err)

	got, err := store.FindLeadByID(ctx, lead.ID)
	require.NoError(t, err)
	got.Contacts[0].Name = "changed"

	again, err := store.FindLeadByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ann", again.Contacts[0].Name)
}

func TestMemoryStore_Contacts(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	lead := newLead("Contact Grill")
	require.NoError(t, store.InsertLead(ctx, lead))

	first := models.Contact{ID: primitive.NewObjectID(), Name: "A", Role: "Owner", Phone: "1", Email: "a@x.com"}
	second := models.Contact{ID: primitive.NewObjectID(), Name: "B", Role: "Manager", Phone: "2", Email: "b@x.com"}
	_, err := store.AddContact(ctx, lead.ID, first)
	require.NoError(t, err)
	_, err = store.AddContact(ctx, lead.ID, second)
	require.NoError(t, err)

	updated, err := store.RemoveContact(ctx, lead.ID, first.ID)
	require.NoError(t, err)
	require.Len(t, updated.Contacts, 1)
	assert.Equal(t, second.ID, updated.Contacts[0].ID)

	_, err = store.RemoveContact(ctx, lead.ID, first.ID)
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestMemoryStore_UserUniqueness(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	restaurant := primitive.NewObjectID()

	user := &models.User{ID: primitive.NewObjectID(), Name: "A", Username: "a", Email: "a@x.com", Number: "1234567890", Role: models.RoleLead, RestaurantID: &restaurant}
	require.NoError(t, store.InsertUser(ctx, user))

	sameEmail := &models.User{ID: primitive.NewObjectID(), Email: "a@x.com", Number: "5555555555"}
	assert.ErrorIs(t, store.InsertUser(ctx, sameEmail), database.ErrDuplicate)

	sameUsername := &models.User{ID: primitive.NewObjectID(), Username: "a", Email: "other@x.com"}
	assert.ErrorIs(t, store.InsertUser(ctx, sameUsername), database.ErrDuplicate)

	sameNumber := &models.User{ID: primitive.NewObjectID(), Email: "third@x.com", Number: "1234567890"}
	assert.ErrorIs(t, store.InsertUser(ctx, sameNumber), database.ErrDuplicate)

	for _, tc := range []struct {
		email, number string
		want          bool
	}{
		{"a@x.com", "0000000000", true},
		{"new@x.com", "1234567890", true},
		{"new@x.com", "0000000000", false},
	} {
		exists, err := store.UserExists(ctx, tc.email, tc.number)
		require.NoError(t, err)
		assert.Equal(t, tc.want, exists, "%s/%s", tc.email, tc.number)
	}

	_, err := store.FindAdmin(ctx)
	assert.ErrorIs(t, err, database.ErrNotFound)

	deleted, err := store.DeleteUsersByRestaurant(ctx, restaurant)
	require.NoError(t, err)
	assert.Equal(t, int64(1), deleted)
	_, err = store.FindUserByUsername(ctx, "a")
	assert.ErrorIs(t, err, database.ErrNotFound)
}

func TestMemoryStore_UpdateOrderStatusRequiresFrom(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	order := &models.Order{ID: primitive.NewObjectID(), RestaurantID: primitive.NewObjectID(), Status: models.OrderStatusPending}
	require.NoError(t, store.InsertOrder(ctx, order))

	settled, err := store.UpdateOrderStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusCancelled)
	require.NoError(t, err)
	assert.Equal(t, models.OrderStatusCancelled, settled.Status)

	_, err = store.UpdateOrderStatus(ctx, order.ID, models.OrderStatusPending, models.OrderStatusCompleted)
	assert.ErrorIs(t, err, database.ErrNotFound)

	pending, err := store.ListOrders(ctx, order.RestaurantID, models.OrderStatusPending)
	require.NoError(t, err)
	assert.Empty(t, pending)
}

func TestMemoryStore_ActivityByDayUsesUTC(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	leadID := primitive.NewObjectID()
	east := time.FixedZone("UTC+9", 9*3600)

	times := []time.Time{
		time.Date(2024, 3, 10, 23, 0, 0, 0, time.UTC),
		// 08:00 on the 11th at +9 is still the 10th in UTC
		time.Date(2024, 3, 11, 8, 0, 0, 0, east),
		time.Date(2024, 3, 11, 10, 0, 0, 0, time.UTC),
	}
	for _, at := range times {
		require.NoError(t, store.InsertInteraction(ctx, &models.Interaction{
			ID: primitive.NewObjectID(), RestaurantID: leadID, Type: models.InteractionCall, Time: at,
		}))
	}

	buckets, err := store.ActivityByDay(ctx, models.ActivityQuery{Kind: models.ActivityInteractions, RestaurantID: leadID})
	require.NoError(t, err)
	assert.Equal(t, []models.DayBucket{{Day: "2024-03-10", Count: 2}, {Day: "2024-03-11", Count: 1}}, buckets)

	last, ok, err := store.LastActivity(ctx, models.ActivityQuery{Kind: models.ActivityInteractions, RestaurantID: leadID})
	require.NoError(t, err)
	require.True(t, ok)
	assert.True(t, last.Equal(times[2]))

	_, ok, err = store.LastActivity(ctx, models.ActivityQuery{Kind: models.ActivityInteractions, RestaurantID: primitive.NewObjectID()})
	require.NoError(t, err)
	assert.False(t, ok)

	_, err = store.ActivityByDay(ctx, models.ActivityQuery{Kind: "calls"})
	assert.Error(t, err)
}

func TestMemoryStore_RecentInteractionsLimit(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()
	leadID := primitive.NewObjectID()
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		require.NoError(t, store.InsertInteraction(ctx, &models.Interaction{
			ID: primitive.NewObjectID(), RestaurantID: leadID, Type: models.InteractionEmail, Time: base.Add(time.Duration(i) * time.Hour),
		}))
	}
	recent, err := store.RecentInteractions(ctx, leadID, 10)
	require.NoError(t, err)
	require.Len(t, recent, 10)
	assert.True(t, recent[0].Time.Equal(base.Add(11*time.Hour)))
}

func TestMemoryStore_SingleAdmin(t *testing.T) {
	ctx := context.Background()
	store := database.NewMemoryStore()

	admin := &models.User{ID: primitive.NewObjectID(), Email: "root@x.com", Number: "9999999999", Role: models.RoleAdmin}
	require.NoError(t, store.InsertUser(ctx, admin))

	second := &models.User{ID: primitive.NewObjectID(), Email: "root2@x.com", Number: "8888888888", Role: models.RoleAdmin}
	err := store.InsertUser(ctx, second)
	assert.ErrorIs(t, err, database.ErrAdminExists)
	assert.ErrorIs(t, err, database.ErrDuplicate)

	staff := &models.User{ID: primitive.NewObjectID(), Email: "staff@x.com", Number: "7777777777", Role: models.RoleStaff}
	assert.NoError(t, store.InsertUser(ctx, staff))
}
