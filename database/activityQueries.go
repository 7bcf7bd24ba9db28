package database

import (
	"context"
	"fmt"
	"time"

	"kam-backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// activityTimeField is the timestamp each activity kind is bucketed on.
func activityTimeField(kind models.ActivityKind) string {
	if kind == models.ActivityOrders {
		return "createdAt"
	}
	return "time"
}

func (s *MongoStore) activityCollection(kind models.ActivityKind) (*mongo.Collection, error) {
	switch kind {
	case models.ActivityInteractions:
		return s.interactions, nil
	case models.ActivityOrders:
		return s.orders, nil
	}
	return nil, fmt.Errorf("unknown activity kind %q", kind)
}

func activityFilter(q models.ActivityQuery) bson.D {
	filter := bson.D{{Key: "restaurantId", Value: q.RestaurantID}}
	if q.Kind == models.ActivityOrders && q.Status != "" {
		filter = append(filter, bson.E{Key: "status", Value: q.Status})
	}
	if q.Kind == models.ActivityInteractions && q.Type != "" {
		filter = append(filter, bson.E{Key: "type", Value: q.Type})
	}
	if !q.Since.IsZero() {
		filter = append(filter, bson.E{Key: activityTimeField(q.Kind), Value: bson.D{{Key: "$gte", Value: q.Since}}})
	}
	return filter
}

func activityByDayPipeline(q models.ActivityQuery) mongo.Pipeline {
	matchStage := bson.D{{Key: "$match", Value: activityFilter(q)}}
	groupStage := bson.D{{Key: "$group", Value: bson.D{
		{Key: "_id", Value: bson.D{{Key: "$dateToString", Value: bson.D{
			{Key: "format", Value: "%Y-%m-%d"},
			{Key: "date", Value: "$" + activityTimeField(q.Kind)},
			{Key: "timezone", Value: "UTC"},
		}}}},
		{Key: "count", Value: bson.D{{Key: "$sum", Value: 1}}},
	}}}
	sortStage := bson.D{{Key: "$sort", Value: bson.D{{Key: "_id", Value: 1}}}}
	return mongo.Pipeline{matchStage, groupStage, sortStage}
}

func (s *MongoStore) ActivityByDay(ctx context.Context, q models.ActivityQuery) ([]models.DayBucket, error) {
	coll, err := s.activityCollection(q.Kind)
	if err != nil {
		return nil, err
	}
	cursor, err := coll.Aggregate(ctx, activityByDayPipeline(q))
	if err != nil {
		return nil, err
	}
	buckets := []models.DayBucket{}
	if err := cursor.All(ctx, &buckets); err != nil {
		return nil, err
	}
	return buckets, nil
}

func (s *MongoStore) LastActivity(ctx context.Context, q models.ActivityQuery) (time.Time, bool, error) {
	coll, err := s.activityCollection(q.Kind)
	if err != nil {
		return time.Time{}, false, err
	}
	field := activityTimeField(q.Kind)
	opts := options.FindOne().
		SetSort(bson.D{{Key: field, Value: -1}}).
		SetProjection(bson.D{{Key: field, Value: 1}})

	var raw bson.Raw
	err = coll.FindOne(ctx, activityFilter(q), opts).Decode(&raw)
	if err == mongo.ErrNoDocuments {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	value, err := raw.LookupErr(field)
	if err != nil {
		return time.Time{}, false, nil
	}
	return value.Time().UTC(), true, nil
}

func (s *MongoStore) CountActivity(ctx context.Context, q models.ActivityQuery) (int64, error) {
	coll, err := s.activityCollection(q.Kind)
	if err != nil {
		return 0, err
	}
	return coll.CountDocuments(ctx, activityFilter(q))
}
