package database

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"kam-backend/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// ErrDuplicate is returned when a write violates a unique index.
var ErrDuplicate = errors.New("duplicate key")

// ErrAdminExists is returned when a second admin user would be written.
var ErrAdminExists = fmt.Errorf("admin user already exists: %w", ErrDuplicate)

const adminIndexName = "unique_admin"

type MongoStore struct {
	client       *mongo.Client
	leads        *mongo.Collection
	users        *mongo.Collection
	orders       *mongo.Collection
	interactions *mongo.Collection
	calls        *mongo.Collection
}

func NewMongoStore(client *mongo.Client, dbName string) *MongoStore {
	return &MongoStore{
		client:       client,
		leads:        OpenCollection(client, dbName, LeadCollection),
		users:        OpenCollection(client, dbName, UserCollection),
		orders:       OpenCollection(client, dbName, OrderCollection),
		interactions: OpenCollection(client, dbName, InteractionCollection),
		calls:        OpenCollection(client, dbName, CallCollection),
	}
}

// EnsureIndexes creates the unique and lookup indexes the store relies on.
func (s *MongoStore) EnsureIndexes(ctx context.Context) error {
	if _, err := s.users.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true)},
		{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{Keys: bson.D{{Key: "number", Value: 1}}, Options: options.Index().SetUnique(true).SetSparse(true)},
		{
			Keys: bson.D{{Key: "role", Value: 1}},
			Options: options.Index().
				SetName(adminIndexName).
				SetUnique(true).
				SetPartialFilterExpression(bson.D{{Key: "role", Value: models.RoleAdmin}}),
		},
		{Keys: bson.D{{Key: "restaurantId", Value: 1}}},
	}); err != nil {
		return fmt.Errorf("user indexes: %w", err)
	}
	if _, err := s.interactions.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "restaurantId", Value: 1}, {Key: "time", Value: -1}},
	}); err != nil {
		return fmt.Errorf("interaction indexes: %w", err)
	}
	if _, err := s.orders.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "restaurantId", Value: 1}, {Key: "createdAt", Value: -1}},
	}); err != nil {
		return fmt.Errorf("order indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func translate(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, mongo.ErrNoDocuments):
		return ErrNotFound
	case mongo.IsDuplicateKeyError(err):
		return fmt.Errorf("%w: %v", ErrDuplicate, err)
	}
	return err
}

// translateUser is translate for the users collection, where a clash on the
// admin index means a second admin.
func translateUser(err error) error {
	if mongo.IsDuplicateKeyError(err) && strings.Contains(err.Error(), adminIndexName) {
		return fmt.Errorf("%w: %v", ErrAdminExists, err)
	}
	return translate(err)
}

func findOne[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOneOptions) (*T, error) {
	var doc T
	if err := coll.FindOne(ctx, filter, opts...).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return &doc, nil
}

func findAll[T any](ctx context.Context, coll *mongo.Collection, filter interface{}, opts ...*options.FindOptions) ([]T, error) {
	cursor, err := coll.Find(ctx, filter, opts...)
	if err != nil {
		return nil, err
	}
	docs := []T{}
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, err
	}
	if docs == nil {
		docs = []T{}
	}
	return docs, nil
}

func findOneAndUpdate[T any](ctx context.Context, coll *mongo.Collection, filter, update interface{}) (*T, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var doc T
	if err := coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&doc); err != nil {
		return nil, translate(err)
	}
	return &doc, nil
}

// Leads

func (s *MongoStore) InsertLead(ctx context.Context, lead *models.Lead) error {
	_, err := s.leads.InsertOne(ctx, lead)
	return translate(err)
}

func (s *MongoStore) FindLeadByID(ctx context.Context, id primitive.ObjectID) (*models.Lead, error) {
	return findOne[models.Lead](ctx, s.leads, bson.M{"_id": id})
}

func (s *MongoStore) ListLeads(ctx context.Context) ([]models.Lead, error) {
	return findAll[models.Lead](ctx, s.leads, bson.M{})
}

func leadUpdateDoc(update models.LeadUpdate, now time.Time) bson.D {
	var updateObj primitive.D
	if update.Name != nil {
		updateObj = append(updateObj, bson.E{Key: "name", Value: *update.Name})
	}
	if update.Address != nil {
		updateObj = append(updateObj, bson.E{Key: "address", Value: *update.Address})
	}
	if update.ContactNumber != nil {
		updateObj = append(updateObj, bson.E{Key: "contactNumber", Value: *update.ContactNumber})
	}
	if update.Status != nil {
		updateObj = append(updateObj, bson.E{Key: "status", Value: *update.Status})
	}
	if update.AssignedKAM != nil {
		updateObj = append(updateObj, bson.E{Key: "assignedKAM", Value: *update.AssignedKAM})
	}
	if update.NotificationFrequency != nil {
		updateObj = append(updateObj, bson.E{Key: "notificationFrequency", Value: *update.NotificationFrequency})
	}
	updateObj = append(updateObj, bson.E{Key: "updatedAt", Value: now})
	return bson.D{{Key: "$set", Value: updateObj}}
}

func (s *MongoStore) UpdateLead(ctx context.Context, id primitive.ObjectID, update models.LeadUpdate) (*models.Lead, error) {
	return findOneAndUpdate[models.Lead](ctx, s.leads, bson.M{"_id": id}, leadUpdateDoc(update, time.Now().UTC()))
}

func (s *MongoStore) SetLeadStatus(ctx context.Context, id primitive.ObjectID, status models.LeadStatus, loginAt *time.Time) (*models.Lead, error) {
	set := bson.D{{Key: "status", Value: status}, {Key: "updatedAt", Value: time.Now().UTC()}}
	if loginAt != nil {
		set = append(set, bson.E{Key: "lastLoginTime", Value: *loginAt})
	}
	return findOneAndUpdate[models.Lead](ctx, s.leads, bson.M{"_id": id}, bson.D{{Key: "$set", Value: set}})
}

func (s *MongoStore) SetLeadUser(ctx context.Context, leadID, userID primitive.ObjectID) error {
	res, err := s.leads.UpdateOne(ctx, bson.M{"_id": leadID}, bson.D{{Key: "$set", Value: bson.D{{Key: "leadUser", Value: userID}}}})
	if err != nil {
		return err
	}
	if res.MatchedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteLead(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.leads.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) CountLeads(ctx context.Context, status models.LeadStatus) (int64, error) {
	filter := bson.M{}
	if status != "" {
		filter["status"] = status
	}
	return s.leads.CountDocuments(ctx, filter)
}

func (s *MongoStore) RecentLeads(ctx context.Context, limit int64) ([]models.Lead, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}}).SetLimit(limit)
	return findAll[models.Lead](ctx, s.leads, bson.M{}, opts)
}

func (s *MongoStore) AddContact(ctx context.Context, leadID primitive.ObjectID, contact models.Contact) (*models.Lead, error) {
	update := bson.D{
		{Key: "$push", Value: bson.D{{Key: "contacts", Value: contact}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}},
	}
	return findOneAndUpdate[models.Lead](ctx, s.leads, bson.M{"_id": leadID}, update)
}

func (s *MongoStore) RemoveContact(ctx context.Context, leadID, contactID primitive.ObjectID) (*models.Lead, error) {
	filter := bson.M{"_id": leadID, "contacts._id": contactID}
	update := bson.D{
		{Key: "$pull", Value: bson.D{{Key: "contacts", Value: bson.D{{Key: "_id", Value: contactID}}}}},
		{Key: "$set", Value: bson.D{{Key: "updatedAt", Value: time.Now().UTC()}}},
	}
	return findOneAndUpdate[models.Lead](ctx, s.leads, filter, update)
}

// Users

func (s *MongoStore) InsertUser(ctx context.Context, user *models.User) error {
	_, err := s.users.InsertOne(ctx, user)
	return translateUser(err)
}

func (s *MongoStore) FindUserByID(ctx context.Context, id primitive.ObjectID) (*models.User, error) {
	return findOne[models.User](ctx, s.users, bson.M{"_id": id})
}

func (s *MongoStore) FindUserByEmail(ctx context.Context, email string) (*models.User, error) {
	return findOne[models.User](ctx, s.users, bson.M{"email": email})
}

func (s *MongoStore) FindUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return findOne[models.User](ctx, s.users, bson.M{"username": username})
}

func (s *MongoStore) FindAdmin(ctx context.Context) (*models.User, error) {
	return findOne[models.User](ctx, s.users, bson.M{"role": models.RoleAdmin})
}

func (s *MongoStore) UserExists(ctx context.Context, email, number string) (bool, error) {
	or := bson.A{bson.M{"email": email}}
	if number != "" {
		or = append(or, bson.M{"number": number})
	}
	count, err := s.users.CountDocuments(ctx, bson.M{"$or": or})
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

func (s *MongoStore) DeleteUser(ctx context.Context, id primitive.ObjectID) error {
	res, err := s.users.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return err
	}
	if res.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *MongoStore) DeleteUsersByRestaurant(ctx context.Context, restaurantID primitive.ObjectID) (int64, error) {
	res, err := s.users.DeleteMany(ctx, bson.M{"restaurantId": restaurantID})
	if err != nil {
		return 0, err
	}
	return res.DeletedCount, nil
}

// Orders

func (s *MongoStore) InsertOrder(ctx context.Context, order *models.Order) error {
	_, err := s.orders.InsertOne(ctx, order)
	return translate(err)
}

func (s *MongoStore) FindOrderByID(ctx context.Context, id primitive.ObjectID) (*models.Order, error) {
	return findOne[models.Order](ctx, s.orders, bson.M{"_id": id})
}

func (s *MongoStore) ListOrders(ctx context.Context, restaurantID primitive.ObjectID, status models.OrderStatus) ([]models.Order, error) {
	filter := bson.M{"restaurantId": restaurantID}
	if status != "" {
		filter["status"] = status
	}
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	return findAll[models.Order](ctx, s.orders, filter, opts)
}

func (s *MongoStore) UpdateOrderStatus(ctx context.Context, id primitive.ObjectID, from, to models.OrderStatus) (*models.Order, error) {
	filter := bson.M{"_id": id, "status": from}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "status", Value: to},
		{Key: "updatedAt", Value: time.Now().UTC()},
	}}}
	return findOneAndUpdate[models.Order](ctx, s.orders, filter, update)
}

// Interactions and calls

func (s *MongoStore) InsertInteraction(ctx context.Context, interaction *models.Interaction) error {
	_, err := s.interactions.InsertOne(ctx, interaction)
	return translate(err)
}

func (s *MongoStore) RecentInteractions(ctx context.Context, restaurantID primitive.ObjectID, limit int64) ([]models.Interaction, error) {
	opts := options.Find().SetSort(bson.D{{Key: "time", Value: -1}}).SetLimit(limit)
	return findAll[models.Interaction](ctx, s.interactions, bson.M{"restaurantId": restaurantID}, opts)
}

func (s *MongoStore) InsertCall(ctx context.Context, call *models.Call) error {
	_, err := s.calls.InsertOne(ctx, call)
	return translate(err)
}
