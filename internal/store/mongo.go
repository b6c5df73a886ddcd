package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"cartshare-backend/internal/domain"
)

// MongoStore persists users and orders in two MongoDB collections.
// Record ids are ObjectID hex strings assigned on insert.
type MongoStore struct {
	client *mongo.Client
	users  *mongo.Collection
	orders *mongo.Collection
}

// NewMongoStore connects to the given URI and prepares the collections,
// including the unique index on username that backs duplicate-signup
// detection.
func NewMongoStore(ctx context.Context, uri, database string) (*MongoStore, error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("connecting to mongodb: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		return nil, fmt.Errorf("pinging mongodb: %w", err)
	}

	db := client.Database(database)
	s := &MongoStore{
		client: client,
		users:  db.Collection("users"),
		orders: db.Collection("orders"),
	}

	_, err = s.users.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "username", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return nil, fmt.Errorf("creating username index: %w", err)
	}
	return s, nil
}

func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}

func (s *MongoStore) CreateUser(ctx context.Context, user *domain.User) (string, error) {
	user.ID = primitive.NewObjectID().Hex()
	user.Version = 1
	if user.Orders == nil {
		user.Orders = []string{}
	}
	if _, err := s.users.InsertOne(ctx, user); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return "", domain.ErrConflict
		}
		return "", fmt.Errorf("inserting user: %w", err)
	}
	return user.ID, nil
}

func (s *MongoStore) GetUser(ctx context.Context, id string) (*domain.User, error) {
	var user domain.User
	err := s.users.FindOne(ctx, bson.M{"_id": id}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("fetching user: %w", err)
	}
	return &user, nil
}

func (s *MongoStore) GetUserByUsername(ctx context.Context, username string) (*domain.User, error) {
	var user domain.User
	err := s.users.FindOne(ctx, bson.M{"username": username}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("fetching user by username: %w", err)
	}
	return &user, nil
}

func (s *MongoStore) UpdateUser(ctx context.Context, user *domain.User) error {
	res, err := s.users.UpdateOne(ctx,
		bson.M{"_id": user.ID, "version": user.Version},
		bson.M{
			"$set": bson.M{
				"username":       user.Username,
				"hashedPassword": user.HashedPassword,
				"salt":           user.Salt,
				"iterations":     user.Iterations,
				"orders":         user.Orders,
			},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	if res.MatchedCount == 0 {
		return s.casMiss(ctx, s.users, user.ID)
	}
	user.Version++
	return nil
}

func (s *MongoStore) CreateOrder(ctx context.Context, order *domain.Order) (string, error) {
	order.ID = primitive.NewObjectID().Hex()
	order.Version = 1
	if order.UserIDs == nil {
		order.UserIDs = []string{}
	}
	if order.Items == nil {
		order.Items = []domain.Item{}
	}
	if _, err := s.orders.InsertOne(ctx, order); err != nil {
		return "", fmt.Errorf("inserting order: %w", err)
	}
	return order.ID, nil
}

func (s *MongoStore) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var order domain.Order
	err := s.orders.FindOne(ctx, bson.M{"_id": id}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("fetching order: %w", err)
	}
	return &order, nil
}

func (s *MongoStore) UpdateOrder(ctx context.Context, order *domain.Order) error {
	res, err := s.orders.UpdateOne(ctx,
		bson.M{"_id": order.ID, "version": order.Version},
		bson.M{
			"$set": bson.M{
				"userIds":    order.UserIDs,
				"title":      order.Title,
				"items":      order.Items,
				"totalPrice": order.TotalPrice,
				"complete":   order.Complete,
			},
			"$inc": bson.M{"version": 1},
		})
	if err != nil {
		return fmt.Errorf("updating order: %w", err)
	}
	if res.MatchedCount == 0 {
		return s.casMiss(ctx, s.orders, order.ID)
	}
	order.Version++
	return nil
}

func (s *MongoStore) DeleteOrder(ctx context.Context, id string) error {
	res, err := s.orders.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("deleting order: %w", err)
	}
	if res.DeletedCount == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// casMiss distinguishes a versioned update that matched nothing: the
// record either disappeared or was concurrently modified.
func (s *MongoStore) casMiss(ctx context.Context, coll *mongo.Collection, id string) error {
	n, err := coll.CountDocuments(ctx, bson.M{"_id": id})
	if err != nil {
		return fmt.Errorf("checking record after failed update: %w", err)
	}
	if n == 0 {
		return domain.ErrNotFound
	}
	return domain.ErrVersionConflict
}
