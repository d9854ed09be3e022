package orders

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/fjod/storefront/internal/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const ordersCollection = "orders"

type MongoRepository struct {
	collection *mongo.Collection
}

func NewMongoRepository(db *mongo.Database) *MongoRepository {
	return &MongoRepository{collection: db.Collection(ordersCollection)}
}

func (m *MongoRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	if _, err := m.collection.InsertOne(ctx, order); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrDuplicateOrderNumber
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}
	return nil
}

func (m *MongoRepository) GetOrderByNumber(ctx context.Context, orderNumber string) (*domain.Order, error) {
	return m.findOne(ctx, bson.M{"order_number": orderNumber})
}

func (m *MongoRepository) GetOrderByID(ctx context.Context, id string) (*domain.Order, error) {
	return m.findOne(ctx, bson.M{"_id": id})
}

func (m *MongoRepository) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	return m.set(ctx, id, bson.M{"status": status})
}

func (m *MongoRepository) UpdateOrderNotes(ctx context.Context, id string, notes string) error {
	return m.set(ctx, id, bson.M{"notes": notes})
}

func (m *MongoRepository) ListOrders(ctx context.Context, filter Filter, page, pageSize int) (*Page, error) {
	page, pageSize = NormalizePage(page, pageSize)

	query := bson.M{}
	if filter.Status != "" {
		query["status"] = filter.Status
	}
	if filter.Email != "" {
		query["customer.email"] = bson.M{"$regex": "^" + regexp.QuoteMeta(filter.Email) + "$", "$options": "i"}
	}
	if s := strings.TrimSpace(filter.Search); s != "" {
		pattern := bson.M{"$regex": regexp.QuoteMeta(s), "$options": "i"}
		query["$or"] = bson.A{
			bson.M{"order_number": pattern},
			bson.M{"customer.name": pattern},
		}
	}

	total, err := m.collection.CountDocuments(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to count orders: %w", err)
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "created_at", Value: -1}, {Key: "order_number", Value: -1}}).
		SetSkip(int64((page - 1) * pageSize)).
		SetLimit(int64(pageSize))

	cursor, err := m.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	defer cursor.Close(ctx)

	var list []*domain.Order
	if err := cursor.All(ctx, &list); err != nil {
		return nil, fmt.Errorf("failed to decode orders: %w", err)
	}

	return newPage(list, page, pageSize, int(total)), nil
}

func (m *MongoRepository) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "order_number", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "created_at", Value: -1}},
		},
		{
			Keys: bson.D{{Key: "customer.email", Value: 1}},
		},
	}

	if _, err := m.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create order indexes: %w", err)
	}
	return nil
}

func (m *MongoRepository) findOne(ctx context.Context, filter bson.M) (*domain.Order, error) {
	var o domain.Order
	if err := m.collection.FindOne(ctx, filter).Decode(&o); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return &o, nil
}

func (m *MongoRepository) set(ctx context.Context, id string, fields bson.M) error {
	fields["updated_at"] = time.Now()
	result, err := m.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": fields})
	if err != nil {
		return fmt.Errorf("failed to update order: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrOrderNotFound
	}
	return nil
}
