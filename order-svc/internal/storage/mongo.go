package storage

import (
	"context"
	"fmt"
	"time"

	"lunchbox/order-svc/internal/domain"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type orderDocument struct {
	ID           string    `bson:"_id"`
	UserID       string    `bson:"user_id"`
	UserName     string    `bson:"user_name"`
	UserEmail    string    `bson:"user_email"`
	RestaurantID string    `bson:"restaurant_id"`
	MenuItemID   string    `bson:"menu_item_id"`
	MenuItemName string    `bson:"menu_item_name"`
	Category     string    `bson:"category,omitempty"`
	UnitPrice    int64     `bson:"unit_price"`
	Date         string    `bson:"date"`
	Quantity     int       `bson:"quantity"`
	Note         string    `bson:"note,omitempty"`
	IsPaid       bool      `bson:"is_paid"`
	CreatedAt    time.Time `bson:"created_at"`
	UpdatedAt    time.Time `bson:"updated_at"`
}

func toDocument(line domain.OrderLine) orderDocument {
	return orderDocument{
		ID:           line.ID,
		UserID:       line.UserID,
		UserName:     line.UserName,
		UserEmail:    line.UserEmail,
		RestaurantID: line.RestaurantID,
		MenuItemID:   line.MenuItemID,
		MenuItemName: line.MenuItemName,
		Category:     line.Category,
		UnitPrice:    line.UnitPrice,
		Date:         line.Date,
		Quantity:     line.Quantity,
		Note:         line.Note,
		IsPaid:       line.IsPaid,
		CreatedAt:    line.CreatedAt,
		UpdatedAt:    line.UpdatedAt,
	}
}

func (d orderDocument) toLine() domain.OrderLine {
	return domain.OrderLine{
		ID:           d.ID,
		UserID:       d.UserID,
		UserName:     d.UserName,
		UserEmail:    d.UserEmail,
		RestaurantID: d.RestaurantID,
		MenuItemID:   d.MenuItemID,
		MenuItemName: d.MenuItemName,
		Category:     d.Category,
		UnitPrice:    d.UnitPrice,
		Date:         d.Date,
		Quantity:     d.Quantity,
		Note:         d.Note,
		IsPaid:       d.IsPaid,
		CreatedAt:    d.CreatedAt,
		UpdatedAt:    d.UpdatedAt,
	}
}

type MongoStore struct {
	collection *mongo.Collection
}

func NewMongoStore(db *mongo.Database) *MongoStore {
	return &MongoStore{collection: db.Collection("order_lines")}
}

// CreateIndexes enforces one line per user, restaurant, day and menu item.
func (s *MongoStore) CreateIndexes(ctx context.Context) error {
	indexes := []mongo.IndexModel{
		{
			Keys: bson.D{
				{Key: "user_id", Value: 1},
				{Key: "restaurant_id", Value: 1},
				{Key: "date", Value: 1},
				{Key: "menu_item_id", Value: 1},
			},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "restaurant_id", Value: 1}, {Key: "date", Value: 1}},
		},
	}
	if _, err := s.collection.Indexes().CreateMany(ctx, indexes); err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}
	return nil
}

func (s *MongoStore) ListOrders(ctx context.Context, filter domain.OrderFilter) ([]domain.OrderLine, error) {
	query := bson.M{}
	if filter.UserID != "" {
		query["user_id"] = filter.UserID
	}
	if filter.RestaurantID != "" {
		query["restaurant_id"] = filter.RestaurantID
	}
	switch {
	case filter.Date != "" && len(filter.Dates) > 0:
		query["$and"] = bson.A{bson.M{"date": filter.Date}, bson.M{"date": bson.M{"$in": filter.Dates}}}
	case filter.Date != "":
		query["date"] = filter.Date
	case len(filter.Dates) > 0:
		query["date"] = bson.M{"$in": filter.Dates}
	}
	if len(filter.IDs) > 0 {
		query["_id"] = bson.M{"$in": filter.IDs}
	}

	opts := options.Find().SetSort(bson.D{{Key: "date", Value: 1}, {Key: "created_at", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := s.collection.Find(ctx, query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to find order lines: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []orderDocument
	if err := cursor.All(ctx, &docs); err != nil {
		return nil, fmt.Errorf("failed to decode order lines: %w", err)
	}
	lines := make([]domain.OrderLine, 0, len(docs))
	for _, doc := range docs {
		lines = append(lines, doc.toLine())
	}
	return lines, nil
}

func (s *MongoStore) CreateOrder(ctx context.Context, line domain.OrderLine) (domain.OrderLine, error) {
	now := time.Now().UTC()
	line.ID = uuid.NewString()
	line.CreatedAt = now
	line.UpdatedAt = now
	if _, err := s.collection.InsertOne(ctx, toDocument(line)); err != nil {
		return domain.OrderLine{}, fmt.Errorf("failed to insert order line: %w", err)
	}
	return line, nil
}

func (s *MongoStore) UpdateOrder(ctx context.Context, id string, patch domain.OrderPatch) (bool, error) {
	set := bson.M{"updated_at": time.Now().UTC()}
	if patch.Quantity != nil {
		set["quantity"] = *patch.Quantity
	}
	if patch.Note != nil {
		set["note"] = *patch.Note
	}
	if patch.IsPaid != nil {
		set["is_paid"] = *patch.IsPaid
	}
	res, err := s.collection.UpdateOne(ctx, bson.M{"_id": id}, bson.M{"$set": set})
	if err != nil {
		return false, fmt.Errorf("failed to update order line: %w", err)
	}
	return res.MatchedCount > 0, nil
}

func (s *MongoStore) DeleteOrder(ctx context.Context, id string) (bool, error) {
	res, err := s.collection.DeleteOne(ctx, bson.M{"_id": id})
	if err != nil {
		return false, fmt.Errorf("failed to delete order line: %w", err)
	}
	return res.DeletedCount > 0, nil
}
