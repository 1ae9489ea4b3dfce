// server/internal/store/order_store.go
package store

import (
	"context"
	"errors"
	"time"

	"darkstore-dispatch-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// OrderStore is the MongoDB-backed order ledger.
type OrderStore struct {
	col *mongo.Collection
}

func NewOrderStore(db *mongo.Database) *OrderStore {
	return &OrderStore{col: db.Collection("orders")}
}

func (s *OrderStore) FindReady(ctx context.Context, storeID string, limit int) ([]models.Order, error) {
	filter := bson.M{"storeID": storeID, "status": models.OrderStatusReady}
	opts := options.Find().
		SetSort(bson.D{{Key: "slaDeadline", Value: 1}, {Key: "orderID", Value: 1}}).
		SetLimit(int64(limit))

	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var orders []models.Order
	if err := cursor.All(ctx, &orders); err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

func (s *OrderStore) GetByOrderID(ctx context.Context, storeID, orderID string) (*models.Order, error) {
	var order models.Order
	err := s.col.FindOne(ctx, bson.M{"storeID": storeID, "orderID": orderID}).Decode(&order)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrOrderNotFound
		}
		return nil, err
	}
	return &order, nil
}

func (s *OrderStore) MarkProcessing(ctx context.Context, storeID, orderID string, assignee models.Assignee, requireReady bool) error {
	filter := bson.M{
		"storeID":  storeID,
		"orderID":  orderID,
		"assignee": bson.M{"$exists": false},
	}
	if requireReady {
		filter["status"] = models.OrderStatusReady
	} else {
		// Manual SLA override: also accept orders that have not reached
		// "ready" yet. Terminal and already-processing orders stay out.
		filter["status"] = bson.M{"$in": bson.A{models.OrderStatusNew, models.OrderStatusReady}}
	}

	update := bson.M{"$set": bson.M{
		"status":    models.OrderStatusProcessing,
		"assignee":  assignee,
		"updatedAt": time.Now(),
	}}

	result, err := s.col.UpdateOne(ctx, filter, update)
	if err != nil {
		return err
	}
	if result.ModifiedCount == 0 {
		return ErrOrderNotReady
	}
	return nil
}

func (s *OrderStore) RevertProcessing(ctx context.Context, storeID, orderID, riderID string) error {
	filter := bson.M{
		"storeID":          storeID,
		"orderID":          orderID,
		"status":           models.OrderStatusProcessing,
		"assignee.riderID": riderID,
	}
	update := bson.M{
		"$set":   bson.M{"status": models.OrderStatusReady, "updatedAt": time.Now()},
		"$unset": bson.M{"assignee": ""},
	}
	_, err := s.col.UpdateOne(ctx, filter, update)
	return err
}
