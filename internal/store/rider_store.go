// server/internal/store/rider_store.go
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

// RiderStore is the MongoDB-backed rider pool.
type RiderStore struct {
	col *mongo.Collection
}

func NewRiderStore(db *mongo.Database) *RiderStore {
	return &RiderStore{col: db.Collection("riders")}
}

func (s *RiderStore) FindAssignable(ctx context.Context, storeID string) ([]models.Rider, error) {
	filter := bson.M{
		"storeID": storeID,
		"status":  bson.M{"$in": bson.A{models.RiderStatusOnline, models.RiderStatusWaiting}},
		"$expr":   bson.M{"$lt": bson.A{"$currentOrders", "$maxCapacity"}},
	}
	// Least-loaded first; riderID breaks ties so the ordering is stable.
	opts := options.Find().SetSort(bson.D{{Key: "currentOrders", Value: 1}, {Key: "riderID", Value: 1}})

	cursor, err := s.col.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var riders []models.Rider
	if err := cursor.All(ctx, &riders); err != nil {
		return nil, err
	}
	if riders == nil {
		riders = []models.Rider{}
	}
	return riders, nil
}

func (s *RiderStore) GetByRiderID(ctx context.Context, storeID, riderID string) (*models.Rider, error) {
	var rider models.Rider
	err := s.col.FindOne(ctx, bson.M{"storeID": storeID, "riderID": riderID}).Decode(&rider)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrRiderNotFound
		}
		return nil, err
	}
	return &rider, nil
}

// Reserve is a single guarded increment: the filter re-validates capacity at
// write time, so two racing commits can never push currentOrders past
// maxCapacity between them. The pipeline update flips online -> busy in the
// same write when the rider fills up.
func (s *RiderStore) Reserve(ctx context.Context, storeID, riderID string, count int) (*models.Rider, error) {
	if count <= 0 {
		return s.GetByRiderID(ctx, storeID, riderID)
	}

	filter := bson.M{
		"storeID": storeID,
		"riderID": riderID,
		"$expr": bson.M{"$lte": bson.A{
			bson.M{"$add": bson.A{"$currentOrders", count}},
			"$maxCapacity",
		}},
	}
	newCount := bson.M{"$add": bson.A{"$currentOrders", count}}
	update := mongo.Pipeline{
		{{Key: "$set", Value: bson.M{
			"currentOrders": newCount,
			"status": bson.M{"$cond": bson.A{
				bson.M{"$and": bson.A{
					bson.M{"$eq": bson.A{"$status", models.RiderStatusOnline}},
					bson.M{"$gte": bson.A{newCount, "$maxCapacity"}},
				}},
				models.RiderStatusBusy,
				"$status",
			}},
			"updatedAt": time.Now(),
		}}},
	}

	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var rider models.Rider
	err := s.col.FindOneAndUpdate(ctx, filter, update, opts).Decode(&rider)
	if err == nil {
		return &rider, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, err
	}

	// No match: either the rider does not exist or the increment would
	// overshoot. Look the rider up to tell the two apart.
	if _, lookupErr := s.GetByRiderID(ctx, storeID, riderID); lookupErr != nil {
		return nil, lookupErr
	}
	return nil, ErrCapacityExceeded
}
