// server/internal/store/dispatch_store.go
package store

import (
	"context"

	"darkstore-dispatch-api-server/internal/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
)

// DispatchStore is the MongoDB-backed dispatch ledger: dispatch events plus
// the dispatch_orders claim collection. dispatch_orders carries a unique
// index on orderID (see database.EnsureIndexes); the insert in ClaimOrder is
// therefore the atomic check-then-create the at-most-once guarantee rests on.
type DispatchStore struct {
	dispatches *mongo.Collection
	claims     *mongo.Collection
}

func NewDispatchStore(db *mongo.Database) *DispatchStore {
	return &DispatchStore{
		dispatches: db.Collection("dispatches"),
		claims:     db.Collection("dispatch_orders"),
	}
}

func (s *DispatchStore) CreateDispatch(ctx context.Context, d *models.Dispatch) error {
	result, err := s.dispatches.InsertOne(ctx, d)
	if err != nil {
		return err
	}
	d.ID = result.InsertedID.(primitive.ObjectID)
	return nil
}

func (s *DispatchStore) ClaimOrder(ctx context.Context, claim models.DispatchOrder) error {
	_, err := s.claims.InsertOne(ctx, claim)
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAlreadyDispatched
		}
		return err
	}
	return nil
}

func (s *DispatchStore) DeleteClaim(ctx context.Context, orderID string) error {
	_, err := s.claims.DeleteOne(ctx, bson.M{"orderID": orderID})
	return err
}

func (s *DispatchStore) FindClaims(ctx context.Context, orderIDs []string) (map[string]models.DispatchOrder, error) {
	claims := make(map[string]models.DispatchOrder, len(orderIDs))
	if len(orderIDs) == 0 {
		return claims, nil
	}

	cursor, err := s.claims.Find(ctx, bson.M{"orderID": bson.M{"$in": orderIDs}})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var found []models.DispatchOrder
	if err := cursor.All(ctx, &found); err != nil {
		return nil, err
	}
	for _, claim := range found {
		claims[claim.OrderID] = claim
	}
	return claims, nil
}
