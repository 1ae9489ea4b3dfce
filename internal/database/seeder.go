// server/internal/database/seeder.go
package database

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"darkstore-dispatch-api-server/internal/auth"
	"darkstore-dispatch-api-server/internal/models"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// SeedSuperAdmin creates the initial superadmin account if none exists, so a
// fresh deployment can log in and create real users.
func SeedSuperAdmin(db *mongo.Database) error {
	userCollection := db.Collection("users")
	superAdminEmail := "superadmin@example.com"

	count, err := userCollection.CountDocuments(context.Background(), bson.M{"email": superAdminEmail})
	if err != nil {
		return err
	}
	if count > 0 {
		log.Println("Super admin already exists. Seeding skipped.")
		return nil
	}

	log.Println("Super admin not found. Seeding...")
	hashedPassword, err := auth.HashPassword("superadminpassword")
	if err != nil {
		return err
	}

	superAdmin := models.User{
		Email:     superAdminEmail,
		Name:      "Super Admin",
		Password:  hashedPassword,
		Role:      "superadmin",
		StoreID:   "system",
		Status:    "active",
		CreatedAt: time.Now(),
	}

	if _, err := userCollection.InsertOne(context.Background(), superAdmin); err != nil {
		return err
	}

	log.Println("Super admin seeded successfully.")
	return nil
}

// SeedDemoData loads one demo store with riders and a ready queue. Local
// development only, behind the seed.demoData config flag.
func SeedDemoData(db *mongo.Database) error {
	const storeID = "store-demo"

	count, err := db.Collection("riders").CountDocuments(context.Background(), bson.M{"storeID": storeID})
	if err != nil {
		return err
	}
	if count > 0 {
		log.Println("Demo data already exists. Seeding skipped.")
		return nil
	}

	now := time.Now()
	riders := []interface{}{
		models.Rider{RiderID: newID("RDR"), StoreID: storeID, Name: "Demo Rider A", Status: models.RiderStatusOnline, CurrentOrders: 0, MaxCapacity: 5, UpdatedAt: now},
		models.Rider{RiderID: newID("RDR"), StoreID: storeID, Name: "Demo Rider B", Status: models.RiderStatusWaiting, CurrentOrders: 2, MaxCapacity: 5, UpdatedAt: now},
		models.Rider{RiderID: newID("RDR"), StoreID: storeID, Name: "Demo Rider C", Status: models.RiderStatusOffline, CurrentOrders: 0, MaxCapacity: 4, UpdatedAt: now},
	}
	if _, err := db.Collection("riders").InsertMany(context.Background(), riders); err != nil {
		return err
	}

	classes := []models.OrderClass{models.OrderClassExpress, models.OrderClassNormal, models.OrderClassPriority, models.OrderClassNormal, models.OrderClassPremium}
	orders := make([]interface{}, 0, len(classes))
	for i, class := range classes {
		orders = append(orders, models.Order{
			OrderID:     newID("ORD"),
			StoreID:     storeID,
			Status:      models.OrderStatusReady,
			Class:       class,
			ItemCount:   i + 1,
			SLADeadline: now.Add(time.Duration(10+10*i) * time.Minute),
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}
	if _, err := db.Collection("orders").InsertMany(context.Background(), orders); err != nil {
		return err
	}

	log.Printf("Demo data seeded for %s.", storeID)
	return nil
}

func newID(prefix string) string {
	return fmt.Sprintf("%s-%s", prefix, strings.ToUpper(uuid.New().String()[:8]))
}
