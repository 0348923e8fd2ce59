package db

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/costmodel"
	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/mongo"
)

func TestConnectMongo_BadURI(t *testing.T) {
	client, err := ConnectMongo(context.Background(), "mongodb://bad:uri")
	if err == nil {
		t.Error("expected error for bad URI, got nil")
	}
	if client != nil {
		t.Error("expected nil client on error")
	}
}

func TestMongoFleetStore_NilCollection(t *testing.T) {
	store := &MongoFleetStore{}
	ctx := context.Background()

	if _, err := store.Vehicles(ctx); err == nil {
		t.Error("expected error when collection is nil")
	}
	if _, err := store.ServiceHistory(ctx); err == nil {
		t.Error("expected error when collection is nil")
	}
	if err := store.InsertVehicle(ctx, models.Vehicle{Plate: "AB123CD"}); err == nil {
		t.Error("expected error when collection is nil")
	}
	if err := store.AddServiceRecord(ctx, models.ServiceRecord{Plate: "AB123CD"}); err == nil {
		t.Error("expected error when collection is nil")
	}
}

func TestMongoModelStore_NilCollection(t *testing.T) {
	store := &MongoModelStore{}
	if _, err := store.Load(context.Background()); err == nil {
		t.Error("expected error when collection is nil")
	}
	if err := store.Save(context.Background(), &costmodel.Artifact{}); err == nil {
		t.Error("expected error when collection is nil")
	}
}

// testDatabase connects to MONGO_URI and returns a freshly dropped database.
func testDatabase(t *testing.T) *mongo.Database {
	t.Helper()
	uri := os.Getenv("MONGO_URI")
	if uri == "" || uri == "uri" {
		t.Skip("MONGO_URI not set or invalid, skipping integration test")
	}
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	client, err := ConnectMongo(ctx, uri)
	if err != nil {
		t.Skipf("failed to connect: %v, skipping integration test", err)
	}
	database := client.Database("test_fleet_maintenance")
	_ = database.Drop(ctx)
	t.Cleanup(func() {
		_ = database.Drop(context.Background())
		_ = client.Disconnect(context.Background())
	})
	return database
}

// Integration test (requires running MongoDB)
func TestMongoFleetStore_Integration(t *testing.T) {
	database := testDatabase(t)
	store := NewMongoFleetStore(database)
	ctx := context.Background()

	vehicle := models.Vehicle{Plate: "AB123CD", Make: "Fiat", Type: "van", Year: 2019, Status: models.StatusInService, Odometer: 10000}
	if err := store.InsertVehicle(ctx, vehicle); err != nil {
		t.Fatalf("insert vehicle: %v", err)
	}
	if err := store.InsertVehicle(ctx, vehicle); err != ErrVehicleExists {
		t.Errorf("expected ErrVehicleExists, got %v", err)
	}

	date := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)
	record := models.ServiceRecord{Plate: "AB123CD", Date: date, Odometer: models.Float(12500), ServiceType: "oil", Workshop: "North", Cost: 180}
	if err := store.AddServiceRecord(ctx, record); err != nil {
		t.Fatalf("add service record: %v", err)
	}
	if err := store.AddServiceRecord(ctx, models.ServiceRecord{Plate: "ZZ999ZZ"}); err != ErrVehicleNotFound {
		t.Errorf("expected ErrVehicleNotFound, got %v", err)
	}

	got, err := store.FindVehicle(ctx, "AB123CD")
	if err != nil {
		t.Fatalf("find vehicle: %v", err)
	}
	if got.Odometer != 12500 || got.LastWorkshop != "North" {
		t.Errorf("vehicle not advanced: %+v", got)
	}
	if got.LastServiceDate == nil || !got.LastServiceDate.Equal(date) {
		t.Errorf("unexpected last service date %v", got.LastServiceDate)
	}

	history, err := store.ServiceHistory(ctx)
	if err != nil {
		t.Fatalf("service history: %v", err)
	}
	if len(history) != 1 || history[0].Cost != 180 {
		t.Errorf("unexpected history %+v", history)
	}
}

func TestMongoModelStore_Integration(t *testing.T) {
	database := testDatabase(t)
	store := &MongoModelStore{Collection: database.Collection(ArtifactsCollection)}
	ctx := context.Background()

	if _, err := store.Load(ctx); err != costmodel.ErrNoModel {
		t.Fatalf("expected ErrNoModel, got %v", err)
	}

	artifact := trainedArtifact(t)
	if err := store.Save(ctx, artifact); err != nil {
		t.Fatalf("save: %v", err)
	}
	loaded, err := store.Load(ctx)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if loaded.ID != artifact.ID {
		t.Errorf("expected id %s, got %s", artifact.ID, loaded.ID)
	}
}
