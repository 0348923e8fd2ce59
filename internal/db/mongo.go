package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/models"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Collection names in the fleet database.
const (
	VehiclesCollection  = "vehicles"
	ServicesCollection  = "service_history"
	UsersCollection     = "users"
	ArtifactsCollection = "model_artifacts"
)

// ConnectMongo connects to MongoDB and verifies the connection.
func ConnectMongo(ctx context.Context, uri string) (*mongo.Client, error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		return nil, fmt.Errorf("mongo.Connect error: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("mongo.Ping error: %w", err)
	}
	return client, nil
}

// MongoFleetStore keeps vehicles and service history in MongoDB.
type MongoFleetStore struct {
	VehicleColl *mongo.Collection
	ServiceColl *mongo.Collection
}

// NewMongoFleetStore binds the fleet collections of database.
func NewMongoFleetStore(database *mongo.Database) *MongoFleetStore {
	return &MongoFleetStore{
		VehicleColl: database.Collection(VehiclesCollection),
		ServiceColl: database.Collection(ServicesCollection),
	}
}

func (s *MongoFleetStore) ready() error {
	if s.VehicleColl == nil || s.ServiceColl == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	return nil
}

// Vehicles returns every vehicle ordered by plate.
func (s *MongoFleetStore) Vehicles(ctx context.Context) ([]models.Vehicle, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	cursor, err := s.VehicleColl.Find(ctx, bson.M{}, options.Find().SetSort(bson.D{{Key: "_id", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("find vehicles: %w", err)
	}
	defer cursor.Close(ctx)

	vehicles := []models.Vehicle{}
	if err := cursor.All(ctx, &vehicles); err != nil {
		return nil, fmt.Errorf("decode vehicles: %w", err)
	}
	return vehicles, nil
}

// ServiceHistory returns every service record ordered by plate and date.
func (s *MongoFleetStore) ServiceHistory(ctx context.Context) ([]models.ServiceRecord, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	sort := bson.D{{Key: "plate", Value: 1}, {Key: "date", Value: 1}}
	cursor, err := s.ServiceColl.Find(ctx, bson.M{}, options.Find().SetSort(sort))
	if err != nil {
		return nil, fmt.Errorf("find service history: %w", err)
	}
	defer cursor.Close(ctx)

	records := []models.ServiceRecord{}
	if err := cursor.All(ctx, &records); err != nil {
		return nil, fmt.Errorf("decode service history: %w", err)
	}
	return records, nil
}

// FindVehicle finds a vehicle by its plate.
func (s *MongoFleetStore) FindVehicle(ctx context.Context, plate string) (*models.Vehicle, error) {
	if err := s.ready(); err != nil {
		return nil, err
	}
	var vehicle models.Vehicle
	err := s.VehicleColl.FindOne(ctx, bson.M{"_id": plate}).Decode(&vehicle)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrVehicleNotFound
		}
		return nil, err
	}
	return &vehicle, nil
}

// InsertVehicle registers a new vehicle.
func (s *MongoFleetStore) InsertVehicle(ctx context.Context, vehicle models.Vehicle) error {
	if err := s.ready(); err != nil {
		return err
	}
	if vehicle.CreatedAt.IsZero() {
		vehicle.CreatedAt = time.Now()
	}
	_, err := s.VehicleColl.InsertOne(ctx, vehicle)
	if mongo.IsDuplicateKeyError(err) {
		return ErrVehicleExists
	}
	return err
}

// AddServiceRecord inserts the record and advances the vehicle.
func (s *MongoFleetStore) AddServiceRecord(ctx context.Context, record models.ServiceRecord) error {
	if err := s.ready(); err != nil {
		return err
	}
	if _, err := s.FindVehicle(ctx, record.Plate); err != nil {
		return err
	}
	if record.ID.IsZero() {
		record.ID = primitive.NewObjectID()
	}
	record.CreatedAt = time.Now()
	if _, err := s.ServiceColl.InsertOne(ctx, record); err != nil {
		return fmt.Errorf("insert service record: %w", err)
	}

	advance := bson.M{}
	if record.HasDate() {
		advance["last_service_date"] = record.Date
	}
	if record.Odometer != nil {
		advance["odometer"] = *record.Odometer
	}
	update := bson.M{"$set": bson.M{"last_workshop": record.Workshop}}
	if len(advance) > 0 {
		update["$max"] = advance
	}
	result, err := s.VehicleColl.UpdateOne(ctx, bson.M{"_id": record.Plate}, update)
	if err != nil {
		return fmt.Errorf("update vehicle: %w", err)
	}
	if result.MatchedCount == 0 {
		return ErrVehicleNotFound
	}
	return nil
}
