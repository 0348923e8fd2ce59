package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ukydev/fleet-maintenance/internal/costmodel"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

type artifactDocument struct {
	Name      string    `bson:"_id"`
	ModelID   string    `bson:"model_id"`
	Payload   []byte    `bson:"payload"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// MongoModelStore keeps the cost model as one document, so a replace is
// atomic for concurrent readers.
type MongoModelStore struct {
	Collection *mongo.Collection
}

// Save upserts the artifact under its stable name.
func (s *MongoModelStore) Save(ctx context.Context, a *costmodel.Artifact) error {
	if s.Collection == nil {
		return fmt.Errorf("mongo collection is nil")
	}
	payload, err := costmodel.EncodeArtifact(a)
	if err != nil {
		return fmt.Errorf("encode model: %w", err)
	}
	doc := artifactDocument{
		Name:      costmodel.ArtifactName,
		ModelID:   a.ID,
		Payload:   payload,
		UpdatedAt: time.Now(),
	}
	_, err = s.Collection.ReplaceOne(ctx, bson.M{"_id": doc.Name}, doc, options.Replace().SetUpsert(true))
	return err
}

// Load fetches the stored artifact.
func (s *MongoModelStore) Load(ctx context.Context) (*costmodel.Artifact, error) {
	if s.Collection == nil {
		return nil, fmt.Errorf("mongo collection is nil")
	}
	var doc artifactDocument
	err := s.Collection.FindOne(ctx, bson.M{"_id": costmodel.ArtifactName}).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, costmodel.ErrNoModel
		}
		return nil, err
	}
	return costmodel.DecodeArtifact(doc.Payload)
}
