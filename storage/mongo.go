package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"schoollicense.app/renewal/internal/version"
	"schoollicense.app/renewal/models"
)

// MongoStorage reads and updates license documents in a MongoDB collection.
type MongoStorage struct {
	client     *mongo.Client
	collection *mongo.Collection
}

// The _id may be an ObjectID or a plain string depending on who created the document.
type mongoLicense struct {
	ID           bson.RawValue `bson:"_id"`
	SchoolCode   string        `bson:"schoolCode"`
	SchoolName   string        `bson:"schoolName,omitempty"`
	ContactEmail string        `bson:"contactEmail,omitempty"`
	ExpiryDate   time.Time     `bson:"expiryDate"`
	IsActive     bool          `bson:"isActive"`
}

func NewMongoStorage(ctx context.Context, uri, database, collection string) (*MongoStorage, error) {
	client, err := mongo.Connect(options.Client().ApplyURI(uri).SetAppName(version.UserAgent()))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}

	return &MongoStorage{
		client:     client,
		collection: client.Database(database).Collection(collection),
	}, nil
}

func (m *MongoStorage) FindBySchoolCode(ctx context.Context, schoolCode string) (*models.LicenseRecord, error) {
	var doc mongoLicense
	err := m.collection.FindOne(ctx, bson.D{{Key: "schoolCode", Value: schoolCode}}).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find license: %w", err)
	}

	return &models.LicenseRecord{
		ID:           mongoIDString(doc.ID),
		SchoolCode:   doc.SchoolCode,
		SchoolName:   doc.SchoolName,
		ContactEmail: doc.ContactEmail,
		ExpiryDate:   doc.ExpiryDate.UTC(),
		IsActive:     doc.IsActive,
	}, nil
}

func (m *MongoStorage) UpdateLicense(ctx context.Context, id string, update models.LicenseUpdate) error {
	var filterID interface{} = id
	if oid, err := bson.ObjectIDFromHex(id); err == nil {
		filterID = oid
	}

	result, err := m.collection.UpdateByID(ctx, filterID, bson.D{{Key: "$set", Value: bson.D{
		{Key: "expiryDate", Value: update.ExpiryDate.UTC()},
		{Key: "isActive", Value: update.IsActive},
	}}})
	if err != nil {
		return fmt.Errorf("failed to update license: %w", err)
	}
	if result.MatchedCount == 0 {
		return fmt.Errorf("license %s not found", id)
	}
	return nil
}

func (m *MongoStorage) Ping(ctx context.Context) error {
	return m.client.Ping(ctx, nil)
}

func (m *MongoStorage) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func mongoIDString(v bson.RawValue) string {
	if oid, ok := v.ObjectIDOK(); ok {
		return oid.Hex()
	}
	if s, ok := v.StringValueOK(); ok {
		return s
	}
	return v.String()
}
