package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"sensorhub/backend/services/sensor-api/internal/models"
)

// ReadingsCollection is the mongo collection holding readings.
const ReadingsCollection = "sensors"

type readingDocument struct {
	ID          string    `bson:"_id"`
	EquipmentID string    `bson:"equipmentId"`
	Timestamp   time.Time `bson:"timestamp"`
	Value       float64   `bson:"value"`
}

// MongoReadingRepository persists readings as documents. InsertMany is ordered but not
// transactional: a failure midway leaves the already written prefix visible.
type MongoReadingRepository struct {
	coll *mongo.Collection
}

// NewMongoReadingRepository returns repository.
func NewMongoReadingRepository(db *mongo.Database) *MongoReadingRepository {
	return &MongoReadingRepository{coll: db.Collection(ReadingsCollection)}
}

func newReadingDocument(reading models.Reading) readingDocument {
	return readingDocument{
		ID:          uuid.NewString(),
		EquipmentID: reading.EquipmentID,
		Timestamp:   reading.Timestamp.UTC(),
		Value:       reading.Value,
	}
}

// Insert stores a single reading.
func (r *MongoReadingRepository) Insert(ctx context.Context, reading models.Reading) (string, error) {
	doc := newReadingDocument(reading)
	if _, err := r.coll.InsertOne(ctx, doc); err != nil {
		return "", err
	}
	return doc.ID, nil
}

// InsertMany stores readings with a single ordered bulk insert.
func (r *MongoReadingRepository) InsertMany(ctx context.Context, readings []models.Reading) (int, error) {
	docs := make([]interface{}, len(readings))
	for i, reading := range readings {
		docs[i] = newReadingDocument(reading)
	}
	result, err := r.coll.InsertMany(ctx, docs, options.InsertMany().SetOrdered(true))
	if err != nil {
		return 0, err
	}
	return len(result.InsertedIDs), nil
}

// QueryRange returns readings of one station recorded at or after since.
func (r *MongoReadingRepository) QueryRange(ctx context.Context, equipmentID string, since time.Time) ([]models.Reading, error) {
	filter := bson.M{
		"equipmentId": equipmentID,
		"timestamp":   bson.M{"$gte": since.UTC()},
	}
	opts := options.Find().SetSort(bson.D{{Key: "timestamp", Value: 1}, {Key: "_id", Value: 1}})

	cursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var readings []models.Reading
	for cursor.Next(ctx) {
		var doc readingDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		readings = append(readings, models.Reading{
			ID:          doc.ID,
			EquipmentID: doc.EquipmentID,
			Timestamp:   doc.Timestamp.UTC(),
			Value:       doc.Value,
		})
	}
	return readings, cursor.Err()
}

// AverageByEquipment runs a $match/$group/$avg pipeline.
func (r *MongoReadingRepository) AverageByEquipment(ctx context.Context, since time.Time) ([]models.StationAverage, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.M{"timestamp": bson.M{"$gte": since.UTC()}}}},
		{{Key: "$group", Value: bson.M{"_id": "$equipmentId", "average": bson.M{"$avg": "$value"}}}},
		{{Key: "$sort", Value: bson.M{"_id": 1}}},
	}

	cursor, err := r.coll.Aggregate(ctx, pipeline)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var averages []models.StationAverage
	for cursor.Next(ctx) {
		var doc struct {
			EquipmentID string  `bson:"_id"`
			Average     float64 `bson:"average"`
		}
		if err := cursor.Decode(&doc); err != nil {
			return nil, err
		}
		averages = append(averages, models.StationAverage{EquipmentID: doc.EquipmentID, Average: doc.Average})
	}
	return averages, cursor.Err()
}
