package etl

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/google-marketing-solutions/ga-mp-uploader/internal/payload"
	"github.com/google-marketing-solutions/ga-mp-uploader/pkg/logger"
	"github.com/google-marketing-solutions/ga-mp-uploader/pkg/models"
)

const (
	kindHeader = "header"
	kindRecord = "record"
)

var ErrNotStaged = errors.New("staging has not been started")

// MongoStaging keeps the staging list in one MongoDB collection: a header
// document naming the stream and batch, followed by one document per payload.
type MongoStaging struct {
	Collection *mongo.Collection
}

type stagingHeader struct {
	Kind      string    `bson:"kind"`
	BatchID   string    `bson:"batchId"`
	StreamURL string    `bson:"streamUrl"`
	CreatedAt time.Time `bson:"createdAt"`
}

type stagedDocument struct {
	Kind                string `bson:"kind"`
	BatchID             string `bson:"batchId"`
	models.StagedRecord `bson:",inline"`
}

func NewMongoStaging(client *mongo.Client, database, collection string) *MongoStaging {
	return &MongoStaging{Collection: client.Database(database).Collection(collection)}
}

func (m *MongoStaging) Restart(ctx context.Context, streamURL string) error {
	if _, err := m.Collection.DeleteMany(ctx, bson.M{}); err != nil {
		return fmt.Errorf("failed to clear staging: %w", err)
	}
	header := stagingHeader{
		Kind:      kindHeader,
		BatchID:   uuid.NewString(),
		StreamURL: streamURL,
		CreatedAt: time.Now().UTC(),
	}
	if _, err := m.Collection.InsertOne(ctx, header); err != nil {
		return fmt.Errorf("failed to write staging header: %w", err)
	}
	logger.Infof("Staging restarted. Batch: %s", header.BatchID)
	return nil
}

func (m *MongoStaging) header(ctx context.Context) (stagingHeader, error) {
	var h stagingHeader
	err := m.Collection.FindOne(ctx, bson.M{"kind": kindHeader}).Decode(&h)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return h, ErrNotStaged
	}
	return h, err
}

// StreamURL returns the stream the current batch was staged for.
func (m *MongoStaging) StreamURL(ctx context.Context) (string, error) {
	h, err := m.header(ctx)
	if err != nil {
		return "", err
	}
	return h.StreamURL, nil
}

func (m *MongoStaging) Append(ctx context.Context, payloads []*payload.Payload) error {
	h, err := m.header(ctx)
	if err != nil {
		return err
	}
	if len(payloads) == 0 {
		return nil
	}
	count, err := m.Collection.CountDocuments(ctx, bson.M{"kind": kindRecord})
	if err != nil {
		return err
	}

	docs := make([]interface{}, 0, len(payloads))
	for i, p := range payloads {
		body, err := p.ToJSON(true)
		if err != nil {
			return fmt.Errorf("payload %d: %w", i, err)
		}
		docs = append(docs, stagedDocument{
			Kind:    kindRecord,
			BatchID: h.BatchID,
			StagedRecord: models.StagedRecord{
				Position:   int(count) + i,
				Payload:    string(body),
				Validation: models.StatusUnvalidated,
				Status:     models.StatusUnsent,
			},
		})
	}
	if _, err := m.Collection.InsertMany(ctx, docs); err != nil {
		return fmt.Errorf("failed to append staged payloads: %w", err)
	}
	return nil
}

func (m *MongoStaging) Records(ctx context.Context) ([]models.StagedRecord, error) {
	findOpts := options.Find().SetSort(bson.M{"position": 1})
	cursor, err := m.Collection.Find(ctx, bson.M{"kind": kindRecord}, findOpts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var records []models.StagedRecord
	for cursor.Next(ctx) {
		var doc stagedDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("error decoding staged record: %w", err)
		}
		records = append(records, doc.StagedRecord)
	}
	return records, cursor.Err()
}

func (m *MongoStaging) SetValidation(ctx context.Context, statuses []string) error {
	return m.update(ctx, "validation", statuses)
}

func (m *MongoStaging) SetStatus(ctx context.Context, statuses []string) error {
	return m.update(ctx, "status", statuses)
}

func (m *MongoStaging) update(ctx context.Context, field string, statuses []string) error {
	if len(statuses) == 0 {
		return nil
	}
	writes := make([]mongo.WriteModel, len(statuses))
	for i, s := range statuses {
		filter := bson.M{"kind": kindRecord, "position": i}
		writes[i] = mongo.NewUpdateOneModel().SetFilter(filter).SetUpdate(bson.M{"$set": bson.M{field: s}})
	}
	res, err := m.Collection.BulkWrite(ctx, writes)
	if err != nil {
		return fmt.Errorf("failed to update staged %s: %w", field, err)
	}
	logger.Infof("Mongo BulkWrite (%s): Match %d, Mod %d", field, res.MatchedCount, res.ModifiedCount)
	return nil
}

// MemoryStaging is an in-process Staging used for dry runs and tests.
type MemoryStaging struct {
	mu        sync.Mutex
	streamURL string
	started   bool
	records   []models.StagedRecord
}

func (s *MemoryStaging) Restart(_ context.Context, streamURL string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.streamURL = streamURL
	s.started = true
	s.records = nil
	return nil
}

func (s *MemoryStaging) StreamURL(context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return "", ErrNotStaged
	}
	return s.streamURL, nil
}

func (s *MemoryStaging) Append(_ context.Context, payloads []*payload.Payload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.started {
		return ErrNotStaged
	}
	for i, p := range payloads {
		body, err := p.ToJSON(true)
		if err != nil {
			return fmt.Errorf("payload %d: %w", i, err)
		}
		s.records = append(s.records, models.StagedRecord{
			Position:   len(s.records),
			Payload:    string(body),
			Validation: models.StatusUnvalidated,
			Status:     models.StatusUnsent,
		})
	}
	return nil
}

func (s *MemoryStaging) Records(context.Context) ([]models.StagedRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.StagedRecord, len(s.records))
	copy(out, s.records)
	return out, nil
}

func (s *MemoryStaging) SetValidation(_ context.Context, statuses []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < len(statuses) && i < len(s.records); i++ {
		s.records[i].Validation = statuses[i]
	}
	return nil
}

func (s *MemoryStaging) SetStatus(_ context.Context, statuses []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := 0; i < len(statuses) && i < len(s.records); i++ {
		s.records[i].Status = statuses[i]
	}
	return nil
}
