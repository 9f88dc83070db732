package db

import (
	"context"
	"fmt"

	"github.com/grexie/smogn/pkg/dataset"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// LoadFrame reads every document of a collection as one row. The document _id is
// ignored.
func LoadFrame(ctx context.Context, db *mongo.Database, collection string, label string, classifier dataset.Classifier) (*dataset.Frame, error) {
	cur, err := db.Collection(collection).Find(ctx, bson.M{}, options.Find().SetProjection(bson.M{"_id": 0}))
	if err != nil {
		return nil, fmt.Errorf("failed to query %s: %w", collection, err)
	}
	defer cur.Close(ctx)

	records := []dataset.Record{}
	for cur.Next(ctx) {
		var d bson.M
		if err := cur.Decode(&d); err != nil {
			return nil, fmt.Errorf("unable to decode bson document: %w", err)
		}
		records = append(records, recordFromDocument(d))
	}
	if err := cur.Err(); err != nil {
		return nil, err
	}

	schema, err := dataset.Classify(classifier, records, nil, label)
	if err != nil {
		return nil, err
	}
	return dataset.FromRecords(records, schema)
}

// SaveFrame replaces the content of a collection with the rows of frame and returns the
// number of documents written.
func SaveFrame(ctx context.Context, db *mongo.Database, collection string, frame *dataset.Frame) (int, error) {
	c := db.Collection(collection)

	if err := EnsureIndex(db, ctx, collection, mongo.IndexModel{
		Keys:    bson.D{{Key: frame.Schema.Label, Value: 1}},
		Options: options.Index().SetName(frame.Schema.Label + "_1"),
	}); err != nil {
		return 0, fmt.Errorf("failed to index %s: %w", collection, err)
	}

	return WithTransaction(ctx, db, func(ctx context.Context) (int, error) {
		if _, err := c.DeleteMany(ctx, bson.M{}); err != nil {
			return 0, fmt.Errorf("failed to clear %s: %w", collection, err)
		}
		docs := documentsFromFrame(frame)
		if len(docs) == 0 {
			return 0, nil
		}
		result, err := c.InsertMany(ctx, docs)
		if err != nil {
			return 0, fmt.Errorf("failed to insert into %s: %w", collection, err)
		}
		return len(result.InsertedIDs), nil
	})
}

func recordFromDocument(d bson.M) dataset.Record {
	record := make(dataset.Record, len(d))
	for k, v := range d {
		if k == "_id" {
			continue
		}
		record[k] = v
	}
	return record
}

func documentsFromFrame(frame *dataset.Frame) []any {
	records := frame.Records()
	docs := make([]any, len(records))
	for i, record := range records {
		docs[i] = bson.M(record)
	}
	return docs
}
