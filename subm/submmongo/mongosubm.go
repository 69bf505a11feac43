package submmongo

import (
	"context"
	"fmt"
	"iter"
	"time"

	"github.com/screensync/backend/subm"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const DefaultCollection = "submissions"

// Connect opens a client with retries switched off. A failed write
// surfaces to the submitter instead of being replayed.
func Connect(ctx context.Context, uri string) (*mongo.Client, error) {
	opts := options.Client().
		ApplyURI(uri).
		SetServerAPIOptions(options.ServerAPI(options.ServerAPIVersion1)).
		SetRetryWrites(false).
		SetRetryReads(false)
	client, err := mongo.Connect(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	return client, nil
}

// MongoSubmRepo keeps each submission as one document. The server
// assigns submittedAt on insert.
type MongoSubmRepo struct {
	coll *mongo.Collection
}

func NewMongoSubmRepo(db *mongo.Database, collection string) *MongoSubmRepo {
	if collection == "" {
		collection = DefaultCollection
	}
	return &MongoSubmRepo{coll: db.Collection(collection)}
}

// EnsureIndexes creates the descending submittedAt index used by listing.
func (r *MongoSubmRepo) EnsureIndexes(ctx context.Context) error {
	_, err := r.coll.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "submittedAt", Value: -1}},
		Options: options.Index().SetName("submittedAt_desc"),
	})
	if err != nil {
		return fmt.Errorf("failed to create submittedAt index: %w", err)
	}
	return nil
}

func (r *MongoSubmRepo) InsertSubm(ctx context.Context, s subm.NewSubm) (subm.Subm, error) {
	id := primitive.NewObjectID()
	update := bson.M{
		"$setOnInsert": bson.M{
			"contractorName": s.ContractorName,
			"companyName":    s.CompanyName,
			"screenshotUrl":  s.ScreenshotUrl,
			"imageHint":      s.ImageHint,
		},
		"$currentDate": bson.M{"submittedAt": true},
	}
	opts := options.FindOneAndUpdate().
		SetUpsert(true).
		SetReturnDocument(options.After)

	raw, err := r.coll.FindOneAndUpdate(ctx, bson.M{"_id": id}, update, opts).Raw()
	if err != nil {
		return subm.Subm{}, fmt.Errorf("failed to insert submission: %w", err)
	}
	return decodeSubm(raw), nil
}

func (r *MongoSubmRepo) QuerySubms(ctx context.Context) iter.Seq2[subm.Subm, error] {
	return func(yield func(subm.Subm, error) bool) {
		opts := options.Find().SetSort(bson.D{{Key: "submittedAt", Value: -1}})
		cursor, err := r.coll.Find(ctx, bson.M{}, opts)
		if err != nil {
			yield(subm.Subm{}, fmt.Errorf("failed to query submissions: %w", err))
			return
		}
		defer cursor.Close(ctx)

		for cursor.Next(ctx) {
			if !yield(decodeSubm(cursor.Current), nil) {
				return
			}
		}
		if err := cursor.Err(); err != nil {
			yield(subm.Subm{}, fmt.Errorf("failed to read submissions: %w", err))
		}
	}
}

// decodeSubm reads fields leniently. Documents written by other clients
// may carry a missing or non-date submittedAt, which decodes to the zero
// time.
func decodeSubm(raw bson.Raw) subm.Subm {
	s := subm.Subm{
		ContractorName: lookupString(raw, "contractorName"),
		CompanyName:    lookupString(raw, "companyName"),
		ScreenshotUrl:  lookupString(raw, "screenshotUrl"),
		ImageHint:      lookupString(raw, "imageHint"),
	}
	if oid, ok := raw.Lookup("_id").ObjectIDOK(); ok {
		s.ID = oid.Hex()
	} else {
		s.ID = lookupString(raw, "_id")
	}

	val := raw.Lookup("submittedAt")
	if t, ok := val.TimeOK(); ok {
		s.SubmittedAt = t.UTC()
	} else if str, ok := val.StringValueOK(); ok {
		if t, err := time.Parse(time.RFC3339Nano, str); err == nil {
			s.SubmittedAt = t.UTC()
		}
	}
	return s
}

func lookupString(raw bson.Raw, key string) string {
	str, _ := raw.Lookup(key).StringValueOK()
	return str
}
