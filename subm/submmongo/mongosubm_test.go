package submmongo

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/screensync/backend/subm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func TestDecodeSubm(t *testing.T) {
	id := primitive.NewObjectID()
	at := time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)
	raw, err := bson.Marshal(bson.M{
		"_id":            id,
		"contractorName": "Jane Doe",
		"companyName":    "Acme",
		"screenshotUrl":  "https://cdn.example.com/screenshots/1-a.png",
		"imageHint":      subm.ImageHint,
		"submittedAt":    primitive.NewDateTimeFromTime(at),
	})
	require.NoError(t, err)

	s := decodeSubm(raw)
	assert.Equal(t, id.Hex(), s.ID)
	assert.Equal(t, "Jane Doe", s.ContractorName)
	assert.Equal(t, "Acme", s.CompanyName)
	assert.Equal(t, subm.ImageHint, s.ImageHint)
	assert.True(t, at.Equal(s.SubmittedAt))
}

func TestDecodeSubmMalformedTimestamp(t *testing.T) {
	raw, err := bson.Marshal(bson.M{
		"_id":            "legacy-1",
		"contractorName": "John",
		"submittedAt":    "yesterday-ish",
	})
	require.NoError(t, err)

	s := decodeSubm(raw)
	assert.Equal(t, "legacy-1", s.ID)
	assert.True(t, s.SubmittedAt.IsZero())

	now := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, now, s.DisplayTime(now))
}

func TestDecodeSubmStringTimestamp(t *testing.T) {
	raw, err := bson.Marshal(bson.M{"submittedAt": "2024-06-10T09:30:00Z"})
	require.NoError(t, err)

	s := decodeSubm(raw)
	assert.Equal(t, time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC), s.SubmittedAt)
}

// Requires a running server, e.g. MONGO_TEST_URI=mongodb://localhost:27017
func TestMongoSubmRepoRoundTrip(t *testing.T) {
	uri := os.Getenv("MONGO_TEST_URI")
	if uri == "" {
		t.Skip("MONGO_TEST_URI not set")
	}
	ctx := context.Background()
	client, err := Connect(ctx, uri)
	require.NoError(t, err)
	defer client.Disconnect(ctx)

	db := client.Database("screensync_test")
	coll := "subms_" + primitive.NewObjectID().Hex()
	defer db.Collection(coll).Drop(ctx)

	repo := NewMongoSubmRepo(db, coll)
	require.NoError(t, repo.EnsureIndexes(ctx))

	first, err := repo.InsertSubm(ctx, subm.NewSubm{ContractorName: "A", CompanyName: "Acme", ImageHint: subm.ImageHint})
	require.NoError(t, err)
	time.Sleep(5 * time.Millisecond)
	second, err := repo.InsertSubm(ctx, subm.NewSubm{ContractorName: "B", CompanyName: "Acme", ImageHint: subm.ImageHint})
	require.NoError(t, err)
	assert.False(t, second.SubmittedAt.IsZero())

	subms, err := (&subm.Lister{Subms: repo}).List(ctx)
	require.NoError(t, err)
	require.Len(t, subms, 2)
	assert.Equal(t, second.ID, subms[0].ID)
	assert.Equal(t, first.ID, subms[1].ID)
}
