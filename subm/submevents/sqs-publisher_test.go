package submevents

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/klauspost/compress/zstd"
	"github.com/screensync/backend/subm"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSqs struct {
	inputs []*sqs.SendMessageInput
	err    error
}

func (f *fakeSqs) SendMessage(_ context.Context, in *sqs.SendMessageInput, _ ...func(*sqs.Options)) (*sqs.SendMessageOutput, error) {
	f.inputs = append(f.inputs, in)
	if f.err != nil {
		return nil, f.err
	}
	return &sqs.SendMessageOutput{}, nil
}

func TestPublishSubmCreated(t *testing.T) {
	client := &fakeSqs{}
	pub, err := newSqsPublisher(client, "https://sqs.eu-central-1.amazonaws.com/1/subms")
	require.NoError(t, err)
	defer pub.Close()

	at := time.Date(2024, 6, 10, 9, 30, 0, 0, time.UTC)
	err = pub.PublishSubmCreated(context.Background(), subm.Subm{
		ID:             "abc",
		ContractorName: "Jane Doe",
		CompanyName:    "Acme",
		ScreenshotUrl:  "https://cdn.example.com/a.png",
		SubmittedAt:    at,
	})
	require.NoError(t, err)
	require.Len(t, client.inputs, 1)
	assert.Equal(t, "https://sqs.eu-central-1.amazonaws.com/1/subms", *client.inputs[0].QueueUrl)

	msg := decodeBody(t, *client.inputs[0].MessageBody)
	assert.Equal(t, MsgTypeSubmCreated, msg.MsgType)
	assert.Equal(t, "abc", msg.SubmUuid)
	assert.Equal(t, "Jane Doe", msg.ContractorName)
	assert.True(t, at.Equal(msg.SubmittedAt))
}

func TestPublishSubmCreatedSendFails(t *testing.T) {
	client := &fakeSqs{err: errors.New("queue does not exist")}
	pub, err := newSqsPublisher(client, "q")
	require.NoError(t, err)

	err = pub.PublishSubmCreated(context.Background(), subm.Subm{ID: "abc"})
	require.Error(t, err)
	assert.ErrorContains(t, err, "queue does not exist")
}

// decodeBody reads a message body the way a queue consumer would.
func decodeBody(t *testing.T, body string) SubmCreated {
	t.Helper()
	compressed, err := base64.StdEncoding.DecodeString(body)
	require.NoError(t, err)
	decoder, err := zstd.NewReader(nil)
	require.NoError(t, err)
	defer decoder.Close()

	jsonMsg, err := decoder.DecodeAll(compressed, nil)
	require.NoError(t, err)
	var msg SubmCreated
	require.NoError(t, json.Unmarshal(jsonMsg, &msg))
	return msg
}
