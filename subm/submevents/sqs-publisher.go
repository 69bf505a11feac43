package submevents

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/klauspost/compress/zstd"
	"github.com/screensync/backend/subm"
)

const MsgTypeSubmCreated = "subm_created"

// SubmCreated is the body of a "submission created" message before
// compression.
type SubmCreated struct {
	MsgType        string    `json:"msg_type"`
	SubmUuid       string    `json:"subm_uuid"`
	ContractorName string    `json:"contractor_name"`
	CompanyName    string    `json:"company_name"`
	ScreenshotUrl  string    `json:"screenshot_url"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

type sqsSender interface {
	SendMessage(ctx context.Context, params *sqs.SendMessageInput, optFns ...func(*sqs.Options)) (*sqs.SendMessageOutput, error)
}

// SqsPublisher broadcasts new submissions to an SQS queue. Bodies are
// zstd-compressed json, base64 encoded.
type SqsPublisher struct {
	client   sqsSender
	queueUrl string
	encoder  *zstd.Encoder
}

func NewSqsPublisher(client *sqs.Client, queueUrl string) (*SqsPublisher, error) {
	return newSqsPublisher(client, queueUrl)
}

func newSqsPublisher(client sqsSender, queueUrl string) (*SqsPublisher, error) {
	encoder, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create zstd encoder: %w", err)
	}
	return &SqsPublisher{client: client, queueUrl: queueUrl, encoder: encoder}, nil
}

// PublishSubmCreated matches subm.Processor.BcastSubmCreated.
func (p *SqsPublisher) PublishSubmCreated(ctx context.Context, s subm.Subm) error {
	body, err := p.encode(SubmCreated{
		MsgType:        MsgTypeSubmCreated,
		SubmUuid:       s.ID,
		ContractorName: s.ContractorName,
		CompanyName:    s.CompanyName,
		ScreenshotUrl:  s.ScreenshotUrl,
		SubmittedAt:    s.SubmittedAt,
	})
	if err != nil {
		return err
	}

	_, err = p.client.SendMessage(ctx, &sqs.SendMessageInput{
		QueueUrl:    aws.String(p.queueUrl),
		MessageBody: aws.String(body),
	})
	if err != nil {
		return fmt.Errorf("failed to send message to submission queue: %w", err)
	}
	return nil
}

func (p *SqsPublisher) encode(msg SubmCreated) (string, error) {
	jsonMsg, err := json.Marshal(msg)
	if err != nil {
		return "", fmt.Errorf("failed to marshal submission event: %w", err)
	}
	compressed := p.encoder.EncodeAll(jsonMsg, make([]byte, 0, len(jsonMsg)))
	return base64.StdEncoding.EncodeToString(compressed), nil
}

func (p *SqsPublisher) Close() error {
	return p.encoder.Close()
}
