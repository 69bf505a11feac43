package submddb

import (
	"context"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/google/uuid"
	"github.com/guregu/dynamo/v2"
	"github.com/screensync/backend/subm"
)

const (
	gsiName = "gsi1_submitted_at"
	gsi1Pk  = 1

	// fixed width so lexical order of the range key equals time order
	timeLayout = "2006-01-02T15:04:05.000000000Z"
)

// SubmRow is a submission as stored in DynamoDB.
type SubmRow struct {
	SubmUuid string `dynamo:"subm_uuid,hash"` // partition key

	ContractorName string `dynamo:"contractor_name"`
	CompanyName    string `dynamo:"company_name"`
	ScreenshotUrl  string `dynamo:"screenshot_url"`
	ImageHint      string `dynamo:"image_hint"`

	Gsi1Pk      int    `dynamo:"gsi1_pk" index:"gsi1_submitted_at,hash"`                     // gsi1pk = 1
	SubmittedAt string `dynamo:"submitted_at_rfc3339_utc" index:"gsi1_submitted_at,range"` // <submitted_at_rfc3339_utc>
}

func (row SubmRow) toSubm() subm.Subm {
	submittedAt, err := time.Parse(timeLayout, row.SubmittedAt)
	if err != nil {
		// rendered as "now" by the review page
		slog.Debug("malformed submission timestamp", "subm_uuid", row.SubmUuid, "value", row.SubmittedAt)
		submittedAt = time.Time{}
	}
	return subm.Subm{
		ID:             row.SubmUuid,
		ContractorName: row.ContractorName,
		CompanyName:    row.CompanyName,
		ScreenshotUrl:  row.ScreenshotUrl,
		ImageHint:      row.ImageHint,
		SubmittedAt:    submittedAt,
	}
}

// DynamoDbSubmTable stores submissions in a single table with a global
// secondary index ordering all rows by submission time.
type DynamoDbSubmTable struct {
	db        *dynamo.DB
	tableName string
	submTable dynamo.Table

	now func() time.Time
}

func NewDynamoDbSubmTable(ddbClient *dynamodb.Client, tableName string) *DynamoDbSubmTable {
	db := dynamo.NewFromIface(ddbClient)
	return &DynamoDbSubmTable{
		db:        db,
		tableName: tableName,
		submTable: db.Table(tableName),
		now:       time.Now,
	}
}

// CreateTable creates the table and its index with on-demand billing.
// Used against local DynamoDB; production tables are provisioned outside.
func (ddb *DynamoDbSubmTable) CreateTable(ctx context.Context) error {
	err := ddb.db.CreateTable(ddb.tableName, SubmRow{}).
		OnDemand(true).
		Run(ctx)
	if err != nil {
		return fmt.Errorf("failed to create table %s: %w", ddb.tableName, err)
	}
	return nil
}

func (ddb *DynamoDbSubmTable) InsertSubm(ctx context.Context, s subm.NewSubm) (subm.Subm, error) {
	row := SubmRow{
		SubmUuid:       uuid.NewString(),
		ContractorName: s.ContractorName,
		CompanyName:    s.CompanyName,
		ScreenshotUrl:  s.ScreenshotUrl,
		ImageHint:      s.ImageHint,
		Gsi1Pk:         gsi1Pk,
		SubmittedAt:    ddb.now().UTC().Format(timeLayout),
	}

	put := ddb.submTable.Put(row).If("attribute_not_exists(subm_uuid)")
	if err := put.Run(ctx); err != nil {
		return subm.Subm{}, fmt.Errorf("failed to put submission: %w", err)
	}
	return row.toSubm(), nil
}

// QuerySubms pages through the time index newest first. Pages are fetched
// as the sequence is consumed.
func (ddb *DynamoDbSubmTable) QuerySubms(ctx context.Context) iter.Seq2[subm.Subm, error] {
	return func(yield func(subm.Subm, error) bool) {
		it := ddb.submTable.
			Get("gsi1_pk", gsi1Pk).
			Index(gsiName).
			Order(dynamo.Descending).
			Iter()

		var row SubmRow
		for it.Next(ctx, &row) {
			if !yield(row.toSubm(), nil) {
				return
			}
			row = SubmRow{}
		}
		if err := it.Err(); err != nil {
			yield(subm.Subm{}, fmt.Errorf("failed to query submissions: %w", err))
		}
	}
}
