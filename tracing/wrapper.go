package tracing

import (
	"context"

	"github.com/screensync/backend/subm"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "subm"

type batchProcessor interface {
	Process(ctx context.Context, form subm.Form) subm.Result
}

type submLister interface {
	List(ctx context.Context) ([]subm.Subm, error)
}

// TracedProcessor wraps a batch processor with a span per batch.
type TracedProcessor struct {
	next   batchProcessor
	tracer trace.Tracer
}

func NewTracedProcessor(next batchProcessor) *TracedProcessor {
	return &TracedProcessor{next: next, tracer: otel.Tracer(tracerName)}
}

func (t *TracedProcessor) Process(ctx context.Context, form subm.Form) subm.Result {
	ctx, span := t.tracer.Start(ctx, "ProcessBatch")
	defer span.End()

	span.SetAttributes(
		attribute.String("company_name", form.CompanyName()),
		attribute.Int("num_entries", len(form.EntryIndices())),
	)

	res := t.next.Process(ctx, form)

	span.SetAttributes(
		attribute.Bool("success", res.Success),
		attribute.Int("created", res.Created()),
		attribute.Int("skipped", res.Skipped()),
	)
	if res.Err != nil {
		span.RecordError(res.Err)
		span.SetStatus(codes.Error, res.Message)
	}
	return res
}

// TracedLister wraps a lister with a span per listing read.
type TracedLister struct {
	next   submLister
	tracer trace.Tracer
}

func NewTracedLister(next submLister) *TracedLister {
	return &TracedLister{next: next, tracer: otel.Tracer(tracerName)}
}

func (t *TracedLister) List(ctx context.Context) ([]subm.Subm, error) {
	ctx, span := t.tracer.Start(ctx, "ListSubms")
	defer span.End()

	subms, err := t.next.List(ctx)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}

	span.SetAttributes(attribute.Int("num_subms", len(subms)))
	return subms, nil
}
