package checkoutlog

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/trace"
)

// TraceInfo holds the OTel identifiers extracted from a context.
type TraceInfo struct {
	TraceID string
	SpanID  string
}

// ExtractTraceInfo returns the trace and span ids of the span active on ctx
// as hex strings, or empty strings when there is none.
func ExtractTraceInfo(ctx context.Context) TraceInfo {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.IsValid() {
		return TraceInfo{}
	}
	return TraceInfo{
		TraceID: sc.TraceID().String(),
		SpanID:  sc.SpanID().String(),
	}
}

// NewEntry builds an Entry stamped with the trace info from ctx.
//
//	entry := checkoutlog.NewEntry(ctx, id, checkoutlog.StatusStepAdvanced, "ShippingInfo", "", "")
//	_ = repo.Save(ctx, entry)
func NewEntry(ctx context.Context, checkoutID string, status Status, step, payload, errMsg string) *Entry {
	ti := ExtractTraceInfo(ctx)
	return &Entry{
		CheckoutID:   checkoutID,
		Status:       status,
		Step:         step,
		Payload:      payload,
		ErrorMessage: errMsg,
		TraceID:      ti.TraceID,
		SpanID:       ti.SpanID,
		CreatedAt:    time.Now().UTC(),
	}
}
