// Package telemetry posts usage events from the project system.
//
// Event transport is outside the project system; components depend only on
// Service. OTelService records events as spans through OpenTelemetry,
// LogService writes them to the structured log, and Recorder keeps them in
// memory.
package telemetry

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"maps"
	"sync"

	"github.com/hashicorp/go-hclog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// InstrumentationName is the OpenTelemetry tracer name.
const InstrumentationName = "github.com/dshills/projsys"

// Service posts telemetry events.
type Service interface {
	// HashValue returns a stable, non-reversible form of a value that may
	// contain user data.
	HashValue(value string) string

	// PostEvent records an event with string properties.
	PostEvent(ctx context.Context, name string, properties map[string]string)
}

// Hasher produces salted SHA-256 digests.
type Hasher struct {
	Salt string
}

// HashValue implements Service.HashValue.
func (h Hasher) HashValue(value string) string {
	sum := sha256.Sum256([]byte(h.Salt + value))
	return hex.EncodeToString(sum[:])
}

// Nop discards events.
type Nop struct {
	Hasher
}

// PostEvent implements Service.
func (Nop) PostEvent(context.Context, string, map[string]string) {}

// OTelService records each event as a zero-length span carrying the
// properties as attributes.
type OTelService struct {
	Hasher
	tracer trace.Tracer
}

// NewOTelService creates a service using tp, or the global tracer provider
// when tp is nil.
func NewOTelService(tp trace.TracerProvider, salt string) *OTelService {
	if tp == nil {
		tp = otel.GetTracerProvider()
	}
	return &OTelService{
		Hasher: Hasher{Salt: salt},
		tracer: tp.Tracer(InstrumentationName),
	}
}

// PostEvent implements Service.
func (s *OTelService) PostEvent(ctx context.Context, name string, properties map[string]string) {
	attrs := make([]attribute.KeyValue, 0, len(properties))
	for _, k := range sortedKeys(properties) {
		attrs = append(attrs, attribute.String(PropertyPrefix+k, properties[k]))
	}
	_, span := s.tracer.Start(ctx, name, trace.WithAttributes(attrs...))
	span.End()
}

// PropertyPrefix namespaces event properties in span attributes.
const PropertyPrefix = "projsys."

// LogService writes events to a logger.
type LogService struct {
	Hasher
	logger hclog.Logger
}

// NewLogService creates a service writing to logger at debug level.
func NewLogService(logger hclog.Logger, salt string) *LogService {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &LogService{Hasher: Hasher{Salt: salt}, logger: logger}
}

// PostEvent implements Service.
func (s *LogService) PostEvent(_ context.Context, name string, properties map[string]string) {
	args := make([]any, 0, 2*len(properties))
	for _, k := range sortedKeys(properties) {
		args = append(args, k, properties[k])
	}
	s.logger.Debug("telemetry event "+name, args...)
}

// Event is a recorded telemetry event.
type Event struct {
	Name       string
	Properties map[string]string
}

// Recorder keeps posted events in memory.
type Recorder struct {
	Hasher

	mu     sync.Mutex
	events []Event
}

// PostEvent implements Service.
func (r *Recorder) PostEvent(_ context.Context, name string, properties map[string]string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Event{Name: name, Properties: maps.Clone(properties)})
}

// Events returns a copy of the recorded events.
func (r *Recorder) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Event, len(r.events))
	copy(out, r.events)
	return out
}

// Reset discards recorded events.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
}
