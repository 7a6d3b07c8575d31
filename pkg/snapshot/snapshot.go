package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/vango-dev/reactive/pkg/materialize"
)

// ErrTooLarge is returned when an encoded snapshot exceeds a sink's limit.
var ErrTooLarge = errors.New("snapshot: payload too large")

// ErrNotFound is returned when a stored snapshot does not exist.
var ErrNotFound = errors.New("snapshot: not found")

// Meta describes a stored snapshot.
type Meta struct {
	Key         string    `json:"key"`
	ContentType string    `json:"content_type"`
	Size        int64     `json:"size"`
	CreatedAt   time.Time `json:"created_at"`
}

// Sink stores encoded snapshots.
type Sink interface {
	Put(ctx context.Context, meta Meta, data []byte) error
}

// Exporter materializes trees and writes them to a Sink.
type Exporter struct {
	Sink Sink

	// MaxDepth is passed to materialize.MapSignals. Zero means the default.
	MaxDepth int

	// Indent pretty-prints the JSON output.
	Indent bool

	// Options are extra materialize options applied after MaxDepth.
	Options []materialize.Option

	now func() time.Time
}

// NewExporter creates an Exporter writing to sink.
func NewExporter(sink Sink) *Exporter {
	return &Exporter{Sink: sink}
}

// Encode materializes tree and returns its JSON encoding.
// It must be called on the goroutine that owns the reactive graph.
func (e *Exporter) Encode(tree any) ([]byte, error) {
	depth := e.MaxDepth
	if depth <= 0 {
		depth = materialize.DefaultMaxDepth
	}
	opts := append([]materialize.Option{materialize.MaxDepth(depth), materialize.SkipTransient()}, e.Options...)
	plain := materialize.MapSignals(tree, opts...)

	var (
		data []byte
		err  error
	)
	if e.Indent {
		data, err = json.MarshalIndent(plain, "", "  ")
	} else {
		data, err = json.Marshal(plain)
	}
	if err != nil {
		return nil, fmt.Errorf("snapshot: encode: %w", err)
	}
	return data, nil
}

// Export encodes tree and stores it under key.
func (e *Exporter) Export(ctx context.Context, key string, tree any) error {
	if e.Sink == nil {
		return errors.New("snapshot: exporter has no sink")
	}
	data, err := e.Encode(tree)
	if err != nil {
		return err
	}
	now := time.Now
	if e.now != nil {
		now = e.now
	}
	meta := Meta{
		Key:         key,
		ContentType: "application/json",
		Size:        int64(len(data)),
		CreatedAt:   now().UTC(),
	}
	if err := e.Sink.Put(ctx, meta, data); err != nil {
		return fmt.Errorf("snapshot: store %q: %w", key, err)
	}
	return nil
}

// WriterSink writes each snapshot to an io.Writer followed by a newline.
type WriterSink struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriterSink creates a sink writing to w.
func NewWriterSink(w io.Writer) *WriterSink {
	return &WriterSink{w: w}
}

// Put writes data to the underlying writer.
func (s *WriterSink) Put(ctx context.Context, _ Meta, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, err := s.w.Write(data); err != nil {
		return err
	}
	_, err := io.WriteString(s.w, "\n")
	return err
}
