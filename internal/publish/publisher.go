// Package publish is the single entry point for publishing a document: it
// validates it, archives it in blob storage and records it in the ledger.
package publish

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"structkit/internal/archive"
	"structkit/internal/ledger"
	"structkit/pkg/facade"
)

// DefaultMaxSize bounds document bodies unless overridden.
const DefaultMaxSize = 10 << 20

// ErrTooLarge is returned for bodies above the configured maximum.
var ErrTooLarge = errors.New("publish: document too large")

// Recorder receives one observation per Publish call.
type Recorder interface {
	Observe(ctx context.Context, operation string, success bool, duration time.Duration)
}

// Result describes a successful publication.
type Result struct {
	Receipt     archive.Receipt
	EntryID     int64
	Format      *Format
	Description string
}

// request carries one document through the stages.
type request struct {
	doc    archive.Document
	result Result
}

// Option configures a Publisher.
type Option func(*Publisher)

// WithLogger sets the logger used by the publisher and its stages.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Publisher) { p.logger = logger }
}

// WithRecorder reports each Publish outcome.
func WithRecorder(r Recorder) Option {
	return func(p *Publisher) { p.recorder = r }
}

// WithMaxSize overrides DefaultMaxSize.
func WithMaxSize(n int) Option {
	return func(p *Publisher) { p.maxSize = n }
}

// Publisher owns its archive, ledger and format registry.
type Publisher struct {
	archive  *archive.Archive
	ledger   ledger.Ledger
	formats  *Formats
	logger   *slog.Logger
	recorder Recorder
	maxSize  int
	now      func() time.Time

	stages *facade.Facade[*request]
}

// New assembles a publisher.
func New(arch *archive.Archive, led ledger.Ledger, formats *Formats, opts ...Option) (*Publisher, error) {
	if arch == nil || led == nil || formats == nil {
		return nil, errors.New("publish: archive, ledger and formats are required")
	}
	p := &Publisher{
		archive: arch,
		ledger:  led,
		formats: formats,
		logger:  slog.New(slog.DiscardHandler),
		maxSize: DefaultMaxSize,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = p.logger.With("component", "publish")
	stages, err := facade.New([]facade.Subsystem[*request]{
		facade.Step("validate", p.validate),
		facade.Step("archive", p.store),
		facade.Step("record", p.record),
	}, facade.WithLogger(p.logger))
	if err != nil {
		return nil, err
	}
	p.stages = stages
	return p, nil
}

// Stages returns the stage names Publish runs.
func (p *Publisher) Stages() []string { return p.stages.Stages() }

// Publish runs validate, archive and record in order. A failure is returned
// as a *facade.StageError naming the stage; earlier stages are not undone.
func (p *Publisher) Publish(ctx context.Context, doc archive.Document) (Result, error) {
	start := p.now()
	req := &request{doc: doc}
	err := p.stages.Execute(ctx, req)
	if p.recorder != nil {
		p.recorder.Observe(ctx, "publish", err == nil, p.now().Sub(start))
	}
	if err != nil {
		return Result{}, err
	}
	p.logger.InfoContext(ctx, "published", "key", req.result.Receipt.Key, "entry", req.result.EntryID)
	return req.result, nil
}

// History returns the latest ledger entries, newest first.
func (p *Publisher) History(ctx context.Context, limit int) ([]ledger.Entry, error) {
	return p.ledger.List(ctx, limit)
}

func (p *Publisher) validate(_ context.Context, req *request) error {
	if strings.TrimSpace(req.doc.Name) == "" {
		return archive.ErrEmptyName
	}
	if p.maxSize > 0 && len(req.doc.Body) > p.maxSize {
		return fmt.Errorf("%w: %d bytes exceeds %d", ErrTooLarge, len(req.doc.Body), p.maxSize)
	}
	if req.doc.ContentType == "" {
		req.doc.ContentType = http.DetectContentType(req.doc.Body)
	}
	format, err := p.formats.Lookup(req.doc.ContentType)
	if err != nil {
		return err
	}
	req.doc.ContentType = format.ContentType()
	req.result.Format = format
	return nil
}

func (p *Publisher) store(ctx context.Context, req *request) error {
	receipt, err := p.archive.Put(ctx, req.doc)
	if err != nil {
		return err
	}
	req.result.Receipt = receipt
	return nil
}

func (p *Publisher) record(ctx context.Context, req *request) error {
	summary, err := Summary(req.doc.Name, req.result.Format.ContentType(), req.result.Receipt.Layout)
	if err != nil {
		return err
	}
	desc, err := summary.Operation(ctx)
	if err != nil {
		return err
	}
	id, err := p.ledger.Record(ctx, ledger.Entry{
		Key:         req.result.Receipt.Key,
		Name:        req.doc.Name,
		Layout:      req.result.Receipt.Layout,
		Size:        req.result.Receipt.Info.Size,
		ContentType: req.doc.ContentType,
		Description: desc,
	})
	if err != nil {
		return err
	}
	req.result.EntryID = id
	req.result.Description = desc
	return nil
}
