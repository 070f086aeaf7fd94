// Package ingest runs uploads through the import pipeline and keeps their
// results for a while.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/patrickmn/go-cache"

	"github.com/split-proj/atmsplit/internal/format"
	"github.com/split-proj/atmsplit/internal/importer"
	"github.com/split-proj/atmsplit/internal/logger"
)

// ErrNotFound is returned for unknown or expired processing ids.
var ErrNotFound = errors.New("processing id not found")

// Service processes uploads in the background.
type Service struct {
	store     *cache.Cache
	opts      importer.Options
	formatter *format.Formatter
	wg        sync.WaitGroup
}

// NewService returns a Service keeping results for ttl. Display amounts are
// rendered with f, or format.Default when f is nil.
func NewService(ttl, cleanup time.Duration, opts importer.Options, f *format.Formatter) *Service {
	if opts.Registry == nil {
		opts.Registry = importer.DefaultRegistry()
	}
	if f == nil {
		f = format.Default
	}
	return &Service{
		store:     cache.New(ttl, cleanup),
		opts:      opts,
		formatter: f,
	}
}

// Process imports content synchronously, rendering with format.Default.
func Process(filename string, content []byte, opts importer.Options) (*Result, error) {
	b, err := importer.ImportBytes(content, filename, opts)
	if err != nil {
		return nil, err
	}
	res := completed(Result{ID: uuid.NewString(), Filename: filename}, b, format.Default)
	return &res, nil
}

// Submit stores a new upload and processes it on its own goroutine.
// It returns the processing id to poll with Status.
func (s *Service) Submit(ctx context.Context, filename string, content []byte) string {
	id := uuid.NewString()
	log := logger.FromContext(ctx).With("processingID", id, "filename", filename)

	res := Result{ID: id, Filename: filename, Status: StatusInitialized}
	s.store.SetDefault(id, res)

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer func() {
			if r := recover(); r != nil {
				log.Error("processing panicked", "panic", r)
				s.fail(res, fmt.Errorf("internal error: %v", r))
			}
		}()

		res.Status = StatusProcessing
		res.Progress = 10
		s.store.SetDefault(id, res)

		b, err := importer.ImportBytes(content, filename, s.opts)
		if err != nil {
			log.Warn("processing failed", "error", err)
			s.fail(res, err)
			return
		}
		done := completed(res, b, s.formatter)
		s.store.SetDefault(id, done)
		log.Info("processing completed",
			"format", done.Format,
			"records", done.Summary.TotalTransactions,
			"groups", len(done.ProcessedData))
	}()

	log.Info("upload accepted", "bytes", len(content))
	return id
}

func (s *Service) fail(res Result, err error) {
	res.Status = StatusError
	res.Error = err.Error()
	s.store.SetDefault(res.ID, res)
}

// Status returns the current result for id.
func (s *Service) Status(id string) (*Result, error) {
	v, ok := s.store.Get(id)
	if !ok {
		return nil, ErrNotFound
	}
	res := v.(Result)
	return &res, nil
}

// Wait blocks until every submitted upload has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}
