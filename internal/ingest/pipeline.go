package ingest

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hyperjump/lexicon/internal/fileid"
	"github.com/hyperjump/lexicon/internal/models"
	"github.com/hyperjump/lexicon/internal/parser"
	"github.com/hyperjump/lexicon/internal/storage"
	"github.com/hyperjump/lexicon/internal/tokenizer"
)

// Disposition is the outcome of AddOrReplace.
type Disposition string

const (
	DispositionUnchanged Disposition = "unchanged"
	DispositionSuccess   Disposition = "success"
)

// ErrInvalidEncoding is returned for content that is not valid UTF-8.
var ErrInvalidEncoding = errors.New("content is not valid UTF-8")

// Rebuilder is the debounced autocomplete rebuild. Trigger schedules it;
// Flush runs a scheduled rebuild right away.
type Rebuilder interface {
	Trigger()
	Flush() bool
}

// Pipeline owns the scheduler and the rebuild trigger and implements the
// sync, add-or-replace and delete entry points.
type Pipeline struct {
	store     storage.Storage
	detector  *ChangeDetector
	tokenizer *tokenizer.Tokenizer
	rebuild   Rebuilder
	scheduler *Scheduler
	logger    *zap.Logger
}

type pipelineConfig struct {
	concurrency int
	logger      *zap.Logger
}

// PipelineOption configures a Pipeline.
type PipelineOption func(*pipelineConfig)

// WithLogger sets the logger for the pipeline and its scheduler.
func WithLogger(l *zap.Logger) PipelineOption {
	return func(c *pipelineConfig) { c.logger = l }
}

// WithConcurrency sets how many documents are ingested at once (default 2).
func WithConcurrency(n int) PipelineOption {
	return func(c *pipelineConfig) { c.concurrency = n }
}

// NewPipeline creates a Pipeline. When a scheduled batch drains, a pending
// rebuild runs immediately instead of waiting for its quiet period.
func NewPipeline(store storage.Storage, tok *tokenizer.Tokenizer, rebuild Rebuilder, opts ...PipelineOption) *Pipeline {
	cfg := pipelineConfig{concurrency: 2, logger: zap.NewNop()}
	for _, opt := range opts {
		opt(&cfg)
	}
	p := &Pipeline{
		store:     store,
		detector:  NewChangeDetector(store),
		tokenizer: tok,
		rebuild:   rebuild,
		logger:    cfg.logger,
	}
	p.scheduler = NewScheduler(cfg.concurrency, func() { rebuild.Flush() }, WithSchedulerLogger(cfg.logger))
	return p
}

// Scheduler returns the pipeline's scheduler.
func (p *Pipeline) Scheduler() *Scheduler {
	return p.scheduler
}

// SyncAll queues one load task per content file in dir, and one delete task
// per stored topic whose file is gone. It returns the number of tasks queued.
func (p *Pipeline) SyncAll(ctx context.Context, dir string) (int, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return 0, fmt.Errorf("failed to stat content directory: %w", err)
	}
	if !info.IsDir() {
		return 0, fmt.Errorf("content path %s is not a directory", dir)
	}
	paths, err := filepath.Glob(filepath.Join(dir, "*"+fileid.Extension))
	if err != nil {
		return 0, fmt.Errorf("failed to list content files: %w", err)
	}
	stored, err := p.store.ListTopicFilenames(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to list topics: %w", err)
	}

	present := make(map[string]struct{}, len(paths))
	queued := 0
	for _, path := range paths {
		key, err := fileid.FromPath(path)
		if err != nil {
			p.logger.Warn("skipping content file", zap.String("path", path), zap.Error(err))
			continue
		}
		present[key.String()] = struct{}{}
		p.EnqueueLoad(path)
		queued++
	}
	for _, name := range stored {
		if _, ok := present[name]; ok {
			continue
		}
		key, err := fileid.Parse(name)
		if err != nil {
			p.logger.Warn("stored topic has an invalid key", zap.String("filename", name), zap.Error(err))
			continue
		}
		p.EnqueueDelete(key)
		queued++
	}
	p.logger.Info("sync queued", zap.String("dir", dir), zap.Int("files", len(present)), zap.Int("tasks", queued))
	return queued, nil
}

// EnqueueLoad queues LoadFile for path.
func (p *Pipeline) EnqueueLoad(path string) {
	p.scheduler.Push(Task{
		Name: "load " + filepath.Base(path),
		Run:  func(ctx context.Context) error { return p.LoadFile(ctx, path) },
	})
}

// EnqueueDelete queues DeleteByKey for key.
func (p *Pipeline) EnqueueDelete(key fileid.Key) {
	p.scheduler.Push(Task{
		Name: "delete " + key.String(),
		Run: func(ctx context.Context) error {
			_, err := p.DeleteByKey(ctx, key)
			return err
		},
	})
}

// LoadFile reads a content file and adds or replaces its topic.
func (p *Pipeline) LoadFile(ctx context.Context, path string) error {
	key, err := fileid.FromPath(path)
	if err != nil {
		return err
	}
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}
	disposition, err := p.AddOrReplace(ctx, key, content)
	if err != nil {
		return err
	}
	p.logger.Debug("content file loaded", zap.String("key", key.String()), zap.String("disposition", string(disposition)))
	return nil
}

// AddOrReplace stores the document unless its fingerprint is unchanged.
// Parse and tokenize errors leave any previously stored version in place.
func (p *Pipeline) AddOrReplace(ctx context.Context, key fileid.Key, content []byte) (Disposition, error) {
	if !utf8.Valid(content) {
		return "", fmt.Errorf("%s: %w", key, ErrInvalidEncoding)
	}
	fp, changed, err := p.detector.ShouldProcess(ctx, key, content)
	if err != nil {
		return "", err
	}
	if !changed {
		return DispositionUnchanged, nil
	}

	doc, err := parser.Parse(key, string(content))
	if err != nil {
		return "", fmt.Errorf("failed to parse %s: %w", key, err)
	}
	doc.Topic().Fingerprint = fp
	words, err := p.prepare(doc)
	if err != nil {
		return "", fmt.Errorf("failed to tokenize %s: %w", key, err)
	}

	if _, err := p.deleteTopic(ctx, key.String()); err != nil {
		return "", err
	}
	if err := p.persist(ctx, doc, words); err != nil {
		return "", err
	}
	p.rebuild.Trigger()
	p.logger.Info("topic stored",
		zap.String("key", key.String()),
		zap.String("kind", string(doc.Kind())),
		zap.Int("words", len(words)))
	return DispositionSuccess, nil
}

// prepare assigns lemma IDs and tokenizes the lemmas of doc.
func (p *Pipeline) prepare(doc parser.Document) ([]*models.WordEntry, error) {
	ld, ok := doc.(*parser.LemmaDocument)
	if !ok {
		return nil, nil
	}
	var words []*models.WordEntry
	for _, l := range ld.Lemmas {
		l.ID = uuid.NewString()
		w, err := p.tokenizer.LemmaWords(l)
		if err != nil {
			return nil, fmt.Errorf("lemma %d (%q): %w", l.Position, l.Native, err)
		}
		words = append(words, w...)
	}
	return words, nil
}

func (p *Pipeline) persist(ctx context.Context, doc parser.Document, words []*models.WordEntry) error {
	switch d := doc.(type) {
	case *parser.IndexDocument:
		return p.store.CreateTopic(ctx, d.Header)
	case *parser.TextDocument:
		return p.store.CreateTopic(ctx, d.Header)
	case *parser.LemmaDocument:
		if err := p.store.CreateTopic(ctx, d.Header); err != nil {
			return err
		}
		if err := p.store.BatchCreateLemmas(ctx, d.Lemmas); err != nil {
			return fmt.Errorf("failed to store lemmas of %s: %w", d.Header.Filename, err)
		}
		if err := p.store.BatchCreateWords(ctx, words); err != nil {
			return fmt.Errorf("failed to store words of %s: %w", d.Header.Filename, err)
		}
		return nil
	default:
		return fmt.Errorf("unsupported document type %T", doc)
	}
}

// DeleteByKey removes a topic with its lemmas and words. It reports false
// when no such topic exists.
func (p *Pipeline) DeleteByKey(ctx context.Context, key fileid.Key) (bool, error) {
	deleted, err := p.deleteTopic(ctx, key.String())
	if err != nil {
		return false, err
	}
	if deleted {
		p.rebuild.Trigger()
		p.logger.Info("topic deleted", zap.String("key", key.String()))
	}
	return deleted, nil
}

func (p *Pipeline) deleteTopic(ctx context.Context, filename string) (bool, error) {
	if err := p.store.DeleteWordsByTopic(ctx, filename); err != nil {
		return false, fmt.Errorf("failed to delete words of %s: %w", filename, err)
	}
	if err := p.store.DeleteLemmasByTopic(ctx, filename); err != nil {
		return false, fmt.Errorf("failed to delete lemmas of %s: %w", filename, err)
	}
	deleted, err := p.store.DeleteTopic(ctx, filename)
	if err != nil {
		return false, fmt.Errorf("failed to delete topic %s: %w", filename, err)
	}
	return deleted, nil
}
