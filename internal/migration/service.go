// Package migration moves inline content of legacy JSON index files into
// markdown files and records the move on each JSON record.
//
// A run backs up the index files, migrates each file's records in paced
// batches, rewrites every touched index file in one atomic write, and
// reports per-item results. Item failures never abort a run; only
// directory-level problems do.
package migration

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/rebuildup/my-web-2025-sub004/internal/apperr"
	"github.com/rebuildup/my-web-2025-sub004/internal/models"
	"github.com/rebuildup/my-web-2025-sub004/internal/pathgen"
	"github.com/rebuildup/my-web-2025-sub004/internal/storage"
)

// Defaults applied when Config fields are zero.
const (
	DefaultBatchSize  = 10
	DefaultBatchDelay = 100 * time.Millisecond
)

// Config holds the service settings.
type Config struct {
	DataDir     string
	BatchSize   int
	BatchDelay  time.Duration
	Concurrency int
	// LockFile defaults to {DataDir}/.migration.lock.
	LockFile string
}

// Options tune one MigrateAll or MigrateFile call.
type Options struct {
	DryRun            bool
	BackupOriginal    bool
	OverwriteExisting bool
	// BatchSize and Concurrency override Config when > 0.
	BatchSize   int
	Concurrency int
	// Progress is called once per item from the calling goroutine.
	Progress func(models.MigrationResult)
	// RunID names the run in logs and the summary; empty means a new UUID.
	RunID string
}

// Service runs migrations, status queries and rollbacks.
type Service struct {
	store  storage.Provider
	paths  *pathgen.Generator
	cfg    Config
	logger *slog.Logger
	now    func() time.Time

	mu      sync.Mutex
	state   models.MigrationState
	lastRun string
}

// New creates a Service.
func New(store storage.Provider, paths *pathgen.Generator, cfg Config, logger *slog.Logger) (*Service, error) {
	if cfg.DataDir == "" {
		return nil, fmt.Errorf("migration: data dir is required")
	}
	abs, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("migration: resolve data dir: %w", err)
	}
	cfg.DataDir = abs
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.BatchDelay < 0 {
		cfg.BatchDelay = 0
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = 1
	}
	if cfg.LockFile == "" {
		cfg.LockFile = filepath.Join(abs, DefaultLockFile)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:  store,
		paths:  paths,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		state:  models.StateNotStarted,
	}, nil
}

// DataDir returns the absolute legacy data directory.
func (s *Service) DataDir() string { return s.cfg.DataDir }

// State returns the current state of the most recent run.
func (s *Service) State() models.MigrationState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Service) setState(st models.MigrationState) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}

// MigrateAll migrates every legacy index file. The returned error is
// non-nil only when the run lock is held elsewhere or ctx is cancelled;
// every other failure is reported in the summary.
func (s *Service) MigrateAll(ctx context.Context, opts Options) (*models.MigrationSummary, error) {
	sum := s.begin("migrate", opts.RunID, opts.DryRun)
	if !opts.DryRun {
		lock, err := acquireLock(s.cfg.LockFile)
		if err != nil {
			return nil, err
		}
		defer lock.release()
	}

	files, err := listLegacyFiles(s.cfg.DataDir)
	if err != nil {
		return s.abort(sum, "list legacy files", err), nil
	}

	if opts.BackupOriginal && !opts.DryRun && len(files) > 0 {
		s.setState(models.StateBackingUp)
		dir, err := backupFiles(s.cfg.DataDir, files, s.now().UTC().Format(backupLayout))
		if err != nil {
			return s.abort(sum, "back up legacy files", err), nil
		}
		sum.BackupDir = dir
		s.logger.Info("legacy files backed up", slog.String("dir", dir), slog.Int("files", len(files)))
	}

	for _, name := range files {
		if err := s.migrateFile(ctx, name, opts, sum); err != nil {
			return s.finish(sum, err), err
		}
	}
	return s.finish(sum, nil), nil
}

// MigrateFile migrates the records of one legacy index file (by base name).
// It is the step-wise unit MigrateAll is built from.
func (s *Service) MigrateFile(ctx context.Context, name string, opts Options) (*models.MigrationSummary, error) {
	if !isLegacyFile(name) || filepath.Base(name) != name {
		return nil, apperr.Newf(apperr.KindValidation, name, "%q is not a legacy index file name", name)
	}
	sum := s.begin("migrate", opts.RunID, opts.DryRun)
	if !opts.DryRun {
		lock, err := acquireLock(s.cfg.LockFile)
		if err != nil {
			return nil, err
		}
		defer lock.release()
	}
	if opts.BackupOriginal && !opts.DryRun {
		s.setState(models.StateBackingUp)
		dir, err := backupFiles(s.cfg.DataDir, []string{name}, s.now().UTC().Format(backupLayout))
		if err != nil {
			return s.abort(sum, "back up legacy file", err), nil
		}
		sum.BackupDir = dir
	}
	if err := s.migrateFile(ctx, name, opts, sum); err != nil {
		return s.finish(sum, err), err
	}
	return s.finish(sum, nil), nil
}

func (s *Service) begin(op, runID string, dryRun bool) *models.MigrationSummary {
	if runID == "" {
		runID = uuid.NewString()
	}
	sum := &models.MigrationSummary{
		RunID:     runID,
		Operation: op,
		DryRun:    dryRun,
		StartedAt: s.now().UTC(),
		Results:   []models.MigrationResult{},
		Errors:    []string{},
	}
	s.mu.Lock()
	s.lastRun = sum.RunID
	s.mu.Unlock()
	s.logger.Info("migration run started",
		slog.String("run_id", sum.RunID),
		slog.String("operation", op),
		slog.Bool("dry_run", dryRun),
	)
	return sum
}

func (s *Service) abort(sum *models.MigrationSummary, what string, err error) *models.MigrationSummary {
	sum.Errors = append(sum.Errors, summaryError(what, err))
	sum.State = models.StateFailed
	sum.FinishedAt = s.now().UTC()
	s.setState(models.StateFailed)
	s.logger.Error("migration run aborted",
		slog.String("run_id", sum.RunID),
		slog.String("step", what),
		slog.String("error", err.Error()),
	)
	return sum
}

func (s *Service) finish(sum *models.MigrationSummary, err error) *models.MigrationSummary {
	if err != nil {
		return s.abort(sum, "run interrupted", err)
	}
	switch {
	case sum.SuccessCount == 0 && len(sum.Errors) > 0:
		sum.State = models.StateFailed
	case sum.Operation == "rollback":
		sum.State = models.StateRolledBack
	default:
		sum.State = models.StateDone
	}
	sum.FinishedAt = s.now().UTC()
	s.setState(sum.State)
	s.logger.Info("migration run finished",
		slog.String("run_id", sum.RunID),
		slog.Int("total", sum.TotalItems),
		slog.Int("succeeded", sum.SuccessCount),
		slog.Int("skipped", sum.SkippedCount),
		slog.Int("failed", sum.FailureCount),
	)
	return sum
}

// migrateFile processes one index file into sum. It returns an error only
// when ctx ends between batches.
func (s *Service) migrateFile(ctx context.Context, name string, opts Options, sum *models.MigrationSummary) error {
	s.setState(models.StateMigrating)
	path := filepath.Join(s.cfg.DataDir, name)
	log := s.logger.With(slog.String("run_id", sum.RunID), slog.String("file", name))

	recs, err := readRecords(path)
	if err != nil {
		log.Warn("legacy file unreadable", slog.String("error", err.Error()))
		sum.Add(failure(models.MigrationResult{File: name}, err))
		return nil
	}

	batch := opts.BatchSize
	if batch <= 0 {
		batch = s.cfg.BatchSize
	}
	workers := opts.Concurrency
	if workers <= 0 {
		workers = s.cfg.Concurrency
	}
	limit := rate.Inf
	if s.cfg.BatchDelay > 0 {
		limit = rate.Every(s.cfg.BatchDelay)
	}
	pacer := rate.NewLimiter(limit, 1)

	fileType, _ := s.paths.Table().TypeForDir(strings.TrimSuffix(name, ".json"))
	if ct, ok := models.ParseContentType(strings.TrimSuffix(name, ".json")); ok {
		fileType = ct
	}

	updated := make([]models.Record, len(recs))
	changed := 0
	for start := 0; start < len(recs); start += batch {
		if err := pacer.Wait(ctx); err != nil {
			return err
		}
		end := min(start+batch, len(recs))

		results := make([]models.MigrationResult, end-start)
		var g errgroup.Group
		g.SetLimit(workers)
		for i := start; i < end; i++ {
			g.Go(func() error {
				res, next := s.migrateItem(recs[i], name, fileType, opts)
				results[i-start] = res
				updated[i] = next
				return nil
			})
		}
		_ = g.Wait()

		for i, res := range results {
			if updated[start+i] != nil {
				changed++
			}
			sum.Add(res)
			if opts.Progress != nil {
				opts.Progress(res)
			}
		}
	}

	if opts.DryRun || changed == 0 {
		return nil
	}

	s.setState(models.StateRewritingIndex)
	out := make([]models.Record, len(recs))
	for i := range recs {
		out[i] = recs[i]
		if updated[i] != nil {
			out[i] = updated[i]
		}
	}
	if err := writeRecords(path, out); err != nil {
		// The markdown files exist but the index does not point at them.
		sum.Errors = append(sum.Errors, summaryError("rewrite "+name, err))
		demote(sum, name, err)
		log.Error("legacy index rewrite failed", slog.String("error", err.Error()))
		return nil
	}
	log.Info("legacy index rewritten", slog.Int("migrated", changed))
	s.setState(models.StateMigrating)
	return nil
}

// migrateItem returns the item's result and, when a markdown file was
// written, the migrated record that replaces rec.
func (s *Service) migrateItem(rec models.Record, file string, fileType models.ContentType, opts Options) (models.MigrationResult, models.Record) {
	res := models.MigrationResult{ItemID: rec.ID(), File: file, DryRun: opts.DryRun}

	if m, ok := rec.(*models.MigratedRecord); ok {
		res.Success, res.Skipped = true, true
		res.FilePath = m.MarkdownPath()
		res.Message = "already migrated"
		return res, nil
	}
	legacy, ok := rec.(*models.LegacyRecord)
	if !ok {
		return failure(res, apperr.New(apperr.KindMigration, file, "unrecognised record variant")), nil
	}

	content := legacy.Content()
	if strings.TrimSpace(content) == "" {
		res.Success, res.Skipped = true, true
		res.Message = "no inline content"
		return res, nil
	}

	if err := models.ValidateContentID(res.ItemID); err != nil {
		return failure(res, apperr.Newf(apperr.KindValidation, file, "invalid content id %q: %v", res.ItemID, err)), nil
	}

	ct := fileType
	if hint, ok := models.ParseContentType(legacy.TypeHint()); ok {
		ct = hint
	}
	if ct == "" {
		return failure(res, apperr.Newf(apperr.KindUnsupportedType, file,
			"cannot determine content type for %q (type %q)", res.ItemID, legacy.TypeHint())), nil
	}
	res.ContentType = ct

	path, err := s.paths.Generate(res.ItemID, ct, pathgen.Options{})
	if err != nil {
		return failure(res, err), nil
	}
	rel, err := s.paths.ToRelative(path)
	if err != nil {
		return failure(res, err), nil
	}
	res.FilePath = rel

	if err := s.store.CheckContent(content); err != nil {
		return failure(res, err), nil
	}
	if s.store.Exists(path) && !opts.OverwriteExisting {
		return failure(res, apperr.New(apperr.KindAlreadyExists, rel, "markdown file already exists")), nil
	}

	if opts.DryRun {
		res.Success = true
		res.Message = "would create " + rel
		return res, nil
	}

	var wopts []storage.WriteOption
	if opts.OverwriteExisting {
		wopts = append(wopts, storage.WithOverwrite())
	}
	if _, err := s.store.Create(res.ItemID, ct, content, wopts...); err != nil {
		return failure(res, err), nil
	}
	res.Success = true
	res.Message = "created " + rel
	return res, legacy.Migrate(rel)
}

func failure(res models.MigrationResult, err error) models.MigrationResult {
	res.Success = false
	res.Skipped = false
	e := classified(err)
	res.Error = e.Message
	res.ErrorType = string(e.Kind)
	res.Suggestion = e.Suggestion
	return res
}

// summaryError renders err for the summary handed to callers. Paths and
// the underlying OS text stay in the logs.
func summaryError(what string, err error) string {
	e := classified(err)
	return fmt.Sprintf("%s: %s: %s", what, e.Kind, e.Message)
}

func classified(err error) *apperr.Error {
	var e *apperr.Error
	if errors.As(err, &e) {
		return e
	}
	return apperr.Classify(err, "")
}

// demote turns the file's successful, non-skipped results into failures
// after the index rewrite failed.
func demote(sum *models.MigrationSummary, file string, err error) {
	for i := range sum.Results {
		r := &sum.Results[i]
		if r.File != file || !r.Success || r.Skipped {
			continue
		}
		*r = failure(*r, apperr.Wrap(apperr.KindMigration, file, "legacy index rewrite failed", err))
		sum.SuccessCount--
		sum.FailureCount++
	}
}
