package migration

import (
	"context"
	"log/slog"
	"path/filepath"

	"github.com/rebuildup/my-web-2025-sub004/internal/apperr"
	"github.com/rebuildup/my-web-2025-sub004/internal/models"
)

// Status re-reads every legacy index file and counts migrated records. It
// has no side effects.
func (s *Service) Status() (*models.MigrationStatus, error) {
	files, err := listLegacyFiles(s.cfg.DataDir)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	st := &models.MigrationStatus{State: s.state, LastRunID: s.lastRun, Files: []models.FileStatus{}}
	s.mu.Unlock()

	for _, name := range files {
		fs := models.FileStatus{File: name}
		recs, err := readRecords(filepath.Join(s.cfg.DataDir, name))
		if err != nil {
			fs.Error = classified(err).Message
			st.Files = append(st.Files, fs)
			continue
		}
		for _, r := range recs {
			fs.TotalItems++
			if r.Migrated() {
				fs.MigratedItems++
			}
		}
		fs.PendingItems = fs.TotalItems - fs.MigratedItems
		st.TotalItems += fs.TotalItems
		st.MigratedItems += fs.MigratedItems
		st.PendingItems += fs.PendingItems
		st.Files = append(st.Files, fs)
	}
	return st, nil
}

// Rollback deletes the markdown files of the given migrated items and
// strips their migration markers. Ids that are not migrated, or not found
// in any index file, are reported as failures.
func (s *Service) Rollback(ctx context.Context, ids []string) (*models.MigrationSummary, error) {
	sum := s.begin("rollback", "", false)
	lock, err := acquireLock(s.cfg.LockFile)
	if err != nil {
		return nil, err
	}
	defer lock.release()

	want := make(map[string]bool, len(ids))
	for _, id := range ids {
		want[id] = false
	}

	files, err := listLegacyFiles(s.cfg.DataDir)
	if err != nil {
		return s.abort(sum, "list legacy files", err), nil
	}

	unreadable := 0
	for _, name := range files {
		if err := ctx.Err(); err != nil {
			return s.finish(sum, err), err
		}
		if !s.rollbackFile(name, want, sum) {
			unreadable++
		}
	}

	for _, id := range ids {
		if found := want[id]; found {
			continue
		}
		want[id] = true // report duplicates once
		notFound := apperr.Newf(apperr.KindMigration, "", "no record with id %q", id)
		if unreadable > 0 {
			notFound = apperr.Newf(apperr.KindMigration, "",
				"id %q not found in readable index files (%d unreadable)", id, unreadable)
		}
		sum.Add(failure(models.MigrationResult{ItemID: id}, notFound))
	}
	return s.finish(sum, nil), nil
}

// rollbackFile reports false when the index file could not be read.
func (s *Service) rollbackFile(name string, want map[string]bool, sum *models.MigrationSummary) bool {
	path := filepath.Join(s.cfg.DataDir, name)
	log := s.logger.With(slog.String("run_id", sum.RunID), slog.String("file", name))

	recs, err := readRecords(path)
	if err != nil {
		log.Warn("legacy file unreadable", slog.String("error", err.Error()))
		sum.Errors = append(sum.Errors, summaryError(name, err))
		return false
	}

	changed := 0
	var pending []models.MigrationResult
	for i, rec := range recs {
		id := rec.ID()
		if _, ok := want[id]; !ok {
			continue
		}
		want[id] = true
		res := models.MigrationResult{ItemID: id, File: name}

		m, ok := rec.(*models.MigratedRecord)
		if !ok {
			pending = append(pending, failure(res, apperr.Newf(apperr.KindMigration, name, "item %q is not migrated", id)))
			continue
		}
		res.FilePath = m.MarkdownPath()

		err := s.store.Delete(m.MarkdownPath())
		switch {
		case err == nil:
			res.Message = "markdown file deleted"
		case apperr.Is(err, apperr.KindFileNotFound):
			res.Message = "markdown file was already missing; markers removed"
		default:
			pending = append(pending, failure(res, err))
			continue
		}
		res.Success = true
		recs[i] = m.Revert()
		changed++
		pending = append(pending, res)
	}

	if changed > 0 {
		s.setState(models.StateRewritingIndex)
		if err := writeRecords(path, recs); err != nil {
			sum.Errors = append(sum.Errors, summaryError("rewrite "+name, err))
			for i := range pending {
				if pending[i].Success {
					pending[i] = failure(pending[i], apperr.Wrap(apperr.KindMigration, name, "legacy index rewrite failed", err))
				}
			}
			log.Error("legacy index rewrite failed", slog.String("error", err.Error()))
		} else {
			log.Info("legacy index rewritten", slog.Int("rolled_back", changed))
		}
	}
	for _, r := range pending {
		sum.Add(r)
	}
	return true
}
