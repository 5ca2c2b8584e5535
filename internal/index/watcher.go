package index

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/rebuildup/my-web-2025-sub004/internal/fileutil"
)

// EventCallback is called after a watcher-driven index change.
// kind is one of "created", "updated", "deleted"; path is storage-relative.
type EventCallback func(kind string, path string)

const reconcileDelay = 200 * time.Millisecond

// Watch keeps the index in step with changes made to the markdown tree
// outside this process until ctx is cancelled. It watches base and each
// directory directly below it; type directories created later are added as
// they appear.
func Watch(ctx context.Context, db FileIndex, src Source, base string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addTree(w, base); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", base))

	var (
		reconcileTimer *time.Timer
		reconcileCh    <-chan time.Time
	)
	scheduleReconcile := func() {
		if reconcileTimer == nil {
			reconcileTimer = time.NewTimer(reconcileDelay)
			reconcileCh = reconcileTimer.C
		} else {
			reconcileTimer.Reset(reconcileDelay)
		}
	}
	notify := func(kind, rel string) {
		if cb != nil {
			cb(kind, rel)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if reconcileTimer != nil {
				reconcileTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(db, src, logger, notify)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			abs := ev.Name

			if ev.Op&fsnotify.Create != 0 && filepath.Dir(abs) == base {
				if info, err := os.Stat(abs); err == nil && info.IsDir() {
					if err := w.Add(abs); err != nil {
						logger.Warn("watcher: add dir failed", slog.String("path", abs), slog.String("error", err.Error()))
					}
					scheduleReconcile()
					continue
				}
			}

			name := filepath.Base(abs)
			if !strings.HasSuffix(name, ".md") || fileutil.IsTemp(name) {
				continue
			}
			rel, err := src.ToRelative(abs)
			if err != nil {
				continue
			}

			switch {
			case ev.Op&(fsnotify.Create|fsnotify.Write) != 0:
				if err := indexPath(db, src, rel); err != nil {
					logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", err.Error()))
					continue
				}
				kind := "updated"
				if ev.Op&fsnotify.Create != 0 {
					kind = "created"
				}
				logger.Debug("watcher: indexed", slog.String("path", rel), slog.String("op", kind))
				notify(kind, rel)

			case ev.Op&fsnotify.Remove != 0:
				if err := db.Delete(rel); err != nil {
					logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", err.Error()))
					continue
				}
				notify("deleted", rel)

			case ev.Op&fsnotify.Rename != 0:
				// Rename fires on the old path; the new one arrives as Create
				// when it stays inside a watched directory.
				if err := db.Delete(rel); err == nil {
					notify("deleted", rel)
				}
				scheduleReconcile()
			}

		case werr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", werr.Error()))
		}
	}
}

func indexPath(db FileIndex, src Source, rel string) error {
	md, err := src.Metadata(rel)
	if err != nil {
		return err
	}
	if cs, _ := db.GetChecksum(rel); cs == md.Checksum {
		return nil
	}
	content, err := src.Read(rel)
	if err != nil {
		return err
	}
	return IndexFile(db, md, content)
}

// reconcile removes index rows without a file and indexes files without a
// current row.
func reconcile(db FileIndex, src Source, logger *slog.Logger, notify func(kind, rel string)) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: checksums failed", slog.String("error", err.Error()))
		return
	}
	metas, err := src.ListAll()
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.FilePath] = struct{}{}
		if checksums[m.FilePath] == m.Checksum {
			continue
		}
		content, err := src.Read(m.FilePath)
		if err != nil {
			continue
		}
		if err := IndexFile(db, m, content); err == nil {
			notify("created", m.FilePath)
		}
	}
	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if err := db.Delete(p); err == nil {
			notify("deleted", p)
		}
	}
}

// addTree watches root and the directories directly below it.
func addTree(w *fsnotify.Watcher, root string) error {
	if err := w.Add(root); err != nil {
		return err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.IsDir() && !strings.HasPrefix(e.Name(), ".") {
			if err := w.Add(filepath.Join(root, e.Name())); err != nil {
				return err
			}
		}
	}
	return nil
}
