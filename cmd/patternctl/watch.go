package main

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/msomdec/strikkeguide/internal/service"
)

const defaultWatchGlob = "**/*.{pdf,png,jpg,jpeg}"

func newWatchCmd(a *app) *cobra.Command {
	var (
		glob     string
		out      string
		debounce time.Duration
		once     bool
	)
	cmd := &cobra.Command{
		Use:   "watch DIR",
		Short: "Extract every matching file in DIR and keep watching for new ones",
		Long: `watch extracts each file under DIR matching --glob and writes the
document as JSON next to it, or under --out with the same relative path.
Files whose JSON is newer than the source are skipped on the initial scan.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			extraction, err := a.cfg.NewExtractionService(a.logger)
			if err != nil {
				return err
			}
			w, err := newWatcher(extraction, args[0], glob, out, a.logger)
			if err != nil {
				return err
			}
			w.debounce = debounce
			ctx := cmd.Context()
			if err := w.scan(ctx); err != nil {
				return err
			}
			if once {
				return nil
			}
			return w.run(ctx)
		},
	}
	cmd.Flags().StringVar(&glob, "glob", defaultWatchGlob, "Pattern of files to extract, relative to DIR")
	cmd.Flags().StringVar(&out, "out", "", "Directory for JSON output (default: DIR)")
	cmd.Flags().DurationVar(&debounce, "debounce", 500*time.Millisecond, "Wait this long after the last write before extracting")
	cmd.Flags().BoolVar(&once, "once", false, "Exit after the initial scan")
	return cmd
}

type watcher struct {
	extraction *service.ExtractionService
	root       string
	glob       string
	out        string
	debounce   time.Duration
	logger     *slog.Logger
}

func newWatcher(extraction *service.ExtractionService, root, glob, out string, logger *slog.Logger) (*watcher, error) {
	if !doublestar.ValidatePattern(glob) {
		return nil, fmt.Errorf("invalid glob %q", glob)
	}
	info, err := os.Stat(root)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s is not a directory", root)
	}
	if out == "" {
		out = root
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &watcher{extraction: extraction, root: root, glob: glob, out: out, logger: logger}, nil
}

// rel returns path relative to the watched root in slash form, or "" when
// path lies outside it.
func (w *watcher) rel(path string) string {
	r, err := filepath.Rel(w.root, path)
	if err != nil || strings.HasPrefix(r, "..") {
		return ""
	}
	return filepath.ToSlash(r)
}

func (w *watcher) matches(path string) bool {
	r := w.rel(path)
	if r == "" {
		return false
	}
	ok, err := doublestar.Match(w.glob, r)
	return err == nil && ok
}

func (w *watcher) outputPath(path string) string {
	r := filepath.FromSlash(w.rel(path))
	return filepath.Join(w.out, strings.TrimSuffix(r, filepath.Ext(r))+".json")
}

// upToDate reports whether the JSON output is newer than the source.
func (w *watcher) upToDate(path string) bool {
	src, err := os.Stat(path)
	if err != nil {
		return false
	}
	dst, err := os.Stat(w.outputPath(path))
	return err == nil && !dst.ModTime().Before(src.ModTime())
}

// scan extracts every matching file that has no current output.
func (w *watcher) scan(ctx context.Context) error {
	matches, err := doublestar.Glob(os.DirFS(w.root), w.glob, doublestar.WithFilesOnly())
	if err != nil {
		return fmt.Errorf("scan %s: %w", w.root, err)
	}
	for _, m := range matches {
		if err := ctx.Err(); err != nil {
			return err
		}
		path := filepath.Join(w.root, filepath.FromSlash(m))
		if w.upToDate(path) {
			w.logger.Debug("watch.skip", "file", path)
			continue
		}
		w.process(ctx, path)
	}
	return nil
}

// process extracts one file and writes its document. Failures are logged so
// one bad file does not stop the watcher.
func (w *watcher) process(ctx context.Context, path string) bool {
	src, err := readSource(path)
	if errors.Is(err, fs.ErrNotExist) {
		w.logger.Debug("watch.gone", "file", path)
		return false
	}
	if err != nil {
		w.logger.Error("watch.read_failed", "file", path, "error", err)
		return false
	}
	doc, res, err := w.extraction.ExtractFile(ctx, src)
	if err != nil {
		w.logger.Error("watch.extract_failed", "file", path, "error", err)
		return false
	}

	dst := w.outputPath(path)
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		w.logger.Error("watch.write_failed", "file", dst, "error", err)
		return false
	}
	f, err := os.Create(dst)
	if err != nil {
		w.logger.Error("watch.write_failed", "file", dst, "error", err)
		return false
	}
	err = writeDocument(f, doc, true)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		w.logger.Error("watch.write_failed", "file", dst, "error", err)
		return false
	}
	w.logger.Info("watch.extracted", "file", path, "out", dst, "method", res.Method, "steps", len(doc.Steps), "sizes", len(doc.Sizes))
	return true
}

// run watches the root recursively until ctx is done. Events for one file
// are coalesced until it has been quiet for the debounce interval.
func (w *watcher) run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer fw.Close()

	if err := w.addTree(fw, w.root); err != nil {
		return err
	}
	w.logger.Info("watch.started", "dir", w.root, "glob", w.glob, "out", w.out)

	ready := make(chan string)
	timers := map[string]*time.Timer{}
	defer func() {
		for _, t := range timers {
			t.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("watch.stopped")
			return nil
		case path := <-ready:
			delete(timers, path)
			w.process(ctx, path)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Error("watch.error", "error", err)
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if ev.Has(fsnotify.Create) {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := w.addTree(fw, ev.Name); err != nil {
						w.logger.Warn("watch.add_failed", "dir", ev.Name, "error", err)
					}
					continue
				}
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if !w.matches(ev.Name) {
				continue
			}
			if t, ok := timers[ev.Name]; ok {
				t.Reset(w.debounce)
				continue
			}
			path := ev.Name
			timers[path] = time.AfterFunc(w.debounce, func() {
				select {
				case ready <- path:
				case <-ctx.Done():
				}
			})
		}
	}
}

func (w *watcher) addTree(fw *fsnotify.Watcher, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil
			}
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if err := fw.Add(path); err != nil {
			return fmt.Errorf("watch %s: %w", path, err)
		}
		return nil
	})
}
