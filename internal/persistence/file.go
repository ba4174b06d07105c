package persistence

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"

	"github.com/Shivanand-hulikatti/convene/internal/model"
)

// Snapshotter supplies the events to save.
type Snapshotter interface {
	Snapshot() []model.Event
}

// Restorer accepts events rebuilt from disk.
type Restorer interface {
	Restore(ev model.Event) error
}

// LoadReport summarises a Load.
type LoadReport struct {
	Events        int          `json:"events"`
	Registrations int          `json:"registrations"`
	Waitlisted    int          `json:"waitlisted"`
	Diagnostics   []Diagnostic `json:"diagnostics,omitempty"`
}

// FileStore saves and loads the registry to a single text file.
type FileStore struct {
	path   string
	logger *slog.Logger

	// mu serialises saves so two writers never race on the rename.
	mu sync.Mutex
}

// NewFileStore returns a FileStore for path. A nil logger discards output.
func NewFileStore(path string, logger *slog.Logger) *FileStore {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &FileStore{path: path, logger: logger}
}

// Path returns the data file location.
func (f *FileStore) Path() string {
	return f.path
}

// Save writes every event from src to a temporary file next to the target
// and renames it into place. If ctx is cancelled part way through, or any
// write fails, the temporary file is removed and the previous contents of
// the target are left as they were.
func (f *FileStore) Save(ctx context.Context, src Snapshotter) (err error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	events := src.Snapshot()

	dir := filepath.Dir(f.path)
	//nolint:gosec // G301: data directory is shared with operators
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}

	tmpPath := filepath.Join(dir, "."+filepath.Base(f.path)+"."+uuid.NewString()+".tmp")
	//nolint:gosec // G302: data file is meant to be readable
	tmp, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tmp.Close()
			_ = os.Remove(tmpPath)
		}
	}()

	bw := bufio.NewWriter(tmp)
	for _, ev := range events {
		if err = ctx.Err(); err != nil {
			return fmt.Errorf("save aborted: %w", err)
		}
		if err = EncodeEvent(bw, ev); err != nil {
			return fmt.Errorf("write event %d: %w", ev.ID, err)
		}
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("flush data file: %w", err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("sync data file: %w", err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("close data file: %w", err)
	}
	if err = ctx.Err(); err != nil {
		return fmt.Errorf("save aborted: %w", err)
	}
	if err = os.Rename(tmpPath, f.path); err != nil {
		return fmt.Errorf("commit data file: %w", err)
	}

	f.logger.Debug("data saved", "path", f.path, "events", len(events))
	return nil
}

// Load reads the data file into dst. A missing file is a fresh start and
// returns an empty report. Bad lines are skipped, logged and listed in the
// report. If reading fails part way, the events decoded so far are still
// restored and the error is returned.
func (f *FileStore) Load(ctx context.Context, dst Restorer) (*LoadReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	file, err := os.Open(f.path)
	if errors.Is(err, fs.ErrNotExist) {
		f.logger.Info("no data file, starting empty", "path", f.path)
		return &LoadReport{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("open data file: %w", err)
	}
	defer file.Close()

	decoded, readErr := Decode(file)

	report := &LoadReport{
		Registrations: decoded.Registrations,
		Waitlisted:    decoded.Waitlisted,
		Diagnostics:   decoded.Diagnostics,
	}
	for i, ev := range decoded.Events {
		if err := dst.Restore(ev); err != nil {
			report.Registrations -= len(ev.Registered)
			report.Waitlisted -= len(ev.Waitlist)
			report.Diagnostics = append(report.Diagnostics, Diagnostic{
				Line:   decoded.Lines[i],
				Kind:   KindEvent,
				Reason: err.Error(),
			})
			continue
		}
		report.Events++
	}

	for _, d := range report.Diagnostics {
		f.logger.Warn("skipped record", "path", f.path, "line", d.Line, "kind", d.Kind, "reason", d.Reason)
	}

	if readErr != nil {
		return report, fmt.Errorf("load %s: %w", f.path, readErr)
	}
	f.logger.Info("data loaded", "path", f.path,
		"events", report.Events,
		"registrations", report.Registrations,
		"waitlisted", report.Waitlisted,
		"skipped", len(report.Diagnostics))
	return report, nil
}
