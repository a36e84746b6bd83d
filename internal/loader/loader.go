package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"sort"

	"github.com/charmbracelet/log"
	"github.com/hashicorp/go-multierror"
	"github.com/spf13/afero"

	"github.com/firefart/dmarcreport/internal/dmarc"
)

// ErrNotDirectory is returned when the input path is not a directory.
var ErrNotDirectory = errors.New("not a directory")

// Loader reads every report of a directory. It uses an afero.Fs so tests
// can run against an in-memory filesystem.
type Loader struct {
	fs         afero.Fs
	logger     *log.Logger
	normalizer *dmarc.Normalizer
}

func New(fs afero.Fs, logger *log.Logger, normalizer *dmarc.Normalizer) *Loader {
	return &Loader{
		fs:         fs,
		logger:     logger,
		normalizer: normalizer,
	}
}

// NewOsLoader returns a Loader on the operating system filesystem.
func NewOsLoader(logger *log.Logger, normalizer *dmarc.Normalizer) *Loader {
	return New(afero.NewOsFs(), logger, normalizer)
}

// Load parses all files in dir in report order. Files that can not be read
// or normalized are logged and skipped; their errors are returned as a
// *multierror.Error next to the reports that did load. Only a missing or
// invalid dir, or a cancelled context, stops the run.
func (l *Loader) Load(ctx context.Context, dir string) ([]*dmarc.Report, error) {
	files, err := l.files(dir)
	if err != nil {
		return nil, err
	}

	var reports []*dmarc.Report
	var result *multierror.Error
	for _, name := range files {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		report, err := l.loadFile(filepath.Join(dir, name))
		switch {
		case errors.Is(err, dmarc.ErrDomainFiltered):
			l.logger.Debug("skipping report for other domain", "file", name)
		case err != nil:
			l.logger.Error("cannot recognize report", "file", name, "err", err)
			result = multierror.Append(result, fmt.Errorf("%s: %w", name, err))
		default:
			l.logger.Debug("loaded report", "file", name, "org", report.Org, "records", len(report.Records), "volume", report.Volume())
			reports = append(reports, report)
		}
	}

	return reports, result.ErrorOrNil()
}

// files lists the regular files of dir ordered by their report sort key.
func (l *Loader) files(dir string) ([]string, error) {
	info, err := l.fs.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("could not open %s: %w", dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", dir, ErrNotDirectory)
	}

	entries, err := afero.ReadDir(l.fs, dir)
	if err != nil {
		return nil, fmt.Errorf("could not read %s: %w", dir, err)
	}

	// afero.ReadDir returns the entries sorted by name, which makes the
	// order of equal sort keys deterministic
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.SliceStable(names, func(i, j int) bool {
		return dmarc.SortKey(names[i]) < dmarc.SortKey(names[j])
	})
	return names, nil
}

func (l *Loader) loadFile(path string) (*dmarc.Report, error) {
	content, err := l.readFile(path)
	if err != nil {
		return nil, err
	}

	_, doc, err := dmarc.ReadFile(filepath.Base(path), content)
	if err != nil {
		return nil, err
	}

	return l.normalizer.Normalize(doc)
}

func (l *Loader) readFile(path string) ([]byte, error) {
	f, err := l.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = f.Close() }()

	content, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}
	return content, nil
}
