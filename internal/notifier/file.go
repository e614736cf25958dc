package notifier

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	apperrors "github.com/kurihiro0119/github-sentinel/internal/errors"
)

// Notifier defines the interface for delivering a generated report
type Notifier interface {
	// Send persists the report and returns where it ended up. repoSlug is
	// an optional filename prefix identifying the repository.
	Send(content, title, repoSlug string) (string, error)
}

// fileNotifier writes reports as Markdown files into an output directory
type fileNotifier struct {
	outputDir string
	now       func() time.Time
}

// NewFileNotifier creates a file notifier, creating the output directory
// if absent
func NewFileNotifier(outputDir string) (Notifier, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return nil, apperrors.NewIOError("failed to create report directory", err)
	}
	return &fileNotifier{
		outputDir: outputDir,
		now:       func() time.Time { return time.Now().UTC() },
	}, nil
}

// Send writes the report to a timestamped Markdown file and returns its
// path. Filenames have second resolution; collisions within one second
// are accepted.
func (n *fileNotifier) Send(content, title, repoSlug string) (string, error) {
	now := n.now()

	filename := fmt.Sprintf("report_%s.md", now.Format("20060102_150405"))
	if repoSlug != "" {
		filename = repoSlug + "_" + filename
	}
	path := filepath.Join(n.outputDir, filename)

	header := fmt.Sprintf("# %s\n\nGenerated: %s\n\n---\n\n", title, now.Format("2006-01-02 15:04:05 UTC"))
	if err := os.WriteFile(path, []byte(header+content), 0644); err != nil {
		return "", apperrors.NewIOError(fmt.Sprintf("failed to write report %s", filename), err)
	}
	return path, nil
}
