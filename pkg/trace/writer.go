// Package trace writes failure trace files. Every failed workflow attempt
// leaves one plain-text file under the environment's traces directory so the
// error chain survives process exit and can be attached to bug reports.
package trace

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/trackerforge/trackerforge/pkg/environment"
)

// Entry describes one failed workflow attempt.
type Entry struct {
	Workflow     string
	Environment  environment.Name
	TraceID      environment.TraceID
	FailedStep   string
	Kind         environment.ErrorKind
	StartedAt    time.Time
	FailedAt     time.Time
	Err          error
	CommandLines []string
}

// Writer renders failure trace files into a traces directory.
type Writer struct {
	dir string
}

// NewWriter returns a writer rooted at dir. The directory is created on the
// first Write.
func NewWriter(dir string) *Writer {
	return &Writer{dir: dir}
}

// Write renders the entry and returns the path of the written file. File
// names sort chronologically: {UTC timestamp}-{workflow}.log.
func (w *Writer) Write(entry Entry) (string, error) {
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("creating traces directory: %w", err)
	}

	name := fmt.Sprintf("%s-%s.log", entry.FailedAt.UTC().Format("20060102-150405"), entry.Workflow)
	path := filepath.Join(w.dir, name)

	if err := os.WriteFile(path, []byte(render(entry)), 0o644); err != nil {
		return "", fmt.Errorf("writing trace file: %w", err)
	}
	return path, nil
}

func render(entry Entry) string {
	var b strings.Builder

	fmt.Fprintf(&b, "=== %s workflow failed ===\n\n", entry.Workflow)
	fmt.Fprintf(&b, "environment: %s\n", entry.Environment)
	fmt.Fprintf(&b, "trace id:    %s\n", entry.TraceID)
	fmt.Fprintf(&b, "failed step: %s\n", entry.FailedStep)
	fmt.Fprintf(&b, "error kind:  %s\n", entry.Kind)
	fmt.Fprintf(&b, "started at:  %s\n", entry.StartedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "failed at:   %s\n", entry.FailedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(&b, "duration:    %s\n", entry.FailedAt.Sub(entry.StartedAt).Round(time.Millisecond))

	b.WriteString("\n--- error chain ---\n")
	for i, line := range errorChain(entry.Err) {
		fmt.Fprintf(&b, "%d: %s\n", i, line)
	}

	if len(entry.CommandLines) > 0 {
		b.WriteString("\n--- command output ---\n")
		for _, line := range entry.CommandLines {
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	b.WriteString("\n=== end of trace ===\n")
	return b.String()
}

// errorChain unwraps err into one line per wrapping layer.
func errorChain(err error) []string {
	if err == nil {
		return []string{"(no error recorded)"}
	}
	var out []string
	for err != nil {
		out = append(out, err.Error())
		err = unwrapOne(err)
	}
	return out
}

func unwrapOne(err error) error {
	u, ok := err.(interface{ Unwrap() error })
	if !ok {
		return nil
	}
	return u.Unwrap()
}
