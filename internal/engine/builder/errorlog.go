package builder

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.trai.ch/launchpad/internal/core/domain"
	"go.trai.ch/zerr"
)

const (
	logRule     = "================================================================================"
	noOutput    = "(no output)"
	stderrTitle = "=== STDERR ==="
	stdoutTitle = "=== STDOUT ==="
	codeTitle   = "=== RETURN CODE ==="
)

// ErrorLogEntry is the content of a build failure log.
type ErrorLogEntry struct {
	Target   string
	Command  string
	Time     time.Time
	ExitCode int
	Stdout   []byte
	Stderr   []byte
}

// FormatErrorLog renders entry in the fixed build_error.log layout.
func FormatErrorLog(w io.Writer, entry ErrorLogEntry) error {
	var b strings.Builder
	b.WriteString(logRule + "\n")
	fmt.Fprintf(&b, "Build error log for target %s\n", entry.Target)
	fmt.Fprintf(&b, "Command: %s\n", entry.Command)
	fmt.Fprintf(&b, "Time: %s\n", entry.Time.Format(time.RFC3339))
	b.WriteString(logRule + "\n\n")

	writeBlock(&b, stderrTitle, entry.Stderr)
	b.WriteString("\n")
	writeBlock(&b, stdoutTitle, entry.Stdout)
	b.WriteString("\n")
	fmt.Fprintf(&b, "%s\n%d\n", codeTitle, entry.ExitCode)

	_, err := io.WriteString(w, b.String())
	return err
}

func writeBlock(b *strings.Builder, title string, content []byte) {
	b.WriteString(title + "\n")
	content = bytes.TrimRight(content, "\r\n")
	if len(bytes.TrimSpace(content)) == 0 {
		b.WriteString(noOutput + "\n")
		return
	}
	b.Write(content)
	b.WriteString("\n")
}

// writeErrorLog replaces the log at path with entry.
func writeErrorLog(path string, entry ErrorLogEntry) error {
	if err := os.MkdirAll(filepath.Dir(path), domain.DirPerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrLogWriteFailed.Error()), "path", path)
	}

	var buf bytes.Buffer
	if err := FormatErrorLog(&buf, entry); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrLogWriteFailed.Error()), "path", path)
	}

	//nolint:gosec // The log is meant to be read by the operator.
	if err := os.WriteFile(path, buf.Bytes(), domain.FilePerm); err != nil {
		return zerr.With(zerr.Wrap(err, domain.ErrLogWriteFailed.Error()), "path", path)
	}
	return nil
}
