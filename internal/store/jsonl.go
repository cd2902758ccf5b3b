package store

import (
	"bufio"
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/vexhq/vexobs/pkg/models"
)

const (
	fileMode = 0o600
	dirMode  = 0o700

	// maxLineBytes bounds a single record line during scans. Oversized
	// lines are treated as malformed and skipped.
	maxLineBytes = 1 << 20
)

// appendLine appends one complete serialized record to path as a single
// write followed by a flush. The containing directory is created with
// owner-only access, and permissions are re-asserted on every append so a
// loosened file can never stay loosened.
func appendLine(path string, line []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, dirMode); err != nil {
		return &models.IOError{Op: "creating log directory", Path: dir, Err: err}
	}
	if err := os.Chmod(dir, dirMode); err != nil {
		return &models.IOError{Op: "restricting log directory", Path: dir, Err: err}
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, fileMode)
	if err != nil {
		return &models.IOError{Op: "opening log stream", Path: path, Err: err}
	}
	defer func() {
		if cerr := f.Close(); cerr != nil {
			logrus.WithError(cerr).WithField("path", path).Debug("closing log stream")
		}
	}()

	if err := f.Chmod(fileMode); err != nil {
		return &models.IOError{Op: "restricting log stream", Path: path, Err: err}
	}

	// One Write call for the whole line: with O_APPEND the kernel makes
	// this atomic with respect to other appenders.
	buf := make([]byte, 0, len(line)+1)
	buf = append(buf, line...)
	buf = append(buf, '\n')
	if _, err := f.Write(buf); err != nil {
		return &models.IOError{Op: "writing record", Path: path, Err: err}
	}
	if err := f.Sync(); err != nil {
		return &models.IOError{Op: "flushing record", Path: path, Err: err}
	}
	return nil
}

// inRange reports whether ts falls in the half-open interval [from, to).
// A zero bound means unbounded on that side.
func inRange(ts, from, to time.Time) bool {
	if !from.IsZero() && ts.Before(from) {
		return false
	}
	if !to.IsZero() && !ts.Before(to) {
		return false
	}
	return true
}

// scanFile decodes every intact record in one JSONL file whose timestamp
// falls in [from, to). Malformed lines are counted and skipped rather than
// aborting the scan; the count makes data-quality issues visible to the
// caller. A missing file yields no records and no error.
func scanFile[T any](path string, stamp func(*T) time.Time, from, to time.Time) ([]T, int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, 0, nil
		}
		return nil, 0, &models.IOError{Op: "opening log stream", Path: path, Err: err}
	}
	defer func() { _ = f.Close() }()

	var (
		records []T
		skipped int
	)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var rec T
		if err := json.Unmarshal(line, &rec); err != nil {
			skipped++
			continue
		}

		if inRange(stamp(&rec), from, to) {
			records = append(records, rec)
		}
	}

	if err := scanner.Err(); err != nil {
		if err == bufio.ErrTooLong {
			// A runaway line is data corruption, not a scan failure.
			skipped++
			return records, skipped, nil
		}
		return records, skipped, &models.IOError{Op: "scanning log stream", Path: path, Err: err}
	}

	return records, skipped, nil
}
