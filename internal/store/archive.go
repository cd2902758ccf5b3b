package store

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/vexhq/vexobs/pkg/models"
)

// ArchiveBefore moves whole log files that have seen no writes since the
// cutoff into <root>/archive, preserving their names. Records are never
// rewritten or split: retention operates on complete files only, so the
// atomic-unit guarantee of the streams is preserved. It returns the
// destination paths of the files moved.
//
// This is an out-of-band maintenance action; it must not run concurrently
// with a report scan over the same files.
func ArchiveBefore(root string, cutoff time.Time) ([]string, error) {
	archiveDir := filepath.Join(root, "archive")
	if err := os.MkdirAll(archiveDir, dirMode); err != nil {
		return nil, &models.IOError{Op: "creating archive directory", Path: archiveDir, Err: err}
	}
	if err := os.Chmod(archiveDir, dirMode); err != nil {
		return nil, &models.IOError{Op: "restricting archive directory", Path: archiveDir, Err: err}
	}

	var candidates []string
	tracePaths, err := filepath.Glob(filepath.Join(root, "logs", tracesDir, traceFilePrefix+"*.jsonl"))
	if err != nil {
		return nil, &models.IOError{Op: "discovering trace streams", Path: root, Err: err}
	}
	candidates = append(candidates, tracePaths...)
	candidates = append(candidates, filepath.Join(root, "logs", errorLogFile))

	var moved []string
	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return moved, &models.IOError{Op: "inspecting log file", Path: path, Err: err}
		}
		if !info.ModTime().Before(cutoff) {
			continue
		}

		dest := filepath.Join(archiveDir, fmt.Sprintf("%s-%s", cutoff.Format("2006-01"), filepath.Base(path)))
		if err := os.Rename(path, dest); err != nil {
			return moved, &models.IOError{Op: "archiving log file", Path: path, Err: err}
		}
		if err := os.Chmod(dest, fileMode); err != nil {
			return moved, &models.IOError{Op: "restricting archived file", Path: dest, Err: err}
		}
		moved = append(moved, dest)
	}
	return moved, nil
}
