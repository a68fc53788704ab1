package storage

import (
	"errors"
	"os"
	"path/filepath"

	"trafficmix/internal/report"
)

const (
	BucketRuns = "runs"
)

var ErrNotFound = errors.New("run not found")

// HistoryItem is one finished run as stored on disk.
type HistoryItem = report.Summary

// DefaultPath is ~/.trafficmix/history.db.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".trafficmix", "history.db"), nil
}
