package storage

import (
	"fmt"
	"os"
	"path/filepath"
)

// FormatVersion identifies the on-disk payload store layout. Buckets are
// created under a directory named after the version, so data written by
// an incompatible layout is detected at startup instead of being
// silently misread.
const FormatVersion = "010000"

// payloadRootName is the directory under the data dir that holds every
// format version's bucket tree.
const payloadRootName = "payloads"

// EnsureFormat resolves and creates the versioned payload root under
// dataDir.
//
// It returns ErrIncompatibleFormat when the payload root already holds
// data for other format versions but none for the current one: running
// against such a store would serve an empty keyspace while the real
// payloads sit unreachable in the old layout.
func EnsureFormat(dataDir string) (string, error) {
	root := filepath.Join(dataDir, payloadRootName)
	current := filepath.Join(root, FormatVersion)

	entries, err := os.ReadDir(root)
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("storage: read payload root: %w", err)
	}

	foreign := []string{}
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if entry.Name() == FormatVersion {
			return current, nil
		}
		foreign = append(foreign, entry.Name())
	}

	if len(foreign) > 0 {
		return "", fmt.Errorf("%w: found version(s) %v, need %s",
			ErrIncompatibleFormat, foreign, FormatVersion)
	}

	if err := os.MkdirAll(current, 0750); err != nil {
		return "", fmt.Errorf("storage: create payload root: %w", err)
	}

	return current, nil
}

// BucketDir returns the directory for one bucket under the versioned
// payload root. Bucket numbering must stay stable across restarts.
func BucketDir(root string, index int) string {
	return filepath.Join(root, fmt.Sprintf("bucket-%04d", index))
}
