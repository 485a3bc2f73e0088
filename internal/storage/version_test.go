package storage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func TestEnsureFormat(t *testing.T) {
	t.Run("fresh data dir", func(t *testing.T) {
		dataDir := t.TempDir()

		root, err := EnsureFormat(dataDir)
		if err != nil {
			t.Fatal(err)
		}

		want := filepath.Join(dataDir, "payloads", FormatVersion)
		if root != want {
			t.Errorf("expected root %q, got %q", want, root)
		}
		if _, err := os.Stat(root); err != nil {
			t.Errorf("expected root to be created: %v", err)
		}
	})

	t.Run("existing current version", func(t *testing.T) {
		dataDir := t.TempDir()

		first, err := EnsureFormat(dataDir)
		if err != nil {
			t.Fatal(err)
		}
		second, err := EnsureFormat(dataDir)
		if err != nil {
			t.Fatal(err)
		}
		if first != second {
			t.Errorf("expected stable root, got %q then %q", first, second)
		}
	})

	t.Run("foreign version only", func(t *testing.T) {
		dataDir := t.TempDir()
		if err := os.MkdirAll(filepath.Join(dataDir, "payloads", "000900"), 0750); err != nil {
			t.Fatal(err)
		}

		_, err := EnsureFormat(dataDir)
		if !errors.Is(err, ErrIncompatibleFormat) {
			t.Errorf("expected ErrIncompatibleFormat, got %v", err)
		}
	})

	t.Run("current version next to foreign version", func(t *testing.T) {
		dataDir := t.TempDir()
		if err := os.MkdirAll(filepath.Join(dataDir, "payloads", "000900"), 0750); err != nil {
			t.Fatal(err)
		}
		if err := os.MkdirAll(filepath.Join(dataDir, "payloads", FormatVersion), 0750); err != nil {
			t.Fatal(err)
		}

		root, err := EnsureFormat(dataDir)
		if err != nil {
			t.Fatal(err)
		}
		if root != filepath.Join(dataDir, "payloads", FormatVersion) {
			t.Errorf("unexpected root %q", root)
		}
	})
}

func TestBucketDir(t *testing.T) {
	dir := BucketDir("/data/payloads/010000", 7)
	if dir != filepath.Join("/data/payloads/010000", "bucket-0007") {
		t.Errorf("unexpected bucket dir %q", dir)
	}
}
