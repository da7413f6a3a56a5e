// Package backup archives the timer repository into gzip-compressed
// tar files and stages timers back out of them. The archive's single
// top-level directory is the repository base's basename, which restore
// verifies before touching anything.
package backup

import (
	"archive/tar"
	"compress/gzip"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"
)

// ErrNoTimers reports a backup attempt against an empty repository.
var ErrNoTimers = errors.New("repository is empty: nothing to back up")

// Summary describes a written archive.
type Summary struct {
	Path   string
	Timers int
	Size   int64
	SHA256 string
}

// DefaultPath returns a timestamped archive path under dir.
func DefaultPath(dir string, now time.Time) string {
	return filepath.Join(dir, "cronie-backup-"+now.Format("20060102-150405")+".tar.gz")
}

// Create archives the entire repository base into outPath. File modes
// and modification times are preserved. An empty repository is refused.
func Create(baseDir, outPath string) (*Summary, error) {
	entries, err := os.ReadDir(baseDir)
	if err != nil {
		return nil, fmt.Errorf("read repository: %w", err)
	}
	timers := 0
	for _, e := range entries {
		if e.IsDir() {
			timers++
		}
	}
	if timers == 0 {
		return nil, ErrNoTimers
	}

	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return nil, fmt.Errorf("create backup directory: %w", err)
	}
	f, err := os.Create(outPath)
	if err != nil {
		return nil, fmt.Errorf("create archive: %w", err)
	}

	hash := sha256.New()
	gz := gzip.NewWriter(io.MultiWriter(f, hash))
	tw := tar.NewWriter(gz)

	err = writeTree(baseDir, tw)
	if err == nil {
		err = tw.Close()
	}
	if err == nil {
		err = gz.Close()
	}
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		os.Remove(outPath)
		return nil, fmt.Errorf("write archive: %w", err)
	}

	info, err := os.Stat(outPath)
	if err != nil {
		return nil, err
	}
	return &Summary{
		Path:   outPath,
		Timers: timers,
		Size:   info.Size(),
		SHA256: hex.EncodeToString(hash.Sum(nil)),
	}, nil
}

func writeTree(baseDir string, tw *tar.Writer) error {
	top := filepath.Base(baseDir)
	return filepath.Walk(baseDir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(baseDir, path)
		if err != nil {
			return err
		}
		name := top
		if rel != "." {
			name = filepath.Join(top, rel)
		}
		hdr, err := tar.FileInfoHeader(info, "")
		if err != nil {
			return err
		}
		hdr.Name = name
		if info.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		_, err = tw.Write(data)
		return err
	})
}
