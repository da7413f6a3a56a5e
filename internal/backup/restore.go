package backup

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// RestoreSession is one restore invocation: the archive extracted into
// a temporary directory that Close always removes, success or failure.
type RestoreSession struct {
	tmp     string
	content string
}

// Open extracts the archive at path and verifies the expected
// top-level directory is present. expectTop is the repository base's
// basename.
func Open(path, expectTop string) (*RestoreSession, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("backup archive %s: %w", path, err)
	}
	tmp, err := os.MkdirTemp("", "cronie-restore-")
	if err != nil {
		return nil, fmt.Errorf("create extraction directory: %w", err)
	}
	s := &RestoreSession{tmp: tmp, content: filepath.Join(tmp, expectTop)}
	if err := extract(path, tmp); err != nil {
		s.Close()
		return nil, err
	}
	if info, err := os.Stat(s.content); err != nil || !info.IsDir() {
		s.Close()
		return nil, fmt.Errorf("archive does not contain a %s directory", expectTop)
	}
	return s, nil
}

// Timers lists the timer directory names found in the archive, sorted.
func (s *RestoreSession) Timers() ([]string, error) {
	entries, err := os.ReadDir(s.content)
	if err != nil {
		return nil, fmt.Errorf("read extracted archive: %w", err)
	}
	var names []string
	for _, e := range entries {
		if e.IsDir() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

// Stage copies one timer directory out of the archive into destBase,
// preserving modes and modification times. The destination must not
// exist; overwrite means delete first, then stage.
func (s *RestoreSession) Stage(name, destBase string) error {
	src := filepath.Join(s.content, name)
	if info, err := os.Stat(src); err != nil || !info.IsDir() {
		return fmt.Errorf("archive has no timer directory %q", name)
	}
	dest := filepath.Join(destBase, name)
	if _, err := os.Stat(dest); err == nil {
		return fmt.Errorf("destination %s already exists", dest)
	}
	return copyTree(src, dest)
}

// Close removes the temporary extraction directory.
func (s *RestoreSession) Close() error {
	return os.RemoveAll(s.tmp)
}

func extract(archive, dest string) error {
	f, err := os.Open(archive)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}
	defer f.Close()
	gz, err := gzip.NewReader(f)
	if err != nil {
		return fmt.Errorf("read archive: %w", err)
	}
	defer gz.Close()

	tr := tar.NewReader(gz)
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("read archive: %w", err)
		}
		name := filepath.Clean(hdr.Name)
		if filepath.IsAbs(name) || strings.HasPrefix(name, "..") {
			return fmt.Errorf("archive entry %q escapes the extraction directory", hdr.Name)
		}
		target := filepath.Join(dest, name)
		mode := hdr.FileInfo().Mode().Perm()
		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, mode); err != nil {
				return fmt.Errorf("extract %s: %w", hdr.Name, err)
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return fmt.Errorf("extract %s: %w", hdr.Name, err)
			}
			out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
			if err != nil {
				return fmt.Errorf("extract %s: %w", hdr.Name, err)
			}
			if _, err := io.Copy(out, tr); err != nil {
				out.Close()
				return fmt.Errorf("extract %s: %w", hdr.Name, err)
			}
			if err := out.Close(); err != nil {
				return fmt.Errorf("extract %s: %w", hdr.Name, err)
			}
			if err := os.Chmod(target, mode); err != nil {
				return fmt.Errorf("extract %s: %w", hdr.Name, err)
			}
			if err := os.Chtimes(target, hdr.ModTime, hdr.ModTime); err != nil {
				return fmt.Errorf("extract %s: %w", hdr.Name, err)
			}
		}
	}
}

func copyTree(src, dest string) error {
	return filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		target := filepath.Join(dest, rel)
		info, err := d.Info()
		if err != nil {
			return err
		}
		if d.IsDir() {
			return os.MkdirAll(target, info.Mode().Perm())
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		if err := os.WriteFile(target, data, info.Mode().Perm()); err != nil {
			return err
		}
		if err := os.Chmod(target, info.Mode().Perm()); err != nil {
			return err
		}
		return os.Chtimes(target, info.ModTime(), info.ModTime())
	})
}
