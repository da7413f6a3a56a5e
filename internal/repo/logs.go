package repo

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/cronie-dev/cronie/internal/timer"
)

// LogFile describes one dated run log.
type LogFile struct {
	Name    string
	Path    string
	Size    int64
	ModTime time.Time
}

// LogFiles lists the dated run logs for a timer, newest first. A timer
// that has never fired has no log directory; that is not an error.
func (r *Repository) LogFiles(name string) ([]LogFile, error) {
	dir := timer.LogDir(r.base, name)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read log directory: %w", err)
	}
	var files []LogFile
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".log") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, LogFile{
			Name:    e.Name(),
			Path:    filepath.Join(dir, e.Name()),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Name > files[j].Name })
	return files, nil
}

// PruneLogs removes run logs last modified more than days ago and
// reports how many were removed. Individual removal failures are
// logged and skipped.
func (r *Repository) PruneLogs(name string, days int) (int, error) {
	files, err := r.LogFiles(name)
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().AddDate(0, 0, -days)
	removed := 0
	for _, f := range files {
		if !f.ModTime.Before(cutoff) {
			continue
		}
		if err := os.Remove(f.Path); err != nil {
			r.log.Warn("prune failed", zap.String("file", f.Path), zap.Error(err))
			continue
		}
		removed++
	}
	if removed > 0 {
		r.log.Info("pruned run logs", zap.String("name", name), zap.Int("removed", removed))
	}
	return removed, nil
}

// DayActivity is one day's output volume for a timer, measured in log
// lines.
type DayActivity struct {
	Date  string
	Lines int
}

// RunActivity reports per-day log line counts over the trailing days,
// oldest first. Days without a log file count zero.
func (r *Repository) RunActivity(name string, days int) []DayActivity {
	if days < 1 {
		days = 1
	}
	var out []DayActivity
	today := time.Now()
	for i := days - 1; i >= 0; i-- {
		day := today.AddDate(0, 0, -i).Format("2006-01-02")
		lines := 0
		if data, err := os.ReadFile(filepath.Join(timer.LogDir(r.base, name), day+".log")); err == nil {
			lines = countLines(data)
		}
		out = append(out, DayActivity{Date: day, Lines: lines})
	}
	return out
}

func countLines(data []byte) int {
	if len(data) == 0 {
		return 0
	}
	n := bytes.Count(data, []byte("\n"))
	if data[len(data)-1] != '\n' {
		n++
	}
	return n
}
