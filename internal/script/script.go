// Package script builds the executable job scripts behind timers. Each
// builder returns the literal script text; callers persist it with the
// execute bit set.
package script

import (
	"fmt"
	"net/url"
	"os/exec"
	"strings"
)

// Template identifies one of the built-in script bodies.
type Template int

const (
	Empty Template = iota
	RsyncMirror
	HTTPCheck
)

var templateNames = map[Template]string{
	Empty:       "Empty script",
	RsyncMirror: "Rsync mirror",
	HTTPCheck:   "URL health check",
}

func (t Template) String() string {
	if n, ok := templateNames[t]; ok {
		return n
	}
	return "Unknown"
}

// EmptyStub returns a minimal script that succeeds without doing work,
// ready for the user to edit.
func EmptyStub(name string) string {
	return fmt.Sprintf(`#!/bin/sh
set -eu

# Job script for %s. Add your commands below.
:
`, name)
}

// Mirror returns a script that mirrors the source directory into the
// destination with rsync.
func Mirror(src, dst string) string {
	return fmt.Sprintf(`#!/bin/sh
set -eu

SRC="%s"
DST="%s"

echo "[$(date '+%%Y-%%m-%%d %%H:%%M:%%S')] mirroring $SRC to $DST"
rsync -a --delete -- "$SRC" "$DST"
echo "[$(date '+%%Y-%%m-%%d %%H:%%M:%%S')] mirror complete"
`, src, dst)
}

// Probe returns a script that requests the URL with curl and reports
// success only for a 2xx response status.
func Probe(target string) string {
	return fmt.Sprintf(`#!/bin/sh
set -u

URL="%s"

status=$(curl -s -o /dev/null -w '%%{http_code}' -- "$URL") || status=000
case "$status" in
  2*) echo "[$(date '+%%Y-%%m-%%d %%H:%%M:%%S')] OK $status $URL" ;;
  *)  echo "[$(date '+%%Y-%%m-%%d %%H:%%M:%%S')] FAIL $status $URL"; exit 1 ;;
esac
`, target)
}

// ValidateAbsPath requires a non-empty absolute filesystem path.
func ValidateAbsPath(input string) error {
	p := strings.TrimSpace(input)
	if p == "" {
		return fmt.Errorf("path must not be empty")
	}
	if !strings.HasPrefix(p, "/") {
		return fmt.Errorf("use an absolute path starting with /")
	}
	return nil
}

// ValidateURL requires an http or https URL with a host.
func ValidateURL(input string) error {
	raw := strings.TrimSpace(input)
	if raw == "" {
		return fmt.Errorf("URL must not be empty")
	}
	u, err := url.Parse(raw)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("use an http:// or https:// URL")
	}
	return nil
}

// MissingTools reports which of the given commands cannot be found on PATH.
func MissingTools(names ...string) []string {
	var missing []string
	for _, n := range names {
		if _, err := exec.LookPath(n); err != nil {
			missing = append(missing, n)
		}
	}
	return missing
}
