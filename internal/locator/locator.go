// Package locator finds live editor peer processes on the host.
//
// Results are a point-in-time snapshot of the OS process table and are
// advisory only: a process may exit between enumeration and use.
package locator

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// ErrLocate means the OS enumeration mechanism itself could not be invoked.
// Zero matching peers is not an error.
var ErrLocate = errors.New("locator: process enumeration unavailable")

// PeerProcess is one editor process finding. Recomputed on every Locate call,
// never cached.
type PeerProcess struct {
	PID         int
	CommandLine string
	Target      string
}

// Locator enumerates host processes and extracts the project path each
// matching executable was launched against.
type Locator struct {
	execName string
}

// DefaultExecName is the editor executable matched in command lines.
const DefaultExecName = "Unity"

func New(execName string) *Locator {
	if strings.TrimSpace(execName) == "" {
		execName = DefaultExecName
	}
	return &Locator{execName: execName}
}

// Locate enumerates processes and returns every editor instance whose launch
// arguments name a project path. Unparsable rows are skipped; partial results
// are expected and useful.
func (l *Locator) Locate() ([]PeerProcess, error) {
	out, err := listProcesses()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrLocate, err)
	}
	return l.parseTable(out), nil
}

// parseTable walks the raw process listing. It tolerates header rows, blank
// lines, and truncated rows.
func (l *Locator) parseTable(raw string) []PeerProcess {
	var found []PeerProcess
	for _, line := range strings.Split(raw, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		pidField, cmdline, ok := strings.Cut(line, " ")
		if !ok {
			continue
		}
		pid, err := strconv.Atoi(strings.TrimSpace(pidField))
		if err != nil {
			// Header row or garbage.
			continue
		}
		cmdline = strings.TrimSpace(cmdline)
		if !strings.Contains(cmdline, l.execName) {
			continue
		}
		target, ok := extractProjectPath(cmdline)
		if !ok {
			continue
		}
		found = append(found, PeerProcess{
			PID:         pid,
			CommandLine: cmdline,
			Target:      target,
		})
	}
	return found
}

// extractProjectPath pulls the project path out of an editor launch command
// line. Both "-projectPath <path>" and "-projectPath=<path>" forms appear in
// the wild; a quoted path may contain spaces.
func extractProjectPath(cmdline string) (string, bool) {
	idx := strings.Index(strings.ToLower(cmdline), "-projectpath")
	if idx < 0 {
		return "", false
	}
	rest := cmdline[idx+len("-projectpath"):]
	if strings.HasPrefix(rest, "=") {
		rest = rest[1:]
	} else {
		trimmed := strings.TrimLeft(rest, " \t")
		if trimmed == rest {
			// Flag glued to trailing characters, or nothing after it.
			return "", false
		}
		rest = trimmed
	}
	return pathValue(rest)
}

// pathValue reads one path argument: a quoted span taken whole, or a bare
// token up to the next whitespace. An unterminated quote is malformed.
func pathValue(s string) (string, bool) {
	if s == "" {
		return "", false
	}
	if q := s[0]; q == '"' || q == '\'' {
		end := strings.IndexByte(s[1:], q)
		if end < 0 {
			return "", false
		}
		v := s[1 : 1+end]
		return v, v != ""
	}
	if i := strings.IndexAny(s, " \t"); i >= 0 {
		s = s[:i]
	}
	return s, true
}
