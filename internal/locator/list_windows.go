//go:build windows

package locator

import (
	"os/exec"
	"strconv"
	"strings"
)

// listProcesses normalizes wmic output into "pid args" rows. wmic orders
// columns alphabetically, so the pid is the last field of each row.
func listProcesses() (string, error) {
	out, err := exec.Command("wmic", "process", "get", "CommandLine,ProcessId").Output()
	if err != nil {
		return "", err
	}

	var b strings.Builder
	for _, line := range strings.Split(string(out), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		idx := strings.LastIndexAny(line, " \t")
		if idx < 0 {
			continue
		}
		pidField := strings.TrimSpace(line[idx+1:])
		if _, err := strconv.Atoi(pidField); err != nil {
			// Header row.
			continue
		}
		b.WriteString(pidField)
		b.WriteString(" ")
		b.WriteString(strings.TrimSpace(line[:idx]))
		b.WriteString("\n")
	}
	return b.String(), nil
}
