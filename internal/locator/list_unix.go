//go:build !windows

package locator

import "os/exec"

// listProcesses dumps "pid args" rows without a header.
func listProcesses() (string, error) {
	out, err := exec.Command("ps", "-axo", "pid=,args=").Output()
	if err != nil {
		return "", err
	}
	return string(out), nil
}
