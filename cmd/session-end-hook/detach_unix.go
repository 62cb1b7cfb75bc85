//go:build unix

package main

import (
	"os/exec"
	"syscall"
)

// detach puts the child in its own session so it survives the hook
// process and the host tool's process group teardown.
func detach(cmd *exec.Cmd) {
	cmd.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
}
