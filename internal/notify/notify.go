// Package notify sends best-effort desktop notifications.
//
// The hook uses this to surface sync failures without ever returning a
// failure to the host tool. Every error is swallowed: a machine with no
// notification mechanism just stays quiet.
package notify

import (
	"fmt"
	"os/exec"
	"runtime"
)

// Send shows a desktop notification. Errors are ignored.
func Send(title, body string) {
	switch runtime.GOOS {
	case "linux":
		_ = exec.Command("notify-send", title, body).Run()
	case "darwin":
		script := fmt.Sprintf("display notification %q with title %q", body, title)
		_ = exec.Command("osascript", "-e", script).Run()
	}
}
