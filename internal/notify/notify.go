package notify

import (
	"fmt"
	"os/exec"
	"runtime"
	"strings"
)

// Notifier sends desktop notifications for goal lifecycle events.
type Notifier struct {
	Enabled bool
}

// Send sends a system notification. On macOS it shells out to osascript;
// on other platforms it is a no-op.
func (n *Notifier) Send(title, message string) error {
	if n == nil || !n.Enabled {
		return nil
	}
	if runtime.GOOS != "darwin" {
		return nil
	}
	return sendMacOSNotification(title, message)
}

func sendMacOSNotification(title, message string) error {
	title = strings.ReplaceAll(title, `"`, `\"`)
	message = strings.ReplaceAll(message, `"`, `\"`)

	script := fmt.Sprintf(`display notification "%s" with title "%s"`, message, title)
	cmd := exec.Command("osascript", "-e", script)
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("send notification: %w", err)
	}
	return nil
}

// FormatGoalCompleted formats a goal completion notification.
func FormatGoalCompleted(goalTitle string, cycles int64) (title, message string) {
	title = "Steward Goal Completed"
	message = fmt.Sprintf("%s (after %d cycles)", goalTitle, cycles)
	return title, message
}

// FormatGoalCreated formats a goal creation notification.
func FormatGoalCreated(goalTitle string, confidence float64) (title, message string) {
	title = "Steward Goal Created"
	message = fmt.Sprintf("%s (confidence %.2f)", goalTitle, confidence)
	return title, message
}
