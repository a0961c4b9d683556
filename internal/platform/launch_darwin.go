package platform

import (
	"fmt"
	"os/exec"
)

// LaunchApp brings up the foreground application. The bundle identifier is
// tried first so the launch works regardless of where the bundle was
// installed; the display name is the fallback for unregistered bundles.
func LaunchApp() error {
	if err := exec.Command("open", "-b", appBundleID).Run(); err == nil {
		return nil
	}
	if err := exec.Command("open", "-a", appDisplayName).Run(); err == nil {
		return nil
	}
	return fmt.Errorf("failed to launch %s", appDisplayName)
}
