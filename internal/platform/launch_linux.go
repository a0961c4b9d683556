package platform

import (
	"fmt"
	"os/exec"
)

// LaunchApp starts the foreground application. The bare command name covers
// PATH installs; the absolute candidates cover package-manager layouts where
// the host itself runs with a stripped environment.
func LaunchApp() error {
	candidates := []string{
		appCommandName,
		"/usr/bin/" + appCommandName,
		"/usr/local/bin/" + appCommandName,
	}
	for _, candidate := range candidates {
		cmd := exec.Command(candidate)
		cmd.SysProcAttr = DetachedSysProcAttr()
		if err := cmd.Start(); err == nil {
			return nil
		}
	}
	return fmt.Errorf("failed to launch %s", appDisplayName)
}
