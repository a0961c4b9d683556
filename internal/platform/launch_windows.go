package platform

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
)

// LaunchApp starts the foreground application from its per-user install
// location.
func LaunchApp() error {
	localAppData := os.Getenv("LOCALAPPDATA")
	candidates := []string{
		filepath.Join(localAppData, appDisplayName, appCommandName+".exe"),
		filepath.Join(localAppData, "Programs", appDisplayName, appCommandName+".exe"),
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err != nil {
			continue
		}
		cmd := exec.Command(candidate)
		cmd.SysProcAttr = DetachedSysProcAttr()
		if err := cmd.Start(); err == nil {
			return nil
		}
	}
	return fmt.Errorf("failed to launch %s", appDisplayName)
}
