//go:build !darwin && !linux && !windows

package platform

import "fmt"

func LaunchApp() error {
	return fmt.Errorf("launching %s is not supported on this platform", appDisplayName)
}
