//go:build windows

package platform

import (
	"fmt"
	"os/exec"
	"syscall"

	"golang.org/x/sys/windows"
)

// DetachedSysProcAttr returns process attributes that start a spawned child
// in its own process group without a console window.
func DetachedSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{
		CreationFlags: windows.CREATE_NEW_PROCESS_GROUP | windows.CREATE_NO_WINDOW,
	}
}

// TerminateGroup asks pid and its child tree to exit.
func TerminateGroup(pid int) error {
	return exec.Command("taskkill", "/T", "/PID", fmt.Sprint(pid)).Run()
}

// KillGroup force-kills pid and its child tree.
func KillGroup(pid int) error {
	return exec.Command("taskkill", "/T", "/F", "/PID", fmt.Sprint(pid)).Run()
}
