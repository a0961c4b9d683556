//go:build unix

package platform

import "syscall"

// DetachedSysProcAttr returns process attributes that place a spawned child
// in its own process group, so the whole tree can be signalled at once and
// the child survives parent exit.
func DetachedSysProcAttr() *syscall.SysProcAttr {
	return &syscall.SysProcAttr{Setpgid: true}
}

// TerminateGroup sends SIGTERM to the process group led by pid.
func TerminateGroup(pid int) error {
	return syscall.Kill(-pid, syscall.SIGTERM)
}

// KillGroup force-kills the process group led by pid.
func KillGroup(pid int) error {
	return syscall.Kill(-pid, syscall.SIGKILL)
}
