// Package platform isolates the OS-specific pieces of process and
// application management: detached process-group spawning, group
// termination, and foreground-application launch strategies. Everything
// above this package is platform-neutral.
package platform

// Identifiers for the foreground application across launch strategies.
const (
	appBundleID    = "com.sigma-eclipse.llm"
	appDisplayName = "Sigma Eclipse LLM"
	appCommandName = "sigma-eclipse-llm"
)
