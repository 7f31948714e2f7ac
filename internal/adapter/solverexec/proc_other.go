//go:build !unix

package solverexec

import "os/exec"

// configureProcess keeps exec.CommandContext's default kill on cancellation.
func configureProcess(_ *exec.Cmd) {}
