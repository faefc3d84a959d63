package toolchain

import (
	"bytes"
	"context"
	"os/exec"
	"time"

	"github.com/alnah/go-texhtml/internal/process"
)

// CommandRunner abstracts command execution to enable testing without real subprocesses.
type CommandRunner interface {
	Run(ctx context.Context, dir, name string, args ...string) (stdout string, stderr string, err error)
}

// waitDelay bounds how long Wait blocks on output pipes after the process
// group has been killed.
const waitDelay = 2 * time.Second

// ExecRunner implements CommandRunner using os/exec. The child runs in its own
// process group, killed as a whole when ctx is done.
type ExecRunner struct{}

func (r *ExecRunner) Run(ctx context.Context, dir, name string, args ...string) (string, string, error) {
	cmd := exec.CommandContext(ctx, name, args...) // #nosec G204 -- commands come from validated configuration
	cmd.Dir = dir
	cmd.WaitDelay = waitDelay
	process.Isolate(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stdout.String(), stderr.String(), err
}

// Compile-time interface check.
var _ CommandRunner = (*ExecRunner)(nil)
