package capture

import (
	"bufio"
	"context"
	"fmt"
	"os/exec"

	"github.com/marcosistoocommon/ReoCamara/internal/fault"
)

// ExecRunner runs a locally installed ffmpeg binary
type ExecRunner struct {
	Binary string
}

// NewExecRunner creates a runner for the given binary (default "ffmpeg")
func NewExecRunner(binary string) *ExecRunner {
	if binary == "" {
		binary = "ffmpeg"
	}
	return &ExecRunner{Binary: binary}
}

func (r *ExecRunner) String() string {
	return r.Binary
}

// Check verifies the binary is installed and accessible
func (r *ExecRunner) Check(ctx context.Context) error {
	cmd := exec.CommandContext(ctx, r.Binary, "-version")
	if err := cmd.Run(); err != nil {
		return fault.Launch("check", fmt.Errorf("%s is not installed or not in PATH: %w", r.Binary, err))
	}
	return nil
}

// Run starts the process, streams its stderr to the debug log and waits for it to exit
func (r *ExecRunner) Run(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, r.Binary, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fault.New("record", fault.KindProcess, fmt.Errorf("stderr pipe failed: %w", err))
	}

	log.Debugf("Starting %s", describe(r, args))
	if err := cmd.Start(); err != nil {
		return fault.Launch("record", fmt.Errorf("failed to start %s: %w", r.Binary, err))
	}

	scanner := bufio.NewScanner(stderr)
	for scanner.Scan() {
		log.Debugf("FFMPEG[%d] %s", cmd.Process.Pid, scanner.Text())
	}

	if err := cmd.Wait(); err != nil {
		return fault.New("record", fault.KindProcess, fmt.Errorf("%s exited: %w", r.Binary, err))
	}
	return nil
}
