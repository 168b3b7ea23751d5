package infra

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"

	"github.com/trackerforge/trackerforge/pkg/telemetry"
)

// AnsibleRunner executes ansible-playbook against the rendered inventory in
// one build directory.
type AnsibleRunner struct {
	binary  string
	workDir string
}

// NewAnsibleRunner returns a runner for the given ansible build directory.
// binary is the ansible-playbook executable; empty means PATH lookup.
func NewAnsibleRunner(binary, workDir string) *AnsibleRunner {
	if binary == "" {
		binary = "ansible-playbook"
	}
	return &AnsibleRunner{binary: binary, workDir: workDir}
}

// Play runs one playbook from the build directory against its inventory.
func (r *AnsibleRunner) Play(ctx context.Context, playbook string) error {
	log := telemetry.FromContext(ctx)
	log.WithField("playbook", playbook).Debug("running ansible-playbook")

	args := []string{"-i", "inventory.yml", playbook}
	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Dir = r.workDir
	cmd.Env = append(os.Environ(), "ANSIBLE_HOST_KEY_CHECKING=False")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		// ansible-playbook reports task failures on stdout.
		output := stderr.String()
		if output == "" {
			output = stdout.String()
		}
		return &CommandError{
			Args:   append([]string{filepath.Base(r.binary)}, args...),
			Stderr: output,
			Err:    fmt.Errorf("playbook %s: %w", playbook, err),
		}
	}
	return nil
}
