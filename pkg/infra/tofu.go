// Package infra drives OpenTofu to create and destroy instance
// infrastructure. The deployer shells out to the tofu binary in the
// environment's provider-specific build directory; all state stays in that
// directory so destroying the directory destroys the record of the
// infrastructure.
package infra

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/netip"
	"os"
	"os/exec"
	"strings"

	"github.com/trackerforge/trackerforge/pkg/telemetry"
)

// instanceIPOutput is the OpenTofu output name the templates must declare.
const instanceIPOutput = "instance_ip"

// CommandError is a failed tofu invocation with its captured output, which
// the failure trace writer records verbatim.
type CommandError struct {
	Args   []string
	Stderr string
	Err    error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("tofu %s: %v", strings.Join(e.Args, " "), e.Err)
}

func (e *CommandError) Unwrap() error { return e.Err }

// OutputLines returns the stderr of the failed command split into lines,
// trimmed of trailing blanks.
func (e *CommandError) OutputLines() []string {
	lines := strings.Split(strings.TrimRight(e.Stderr, "\n"), "\n")
	if len(lines) == 1 && lines[0] == "" {
		return nil
	}
	return lines
}

// Runner executes tofu commands in one working directory.
type Runner struct {
	binary  string
	workDir string
}

// NewRunner returns a runner for the given build directory. binary is the
// tofu executable name or path; empty means "tofu" from PATH.
func NewRunner(binary, workDir string) *Runner {
	if binary == "" {
		binary = "tofu"
	}
	return &Runner{binary: binary, workDir: workDir}
}

// WorkDir returns the directory the runner executes in.
func (r *Runner) WorkDir() string { return r.workDir }

// HasState reports whether the working directory holds OpenTofu artifacts.
// The destroy workflow uses it to decide whether there is infrastructure to
// tear down at all.
func (r *Runner) HasState() bool {
	info, err := os.Stat(r.workDir)
	return err == nil && info.IsDir()
}

func (r *Runner) run(ctx context.Context, args ...string) (string, error) {
	log := telemetry.FromContext(ctx)
	log.WithField("args", strings.Join(args, " ")).Debug("running tofu")

	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Dir = r.workDir
	// Suppress interactive prompts; the deployer always runs unattended.
	cmd.Env = append(os.Environ(), "TF_IN_AUTOMATION=1")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return stdout.String(), &CommandError{Args: args, Stderr: stderr.String(), Err: err}
	}
	return stdout.String(), nil
}

// Init initializes the working directory, downloading providers.
func (r *Runner) Init(ctx context.Context) error {
	_, err := r.run(ctx, "init", "-input=false", "-no-color")
	return err
}

// Validate checks the rendered configuration.
func (r *Runner) Validate(ctx context.Context) error {
	_, err := r.run(ctx, "validate", "-no-color")
	return err
}

// Plan computes the execution plan without applying it.
func (r *Runner) Plan(ctx context.Context) error {
	_, err := r.run(ctx, "plan", "-input=false", "-no-color")
	return err
}

// Apply creates or updates the infrastructure.
func (r *Runner) Apply(ctx context.Context) error {
	_, err := r.run(ctx, "apply", "-input=false", "-auto-approve", "-no-color")
	return err
}

// Destroy tears the infrastructure down.
func (r *Runner) Destroy(ctx context.Context) error {
	_, err := r.run(ctx, "destroy", "-input=false", "-auto-approve", "-no-color")
	return err
}

// InstanceIP reads the instance address from the tofu outputs after a
// successful apply.
func (r *Runner) InstanceIP(ctx context.Context) (netip.Addr, error) {
	out, err := r.run(ctx, "output", "-json")
	if err != nil {
		return netip.Addr{}, err
	}
	return parseInstanceIP([]byte(out))
}

func parseInstanceIP(data []byte) (netip.Addr, error) {
	var outputs map[string]struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.Unmarshal(data, &outputs); err != nil {
		return netip.Addr{}, fmt.Errorf("decoding tofu outputs: %w", err)
	}

	raw, ok := outputs[instanceIPOutput]
	if !ok {
		return netip.Addr{}, fmt.Errorf("tofu outputs missing %q", instanceIPOutput)
	}
	var value string
	if err := json.Unmarshal(raw.Value, &value); err != nil {
		return netip.Addr{}, fmt.Errorf("decoding %q output: %w", instanceIPOutput, err)
	}
	ip, err := netip.ParseAddr(value)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("parsing instance address %q: %w", value, err)
	}
	return ip, nil
}
