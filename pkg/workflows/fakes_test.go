package workflows

import (
	"context"
	"fmt"
	"net/netip"
	"sync"
	"time"

	"github.com/trackerforge/trackerforge/pkg/environment"
	"github.com/trackerforge/trackerforge/pkg/stores"
	"github.com/trackerforge/trackerforge/pkg/trace"
)

// fakeInfra stands in for the OpenTofu runner. failOn names the operation
// that should error; everything else succeeds and is recorded.
type fakeInfra struct {
	workDir  string
	hasState bool
	ip       netip.Addr
	failOn   string
	calls    []string
}

func (f *fakeInfra) op(name string) error {
	f.calls = append(f.calls, name)
	if f.failOn == name {
		return fmt.Errorf("tofu %s failed", name)
	}
	return nil
}

func (f *fakeInfra) Init(ctx context.Context) error     { return f.op("init") }
func (f *fakeInfra) Validate(ctx context.Context) error { return f.op("validate") }
func (f *fakeInfra) Plan(ctx context.Context) error     { return f.op("plan") }
func (f *fakeInfra) Apply(ctx context.Context) error    { return f.op("apply") }
func (f *fakeInfra) Destroy(ctx context.Context) error  { return f.op("destroy") }
func (f *fakeInfra) HasState() bool                     { return f.hasState }

func (f *fakeInfra) InstanceIP(ctx context.Context) (netip.Addr, error) {
	if err := f.op("output"); err != nil {
		return netip.Addr{}, err
	}
	return f.ip, nil
}

// fakePlaybooks records played playbooks.
type fakePlaybooks struct {
	workDir string
	failOn  string
	played  []string
}

func (f *fakePlaybooks) Play(ctx context.Context, playbook string) error {
	f.played = append(f.played, playbook)
	if f.failOn == playbook {
		return fmt.Errorf("playbook %s failed", playbook)
	}
	return nil
}

// fakeRemote records every SSH interaction and the commands run.
type fakeRemote struct {
	creds  environment.SSHCredentials
	ip     netip.Addr
	port   int
	failOn string
	calls  []string
	cmds   []string
	closed bool
}

func (f *fakeRemote) op(name string) error {
	f.calls = append(f.calls, name)
	if f.failOn == name {
		return fmt.Errorf("ssh %s failed", name)
	}
	return nil
}

func (f *fakeRemote) Connect(ctx context.Context) error { return f.op("connect") }

func (f *fakeRemote) Close() error {
	f.closed = true
	return nil
}

func (f *fakeRemote) Run(ctx context.Context, cmd string) (string, string, error) {
	f.cmds = append(f.cmds, cmd)
	if err := f.op("run"); err != nil {
		return "", "command not found", err
	}
	// Pretend a single-service stack that is already running.
	return "tracker\n", "", nil
}

func (f *fakeRemote) RunSudo(ctx context.Context, cmd string) (string, string, error) {
	return f.Run(ctx, "sudo -n "+cmd)
}

func (f *fakeRemote) WaitForConnectivity(ctx context.Context, timeout, interval time.Duration) error {
	return f.op("wait-connectivity")
}

func (f *fakeRemote) WaitForCloudInit(ctx context.Context) error { return f.op("wait-cloud-init") }

func (f *fakeRemote) UploadDirectory(ctx context.Context, localDir, remoteDir string) error {
	f.calls = append(f.calls, "upload:"+remoteDir)
	if f.failOn == "upload" {
		return fmt.Errorf("ssh upload failed")
	}
	return nil
}

// renderCall records one renderer invocation: which artifact set, into which
// directory, and the environment snapshot it rendered from.
type renderCall struct {
	kind string
	dest string
	env  environment.Any
}

type fakeRenderer struct {
	failOn string
	calls  []renderCall
}

func (f *fakeRenderer) render(kind string, a environment.Any, dest string) error {
	f.calls = append(f.calls, renderCall{kind: kind, dest: dest, env: a})
	if f.failOn == kind {
		return fmt.Errorf("rendering %s failed", kind)
	}
	return nil
}

func (f *fakeRenderer) RenderTofu(a environment.Any, dest string) error {
	return f.render("tofu", a, dest)
}

func (f *fakeRenderer) RenderAnsible(a environment.Any, dest string) error {
	return f.render("ansible", a, dest)
}

func (f *fakeRenderer) RenderCompose(a environment.Any, dest string) error {
	return f.render("compose", a, dest)
}

// fakeTraceWriter captures failure trace entries instead of writing files.
type fakeTraceWriter struct {
	entries []trace.Entry
}

func (f *fakeTraceWriter) Write(entry trace.Entry) (string, error) {
	f.entries = append(f.entries, entry)
	return fmt.Sprintf("/traces/%s.log", entry.TraceID), nil
}

// fakeRunStore is an in-memory RunStore.
type fakeRunStore struct {
	mu     sync.Mutex
	runs   map[string]*stores.DeploymentRun
	events []*stores.StepEvent
	nextID int64
}

func newFakeRunStore() *fakeRunStore {
	return &fakeRunStore{runs: make(map[string]*stores.DeploymentRun)}
}

func (f *fakeRunStore) Init(ctx context.Context) error        { return nil }
func (f *fakeRunStore) Close() error                          { return nil }
func (f *fakeRunStore) Migrate(ctx context.Context) error     { return nil }
func (f *fakeRunStore) HealthCheck(ctx context.Context) error { return nil }

func (f *fakeRunStore) CreateRun(ctx context.Context, run *stores.DeploymentRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	cp := *run
	f.runs[run.ID] = &cp
	return nil
}

func (f *fakeRunStore) CompleteRun(ctx context.Context, id string, status stores.RunStatus, failedStep, errMsg *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[id]
	if !ok {
		return stores.ErrRunNotFound
	}
	now := time.Now()
	run.Status = status
	run.CompletedAt = &now
	run.FailedStep = failedStep
	run.Error = errMsg
	return nil
}

func (f *fakeRunStore) GetRun(ctx context.Context, id string) (*stores.DeploymentRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	run, ok := f.runs[id]
	if !ok {
		return nil, stores.ErrRunNotFound
	}
	cp := *run
	return &cp, nil
}

func (f *fakeRunStore) ListRunsByEnvironment(ctx context.Context, env string, limit, offset int) ([]*stores.DeploymentRun, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*stores.DeploymentRun
	for _, run := range f.runs {
		if run.Environment == env {
			cp := *run
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (f *fakeRunStore) DeleteRunsByEnvironment(ctx context.Context, env string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for id, run := range f.runs {
		if run.Environment == env {
			delete(f.runs, id)
			n++
		}
	}
	return n, nil
}

func (f *fakeRunStore) AppendStepEvent(ctx context.Context, event *stores.StepEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	cp := *event
	cp.ID = f.nextID
	f.events = append(f.events, &cp)
	return nil
}

func (f *fakeRunStore) ListStepEvents(ctx context.Context, runID string) ([]*stores.StepEvent, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*stores.StepEvent
	for _, ev := range f.events {
		if ev.RunID == runID {
			cp := *ev
			out = append(out, &cp)
		}
	}
	return out, nil
}
