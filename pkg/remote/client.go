package remote

import (
	"bytes"
	"context"
	"fmt"
	"net/netip"
	"os"
	"sync"
	"time"

	"golang.org/x/crypto/ssh"

	"github.com/trackerforge/trackerforge/pkg/environment"
)

// TransportError classifies an SSH operation failure. IsTemporary marks
// failures worth retrying (dial errors during boot); auth and configuration
// errors are not.
type TransportError struct {
	Op          string
	Err         error
	IsTemporary bool
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("ssh %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error { return e.Err }

// Client is an SSH connection to one instance.
type Client struct {
	addr   string
	user   string
	config *ssh.ClientConfig

	connMu sync.Mutex
	conn   *ssh.Client
}

// NewClient builds a client for the instance at ip from the environment's
// SSH credentials. The private key is read and parsed immediately so a
// missing or malformed key fails before any dialing starts.
func NewClient(creds environment.SSHCredentials, ip netip.Addr, port int) (*Client, error) {
	keyData, err := os.ReadFile(creds.PrivateKeyPath)
	if err != nil {
		return nil, &TransportError{Op: "load-key", Err: err}
	}
	signer, err := ssh.ParsePrivateKey(keyData)
	if err != nil {
		return nil, &TransportError{Op: "parse-key", Err: err}
	}

	return &Client{
		addr: fmt.Sprintf("%s:%d", ip, port),
		user: creds.Username,
		config: &ssh.ClientConfig{
			User: creds.Username,
			Auth: []ssh.AuthMethod{ssh.PublicKeys(signer)},
			// Instances are created fresh for each environment, so there is
			// no prior host key to pin.
			HostKeyCallback: ssh.InsecureIgnoreHostKey(),
			Timeout:         10 * time.Second,
		},
	}, nil
}

// Addr returns the target address in host:port form.
func (c *Client) Addr() string { return c.addr }

// Connect establishes the SSH connection. Calling Connect on a connected
// client is a no-op.
func (c *Client) Connect(ctx context.Context) error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn != nil {
		return nil
	}

	type dialResult struct {
		conn *ssh.Client
		err  error
	}
	resCh := make(chan dialResult, 1)
	go func() {
		conn, err := ssh.Dial("tcp", c.addr, c.config)
		resCh <- dialResult{conn: conn, err: err}
	}()

	select {
	case <-ctx.Done():
		// The dial keeps running after cancellation; close whatever it
		// eventually produces so the connection does not leak.
		go func() {
			if res := <-resCh; res.conn != nil {
				res.conn.Close()
			}
		}()
		return &TransportError{Op: "connect", Err: ctx.Err(), IsTemporary: true}
	case res := <-resCh:
		if res.err != nil {
			return &TransportError{Op: "connect", Err: res.err, IsTemporary: true}
		}
		c.conn = res.conn
		return nil
	}
}

// Close closes the connection. Closing a disconnected client is a no-op.
func (c *Client) Close() error {
	c.connMu.Lock()
	defer c.connMu.Unlock()

	if c.conn == nil {
		return nil
	}
	err := c.conn.Close()
	c.conn = nil
	if err != nil {
		return &TransportError{Op: "disconnect", Err: err}
	}
	return nil
}

func (c *Client) session() (*ssh.Session, error) {
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()

	if conn == nil {
		return nil, &TransportError{Op: "session", Err: fmt.Errorf("not connected")}
	}
	session, err := conn.NewSession()
	if err != nil {
		return nil, &TransportError{Op: "session", Err: err, IsTemporary: true}
	}
	return session, nil
}

// Run executes a command on the instance and returns its stdout and stderr.
func (c *Client) Run(ctx context.Context, cmd string) (string, string, error) {
	session, err := c.session()
	if err != nil {
		return "", "", err
	}
	defer session.Close()

	var stdout, stderr bytes.Buffer
	session.Stdout = &stdout
	session.Stderr = &stderr

	done := make(chan error, 1)
	go func() { done <- session.Run(cmd) }()

	select {
	case <-ctx.Done():
		// Best effort: the session close tears the command down with it.
		_ = session.Signal(ssh.SIGKILL)
		return stdout.String(), stderr.String(), &TransportError{Op: "run", Err: ctx.Err(), IsTemporary: true}
	case err := <-done:
		if err != nil {
			return stdout.String(), stderr.String(), &TransportError{Op: "run", Err: fmt.Errorf("%q: %w", cmd, err)}
		}
		return stdout.String(), stderr.String(), nil
	}
}

// RunSudo executes a command through sudo.
func (c *Client) RunSudo(ctx context.Context, cmd string) (string, string, error) {
	return c.Run(ctx, "sudo -n "+cmd)
}

// WaitForConnectivity polls until the instance accepts an SSH connection or
// the timeout elapses. It is the provision workflow's readiness gate after
// the instance boots.
func (c *Client) WaitForConnectivity(ctx context.Context, timeout, interval time.Duration) error {
	deadline := time.Now().Add(timeout)
	var lastErr error

	for time.Now().Before(deadline) {
		attemptCtx, cancel := context.WithTimeout(ctx, interval)
		err := c.Connect(attemptCtx)
		cancel()
		if err == nil {
			return nil
		}
		lastErr = err

		select {
		case <-ctx.Done():
			return &TransportError{Op: "wait-connectivity", Err: ctx.Err(), IsTemporary: true}
		case <-time.After(interval):
		}
	}

	return &TransportError{
		Op:          "wait-connectivity",
		Err:         fmt.Errorf("instance %s not reachable within %s: %w", c.addr, timeout, lastErr),
		IsTemporary: true,
	}
}

// WaitForCloudInit blocks until cloud-init reports completion on the
// instance. A non-zero exit from cloud-init means first boot provisioning
// failed and the instance is not safe to configure.
func (c *Client) WaitForCloudInit(ctx context.Context) error {
	_, stderr, err := c.Run(ctx, "cloud-init status --wait")
	if err != nil {
		return &TransportError{Op: "wait-cloud-init", Err: fmt.Errorf("%w: %s", err, stderr)}
	}
	return nil
}
