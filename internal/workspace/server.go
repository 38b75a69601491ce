package workspace

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/cenkalti/backoff/v5"

	perrors "skyreport/internal/errors"
)

// ProbeFunc reports whether the server accepts connections at address.
type ProbeFunc func(ctx context.Context, address string) error

// TCPProbe dials address once.
func TCPProbe(ctx context.Context, address string) error {
	d := net.Dialer{Timeout: time.Second}
	conn, err := d.DialContext(ctx, "tcp", address)
	if err != nil {
		return err
	}
	return conn.Close()
}

// ServerHandle owns a running server process.
type ServerHandle struct {
	cmd  *exec.Cmd
	done chan struct{}

	mu      sync.Mutex
	waitErr error
	stopped bool
}

func newServerHandle(cmd *exec.Cmd) *ServerHandle {
	h := &ServerHandle{cmd: cmd, done: make(chan struct{})}
	go func() {
		err := cmd.Wait()
		h.mu.Lock()
		h.waitErr = err
		h.mu.Unlock()
		close(h.done)
	}()
	return h
}

// Pid returns the process id of the server.
func (h *ServerHandle) Pid() int {
	return h.cmd.Process.Pid
}

// Exited reports whether the process has terminated.
func (h *ServerHandle) Exited() bool {
	select {
	case <-h.done:
		return true
	default:
		return false
	}
}

func (h *ServerHandle) exitErr() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.waitErr
}

// stop interrupts the process, then kills it if it is still alive after
// grace. It reports whether it did anything.
func (h *ServerHandle) stop(grace time.Duration) (bool, error) {
	h.mu.Lock()
	if h.stopped {
		h.mu.Unlock()
		return false, nil
	}
	h.stopped = true
	h.mu.Unlock()

	if h.Exited() {
		return true, nil
	}

	if err := h.cmd.Process.Signal(os.Interrupt); err != nil && !errors.Is(err, os.ErrProcessDone) {
		if kerr := h.cmd.Process.Kill(); kerr != nil && !errors.Is(kerr, os.ErrProcessDone) {
			return true, fmt.Errorf("failed to kill server: %w", kerr)
		}
		<-h.done
		return true, nil
	}

	select {
	case <-h.done:
		return true, nil
	case <-time.After(grace):
	}

	if err := h.cmd.Process.Kill(); err != nil && !errors.Is(err, os.ErrProcessDone) {
		return true, fmt.Errorf("failed to kill server: %w", err)
	}
	<-h.done
	return true, nil
}

// StartServer launches the server binary from the build output and waits
// until it accepts TCP connections.
func (o *Orchestrator) StartServer(ctx context.Context) (*ServerHandle, error) {
	if err := o.expect("start server", StateBuilt); err != nil {
		return nil, err
	}
	defer o.timePhase("server_start")()

	cmd := exec.Command(o.artifact(o.opts.ServerBinary), o.opts.ServerArgs...)
	cmd.Dir = o.dir
	cmd.Env = o.env()
	cmd.Stdout = o.opts.Stdout
	cmd.Stderr = o.opts.Stderr

	o.logger.Info("starting server", "binary", o.opts.ServerBinary, "args", o.opts.ServerArgs)
	if err := cmd.Start(); err != nil {
		return nil, perrors.Process("start server", err)
	}
	h := newServerHandle(cmd)

	if err := o.waitReady(ctx, h); err != nil {
		if _, serr := h.stop(o.opts.StopTimeout); serr != nil {
			o.logger.Warn("failed to stop server", "error", perrors.Cleanup("stop server", serr))
		}
		return nil, perrors.Process("wait for server", err)
	}

	o.logger.Info("server ready", "pid", h.Pid(), "address", o.opts.ServerAddress)
	o.handle = h
	o.state = StateServerRunning
	return h, nil
}

func (o *Orchestrator) waitReady(ctx context.Context, h *ServerHandle) error {
	probe := o.probe
	if probe == nil {
		probe = TCPProbe
	}

	ctx, cancel := context.WithTimeout(ctx, o.opts.ReadyTimeout)
	defer cancel()

	op := func() (struct{}, error) {
		if h.Exited() {
			return struct{}{}, backoff.Permanent(fmt.Errorf("server exited before becoming ready: %v", h.exitErr()))
		}
		return struct{}{}, probe(ctx, o.opts.ServerAddress)
	}

	_, err := backoff.Retry(ctx, op,
		backoff.WithBackOff(backoff.NewConstantBackOff(o.opts.ProbeInterval)),
		backoff.WithMaxElapsedTime(o.opts.ReadyTimeout),
		backoff.WithNotify(func(err error, next time.Duration) {
			o.logger.Debug("server not ready", "error", err, "retry_in", next)
		}),
	)
	if err != nil {
		return fmt.Errorf("server not ready at %s after %s: %w", o.opts.ServerAddress, o.opts.ReadyTimeout, err)
	}
	return nil
}

// StopServer terminates the server. It is safe to call more than once and
// with a nil handle. Failures are logged, never returned.
func (o *Orchestrator) StopServer(h *ServerHandle) {
	if h == nil {
		return
	}
	acted, err := h.stop(o.opts.StopTimeout)
	if err != nil {
		o.logger.Warn("failed to stop server", "error", perrors.Cleanup("stop server", err))
	}
	if acted {
		o.logger.Info("server stopped", "pid", h.Pid())
	}
	if o.state == StateServerRunning || o.state == StateBenchmarkComplete {
		o.state = StateServerStopped
	}
	if o.handle == h {
		o.handle = nil
	}
}
