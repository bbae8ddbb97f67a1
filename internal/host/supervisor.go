package host

import (
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"sync"
	"time"

	"github.com/phayes/freeport"
)

// spawnExitWindow is how long start watches a freshly spawned process for an
// immediate exit before declaring the spawn successful.
const spawnExitWindow = 100 * time.Millisecond

// allocatePort reserves a free local TCP port for the runtime host process.
func allocatePort() (int, error) {
	port, err := freeport.GetFreePort()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrPortAllocation, err)
	}
	return port, nil
}

// supervisor exclusively owns one runtime host process handle: it spawns the
// process and guarantees termination on shutdown.
type supervisor struct {
	command string // interpreter executable; empty means run the entry directly
	logger  *slog.Logger

	mu      sync.Mutex
	cmd     *exec.Cmd
	waitErr chan error
	stopped bool
}

func newSupervisor(command string, logger *slog.Logger) *supervisor {
	return &supervisor{command: command, logger: logger}
}

// start spawns the runtime host with the positional arguments the process
// contract requires: entry point, listen port, log directory.
func (s *supervisor) start(entry string, port int, logDir string) error {
	var cmd *exec.Cmd
	if s.command == "" {
		cmd = exec.Command(entry, strconv.Itoa(port), logDir)
	} else {
		cmd = exec.Command(s.command, entry, strconv.Itoa(port), logDir)
	}

	if err := cmd.Start(); err != nil {
		return &SpawnError{Entry: entry, Err: err}
	}

	waitErr := make(chan error, 1)
	go func() {
		waitErr <- cmd.Wait()
	}()

	// A host process that dies right away (bad entry, missing interpreter
	// deps) fails the start sequence instead of surfacing later as a
	// connect timeout.
	select {
	case err := <-waitErr:
		return &SpawnError{Entry: entry, Err: fmt.Errorf("process exited immediately: %s", exitDescription(cmd, err))}
	case <-time.After(spawnExitWindow):
	}

	s.mu.Lock()
	s.cmd = cmd
	s.waitErr = waitErr
	s.mu.Unlock()

	s.logger.Info("runtime host process spawned", "pid", cmd.Process.Pid, "port", port, "entry", entry)
	return nil
}

// stop forcefully terminates the process. Idempotent; safe to call whether
// or not start succeeded.
func (s *supervisor) stop() {
	s.mu.Lock()
	if s.stopped || s.cmd == nil {
		s.stopped = true
		s.mu.Unlock()
		return
	}
	s.stopped = true
	cmd, waitErr := s.cmd, s.waitErr
	s.mu.Unlock()

	if err := cmd.Process.Kill(); err != nil {
		s.logger.Debug("kill failed (process may have already exited)", "pid", cmd.Process.Pid, "error", err)
	}
	<-waitErr

	s.logger.Info("runtime host process stopped", "pid", cmd.Process.Pid)
}

// pid returns the spawned process id, or 0 before a successful start.
func (s *supervisor) pid() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil || s.cmd.Process == nil {
		return 0
	}
	return s.cmd.Process.Pid
}

func exitDescription(cmd *exec.Cmd, err error) string {
	if err != nil {
		return err.Error()
	}
	if cmd.ProcessState != nil {
		return cmd.ProcessState.String()
	}
	return "exit status unknown"
}
