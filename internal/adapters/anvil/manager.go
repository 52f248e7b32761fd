package anvil

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/ethereum/go-ethereum/rpc"
	"github.com/trebuchet-org/treb-amm/internal/domain"
	"github.com/trebuchet-org/treb-amm/internal/usecase"
)

const (
	DefaultAnvilPort = "8545"
	// startupTimeout bounds the wait for a forking node to answer RPC
	startupTimeout = 60 * time.Second
)

// Manager runs anvil nodes as background processes tracked by pid files
type Manager struct {
	log          *slog.Logger
	pollInterval time.Duration
}

// NewManager creates a new anvil manager
func NewManager(log *slog.Logger) *Manager {
	return &Manager{
		log:          log.With("component", "AnvilManager"),
		pollInterval: 250 * time.Millisecond,
	}
}

// buildAnvilArgs returns the command line of instance
func buildAnvilArgs(instance *domain.AnvilInstance) []string {
	args := []string{"--port", instance.Port, "--host", "0.0.0.0"}
	if instance.ChainID != "" {
		args = append(args, "--chain-id", instance.ChainID)
	}
	if instance.ForkURL != "" {
		args = append(args, "--fork-url", instance.ForkURL)
	}
	return args
}

// setFilePaths fills defaults: name "anvil", the default port and pid/log files in the temp dir
func (m *Manager) setFilePaths(instance *domain.AnvilInstance) {
	if instance.Name == "" {
		instance.Name = "anvil"
	}
	if instance.Port == "" {
		instance.Port = DefaultAnvilPort
	}
	if instance.PidFile == "" {
		instance.PidFile = filepath.Join(os.TempDir(), fmt.Sprintf("treb-amm-%s.pid", instance.Name))
	}
	if instance.LogFile == "" {
		instance.LogFile = filepath.Join(os.TempDir(), fmt.Sprintf("treb-amm-%s.log", instance.Name))
	}
}

func rpcURL(instance *domain.AnvilInstance) string {
	return fmt.Sprintf("http://127.0.0.1:%s", instance.Port)
}

// Start launches anvil and waits until it answers RPC
func (m *Manager) Start(ctx context.Context, instance *domain.AnvilInstance) error {
	m.setFilePaths(instance)

	if pid, running := m.running(instance); running {
		return fmt.Errorf("anvil %s is already running (PID %d, pid file %s)", instance.Name, pid, instance.PidFile)
	}

	logFile, err := os.Create(instance.LogFile)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}
	defer logFile.Close()

	cmd := exec.Command("anvil", buildAnvilArgs(instance)...)
	cmd.Stdout = logFile
	cmd.Stderr = logFile

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("failed to start anvil: %w", err)
	}
	pid := cmd.Process.Pid
	go func() { _ = cmd.Wait() }()

	if err := os.WriteFile(instance.PidFile, []byte(strconv.Itoa(pid)), 0644); err != nil {
		_ = cmd.Process.Kill()
		return fmt.Errorf("failed to write PID file: %w", err)
	}
	m.log.Debug("anvil started", "name", instance.Name, "pid", pid, "port", instance.Port, "fork", instance.ForkURL)

	if err := m.waitHealthy(ctx, instance); err != nil {
		_ = m.Stop(context.Background(), instance)
		return fmt.Errorf("anvil %s did not become ready (see %s): %w", instance.Name, instance.LogFile, err)
	}
	return nil
}

func (m *Manager) waitHealthy(ctx context.Context, instance *domain.AnvilInstance) error {
	ctx, cancel := context.WithTimeout(ctx, startupTimeout)
	defer cancel()

	ticker := time.NewTicker(m.pollInterval)
	defer ticker.Stop()
	for {
		err := m.checkRPCHealth(ctx, instance)
		if err == nil {
			return nil
		}
		if _, running := m.running(instance); !running {
			return fmt.Errorf("process exited")
		}
		select {
		case <-ctx.Done():
			return err
		case <-ticker.C:
		}
	}
}

// Stop terminates the instance and removes its pid file
func (m *Manager) Stop(ctx context.Context, instance *domain.AnvilInstance) error {
	m.setFilePaths(instance)

	pid, running := m.running(instance)
	if !running {
		_ = os.Remove(instance.PidFile)
		return nil
	}

	process, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("failed to find process: %w", err)
	}
	if err := process.Signal(syscall.SIGTERM); err != nil {
		if err := process.Kill(); err != nil {
			return fmt.Errorf("failed to kill process: %w", err)
		}
	}

	if err := os.Remove(instance.PidFile); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove PID file: %w", err)
	}
	m.log.Debug("anvil stopped", "name", instance.Name, "pid", pid)
	return nil
}

// GetStatus reports whether the instance runs and answers RPC
func (m *Manager) GetStatus(ctx context.Context, instance *domain.AnvilInstance) (*domain.AnvilStatus, error) {
	m.setFilePaths(instance)

	status := &domain.AnvilStatus{LogFile: instance.LogFile}
	pid, running := m.running(instance)
	if !running {
		return status, nil
	}

	status.Running = true
	status.PID = pid
	status.RPCURL = rpcURL(instance)
	if err := m.checkRPCHealth(ctx, instance); err != nil {
		status.Error = err.Error()
	} else {
		status.RPCHealthy = true
	}
	return status, nil
}

// TakeSnapshot records the chain state and returns the snapshot id
func (m *Manager) TakeSnapshot(ctx context.Context, instance *domain.AnvilInstance) (string, error) {
	var id string
	if err := m.call(ctx, instance, &id, "evm_snapshot"); err != nil {
		return "", fmt.Errorf("evm_snapshot: %w", err)
	}
	return id, nil
}

// RevertSnapshot restores a snapshot; anvil consumes the snapshot on revert
func (m *Manager) RevertSnapshot(ctx context.Context, instance *domain.AnvilInstance, snapshotID string) error {
	var ok bool
	if err := m.call(ctx, instance, &ok, "evm_revert", snapshotID); err != nil {
		return fmt.Errorf("evm_revert: %w", err)
	}
	if !ok {
		return fmt.Errorf("evm_revert returned false for snapshot %s", snapshotID)
	}
	return nil
}

func (m *Manager) checkRPCHealth(ctx context.Context, instance *domain.AnvilInstance) error {
	var block hexutil.Uint64
	return m.call(ctx, instance, &block, "eth_blockNumber")
}

func (m *Manager) call(ctx context.Context, instance *domain.AnvilInstance, result interface{}, method string, args ...interface{}) error {
	if instance.Port == "" {
		instance.Port = DefaultAnvilPort
	}
	client, err := rpc.DialContext(ctx, rpcURL(instance))
	if err != nil {
		return err
	}
	defer client.Close()
	return client.CallContext(ctx, result, method, args...)
}

// running reads the pid file and probes the process with signal 0
func (m *Manager) running(instance *domain.AnvilInstance) (int, bool) {
	data, err := os.ReadFile(instance.PidFile)
	if err != nil {
		return 0, false
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil {
		return 0, false
	}
	process, err := os.FindProcess(pid)
	if err != nil {
		return 0, false
	}
	return pid, process.Signal(syscall.Signal(0)) == nil
}

var _ usecase.AnvilManager = (*Manager)(nil)
