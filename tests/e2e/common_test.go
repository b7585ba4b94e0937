package main_test

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
	"time"
)

var tablesideBinaryPath string
var tablesideBinaryDir string

var (
	scriptTUISupported      = true
	scriptTUIDisabledReason string
)

func TestMain(m *testing.M) {
	os.Setenv("TABLESIDE_METRICS", "0")
	os.Unsetenv("TABLESIDE_DEBUG")

	// Build the binary once for all tests
	if err := buildOnce(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to build tableside binary: %v\n", err)
		os.Exit(1)
	}

	scriptTUISupported, scriptTUIDisabledReason = detectScriptTUICapability(tablesideBinaryPath)

	code := m.Run()
	if tablesideBinaryDir != "" {
		_ = os.RemoveAll(tablesideBinaryDir)
	}
	os.Exit(code)
}

func detectScriptTUICapability(binPath string) (bool, string) {
	if _, err := exec.LookPath("script"); err != nil {
		return false, "script command not available"
	}
	if runtime.GOOS != "linux" && runtime.GOOS != "darwin" {
		return false, "script TUI harness unsupported on this OS"
	}
	if binPath == "" {
		return false, "tableside binary path is empty"
	}

	tempDir, err := os.MkdirTemp("", "tableside-e2e-tui-cap-*")
	if err != nil {
		return false, fmt.Sprintf("failed to create temp dir: %v", err)
	}
	defer func() { _ = os.RemoveAll(tempDir) }()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cmd := scriptTUICommand(ctx, binPath, "--no-training")
	if cmd == nil {
		return false, "script command unavailable"
	}
	cmd.Dir = tempDir
	cmd.Env = append(isolatedEnv(tempDir),
		"TERM=xterm-256color",
		"TABLESIDE_TUI_AUTOCLOSE_MS=250",
	)

	if out, err := cmd.CombinedOutput(); err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return false, "tableside did not auto-exit under script (PTY/CI mismatch)"
		}
		return false, fmt.Sprintf("script TUI run failed: %v\n%s", err, out)
	}
	return true, ""
}

func buildOnce() error {
	tempDir, err := os.MkdirTemp("", "tableside-e2e-build-*")
	if err != nil {
		return err
	}
	tablesideBinaryDir = tempDir

	binName := "tableside"
	if runtime.GOOS == "windows" {
		binName += ".exe"
	}
	binPath := filepath.Join(tempDir, binName)

	cmd := exec.Command("go", "build", "-o", binPath, "../../cmd/tableside")
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("go build failed: %v\n%s", err, out)
	}

	tablesideBinaryPath = binPath
	return nil
}

// binary returns the path to the pre-built binary.
func binary(t *testing.T) string {
	t.Helper()
	if tablesideBinaryPath == "" {
		t.Fatal("tableside binary not built")
	}
	return tablesideBinaryPath
}

// isolatedEnv points every XDG directory below dir.
func isolatedEnv(dir string) []string {
	return append(os.Environ(),
		"XDG_CONFIG_HOME="+filepath.Join(dir, "config"),
		"XDG_DATA_HOME="+filepath.Join(dir, "data"),
		"XDG_STATE_HOME="+filepath.Join(dir, "state"),
	)
}

// run executes the binary with an isolated environment and returns its
// combined output.
func run(t *testing.T, env string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(binary(t), args...)
	cmd.Dir = env
	cmd.Env = isolatedEnv(env)
	out, err := cmd.CombinedOutput()
	return string(out), err
}

// skipIfNoScript skips the test if the script command is unavailable.
func skipIfNoScript(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("script"); err != nil {
		t.Skip("skipping: script command not available")
	}
	if !scriptTUISupported {
		if scriptTUIDisabledReason != "" {
			t.Skipf("skipping: %s", scriptTUIDisabledReason)
		}
		t.Skip("skipping: script-based TUI harness unavailable")
	}
}

// scriptTUICommand creates an exec.Cmd that runs the binary under `script`
// to provide a pseudo-TTY for TUI tests.
func scriptTUICommand(ctx context.Context, binPath string, args ...string) *exec.Cmd {
	if _, err := exec.LookPath("script"); err != nil {
		return nil
	}

	switch runtime.GOOS {
	case "darwin":
		scriptArgs := []string{"-q", "/dev/null", binPath}
		scriptArgs = append(scriptArgs, args...)
		return exec.CommandContext(ctx, "script", scriptArgs...)

	case "linux":
		cmdStr := binPath
		for _, arg := range args {
			if strings.ContainsAny(arg, " \t") {
				cmdStr += " \"" + arg + "\""
			} else {
				cmdStr += " " + arg
			}
		}
		return exec.CommandContext(ctx, "script", "-q", "-e", "-f", "-c", cmdStr, "/dev/null")

	default:
		return nil
	}
}
