package main

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"creditdesk/internal/config"
	"creditdesk/internal/domain"
)

// writeTestConfig writes a config that needs no external services: local
// provider, in-memory stores, random port.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	cfg := config.Default()
	cfg.Gateway.Port = 0
	cfg.Model = domain.ModelConfig{Provider: "local"}
	cfg.Store.PendingPath = ""
	path := filepath.Join(t.TempDir(), "creditdesk.json")
	if err := config.Save(path, cfg); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestBuildMeta_String_ShouldIncludeNameVersionAndPlatform(t *testing.T) {
	bm := newBuildMeta("1.2.3", "linux", "amd64")
	if got := bm.String(); got != "creditdesk 1.2.3 linux/amd64" {
		t.Errorf("got %q", got)
	}
}

func TestNewBuildMeta_WhenGoosEmpty_ShouldUseRuntime(t *testing.T) {
	bm := newBuildMeta("dev", "", "")
	if bm.GoOS == "" || bm.GoArch == "" {
		t.Errorf("platform should default from runtime: %+v", bm)
	}
}

func TestRootCommand_VersionFlag_ShouldPrintBuildMeta(t *testing.T) {
	root := newRootCommand(newBuildMeta("9.9.9", "linux", "amd64"))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--version"})

	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "creditdesk 9.9.9") {
		t.Errorf("output: %q", out.String())
	}
}

func TestCheck_WhenConfigMissing_ShouldExitNonZero(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope.json")
	code := runApp([]string{"creditdesk", "check", "--config", missing})
	if code == 0 {
		t.Error("missing config without --fix should fail")
	}
}

func TestCheck_WithFix_ShouldWriteDefaultConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "creditdesk.json")
	code := runApp([]string{"creditdesk", "check", "--fix", "--config", path})
	if code != 0 {
		t.Fatalf("exit code: got %d", code)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("config file missing: %v", err)
	}
	if _, err := config.Load(path); err != nil {
		t.Errorf("written config should load: %v", err)
	}
}

func TestCheck_WhenConfigValid_ShouldPass(t *testing.T) {
	path := writeTestConfig(t)
	code := runApp([]string{"creditdesk", "check", "--config", path})
	if code != 0 {
		t.Errorf("exit code: got %d", code)
	}
}

func TestAsk_ShouldPrintNonEmptyAnswer(t *testing.T) {
	path := writeTestConfig(t)
	root := newRootCommand(newBuildMeta("dev", "", ""))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"ask", "--config", path, "--session", "t1", "hello there"})

	if err := root.Execute(); err != nil {
		t.Fatal(err)
	}
	if strings.TrimSpace(out.String()) == "" {
		t.Error("ask should print an answer")
	}
}

func TestDaemon_ShouldBindAndShutdownViaChannel(t *testing.T) {
	path := writeTestConfig(t)

	shutdown := make(chan struct{})
	close(shutdown)
	orig := daemonShutdownCh
	daemonShutdownCh = shutdown
	defer func() { daemonShutdownCh = orig }()

	root := newRootCommand(newBuildMeta("dev", "", ""))
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetArgs([]string{"--config", path})

	if err := root.Execute(); err != nil {
		t.Fatalf("daemon: %v", err)
	}
	if !strings.Contains(out.String(), "ready.") {
		t.Errorf("output: %q", out.String())
	}
	if gatewayServerForTest == nil || gatewayServerForTest.Addr() == "" {
		t.Error("gateway should have bound")
	}
}

func TestConfigPath_ShouldPreferFlagThenEnvThenDefault(t *testing.T) {
	root := newRootCommand(newBuildMeta("dev", "", ""))
	if err := root.PersistentFlags().Set("config", "/tmp/from-flag.json"); err != nil {
		t.Fatal(err)
	}
	if got := configPath(root); got != "/tmp/from-flag.json" {
		t.Errorf("flag: got %q", got)
	}

	root = newRootCommand(newBuildMeta("dev", "", ""))
	t.Setenv("CREDITDESK_CONFIG", "/tmp/from-env.json")
	if got := configPath(root); got != "/tmp/from-env.json" {
		t.Errorf("env: got %q", got)
	}

	t.Setenv("CREDITDESK_CONFIG", "")
	if got := configPath(root); got != "creditdesk.json" {
		t.Errorf("default: got %q", got)
	}
}

func TestNewLogger_ShouldHonorLevelAndFormat(t *testing.T) {
	for _, infra := range []domain.InfraConfig{
		{LogFormat: "json", LogLevel: "debug"},
		{LogFormat: "text", LogLevel: "warn"},
		{LogFormat: "", LogLevel: ""},
	} {
		if logger := newLogger(infra); logger == nil {
			t.Errorf("nil logger for %+v", infra)
		}
	}
}

func TestExitCodeErr_ShouldCarryCode(t *testing.T) {
	err := exitCodeErr(2)
	if err.ExitCode() != 2 {
		t.Errorf("code: got %d", err.ExitCode())
	}
	if err.Error() != "exit 2" {
		t.Errorf("message: got %q", err.Error())
	}
}

func TestRunApp_WhenUnknownCommand_ShouldReturnOne(t *testing.T) {
	if code := runApp([]string{"creditdesk", "definitely-not-a-command"}); code != 1 {
		t.Errorf("exit code: got %d", code)
	}
}
