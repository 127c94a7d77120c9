package main

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func setGearEnv(t *testing.T) {
	t.Helper()

	t.Setenv("OPENSHIFT_RUBY_SERVER_PID", "/gear/ruby/run/puma.pid")
	t.Setenv("OPENSHIFT_RUBY_DIR", "/gear/ruby/")
	t.Setenv("OPENSHIFT_RUBY_LOG_DIR", "/gear/ruby/logs")
	t.Setenv("OPENSHIFT_RUBY_IP", "127.3.4.5")
	t.Setenv("OPENSHIFT_RUBY_PORT", "8080")
	t.Setenv("PUMACONF_FORMAT", "")
	t.Setenv("PUMACONF_STRICT", "")
	t.Setenv("PUMACONF_OUTPUT", "")
	t.Setenv("PUMACONF_ENV_FILE", "")
	t.Setenv("PUMACONF_LOG_LEVEL", "")
}

func TestRunRendersPumaConfig(t *testing.T) {
	setGearEnv(t)

	var out bytes.Buffer
	if err := run([]string{"--log-level", "error"}, &out); err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	for _, line := range []string{
		"environment 'production'",
		"daemonize",
		`state_path "/gear/ruby/run/server.state"`,
		"threads 0, 4",
		`bind "tcp://127.3.4.5:8080"`,
	} {
		if !strings.Contains(out.String(), line+"\n") {
			t.Fatalf("expected line %q in output:\n%s", line, out.String())
		}
	}
}

func TestRunFlagOverrides(t *testing.T) {
	setGearEnv(t)

	path := filepath.Join(t.TempDir(), "settings.json")
	args := []string{
		"--format", "json",
		"--output", path,
		"--max-threads", "8",
		"--workers", "2",
		"--log-level", "error",
	}
	if err := run(args, &bytes.Buffer{}); err != nil {
		t.Fatalf("run returned error: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	for _, fragment := range []string{`"max_threads": 8`, `"workers": 2`, `"bind": "tcp://127.3.4.5:8080"`} {
		if !strings.Contains(string(data), fragment) {
			t.Fatalf("expected %s in output:\n%s", fragment, data)
		}
	}
}

func TestRunStrictFailsWithoutEnvironment(t *testing.T) {
	setGearEnv(t)
	t.Setenv("OPENSHIFT_RUBY_PORT", "")

	if err := run([]string{"--strict", "--log-level", "error"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected strict run to fail")
	}
}

func TestRunRejectsUnknownFlag(t *testing.T) {
	setGearEnv(t)

	if err := run([]string{"--bogus"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected error for unknown flag")
	}
}

func TestRunNoStrictOverridesEnvironment(t *testing.T) {
	setGearEnv(t)
	t.Setenv("PUMACONF_STRICT", "true")
	t.Setenv("OPENSHIFT_RUBY_PORT", "")

	if err := run([]string{"--log-level", "error"}, &bytes.Buffer{}); err == nil {
		t.Fatalf("expected PUMACONF_STRICT to make the run fail")
	}
	if err := run([]string{"--no-strict", "--log-level", "error"}, &bytes.Buffer{}); err != nil {
		t.Fatalf("expected --no-strict to win over PUMACONF_STRICT, got %v", err)
	}
}

func TestRunRejectsArgumentsAfterTerminator(t *testing.T) {
	setGearEnv(t)
	t.Setenv("OPENSHIFT_RUBY_PORT", "")

	err := run([]string{"--log-level", "error", "--", "--strict"}, &bytes.Buffer{})
	if err == nil {
		t.Fatalf("expected unexpected-argument error")
	}
	var logged loggedError
	if errors.As(err, &logged) {
		t.Fatalf("parse errors must not be marked as logged: %v", err)
	}
}

func TestRunMarksLoggedFailures(t *testing.T) {
	setGearEnv(t)
	t.Setenv("OPENSHIFT_RUBY_PORT", "")

	err := run([]string{"--strict", "--log-level", "error"}, &bytes.Buffer{})
	var logged loggedError
	if !errors.As(err, &logged) {
		t.Fatalf("expected failure reported through the logger, got %v", err)
	}

	err = run([]string{"--max-threads", "0"}, &bytes.Buffer{})
	if err == nil || errors.As(err, &logged) {
		t.Fatalf("configuration errors occur before the logger exists, got %v", err)
	}
}
