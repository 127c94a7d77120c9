package render

import (
	"bytes"
	"encoding/json"
	"errors"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/jay2u/expert-ruby-cartridge/internal/environ"
	"github.com/jay2u/expert-ruby-cartridge/internal/settings"
)

func sampleSettings(t *testing.T) settings.ServerSettings {
	t.Helper()

	s, err := settings.Build(environ.Map{
		environ.ServerPID: "/var/lib/openshift/app/ruby/run/puma.pid",
		environ.RubyDir:   "/var/lib/openshift/app/ruby/",
		environ.LogDir:    "/var/lib/openshift/app/ruby/logs",
		environ.IP:        "127.8.1.1",
		environ.Port:      "8080",
	})
	if err != nil {
		t.Fatalf("Build returned error: %v", err)
	}
	return s
}

func TestRenderPuma(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Render(&buf, sampleSettings(t), FormatPuma); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	want := strings.Join([]string{
		`environment 'production'`,
		`daemonize`,
		`pidfile "/var/lib/openshift/app/ruby/run/puma.pid"`,
		`state_path "/var/lib/openshift/app/ruby/run/server.state"`,
		`stdout_redirect "/var/lib/openshift/app/ruby/logs/puma_stdout.log", "/var/lib/openshift/app/ruby/logs/puma_stderr.log"`,
		`threads 0, 4`,
		`bind "tcp://127.8.1.1:8080"`,
	}, "\n") + "\n"

	if got := buf.String(); got != want {
		t.Fatalf("unexpected puma config:\n%s\nwant:\n%s", got, want)
	}
}

func TestRenderPumaWorkersAndForeground(t *testing.T) {
	t.Parallel()

	s := sampleSettings(t)
	s.Workers = 2
	s.Daemonize = false

	var buf bytes.Buffer
	if err := Render(&buf, s, FormatPuma); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "workers 2\n") {
		t.Fatalf("expected workers directive, got:\n%s", out)
	}
	if !strings.Contains(out, "daemonize false\n") {
		t.Fatalf("expected daemonize false, got:\n%s", out)
	}
}

func TestRenderPumaEscapesValues(t *testing.T) {
	t.Parallel()

	s := sampleSettings(t)
	s.PIDFilePath = `/tmp/#{evil}"quote\`

	var buf bytes.Buffer
	if err := Render(&buf, s, FormatPuma); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}
	if want := `pidfile "/tmp/\#{evil}\"quote\\"`; !strings.Contains(buf.String(), want) {
		t.Fatalf("expected escaped literal %s, got:\n%s", want, buf.String())
	}
}

func TestRenderYAML(t *testing.T) {
	t.Parallel()

	want := sampleSettings(t)
	var buf bytes.Buffer
	if err := Render(&buf, want, FormatYAML); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	var got settings.ServerSettings
	if err := yaml.Unmarshal(buf.Bytes(), &got); err != nil {
		t.Fatalf("output is not valid YAML: %v", err)
	}
	if got != want {
		t.Fatalf("yaml mismatch:\n got  %+v\n want %+v", got, want)
	}
	if strings.Contains(buf.String(), "workers") {
		t.Fatalf("zero workers should be omitted:\n%s", buf.String())
	}
}

func TestRenderJSON(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	if err := Render(&buf, sampleSettings(t), FormatJSON); err != nil {
		t.Fatalf("Render returned error: %v", err)
	}

	var payload map[string]any
	if err := json.Unmarshal(buf.Bytes(), &payload); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if payload["bind"] != "tcp://127.8.1.1:8080" {
		t.Fatalf("unexpected bind: %v", payload["bind"])
	}
	if payload["max_threads"] != float64(4) {
		t.Fatalf("unexpected max_threads: %v", payload["max_threads"])
	}
}

func TestParseFormat(t *testing.T) {
	t.Parallel()

	tests := map[string]Format{
		"puma": FormatPuma,
		"RB":   FormatPuma,
		"yml":  FormatYAML,
		"yaml": FormatYAML,
		"json": FormatJSON,
	}
	for raw, want := range tests {
		got, err := ParseFormat(raw)
		if err != nil {
			t.Fatalf("ParseFormat(%q) returned error: %v", raw, err)
		}
		if got != want {
			t.Fatalf("ParseFormat(%q) = %s, want %s", raw, got, want)
		}
	}

	if _, err := ParseFormat("toml"); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}

func TestRenderUnknownFormat(t *testing.T) {
	t.Parallel()

	if err := Render(&bytes.Buffer{}, sampleSettings(t), Format("xml")); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("expected ErrUnknownFormat, got %v", err)
	}
}
