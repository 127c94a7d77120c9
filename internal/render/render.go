package render

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/jay2u/expert-ruby-cartridge/internal/settings"
)

// Format names an output representation of the server settings.
type Format string

const (
	FormatPuma Format = "puma"
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// ErrUnknownFormat is returned for unsupported format names.
var ErrUnknownFormat = errors.New("unknown output format")

// Formats lists the supported formats.
func Formats() []Format {
	return []Format{FormatPuma, FormatYAML, FormatJSON}
}

// ParseFormat validates a format name. "rb" and "yml" are accepted aliases.
func ParseFormat(raw string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "puma", "rb", "ruby":
		return FormatPuma, nil
	case "yaml", "yml":
		return FormatYAML, nil
	case "json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w %q", ErrUnknownFormat, raw)
	}
}

// Render writes s to w in the requested format.
func Render(w io.Writer, s settings.ServerSettings, f Format) error {
	switch f {
	case FormatPuma:
		return writePuma(w, s)
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}
		return enc.Close()
	case FormatJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		if err := enc.Encode(s); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
		return nil
	default:
		return fmt.Errorf("%w %q", ErrUnknownFormat, string(f))
	}
}

// writePuma emits the Puma configuration DSL understood by `puma -C`.
func writePuma(w io.Writer, s settings.ServerSettings) error {
	bw := bufio.NewWriter(w)

	fmt.Fprintf(bw, "environment '%s'\n", s.Environment)
	if s.Daemonize {
		fmt.Fprintln(bw, "daemonize")
	} else {
		fmt.Fprintln(bw, "daemonize false")
	}
	fmt.Fprintf(bw, "pidfile %s\n", rubyString(s.PIDFilePath))
	fmt.Fprintf(bw, "state_path %s\n", rubyString(s.StatePath))
	fmt.Fprintf(bw, "stdout_redirect %s, %s\n", rubyString(s.StdoutLogPath), rubyString(s.StderrLogPath))
	fmt.Fprintf(bw, "threads %d, %d\n", s.MinThreads, s.MaxThreads)
	if s.Workers > 0 {
		fmt.Fprintf(bw, "workers %d\n", s.Workers)
	}
	fmt.Fprintf(bw, "bind %s\n", rubyString(s.BindAddress))

	if err := bw.Flush(); err != nil {
		return fmt.Errorf("write puma config: %w", err)
	}
	return nil
}

var rubyEscaper = strings.NewReplacer(
	`\`, `\\`,
	`"`, `\"`,
	`#`, `\#`,
	"\n", `\n`,
	"\t", `\t`,
)

// rubyString quotes value as a double-quoted Ruby literal with interpolation
// disabled.
func rubyString(value string) string {
	return `"` + rubyEscaper.Replace(value) + `"`
}
