package environ

import (
	"fmt"
	"os"
	"sort"

	"github.com/joho/godotenv"
)

// Variables recognised by the Puma settings descriptor. The hosting platform
// exports them into every gear running the Ruby cartridge.
const (
	ServerPID = "OPENSHIFT_RUBY_SERVER_PID"
	RubyDir   = "OPENSHIFT_RUBY_DIR"
	LogDir    = "OPENSHIFT_RUBY_LOG_DIR"
	IP        = "OPENSHIFT_RUBY_IP"
	Port      = "OPENSHIFT_RUBY_PORT"
)

// Variables returns the recognised variable names in a stable order.
func Variables() []string {
	return []string{ServerPID, RubyDir, LogDir, IP, Port}
}

// Source resolves environment variables by name.
type Source interface {
	Lookup(name string) (string, bool)
}

// Map is an in-memory Source. A nil Map behaves as an empty environment.
type Map map[string]string

// Lookup implements Source.
func (m Map) Lookup(name string) (string, bool) {
	value, ok := m[name]
	return value, ok
}

// Names returns the defined variable names sorted alphabetically.
func (m Map) Names() []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type osSource struct{}

// OS returns a Source backed by the process environment.
func OS() Source {
	return osSource{}
}

func (osSource) Lookup(name string) (string, bool) {
	return os.LookupEnv(name)
}

// ReadDotEnv parses a dotenv file into a Map. The process environment is
// left untouched.
func ReadDotEnv(path string) (Map, error) {
	values, err := godotenv.Read(path)
	if err != nil {
		return nil, fmt.Errorf("read env file %s: %w", path, err)
	}
	return Map(values), nil
}

type layered []Source

// Layered combines sources; the first source defining a name wins.
func Layered(sources ...Source) Source {
	out := make(layered, 0, len(sources))
	for _, src := range sources {
		if src != nil {
			out = append(out, src)
		}
	}
	return out
}

func (l layered) Lookup(name string) (string, bool) {
	for _, src := range l {
		if value, ok := src.Lookup(name); ok {
			return value, true
		}
	}
	return "", false
}

// Snapshot copies the recognised variables defined in src into a Map.
func Snapshot(src Source) Map {
	out := make(Map, len(Variables()))
	for _, name := range Variables() {
		if value, ok := src.Lookup(name); ok {
			out[name] = value
		}
	}
	return out
}
