package settings

import "strings"

// Environment is the mode the application server runs in.
type Environment string

const (
	Production  Environment = "production"
	Development Environment = "development"
	Test        Environment = "test"
)

// ParseEnvironment validates a mode name.
func ParseEnvironment(raw string) (Environment, error) {
	switch env := Environment(strings.ToLower(strings.TrimSpace(raw))); env {
	case Production, Development, Test:
		return env, nil
	default:
		return "", &UnknownEnvironmentError{Value: raw}
	}
}

func (e Environment) String() string {
	return string(e)
}

// ServerSettings is the deployment descriptor handed to the application
// server at startup. It is never modified after Build returns it.
type ServerSettings struct {
	Environment   Environment `yaml:"environment" json:"environment"`
	Daemonize     bool        `yaml:"daemonize" json:"daemonize"`
	PIDFilePath   string      `yaml:"pidfile" json:"pidfile"`
	StatePath     string      `yaml:"state_path" json:"state_path"`
	StdoutLogPath string      `yaml:"stdout_redirect" json:"stdout_redirect"`
	StderrLogPath string      `yaml:"stderr_redirect" json:"stderr_redirect"`
	MinThreads    int         `yaml:"min_threads" json:"min_threads"`
	MaxThreads    int         `yaml:"max_threads" json:"max_threads"`
	Workers       int         `yaml:"workers,omitempty" json:"workers,omitempty"`
	BindAddress   string      `yaml:"bind" json:"bind"`
}

// Host returns the host part of the bind address, or "" when unset.
func (s ServerSettings) Host() string {
	host, _ := splitBind(s.BindAddress)
	return host
}

// Port returns the port part of the bind address, or "" when unset.
func (s ServerSettings) Port() string {
	_, port := splitBind(s.BindAddress)
	return port
}

// bindURI renders tcp://host:port without normalising either part.
func bindURI(host, port string) string {
	return bindScheme + "://" + host + ":" + port
}

func splitBind(address string) (string, string) {
	rest, ok := strings.CutPrefix(address, bindScheme+"://")
	if !ok {
		return "", ""
	}
	i := strings.LastIndexByte(rest, ':')
	if i < 0 {
		return rest, ""
	}
	return rest[:i], rest[i+1:]
}
