package settings

import (
	"path"
	"strconv"
	"strings"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/jay2u/expert-ruby-cartridge/internal/environ"
)

const (
	bindScheme = "tcp"

	defaultMinThreads = 0
	defaultMaxThreads = 4

	stateFile  = "run/server.state"
	stdoutFile = "puma_stdout.log"
	stderrFile = "puma_stderr.log"
)

// Policy decides what Build does with unset variables.
type Policy int

const (
	// PolicyLenient substitutes empty strings and never fails.
	PolicyLenient Policy = iota
	// PolicyStrict fails with every missing variable reported.
	PolicyStrict
)

func (p Policy) String() string {
	if p == PolicyStrict {
		return "strict"
	}
	return "lenient"
}

// Option configures Build.
type Option func(*builder)

// WithPolicy selects the missing variable policy.
func WithPolicy(p Policy) Option {
	return func(b *builder) {
		b.policy = p
	}
}

// WithEnvironment overrides the production default.
func WithEnvironment(env Environment) Option {
	return func(b *builder) {
		b.base.Environment = env
	}
}

// WithDaemonize overrides whether the server detaches from its terminal.
func WithDaemonize(daemonize bool) Option {
	return func(b *builder) {
		b.base.Daemonize = daemonize
	}
}

// WithThreads overrides the 0..4 thread pool bounds.
func WithThreads(minThreads, maxThreads int) Option {
	return func(b *builder) {
		b.base.MinThreads = minThreads
		b.base.MaxThreads = maxThreads
	}
}

// WithWorkers enables clustered mode with n worker processes.
func WithWorkers(n int) Option {
	return func(b *builder) {
		b.base.Workers = n
	}
}

// WithLogger sets the logger used to report substituted values.
func WithLogger(logger *zap.Logger) Option {
	return func(b *builder) {
		if logger != nil {
			b.logger = logger
		}
	}
}

type builder struct {
	policy Policy
	logger *zap.Logger
	base   ServerSettings
}

// Defaults returns the literal settings that do not depend on the environment.
func Defaults() ServerSettings {
	return ServerSettings{
		Environment: Production,
		Daemonize:   true,
		MinThreads:  defaultMinThreads,
		MaxThreads:  defaultMaxThreads,
	}
}

// Build derives the server settings from env. Under PolicyLenient it always
// succeeds and any field whose variable is unset or blank is left empty.
// Under PolicyStrict the returned error combines one MissingVariableError per
// absent variable; use multierr.Errors to enumerate them.
func Build(env environ.Source, opts ...Option) (ServerSettings, error) {
	b := builder{
		policy: PolicyLenient,
		logger: zap.NewNop(),
		base:   Defaults(),
	}
	for _, opt := range opts {
		opt(&b)
	}

	if err := checkThreads(b.base.MinThreads, b.base.MaxThreads); err != nil {
		return ServerSettings{}, err
	}
	if b.base.Workers < 0 {
		return ServerSettings{}, ErrInvalidWorkers
	}
	if _, err := ParseEnvironment(b.base.Environment.String()); err != nil {
		return ServerSettings{}, err
	}

	if env == nil {
		env = environ.Map(nil)
	}

	var missing error
	lookup := func(name string) string {
		value, ok := env.Lookup(name)
		if !ok || strings.TrimSpace(value) == "" {
			missing = multierr.Append(missing, &MissingVariableError{Name: name})
			if b.policy == PolicyLenient {
				b.logger.Warn("environment variable not set, using empty value", zap.String("variable", name))
			}
			return ""
		}
		return value
	}

	pid := lookup(environ.ServerPID)
	rubyDir := lookup(environ.RubyDir)
	logDir := lookup(environ.LogDir)
	host := lookup(environ.IP)
	port := lookup(environ.Port)

	if b.policy == PolicyStrict && missing != nil {
		return ServerSettings{}, missing
	}

	s := b.base
	s.PIDFilePath = pid
	s.StatePath = joinUnder(rubyDir, stateFile)
	s.StdoutLogPath = joinUnder(logDir, stdoutFile)
	s.StderrLogPath = joinUnder(logDir, stderrFile)
	if host != "" && port != "" {
		s.BindAddress = bindURI(host, port)
	}

	b.logger.Debug("server settings built",
		zap.String("policy", b.policy.String()),
		zap.String("bind", s.BindAddress),
		zap.String("state_path", s.StatePath),
	)
	return s, nil
}

// Validate reports problems the server would only discover at startup.
// Build never calls it.
func (s ServerSettings) Validate() error {
	var err error
	paths := []struct {
		value    string
		variable string
	}{
		{s.PIDFilePath, environ.ServerPID},
		{s.StatePath, environ.RubyDir},
		{s.StdoutLogPath, environ.LogDir},
		{s.StderrLogPath, environ.LogDir},
	}
	reported := make(map[string]bool, len(paths))
	for _, p := range paths {
		if p.value == "" && !reported[p.variable] {
			reported[p.variable] = true
			err = multierr.Append(err, &MissingVariableError{Name: p.variable})
		}
	}

	if bindErr := validateBind(s.BindAddress); bindErr != nil {
		err = multierr.Append(err, bindErr)
	}
	if threadErr := checkThreads(s.MinThreads, s.MaxThreads); threadErr != nil {
		err = multierr.Append(err, threadErr)
	}
	return err
}

func validateBind(address string) error {
	if address == "" {
		return &InvalidBindAddressError{Address: address, Reason: "empty address"}
	}
	host, port := splitBind(address)
	if host == "" {
		return &InvalidBindAddressError{Address: address, Reason: "missing host"}
	}
	n, err := strconv.Atoi(port)
	if err != nil {
		return &InvalidBindAddressError{Address: address, Reason: "port is not numeric"}
	}
	if n < 1 || n > 65535 {
		return &InvalidBindAddressError{Address: address, Reason: "port out of range"}
	}
	return nil
}

func checkThreads(minThreads, maxThreads int) error {
	if minThreads < 0 || maxThreads <= 0 || minThreads > maxThreads {
		return ErrInvalidThreads
	}
	return nil
}

// joinUnder keeps empty bases empty instead of yielding a relative path.
func joinUnder(base, rel string) string {
	if base == "" {
		return ""
	}
	return path.Join(base, rel)
}
