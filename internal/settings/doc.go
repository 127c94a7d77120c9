// Package settings builds the deployment descriptor of the Puma application
// server from the OpenShift Ruby cartridge environment. Build is a pure
// transform: it reads an injected environ.Source, combines it with literal
// defaults and returns an immutable ServerSettings value. Opening log files,
// daemonizing and binding the socket stay with the server runtime.
package settings
