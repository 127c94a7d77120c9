// Package environ abstracts the environment the Puma settings are derived
// from. Callers inject a Source (an in-memory map, the process environment,
// a dotenv file or a layered combination) so settings can be built
// deterministically without touching os.Environ.
package environ
