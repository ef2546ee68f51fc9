// Package config loads the server configuration from the `server:` section
// of a YAML file (the `analyzer:` key is ignored by the server binary).
//
// Config fields:
//   - HTTPPort        port for the REST API, metrics and WebSocket hub (default 8080)
//   - Auth.Mode       "apikey" or "none"
//   - Auth.KeyEnv     environment variable holding the expected API key
//   - Auth.Header     HTTP header name (default "X-API-Key")
//   - Runs.TTL        how long an analysis run stays queryable (default 1h)
//   - Runs.Max        upper bound on retained runs (default 200)
//   - RateLimit       token bucket for the analyze endpoints (default 5 rps, burst 10)
//   - StreamInterval  WebSocket push cadence (default 5s)
//   - Alerts          rule definitions and webhook targets
//
// The top-level `fields:` map overrides patient column aliases and is
// validated against the known canonical fields.
//
// Load(path) applies defaults before unmarshalling, then validates.
package config
