// Package config loads and watches the analyzer configuration file.
//
// Top-level types:
//   - Config{Analyzer, Fields}: full tree parsed from YAML
//   - AnalyzerConfig: patients, hospital, report_dir, watch_debounce, server
//   - ServerTarget: endpoint, timeout, retries, retry_wait, retry_max_wait, auth
//   - AuthConfig: mode (apikey|bearer|none), header, key_env, token_env;
//     Key() and Token() resolve from environment variables
//
// Load(path) applies defaults (reports/, 10s timeout, 3 retries, 500ms
// debounce) and validates enums and the fields override table.
//
// Watch reloads the config on change; WatchFiles is the lower-level watcher
// the analyzer also uses for its input sheets.
package config
