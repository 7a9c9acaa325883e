// Package config loads the monitor configuration from config.yaml.
//
// Sections:
//   - server:     http_port (default 8080), refresh_interval (60s), cache_ttl (60s)
//   - log:        level: debug | info | warn | error (default info)
//   - farm:       size (5000, within [1000, 10000]), alert_threshold (90),
//     threshold_min / threshold_max (80 / 95)
//   - generator:  window_size (24), optional seed, per-channel mean/stddev,
//     anomaly tail_len / water_factor / activity_factor / temperature_shift
//   - baselines:  water, activity, temperature_ideal, temperature_tolerance
//   - indicators: metric-card limits and labels
//   - alerts:     extra notification rules and webhook targets
//
// Load(path) applies defaults before unmarshalling, then validates. Every
// validation failure wraps types.ErrInvalidConfiguration.
//
// Watch(ctx, path, current, onChange) uses fsnotify to reload the file on
// change. Event bursts are debounced, and onChange receives the new Config
// together with the names of the sections that changed (see Changed). A
// reload that fails to parse or validate is logged and the previous config
// stays active.
package config
