// Package config handles loading summit's configuration file and environment.
//
// # Overview
//
// summit reads a small TOML file for the server address, where to keep its
// local data and how aggressively to poll. Everything has a default, so a
// missing file is not an error.
//
// # Configuration Discovery
//
// The Load function follows this resolution order:
//
//  1. If a path is explicitly provided, use it
//  2. Otherwise, use ~/.config/summit/config.toml (default)
//  3. If the config file doesn't exist, fall back to hardcoded defaults
//  4. If the file exists but fields are missing/empty, use defaults
//  5. SUMMIT_API_URL, SUMMIT_API_KEY and SUMMIT_DATA_DIR override the result
//
// LoadEnvFile (godotenv) can populate those variables from a .env file first;
// variables already present in the environment always win.
//
// # Default Values
//
//   - Config file: ~/.config/summit/config.toml
//   - API endpoint: http://127.0.0.1:8000
//   - Data directory: ~/.local/share/summit
//   - Store: <data_dir>/summit.db
//   - Log file: <data_dir>/summit.log
//   - History capacity: 10 (clamped to 5..10)
//   - Poll: 2s base, 1.5x growth, 15s cap, 20s cap while offline,
//     offline after 3 failures, 15s request timeout
//
// # Example Configuration
//
//	api_url = "https://summary.example.com"
//	data_dir = "~/.local/share/summit"
//	history_capacity = 10
//	log_level = "info"
//
//	[poll]
//	base_seconds = 2
//	growth = 1.5
//	max_seconds = 15
//	failure_max_seconds = 20
//	failure_threshold = 3
//	request_timeout_seconds = 15
//
// The API key is deliberately not a file setting: it is obtained with
// `summit login` and kept in the local store, or supplied per process via
// SUMMIT_API_KEY.
//
// # Path Expansion
//
// Paths starting with ~ are expanded to the user's home directory and then
// made absolute. Empty paths are errors.
//
// # Error Handling
//
// Load returns errors for unreadable files ("open config", "read config")
// and malformed TOML ("parse config"). Out-of-range values are clamped
// rather than rejected.
package config
