// Package config loads the cortexsync TOML configuration file.
//
//	[store]
//	path = "cortexsync.db"
//
//	[sources]
//	dsn = "sources.db"
//	enabled = ["notes", "citations"]
//
//	[embedding]
//	host = "http://localhost:11434"
//	model = "embeddinggemma"
//	requests_per_second = 10.0
//
//	[workflow]
//	chunk_size = 100
//	lookback = "168h"
//	schedule = "semantic-search"
//
//	[retry]
//	timeout = "45m"
//	initial_interval = "30s"
//	backoff_coefficient = 2.0
//	maximum_interval = "10m"
//	maximum_attempts = 5
//
// Keys left out keep their default values.
package config
