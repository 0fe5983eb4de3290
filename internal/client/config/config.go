// Package config loads runtime configuration for the taskkeeper CLI:
// defaults, then an optional JSON file (-c/-config), then flags.
//
//	-a string   base URL of the taskkeeper API
//	-t int      request timeout (seconds)
//
// JSON durations accept "10s" or integer nanoseconds:
//
//	{
//	  "server_url": "http://127.0.0.1:3000",
//	  "request_timeout": "10s"
//	}
package config

import "time"

type Config struct {
	ServerURL      string
	RequestTimeout time.Duration
}

func (c *Config) LoadDefaults() {
	c.ServerURL = "http://127.0.0.1:3000"
	c.RequestTimeout = 10 * time.Second
}

func LoadConfig() *Config {
	cfg := &Config{}
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
