package config

import "time"

// Config is the complete host configuration.
type Config struct {
	Service  ServiceConfig         `yaml:"service"`
	Metadata MetadataConfig        `yaml:"metadata"`
	API      APIConfig             `yaml:"api,omitempty"`
	Plugins  map[string]PluginConf `yaml:"plugins"`
}

// ServiceConfig defines core host settings.
type ServiceConfig struct {
	Name                string        `yaml:"name"`
	LogLevel            string        `yaml:"log_level"`
	SavePath            string        `yaml:"save_path"`
	XAxisUnit           string        `yaml:"x_axis_unit"` // px, nm or cm
	AcquisitionInterval time.Duration `yaml:"acquisition_interval"`
	EventBuffer         int           `yaml:"event_buffer"`
}

// MetadataConfig defines where measurement metadata is persisted.
type MetadataConfig struct {
	Path string `yaml:"path"`
}

// APIConfig defines the status API server settings.
type APIConfig struct {
	Enabled bool   `yaml:"enabled"`
	Listen  string `yaml:"listen"`
}

// PluginConf is the per-plugin host configuration. Blocking, when set,
// overrides the mode the plugin declared for itself.
type PluginConf struct {
	Enabled         bool              `yaml:"enabled"`
	Blocking        string            `yaml:"blocking,omitempty"` // none, plugin or host
	QueueDepth      int               `yaml:"queue_depth,omitempty"`
	FailureLimit    int               `yaml:"failure_limit,omitempty"`
	HostTimeout     time.Duration     `yaml:"host_timeout,omitempty"`
	DisconnectGrace time.Duration     `yaml:"disconnect_grace,omitempty"`
	Dependencies    map[string]string `yaml:"dependencies,omitempty"` // declared dependency name -> resolved value
}

// Defaults returns a Config with sensible defaults.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:                "prism",
			LogLevel:            "info",
			SavePath:            "./data",
			XAxisUnit:           "nm",
			AcquisitionInterval: 250 * time.Millisecond,
			EventBuffer:         256,
		},
		Metadata: MetadataConfig{
			Path: "./data/metadata.db",
		},
		API: APIConfig{
			Enabled: false,
			Listen:  "127.0.0.1:8217",
		},
		Plugins: make(map[string]PluginConf),
	}
}

// DefaultPluginConf returns the default per-plugin configuration.
func DefaultPluginConf() PluginConf {
	return PluginConf{
		Enabled:         true,
		QueueDepth:      8,
		FailureLimit:    3,
		HostTimeout:     1 * time.Second,
		DisconnectGrace: 2 * time.Second,
	}
}
