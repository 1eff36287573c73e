package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"time"

	"gopkg.in/yaml.v3"
)

var envVarPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)\}`)

// Load reads, interpolates, verifies and validates a configuration file.
// When a .checksums manifest exists next to the file, the file must match
// its recorded hash; a missing manifest skips verification.
func Load(configPath string) (*Config, error) {
	absPath, err := filepath.Abs(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config path %q: %w", configPath, err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("config file not found: %s\n"+
			"Hint: check the path or run with --config", absPath)
	}
	if info.IsDir() {
		absPath = filepath.Join(absPath, "config.yaml")
		if _, err := os.Stat(absPath); err != nil {
			return nil, fmt.Errorf("directory provided but config.yaml not found: %s", absPath)
		}
	}

	if err := verifyConfigHash(absPath); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(absPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	interpolated := interpolateEnv(string(data))

	var cfg Config
	if err := yaml.Unmarshal([]byte(interpolated), &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	applyDefaults(&cfg)

	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	for name, pluginConf := range cfg.Plugins {
		cfg.Plugins[name] = mergePluginDefaults(pluginConf)
	}

	return &cfg, nil
}

// DiscoverConfigPath finds the config file by checking standard locations.
// Priority: $PRISM_CONFIG, ~/.config/prism/config.yaml, /etc/prism/config.yaml,
// ./config.yaml.
func DiscoverConfigPath() (string, error) {
	if path := os.Getenv("PRISM_CONFIG"); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	if homeDir, err := os.UserHomeDir(); err == nil {
		userPath := filepath.Join(homeDir, ".config", "prism", "config.yaml")
		if _, err := os.Stat(userPath); err == nil {
			return userPath, nil
		}
	}

	systemPath := "/etc/prism/config.yaml"
	if _, err := os.Stat(systemPath); err == nil {
		return systemPath, nil
	}

	localPath := "./config.yaml"
	if _, err := os.Stat(localPath); err == nil {
		return localPath, nil
	}

	return "", fmt.Errorf("no config found (checked: $PRISM_CONFIG, ~/.config/prism, /etc/prism, ./config.yaml)")
}

// verifyConfigHash checks the file against the .checksums manifest in its
// directory, when one exists.
func verifyConfigHash(path string) error {
	dir := filepath.Dir(path)
	checksums, err := LoadChecksums(dir)
	if err != nil {
		// No manifest: the config is unlocked, skip verification.
		return nil
	}

	basename := filepath.Base(path)
	expectedHash, ok := checksums.Hashes[basename]
	if !ok {
		return fmt.Errorf("config file %s has no hash in checksums at %s\n"+
			"Run: prism config lock --config %s", basename, dir, path)
	}

	if err := VerifyFileHash(path, expectedHash); err != nil {
		return fmt.Errorf("config verification failed for %s: %w\n"+
			"This indicates tampering or unauthorized modification.\n"+
			"If you edited this file intentionally, run: prism config lock --config %s", path, err, path)
	}
	return nil
}

// applyDefaults merges default values into config where not explicitly set.
func applyDefaults(cfg *Config) {
	defaults := Defaults()

	if cfg.Service.Name == "" {
		cfg.Service.Name = defaults.Service.Name
	}
	if cfg.Service.LogLevel == "" {
		cfg.Service.LogLevel = defaults.Service.LogLevel
	}
	if cfg.Service.SavePath == "" {
		cfg.Service.SavePath = defaults.Service.SavePath
	}
	if cfg.Service.XAxisUnit == "" {
		cfg.Service.XAxisUnit = defaults.Service.XAxisUnit
	}
	if cfg.Service.AcquisitionInterval == 0 {
		cfg.Service.AcquisitionInterval = defaults.Service.AcquisitionInterval
	}
	if cfg.Service.EventBuffer == 0 {
		cfg.Service.EventBuffer = defaults.Service.EventBuffer
	}

	if cfg.Metadata.Path == "" {
		cfg.Metadata.Path = defaults.Metadata.Path
	}

	if !cfg.API.Enabled && cfg.API.Listen == "" {
		cfg.API = defaults.API
	}

	if cfg.Plugins == nil {
		cfg.Plugins = make(map[string]PluginConf)
	}
}

// interpolateEnv replaces ${VAR} with environment variable values.
// Undefined variables are left as-is (not expanded).
func interpolateEnv(input string) string {
	return envVarPattern.ReplaceAllStringFunc(input, func(match string) string {
		varName := envVarPattern.FindStringSubmatch(match)[1]
		if value, exists := os.LookupEnv(varName); exists {
			return value
		}
		return match
	})
}

// validate performs basic validation on the configuration.
func validate(cfg *Config) error {
	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[cfg.Service.LogLevel] {
		return fmt.Errorf("service.log_level must be one of: debug, info, warn, error (got %q)", cfg.Service.LogLevel)
	}

	switch cfg.Service.XAxisUnit {
	case "px", "nm", "cm", "pixel", "wavelength", "wavenumber":
	default:
		return fmt.Errorf("service.x_axis_unit must be one of: px, nm, cm (got %q)", cfg.Service.XAxisUnit)
	}

	if cfg.Service.AcquisitionInterval < 10*time.Millisecond {
		return fmt.Errorf("service.acquisition_interval must be at least 10ms")
	}

	if cfg.Metadata.Path == "" {
		return fmt.Errorf("metadata.path is required")
	}

	for name, pluginConf := range cfg.Plugins {
		if !pluginConf.Enabled {
			continue
		}

		switch pluginConf.Blocking {
		case "", "none", "plugin", "host":
		default:
			return fmt.Errorf("plugin %q: blocking must be one of: none, plugin, host (got %q)",
				name, pluginConf.Blocking)
		}

		if pluginConf.QueueDepth < 0 {
			return fmt.Errorf("plugin %q: queue_depth must not be negative", name)
		}

		// Unresolved env vars in dependency values leak placeholders into
		// plugin Connect calls; fail loud instead.
		for depName, value := range pluginConf.Dependencies {
			if envVarPattern.MatchString(value) {
				matches := envVarPattern.FindStringSubmatch(value)
				if len(matches) > 1 {
					return fmt.Errorf("plugin %q: environment variable ${%s} is not set", name, matches[1])
				}
				return fmt.Errorf("plugin %q: unresolved environment variable in dependencies.%s", name, depName)
			}
		}
	}

	return nil
}

// mergePluginDefaults applies default values to plugin config where not
// specified.
func mergePluginDefaults(pluginConf PluginConf) PluginConf {
	defaults := DefaultPluginConf()

	if pluginConf.QueueDepth == 0 {
		pluginConf.QueueDepth = defaults.QueueDepth
	}
	if pluginConf.FailureLimit == 0 {
		pluginConf.FailureLimit = defaults.FailureLimit
	}
	if pluginConf.HostTimeout == 0 {
		pluginConf.HostTimeout = defaults.HostTimeout
	}
	if pluginConf.DisconnectGrace == 0 {
		pluginConf.DisconnectGrace = defaults.DisconnectGrace
	}

	return pluginConf
}
