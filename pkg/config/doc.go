// Package config provides configuration loading, validation, defaults and
// hot-reload for the tally budget service.
//
// Configuration is read from a YAML file, overlaid with environment
// variables using the TALLY_SECTION_FIELD naming convention, and validated
// before use. A process-wide singleton is available for code paths that
// cannot take an injected *Config, and a file watcher supports hot-reload
// without restarting the service.
//
// Loading sequence:
//
//  1. Parse YAML from the configuration file
//  2. Apply default values for unset fields
//  3. Apply environment variable overrides
//  4. Validate the final configuration
//
// # Example
//
//	cfg, err := config.LoadConfigWithEnvOverrides("tally.yaml")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(cfg.Server.ListenAddress)
package config
