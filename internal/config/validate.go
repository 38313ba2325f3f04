package config

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrEmptyDBPath indicates a missing database location
	ErrEmptyDBPath = errors.New("empty database path")

	// ErrInvalidTablePattern indicates a table glob that does not compile
	ErrInvalidTablePattern = errors.New("invalid table pattern")

	// ErrInvalidCacheSize indicates a negative options cache size
	ErrInvalidCacheSize = errors.New("invalid options cache size")

	// ErrInvalidDepth indicates a negative impact depth
	ErrInvalidDepth = errors.New("invalid impact depth")

	// ErrInvalidDebounce indicates a negative watch debounce
	ErrInvalidDebounce = errors.New("invalid watch debounce")
)

// Validate checks that the configuration is valid and complete.
func Validate(cfg *Config) error {
	var errs []error

	if strings.TrimSpace(cfg.Storage.DBPath) == "" {
		errs = append(errs, fmt.Errorf("%w: storage.db_path is required", ErrEmptyDBPath))
	}

	if err := validateGraph(&cfg.Graph); err != nil {
		errs = append(errs, err)
	}

	if cfg.Watch.DebounceMs < 0 {
		errs = append(errs, fmt.Errorf("%w: debounce_ms cannot be negative, got %d", ErrInvalidDebounce, cfg.Watch.DebounceMs))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

func validateGraph(cfg *GraphConfig) error {
	var errs []error

	for _, pattern := range cfg.Tables {
		if _, err := CompileTablePatterns([]string{pattern}); err != nil {
			errs = append(errs, err)
		}
	}

	if cfg.OptionsCacheSize < 0 {
		errs = append(errs, fmt.Errorf("%w: options_cache_size cannot be negative, got %d", ErrInvalidCacheSize, cfg.OptionsCacheSize))
	}

	if cfg.ImpactDepth < 0 {
		errs = append(errs, fmt.Errorf("%w: impact_depth cannot be negative, got %d", ErrInvalidDepth, cfg.ImpactDepth))
	}

	if len(errs) > 0 {
		return joinErrors(errs)
	}
	return nil
}

// joinErrors combines multiple errors into a single error with clear formatting.
func joinErrors(errs []error) error {
	if len(errs) == 0 {
		return nil
	}

	if len(errs) == 1 {
		return errs[0]
	}

	var msgs []string
	for _, err := range errs {
		msgs = append(msgs, err.Error())
	}

	return fmt.Errorf("validation failed:\n  - %s", strings.Join(msgs, "\n  - "))
}
