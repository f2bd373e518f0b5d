package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	scanerrors "github.com/conneroisu/srcguard/internal/errors"
)

// ValidFormats lists the accepted report encodings.
var ValidFormats = []string{"text", "json"}

// Validate checks the configuration and returns every problem found, joined.
func (c *Config) Validate() error {
	var errs []error

	if !isValidFormat(c.Report.Format) {
		errs = append(errs, scanerrors.NewConfigError(scanerrors.CodeInvalidFormat,
			fmt.Sprintf("unknown report format %q (want one of %s)", c.Report.Format, strings.Join(ValidFormats, ", "))))
	}

	for _, ext := range c.Scan.Extensions {
		if ext == "." || strings.ContainsAny(ext, `/\*?`) {
			errs = append(errs, scanerrors.NewConfigError(scanerrors.CodeInvalidExt,
				fmt.Sprintf("invalid extension %q", ext)))
		}
	}

	for _, pattern := range c.Scan.Exclude {
		if !doublestar.ValidatePattern(pattern) {
			errs = append(errs, scanerrors.NewConfigError(scanerrors.CodeInvalidGlob,
				fmt.Sprintf("invalid exclude pattern %q", pattern)))
		}
	}

	if c.Scan.Workers < 0 {
		errs = append(errs, scanerrors.NewConfigError("INVALID_WORKERS",
			fmt.Sprintf("workers must be >= 0, got %d", c.Scan.Workers)))
	}
	if c.Scan.QueueSize < 0 {
		errs = append(errs, scanerrors.NewConfigError("INVALID_QUEUE_SIZE",
			fmt.Sprintf("queue_size must be >= 0, got %d", c.Scan.QueueSize)))
	}
	if c.Watch.Debounce <= 0 {
		errs = append(errs, scanerrors.NewConfigError("INVALID_DEBOUNCE",
			fmt.Sprintf("watch debounce must be positive, got %s", c.Watch.Debounce)))
	}

	return errors.Join(errs...)
}

func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == format {
			return true
		}
	}
	return false
}
