package lifecycle

import (
	"regexp"
	"strconv"

	"github.com/servup/servup/internal/errors"
	"github.com/servup/servup/internal/launcher"
	"github.com/servup/servup/internal/probe"
	"github.com/servup/servup/internal/project"
)

// hostPattern is a conservative character class for hostnames, IPv4 and
// IPv6 literals. It rejects anything that could smuggle shell or URL
// metacharacters into a command line or probe address.
var hostPattern = regexp.MustCompile(`^[A-Za-z0-9.:_-]+$`)

const (
	minThreads = 1
	maxThreads = 256
)

// ValidateSettings checks the fields handed to the launcher at start
// time. All violations are collected; a non-nil return means no process
// may be spawned.
func ValidateSettings(s project.Settings) errors.ValidationErrors {
	var errs errors.ValidationErrors

	if !probe.ValidPort(s.Port) {
		errs = append(errs, errors.ValidationError{
			Field:   "port",
			Value:   s.Port,
			Message: "must be a number between 1 and 65535",
		})
	}
	if s.Host != "" && !hostPattern.MatchString(s.Host) {
		errs = append(errs, errors.ValidationError{
			Field:   "host",
			Value:   s.Host,
			Message: "contains characters not allowed in a hostname",
		})
	}
	if s.Domain != "" && !hostPattern.MatchString(s.Domain) {
		errs = append(errs, errors.ValidationError{
			Field:   "domain",
			Value:   s.Domain,
			Message: "contains characters not allowed in a hostname",
		})
	}
	if s.PHPThreads != "" && s.PHPThreads != project.DefaultThreads {
		n, err := strconv.Atoi(s.PHPThreads)
		if err != nil || n < minThreads || n > maxThreads {
			errs = append(errs, errors.ValidationError{
				Field:   "php_threads",
				Value:   s.PHPThreads,
				Message: "must be \"auto\" or a number between 1 and 256",
			})
		}
	}
	if err := launcher.ValidateWatchPatterns(s.WatchExtra); err != nil {
		errs = append(errs, errors.ValidationError{
			Field:   "watch_patterns",
			Value:   s.WatchExtra,
			Message: err.Error(),
		})
	}
	return errs
}
