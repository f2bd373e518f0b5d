package errors

import (
	"errors"
	"sort"
	"sync"
)

// ErrorCollector collects the recoverable errors of one scan. It is safe for
// concurrent use by workers.
type ErrorCollector struct {
	errors []error
	mutex  sync.RWMutex
}

// NewErrorCollector creates a new error collector
func NewErrorCollector() *ErrorCollector {
	return &ErrorCollector{
		errors: make([]error, 0),
	}
}

// AddError adds an error to the collector
func (ec *ErrorCollector) AddError(err error) {
	if err == nil {
		return
	}
	ec.mutex.Lock()
	defer ec.mutex.Unlock()
	ec.errors = append(ec.errors, err)
}

// GetAllErrors returns a copy of all collected errors
func (ec *ErrorCollector) GetAllErrors() []error {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	result := make([]error, len(ec.errors))
	copy(result, ec.errors)
	return result
}

// HasErrors returns true if there are any errors
func (ec *ErrorCollector) HasErrors() bool {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.errors) > 0
}

// Count returns the number of collected errors
func (ec *ErrorCollector) Count() int {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()
	return len(ec.errors)
}

// FailedPaths returns the sorted, de-duplicated paths of collected file errors.
func (ec *ErrorCollector) FailedPaths() []string {
	ec.mutex.RLock()
	defer ec.mutex.RUnlock()

	seen := make(map[string]struct{})
	var paths []string
	for _, err := range ec.errors {
		var se *ScanError
		if !errors.As(err, &se) || se.Path == "" {
			continue
		}
		if _, ok := seen[se.Path]; ok {
			continue
		}
		seen[se.Path] = struct{}{}
		paths = append(paths, se.Path)
	}
	sort.Strings(paths)
	return paths
}
