package internal

import "fmt"

// ScanError is returned by the flat text passes. Marker holds the offending
// markup exactly as it appeared in the text; the caller adds layer identity.
type ScanError struct {
	Message string
	Marker  string
}

// Error implements the error interface
func (e *ScanError) Error() string {
	if e.Marker == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %q", e.Message, e.Marker)
}

// NewScanError creates a new scan error
func NewScanError(message, marker string) *ScanError {
	return &ScanError{Message: message, Marker: marker}
}
