//go:build !unix

package stderr

import (
	"os"

	"go.uber.org/zap"
)

// Capture is a no-op where audio backends do not write to stderr.
type Capture struct{}

// Start does nothing on this platform.
func Start(*zap.Logger) (*Capture, error) { return &Capture{}, nil }

// WriteOriginal writes to stderr.
func (*Capture) WriteOriginal(msg string) { _, _ = os.Stderr.WriteString(msg) }

// Stop does nothing on this platform.
func (*Capture) Stop() {}
