//go:build unix

// Package stderr redirects file descriptor 2 into the log while the TUI owns
// the terminal. Native audio backends (ALSA in particular) write there
// directly and would otherwise tear the layout.
package stderr

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sys/unix"
)

// Capture holds a redirected stderr. The zero value is not usable; call Start.
type Capture struct {
	orig   int
	pr, pw *os.File
	done   chan struct{}
	once   sync.Once
}

// Start redirects fd 2 to a pipe and logs every non-empty line at warn level.
// On failure nothing is redirected and the error says why.
func Start(logger *zap.Logger) (*Capture, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	pr, pw, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("create pipe: %w", err)
	}
	orig, err := unix.Dup(int(os.Stderr.Fd()))
	if err != nil {
		_ = pr.Close()
		_ = pw.Close()
		return nil, fmt.Errorf("dup stderr: %w", err)
	}
	if err := unix.Dup2(int(pw.Fd()), int(os.Stderr.Fd())); err != nil {
		_ = unix.Close(orig)
		_ = pr.Close()
		_ = pw.Close()
		return nil, fmt.Errorf("redirect stderr: %w", err)
	}

	c := &Capture{orig: orig, pr: pr, pw: pw, done: make(chan struct{})}
	go c.drain(pr, logger)
	return c, nil
}

func (c *Capture) drain(r io.Reader, logger *zap.Logger) {
	defer close(c.done)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		if line := strings.TrimSpace(sc.Text()); line != "" {
			logger.Warn("stderr", zap.String("line", line))
		}
	}
}

// WriteOriginal writes to the terminal's stderr, bypassing the capture.
func (c *Capture) WriteOriginal(msg string) {
	_, _ = unix.Write(c.orig, []byte(msg))
}

// Stop restores the original stderr and waits for buffered lines to be
// logged. It is safe to call more than once.
func (c *Capture) Stop() {
	c.once.Do(func() {
		_ = unix.Dup2(c.orig, int(os.Stderr.Fd()))
		_ = unix.Close(c.orig)
		_ = c.pw.Close()
		<-c.done
		_ = c.pr.Close()
	})
}
