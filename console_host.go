// console_host.go - Raw-terminal stdin/stdout adapter for the UART

/*
███████  ██████  ██████  ██████  ███████     ███████ ███    ██  ██████  ██ ███    ██ ███████
██      ██      ██    ██ ██   ██ ██          ██      ████   ██ ██       ██ ████   ██ ██
███████ ██      ██    ██ ██████  █████       █████   ██ ██  ██ ██   ███ ██ ██ ██  ██ █████
     ██ ██      ██    ██ ██   ██ ██          ██      ██  ██ ██ ██    ██ ██ ██  ██ ██ ██
███████  ██████  ██████  ██   ██ ███████     ███████ ██   ████  ██████  ██ ██   ████ ███████

(c) 2024 - 2026 Zayn Otley
https://github.com/IntuitionAmiga/ScoreEngine
Buy me a coffee: https://ko-fi.com/intuition/tip

License: GPLv3 or later
*/

package main

import (
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"golang.org/x/term"
)

// ConsoleHost bridges the host terminal to the UART. Stdin goes raw and
// non-blocking and feeds the RX ring one byte at a time; TX bytes land
// on stdout directly. Only instantiated in main for interactive use,
// never in tests.
type ConsoleHost struct {
	uart         *UART
	stopCh       chan struct{}
	done         chan struct{}
	stopped      sync.Once
	fd           int
	nonblockSet  bool
	oldTermState *term.State
}

func NewConsoleHost(uart *UART) *ConsoleHost {
	return &ConsoleHost{
		uart:   uart,
		stopCh: make(chan struct{}),
		done:   make(chan struct{}),
	}
}

// Start puts stdin in raw non-blocking mode and begins the reader
// goroutine. Call Stop to restore the terminal.
func (h *ConsoleHost) Start() {
	h.fd = int(os.Stdin.Fd())

	oldState, err := term.MakeRaw(h.fd)
	if err != nil {
		fmt.Fprintf(os.Stderr, "console_host: failed to set raw mode: %v\n", err)
		close(h.done)
		return
	}
	h.oldTermState = oldState

	if err := syscall.SetNonblock(h.fd, true); err != nil {
		fmt.Fprintf(os.Stderr, "console_host: failed to set nonblocking stdin: %v\n", err)
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
		close(h.done)
		return
	}
	h.nonblockSet = true

	h.uart.SetTransmitCallback(func(b byte) {
		// Raw mode needs explicit CR before LF.
		if b == '\n' {
			os.Stdout.Write([]byte{'\r', '\n'})
			return
		}
		os.Stdout.Write([]byte{b})
	})

	go func() {
		defer close(h.done)
		buf := make([]byte, 1)

		for {
			select {
			case <-h.stopCh:
				return
			default:
			}

			n, err := syscall.Read(h.fd, buf)
			if n > 0 {
				b := buf[0]
				// Raw mode sends CR for Enter; the guest expects LF.
				if b == '\r' {
					b = '\n'
				}
				// DEL from modern terminals becomes BS.
				if b == 0x7F {
					b = 0x08
				}
				h.uart.Receive(b)
			}
			if err == syscall.EAGAIN || err == syscall.EWOULDBLOCK {
				time.Sleep(5 * time.Millisecond)
				continue
			}
			if err != nil {
				return
			}
			if n == 0 {
				time.Sleep(5 * time.Millisecond)
			}
		}
	}()
}

// Stop terminates the reader goroutine and restores the terminal.
func (h *ConsoleHost) Stop() {
	h.stopped.Do(func() {
		close(h.stopCh)
	})
	<-h.done
	if h.nonblockSet {
		_ = syscall.SetNonblock(h.fd, false)
		h.nonblockSet = false
	}
	if h.oldTermState != nil {
		_ = term.Restore(h.fd, h.oldTermState)
		h.oldTermState = nil
	}
	h.uart.SetTransmitCallback(nil)
}
