// logging.go - Diagnostic logging setup

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
	"os"

	"github.com/sirupsen/logrus"
)

// emuLog carries diagnostic output: unmapped accesses, blocked IRQs, CPU
// faults, DMA activity. User-facing output goes through fmt as usual.
var emuLog = logrus.New()

func init() {
	emuLog.SetOutput(os.Stderr)
	emuLog.SetLevel(logrus.WarnLevel)
	emuLog.SetFormatter(&logrus.TextFormatter{
		DisableTimestamp: false,
		FullTimestamp:    true,
	})
}

// SetTraceLogging switches diagnostic logging between Warn and Debug level.
func SetTraceLogging(enabled bool) {
	if enabled {
		emuLog.SetLevel(logrus.DebugLevel)
	} else {
		emuLog.SetLevel(logrus.WarnLevel)
	}
}
