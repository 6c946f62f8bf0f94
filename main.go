// main.go - Entry point

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
	"flag"
	"fmt"
	"io"
	"os"
)

func boilerPlate() {
	fmt.Println("\n\033[38;2;255;20;147m███████  ██████  ██████  ██████  ███████     ███████ ███    ██  ██████  ██ ███    ██ ███████\033[0m\n\033[38;2;255;80;147m██      ██      ██    ██ ██   ██ ██          ██      ████   ██ ██       ██ ████   ██ ██\033[0m\n\033[38;2;255;140;147m███████ ██      ██    ██ ██████  █████       █████   ██ ██  ██ ██   ███ ██ ██ ██  ██ █████\033[0m\n\033[38;2;255;200;147m     ██ ██      ██    ██ ██   ██ ██          ██      ██  ██ ██ ██    ██ ██ ██  ██ ██ ██\033[0m\n\033[38;2;255;255;147m███████  ██████  ██████  ██   ██ ███████     ███████ ██   ████  ██████  ██ ██   ████ ███████\033[0m")
	fmt.Println("\nAn emulator for the Sunplus S+core RISC line of handheld consoles.")
	fmt.Println("(c) 2024 - 2026 Zayn Otley")
	fmt.Println("https://github.com/IntuitionAmiga/ScoreEngine")
	fmt.Println("Buy me a coffee: https://ko-fi.com/intuition/tip")
	fmt.Println("License: GPLv3 or later")
}

func main() {
	boilerPlate()

	var (
		discPath    string
		scriptPath  string
		scale       int
		fullscreen  bool
		trace       bool
		logUnmapped bool
		useMonitor  bool
		useConsole  bool
	)

	flagSet := flag.NewFlagSet(os.Args[0], flag.ContinueOnError)
	flagSet.SetOutput(io.Discard)
	flagSet.StringVar(&discPath, "disc", "", "ISO disc image to mount")
	flagSet.StringVar(&scriptPath, "script", "", "Lua script to run before starting")
	flagSet.IntVar(&scale, "scale", 2, "Integer display scale")
	flagSet.BoolVar(&fullscreen, "fullscreen", false, "Start fullscreen")
	flagSet.BoolVar(&trace, "trace", false, "Enable debug-level diagnostics")
	flagSet.BoolVar(&logUnmapped, "log-unmapped", false, "Log accesses to unmapped segments")
	flagSet.BoolVar(&useMonitor, "monitor", false, "Start in the machine monitor instead of running")
	flagSet.BoolVar(&useConsole, "console", false, "Attach the host terminal to the UART")

	flagSet.Usage = func() {
		flagSet.SetOutput(os.Stdout)
		fmt.Println("Usage: ./score_engine [options] firmware.bin")
		flagSet.PrintDefaults()
	}

	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	firmware := flagSet.Arg(0)
	if firmware == "" {
		flagSet.Usage()
		os.Exit(1)
	}

	machine, err := NewMachine(MachineConfig{
		Scale:       scale,
		Fullscreen:  fullscreen,
		Trace:       trace,
		LogUnmapped: logUnmapped,
	})
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}

	if err := machine.LoadFirmware(firmware); err != nil {
		fmt.Printf("Error loading firmware: %v\n", err)
		os.Exit(1)
	}

	if discPath != "" {
		if err := machine.LoadDisc(discPath); err != nil {
			fmt.Printf("Error loading disc: %v\n", err)
			os.Exit(1)
		}
	}

	if scriptPath != "" {
		engine := NewScriptEngine(machine, os.Stdout)
		err := engine.RunFile(scriptPath)
		engine.Close()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			os.Exit(1)
		}
	}

	if useMonitor {
		monitor := NewMonitor(machine, os.Stdin, os.Stdout)
		monitor.Run()
		monitor.Close()
		return
	}

	var console *ConsoleHost
	if useConsole {
		console = NewConsoleHost(machine.UART)
		console.Start()
		defer console.Stop()
	}

	if err := machine.Run(); err != nil {
		fmt.Printf("Error: %v\n", err)
		os.Exit(1)
	}
}
