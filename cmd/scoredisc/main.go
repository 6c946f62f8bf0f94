// main.go - scoredisc, a disc image inspection tool

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

// scoredisc inspects the ISO9660 disc images the emulator mounts:
//
//	scoredisc info  image.iso
//	scoredisc ls    image.iso [dir]
//	scoredisc cat   image.iso /path/on/disc
//	scoredisc extract image.iso /path/on/disc out.bin
package main

import (
	"fmt"
	"io"
	"os"

	diskfs "github.com/diskfs/go-diskfs"
	"github.com/diskfs/go-diskfs/filesystem"
)

func usage() {
	fmt.Fprintln(os.Stderr, "Usage: scoredisc info|ls|cat|extract <image.iso> [path] [out]")
	os.Exit(1)
}

func mount(path string) filesystem.FileSystem {
	disk, err := diskfs.Open(path, diskfs.WithOpenMode(diskfs.ReadOnly))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening %s: %v\n", path, err)
		os.Exit(1)
	}
	fs, err := disk.GetFilesystem(0)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading filesystem: %v\n", err)
		os.Exit(1)
	}
	return fs
}

func main() {
	if len(os.Args) < 3 {
		usage()
	}
	cmd := os.Args[1]
	image := os.Args[2]

	switch cmd {
	case "info":
		fs := mount(image)
		info, err := os.Stat(image)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("Image:   %s\n", image)
		fmt.Printf("Size:    %d bytes (%d sectors)\n", info.Size(), info.Size()/2048)
		fmt.Printf("Type:    %v\n", fs.Type())
		fmt.Printf("Volume:  %s\n", fs.Label())

	case "ls":
		fs := mount(image)
		dir := "/"
		if len(os.Args) > 3 {
			dir = os.Args[3]
		}
		entries, err := fs.ReadDir(dir)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		for _, e := range entries {
			kind := "-"
			if e.IsDir() {
				kind = "d"
			}
			fmt.Printf("%s %10d  %s\n", kind, e.Size(), e.Name())
		}

	case "cat", "extract":
		if len(os.Args) < 4 {
			usage()
		}
		fs := mount(image)
		f, err := fs.OpenFile(os.Args[3], os.O_RDONLY)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		out := io.Writer(os.Stdout)
		if cmd == "extract" {
			if len(os.Args) < 5 {
				usage()
			}
			dst, err := os.Create(os.Args[4])
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error: %v\n", err)
				os.Exit(1)
			}
			defer dst.Close()
			out = dst
		}
		if _, err := io.Copy(out, f); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

	default:
		usage()
	}
}
