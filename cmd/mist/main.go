// Copyright ©2024 The mist Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Command mist translates single-source kernels for a backend and runs
// sample kernels under host emulation.
package main

import (
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"

	"github.com/LynnColeArt/mist"
	"github.com/LynnColeArt/mist/backend"
	"github.com/LynnColeArt/mist/vec"
)

func usage() {
	fmt.Fprintln(os.Stderr, "mist - single-source kernel tool")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Usage: mist <command> [flags] [args]")
	fmt.Fprintln(os.Stderr)
	fmt.Fprintln(os.Stderr, "Commands:")
	fmt.Fprintln(os.Stderr, "  translate  rewrite kernel annotations for a backend")
	fmt.Fprintln(os.Stderr, "  compile    compile a kernel to SPIR-V (wgsl backend)")
	fmt.Fprintln(os.Stderr, "  backends   list backends and their qualifier tables")
	fmt.Fprintln(os.Stderr, "  run        run the coordinate demo kernel under host emulation")
	fmt.Fprintln(os.Stderr, "  device     describe the host device")
	fmt.Fprintln(os.Stderr, "  version    print the module version")
}

func main() {
	log.SetFlags(0)
	log.SetPrefix("mist: ")

	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "translate":
		err = translateCmd(args)
	case "compile":
		err = compileCmd(args)
	case "backends":
		err = backendsCmd(os.Stdout)
	case "run":
		err = runCmd(args)
	case "device":
		deviceCmd(os.Stdout)
	case "version":
		v, sum := mist.Version()
		if v == "" {
			v = "(devel)"
		}
		fmt.Println(v, sum)
	case "-h", "-help", "--help", "help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatal(err)
	}
}

func translateCmd(args []string) error {
	fs := flag.NewFlagSet("translate", flag.ExitOnError)
	name := fs.String("backend", backend.Active().Name(), "Target backend ("+strings.Join(backend.Names(), ", ")+")")
	output := fs.String("o", "", "Output file (default stdout)")
	fs.Parse(args)

	b, err := backend.Lookup(*name)
	if err != nil {
		return err
	}
	src, err := readSource(fs.Arg(0))
	if err != nil {
		return err
	}
	out, err := b.Translate(src)
	if err != nil {
		return err
	}
	return writeOutput(*output, []byte(out))
}

func compileCmd(args []string) error {
	fs := flag.NewFlagSet("compile", flag.ExitOnError)
	name := fs.String("backend", "wgsl", "Target backend")
	output := fs.String("o", "kernel.spv", "Output file")
	fs.Parse(args)

	b, err := backend.Lookup(*name)
	if err != nil {
		return err
	}
	c, ok := b.(backend.Compiler)
	if !ok {
		return fmt.Errorf("%s kernels are compiled by their runtime; use translate", b.Name())
	}
	src, err := readSource(fs.Arg(0))
	if err != nil {
		return err
	}
	bin, err := c.Compile(src)
	if err != nil {
		return err
	}
	if err := writeOutput(*output, bin); err != nil {
		return err
	}
	fmt.Fprintf(os.Stderr, "wrote %d bytes to %s\n", len(bin), *output)
	return nil
}

func backendsCmd(w io.Writer) error {
	active := backend.Active().Name()
	for _, b := range backend.All() {
		marker := " "
		if b.Name() == active {
			marker = "*"
		}
		fmt.Fprintf(w, "%s %s\n", marker, b.Name())
		for _, a := range backend.Annotations() {
			q, err := b.Qualifier(a)
			if err != nil {
				return err
			}
			text := q.Text
			switch {
			case !q.Supported:
				text = "(unsupported)"
			case text == "":
				text = "(none)"
			}
			fmt.Fprintf(w, "    %-10s %s\n", a.Token(), text)
		}
	}
	return nil
}

func runCmd(args []string) error {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	gridFlag := fs.String("grid", "4,2,1", "Grid size as x[,y[,z]]")
	workers := fs.Int("workers", 0, "Worker goroutines (0 = one per core, 1 = sequential)")
	extra := fs.Int("extra", 0, "Invocations beyond the grid volume, to exercise overflow")
	strict := fs.Bool("strict", false, "Fail on overflow instead of returning [0,0,0]")
	verbose := fs.Bool("v", false, "Debug logging")
	fs.Parse(args)

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	mist.SetLogger(logger)

	grid, err := parseGrid(*gridFlag)
	if err != nil {
		return err
	}

	opts := []mist.ContextOption{mist.WithWorkers(*workers)}
	if *strict {
		opts = append(opts, mist.WithStrictLaunches())
	}
	ctx := mist.NewContext(opts...)
	defer ctx.Destroy()

	var (
		mu     sync.Mutex
		coords []vec.UVec3
	)
	kernel := mist.KernelFunc(func(c *mist.Campaign, _ ...interface{}) {
		id := c.GlobalID()
		mu.Lock()
		coords = append(coords, id)
		mu.Unlock()
	})

	c, err := ctx.Run(kernel, grid)
	if err != nil {
		return err
	}
	for i := 0; i < *extra; i++ {
		id, err := c.NextCoordinate()
		if err != nil {
			return err
		}
		coords = append(coords, id)
	}

	for i, id := range coords {
		fmt.Printf("%4d %v\n", i, id)
	}
	fmt.Printf("grid %v: %d issued, %d overflowed\n", grid, c.Issued(), c.Overflows())
	return nil
}

func deviceCmd(w io.Writer) {
	d := mist.GetDevice()
	fmt.Fprintf(w, "Device %d: %s\n", d.ID, d.Name)
	fmt.Fprintf(w, "  Cores:    %d\n", d.NumCores)
	fmt.Fprintf(w, "  Workers:  %d\n", d.MaxThreads)
	fmt.Fprintf(w, "  Features: %s\n", d.Features)
	fmt.Fprintf(w, "  Backend:  %s\n", backend.Active().Name())
}

// parseGrid parses "x", "x,y" or "x,y,z". Missing axes default to 1.
func parseGrid(s string) (mist.Dim3, error) {
	parts := strings.Split(s, ",")
	if len(parts) > 3 {
		return mist.Dim3{}, fmt.Errorf("grid %q has more than three axes", s)
	}
	dims := [3]int{1, 1, 1}
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return mist.Dim3{}, fmt.Errorf("grid %q: %w", s, err)
		}
		dims[i] = n
	}
	return mist.Grid3D(dims[0], dims[1], dims[2]), nil
}

func readSource(path string) (string, error) {
	var (
		b   []byte
		err error
	)
	if path == "" || path == "-" {
		b, err = io.ReadAll(os.Stdin)
	} else {
		b, err = os.ReadFile(path)
	}
	if err != nil {
		return "", fmt.Errorf("failed to read kernel source: %w", err)
	}
	return string(b), nil
}

func writeOutput(path string, data []byte) error {
	if path == "" || path == "-" {
		_, err := os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
