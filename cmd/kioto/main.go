// Command kt is a thin demonstration wrapper around the three verbs the
// env package exposes: build, engine (load + run), and plugin (inspect).
// It intentionally uses only the standard library's flag package and
// os.Args — command-line argument parsing itself is out of scope for
// the core runtime (SPEC_FULL.md §4.11 item 1); a real deployment would
// swap this file for whatever CLI framework it prefers without
// touching the kioto or env packages.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/streamspace-dev/kioto/env"
	"github.com/streamspace-dev/kioto/klog"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	klog.Initialize("info", true)

	var err error
	switch os.Args[1] {
	case "build":
		err = runBuild(os.Args[2:])
	case "engine":
		err = runEngine(os.Args[2:])
	case "plugin":
		err = runPlugin(os.Args[2:])
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, "kt:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: kt <build|engine|plugin> [flags]")
}

func runBuild(args []string) error {
	fs := flag.NewFlagSet("build", flag.ExitOnError)
	source := fs.String("source", "", "source root directory")
	target := fs.String("target", "", "target root directory")
	label := fs.String("label", "default", "environment label")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *source == "" || *target == "" {
		return fmt.Errorf("build: -source and -target are required")
	}
	if err := env.Build(*source, *target, *label); err != nil {
		return err
	}
	fmt.Printf("built environment %q at %s\n", *label, *target)
	return nil
}

func runEngine(args []string) error {
	fs := flag.NewFlagSet("engine", flag.ExitOnError)
	root := fs.String("root", "", "environment root directory")
	label := fs.String("label", "default", "environment label")
	call := fs.String("call", "", "plugin path to call after loading")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *root == "" {
		return fmt.Errorf("engine: -root is required")
	}

	loaders := env.NewLoaderTable()
	e, err := env.Load(*root, *label, loaders)
	if err != nil {
		return err
	}
	defer e.Close()

	if *call == "" {
		fmt.Printf("loaded environment %q: %d plugins, %d handlers\n", *label, len(e.Plugins), len(e.Handlers))
		return nil
	}

	msg, err := e.Store.Call(context.Background(), *call)
	if err != nil {
		return err
	}
	fmt.Printf("%+v\n", msg)
	return nil
}

func runPlugin(args []string) error {
	fs := flag.NewFlagSet("plugin", flag.ExitOnError)
	root := fs.String("root", "", "environment root directory")
	label := fs.String("label", "default", "environment label")
	event := fs.String("event", "", "event name to inspect")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *root == "" || *event == "" {
		return fmt.Errorf("plugin: -root and -event are required")
	}

	loaders := env.NewLoaderTable()
	e, err := env.Load(*root, *label, loaders)
	if err != nil {
		return err
	}
	defer e.Close()

	addr, ok := e.Inspect(*event)
	if !ok {
		return fmt.Errorf("plugin: no entry named %q", *event)
	}
	fmt.Printf("%s -> %s\n", addr.Name.FullRef(), addr.String())
	return nil
}
