// Command lirc normalizes textual lir modules.
//
// Usage:
//
//	lirc [options] <input>
//
// Examples:
//
//	lirc shader.lir                # Normalize and print to stdout
//	lirc -o shader.out.lir shader.lir
//	lirc -debug shader.lir         # Log per-function pass statistics
package main

import (
	"flag"
	"fmt"
	"os"

	"go.uber.org/zap"

	"github.com/gogpu/lir"
	"github.com/gogpu/lir/text"
)

var (
	output   = flag.String("o", "", "output file (default: stdout)")
	validate = flag.Bool("validate", true, "validate IR before normalizing")
	debug    = flag.Bool("debug", false, "log pass statistics")
	version  = flag.Bool("version", false, "print version")
)

const lircVersion = "0.1.0-dev"

func main() {
	flag.Usage = usage
	flag.Parse()

	if *version {
		fmt.Printf("lirc version %s\n", lircVersion)
		return
	}

	args := flag.Args()
	if len(args) < 1 {
		fmt.Fprintln(os.Stderr, "Error: no input file specified")
		usage()
		os.Exit(1)
	}

	inputPath := args[0]

	if *debug {
		logger, err := zap.NewDevelopment()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating logger: %v\n", err)
			os.Exit(1)
		}
		defer logger.Sync() //nolint:errcheck // best effort on exit
		lir.SetLogger(logger)
	}

	source, err := os.ReadFile(inputPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file: %v\n", err)
		os.Exit(1)
	}

	module, err := text.Parse(string(source))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Parse error: %v\n", err)
		os.Exit(1)
	}

	opts := lir.PrepareOptions{Validate: *validate}
	if err := lir.PrepareWithOptions(module, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Normalization error: %v\n", err)
		os.Exit(1)
	}

	out := text.Write(module)
	if *output != "" {
		if err := os.WriteFile(*output, []byte(out), 0644); err != nil {
			fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
			os.Exit(1)
		}
	} else if _, err := os.Stdout.WriteString(out); err != nil {
		fmt.Fprintf(os.Stderr, "Error writing output: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "Usage: lirc [options] <input.lir>\n\n")
	fmt.Fprintf(os.Stderr, "Options:\n")
	flag.PrintDefaults()
	fmt.Fprintf(os.Stderr, "\nExamples:\n")
	fmt.Fprintf(os.Stderr, "  lirc shader.lir                Normalize to stdout\n")
	fmt.Fprintf(os.Stderr, "  lirc -o out.lir shader.lir     Normalize to file\n")
}
