// Command threadasm loads and runs a threadasm source program.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"os"
	"strings"

	"threadasm/internal/vm"
	"threadasm/internal/vmconfig"
)

var (
	traceFlag  = flag.Bool("trace", false, "print each executed instruction and the stack after it")
	stepsFlag  = flag.Int("steps", 0, "override the configured step budget (0 keeps the config value)")
	configFlag = flag.String("config", "", "path to a config.toml (defaults to the platform config path)")
	rendezvous = flag.Bool("rendezvous", false, "use single-shot rendezvous channel semantics instead of latched")
)

func main() {
	flag.Parse()

	args := flag.Args()
	if len(args) != 1 {
		fmt.Println("Usage: threadasm <file>")
		os.Exit(1)
	}

	cfg, err := loadConfig()
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	if *stepsFlag > 0 {
		cfg.Execution.MaxSteps = *stepsFlag
	}
	if *rendezvous {
		cfg.Execution.ChannelSemantics = "rendezvous"
	}

	lines, err := readLines(args[0])
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	program, err := vm.Load(lines)
	if err != nil {
		fmt.Println(err)
		os.Exit(1)
	}

	opts := vm.Options{
		MaxSteps:        cfg.Execution.MaxSteps,
		RendezvousChans: cfg.Rendezvous(),
	}
	if *traceFlag || cfg.Execution.TraceEnabled {
		opts.Tracer = vm.NewTracer(os.Stdout)
	}

	interp := vm.NewInterpreter(program, opts)
	if err := interp.Run(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func loadConfig() (*vmconfig.Config, error) {
	if *configFlag != "" {
		return vmconfig.LoadFrom(*configFlag)
	}
	return vmconfig.Load()
}

// readLines reads a source file, trims outer whitespace, strips
// comments, and drops blank lines, so the indices handed to the loader
// are the "non-blank line" indices the interpreter's addresses are
// defined over — not raw file line numbers.
func readLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var lines []string
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if idx := strings.Index(line, "//"); idx >= 0 {
			line = strings.TrimSpace(line[:idx])
		}
		if line == "" {
			continue
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}
