// Command wt is the worktree workflow engine's entrypoint. Only `wt
// list` is implemented here; this binary is the driver for the
// parallel status-collection engine (internal/listrun et al.), not a
// full command-line surface.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/worktrunk/wt/internal/listrun"
	"github.com/worktrunk/wt/internal/procexec"
)

func main() {
	os.Exit(run())
}

func run() int {
	if len(os.Args) < 2 {
		fmt.Fprintln(os.Stderr, "usage: wt <command> [flags]")
		return 2
	}

	switch os.Args[1] {
	case "list":
		return runList(os.Args[2:])
	default:
		fmt.Fprintf(os.Stderr, "wt: unknown command %q\n", os.Args[1])
		return 2
	}
}

func runList(args []string) int {
	opts, err := parseListFlags(args)
	if err != nil {
		fmt.Fprintf(os.Stderr, "wt: %v\n", err)
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	procs := procexec.NewProcessManager()

	cwd, err := os.Getwd()
	if err != nil {
		fmt.Fprintf(os.Stderr, "wt: %v\n", err)
		return 1
	}

	exitCh := make(chan int, 1)
	go func() {
		exitCh <- listrun.Run(ctx, cwd, opts, procs, os.Stdout, os.Stderr)
	}()

	select {
	case code := <-exitCh:
		return code
	case <-ctx.Done():
		stop()
		log.Println("wt: interrupted, cleaning up...")
		if err := procs.KillAll(); err != nil {
			log.Printf("wt: error killing subprocesses: %v", err)
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		select {
		case <-exitCh:
		case <-shutdownCtx.Done():
			log.Println("wt: shutdown timeout exceeded, forcing exit")
		}
		return 130
	}
}

// parseListFlags does minimal bespoke flag parsing for `wt list`'s
// small surface; it does not aim to be a general-purpose argument
// parser.
func parseListFlags(args []string) (listrun.Options, error) {
	opts := listrun.Options{Format: "table", Progressive: true}

	if v := os.Getenv("WT_SEQUENTIAL"); v == "1" {
		opts.Sequential = true
	}
	if v := os.Getenv("WT_LIST_DEBUG"); v == "1" {
		opts.Debug = true
	}

	for _, arg := range args {
		switch {
		case arg == "--full":
			opts.Full = true
		case arg == "--branches":
			opts.Branches = true
		case arg == "--remotes":
			opts.Remotes = true
		case arg == "--progressive":
			opts.Progressive = true
		case arg == "--no-progressive":
			opts.Progressive = false
		case strings.HasPrefix(arg, "--format="):
			format := strings.TrimPrefix(arg, "--format=")
			switch format {
			case "table", "json", "claude-code":
				opts.Format = format
			default:
				return opts, fmt.Errorf("unknown --format value %q", format)
			}
		default:
			return opts, fmt.Errorf("unknown flag %q", arg)
		}
	}

	return opts, nil
}
