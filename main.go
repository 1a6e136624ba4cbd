package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
)

const usage = `usage: sjoh <command> [flags]

commands:
  call <url> [args...]   call a remote function and print its result
  serve                  serve the demo functions /ping /echo /now /today /fail
  help                   print this message

environment (also read from .env):
  SJOH_URL SJOH_CODEC SJOH_LOG_LEVEL SJOH_MAX_BODY SJOH_TIMEOUT SJOH_LISTEN
`

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if err := loadEnv(".env"); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitFailure
	}
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return exitFailure
	}
	switch args[0] {
	case "call":
		return runCall(ctx, args[1:], stdout, stderr)
	case "serve":
		return runServe(ctx, args[1:], stderr)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return exitOK
	}
	fmt.Fprintf(stderr, "unknown command %q\n\n%s", args[0], usage)
	return exitFailure
}
