package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"

	"github.com/k0kubun/pp/v3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/code-slammer/sjoh/rpc"
)

// Exit codes of the call command, one per call outcome.
const (
	exitOK             = 0
	exitFailure        = 1
	exitRemoteError    = 2
	exitTransportError = 3
)

func runCall(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	cfg, err := defaultConfig()
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitFailure
	}
	flagSet := pflag.NewFlagSet("sjoh call", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	cfg.addFlags(flagSet)
	flagSet.StringVar(&cfg.URL, "url", cfg.URL, "target URL (otherwise the first argument)")
	flagSet.DurationVar(&cfg.Timeout, "timeout", cfg.Timeout, "HTTP client timeout")
	flagSet.StringVar(&cfg.ArgsFile, "args-file", "", "YAML file holding a sequence of call arguments")
	flagSet.BoolVar(&cfg.Raw, "raw", false, "print the result as JSON instead of pretty-printing it")
	flagSet.BoolVar(&cfg.NoColor, "no-color", false, "disable colored output")
	if err := flagSet.Parse(args); err != nil {
		return exitFailure
	}

	positional := flagSet.Args()
	if cfg.URL == "" {
		if len(positional) == 0 {
			fmt.Fprintln(stderr, "usage: sjoh call [flags] <url> [args...]")
			return exitFailure
		}
		cfg.URL, positional = positional[0], positional[1:]
	}

	logger, err := newLogger(cfg.LogLevel, stderr)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitFailure
	}
	codec, err := codecByName(cfg.Codec)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitFailure
	}

	registry := rpc.DefaultRegistry()
	// arguments are always typed as JSON, whatever goes on the wire
	argSerializer := rpc.NewSerializer(registry)
	callArgs, err := collectArgs(argSerializer, cfg.ArgsFile, positional)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitFailure
	}

	transport := rpc.NewHTTPTransport(&http.Client{Timeout: cfg.Timeout})
	transport.MaxBodySize = cfg.MaxBody
	communicator := rpc.NewCommunicator(
		rpc.WithSerializer(rpc.NewSerializer(registry, rpc.WithCodec(codec))),
		rpc.WithTransport(transport),
		rpc.WithLogger(logger),
	)

	res, err := sendCall(ctx, communicator, cfg.URL, callArgs, logger)
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitFailure
	}
	switch res.Outcome {
	case rpc.OutcomeRemoteError:
		fmt.Fprintf(stderr, "remote error: %s\n", res.Remote)
		if res.Remote.Traceback != "" {
			fmt.Fprintln(stderr, res.Remote.Traceback)
		}
		return exitRemoteError
	case rpc.OutcomeTransportError:
		fmt.Fprintf(stderr, "transport error: %s\n", res.Transport)
		if len(res.Transport.Body) > 0 {
			fmt.Fprintf(stderr, "response body: %s\n", res.Transport.Body)
		}
		return exitTransportError
	}

	if err := printResult(stdout, argSerializer, res.Value, cfg); err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitFailure
	}
	return exitOK
}

func collectArgs(s *rpc.Serializer, argsFile string, positional []string) ([]any, error) {
	var callArgs []any
	if argsFile != "" {
		fromFile, err := loadArgsFile(s, argsFile)
		if err != nil {
			return nil, err
		}
		callArgs = append(callArgs, fromFile...)
	}
	for _, text := range positional {
		v, err := parseArg(s, text)
		if err != nil {
			return nil, fmt.Errorf("argument %q: %w", text, err)
		}
		callArgs = append(callArgs, v)
	}
	return callArgs, nil
}

func sendCall(ctx context.Context, c *rpc.Communicator, url string, args []any, logger *logrus.Entry) (rpc.Result, error) {
	logger.WithField("args", len(args)).Info("calling ", url)
	res, err := c.Call(ctx, url, args...)
	if err != nil {
		return res, fmt.Errorf("failed to send call: %w", err)
	}
	if res.Outcome == rpc.OutcomeTransportError {
		var netErr net.Error
		if errors.As(res.Transport, &netErr) && netErr.Timeout() {
			logger.Warn("call timed out")
		}
	}
	return res, nil
}

func printResult(w io.Writer, s *rpc.Serializer, v any, cfg config) error {
	if cfg.Raw {
		text, err := s.Stringify(v)
		if err != nil {
			return err
		}
		_, err = fmt.Fprintln(w, text)
		return err
	}
	printer := pp.New()
	printer.SetOutput(w)
	printer.SetColoringEnabled(!cfg.NoColor)
	_, err := printer.Println(v)
	return err
}
