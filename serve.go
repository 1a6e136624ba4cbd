package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/spf13/pflag"

	"github.com/code-slammer/sjoh/rpc"
)

// demoFuncs are the functions served by "sjoh serve".
func demoFuncs() map[string]rpc.Func {
	return map[string]rpc.Func{
		"/ping": func(context.Context, []any) (any, error) {
			return "pong", nil
		},
		"/echo": func(_ context.Context, args []any) (any, error) {
			return args, nil
		},
		"/now": func(context.Context, []any) (any, error) {
			return time.Now(), nil
		},
		"/today": func(context.Context, []any) (any, error) {
			return rpc.DateOf(time.Now()), nil
		},
		// fail raises a remote error of type args[0] with message args[1]
		"/fail": func(_ context.Context, args []any) (any, error) {
			typ, message := "Error", "failed on request"
			if len(args) > 0 {
				typ = fmt.Sprint(args[0])
			}
			if len(args) > 1 {
				message = fmt.Sprint(args[1])
			}
			return nil, rpc.NewRemoteError(typ, message)
		},
	}
}

func newDemoServer(opts ...rpc.Option) *rpc.Server {
	srv := rpc.NewServer(opts...)
	for path, fn := range demoFuncs() {
		srv.Handle(path, fn)
	}
	return srv
}

func runServe(ctx context.Context, args []string, stderr io.Writer) int {
	cfg, err := defaultConfig()
	if err != nil {
		fmt.Fprintln(stderr, "error:", err)
		return exitFailure
	}
	flagSet := pflag.NewFlagSet("sjoh serve", pflag.ContinueOnError)
	flagSet.SetOutput(stderr)
	cfg.addFlags(flagSet)
	flagSet.StringVar(&cfg.Listen, "listen", cfg.Listen, "address to listen on")
	if err := flagSet.Parse(args); err != nil {
		return exitFailure
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

	httpServer := &http.Server{
		Addr: cfg.Listen,
		Handler: newDemoServer(
			rpc.WithSerializer(rpc.NewSerializer(rpc.DefaultRegistry(), rpc.WithCodec(codec))),
			rpc.WithLogger(logger),
			rpc.WithMaxBodySize(cfg.MaxBody),
		),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.WithField("addr", cfg.Listen).Info("listening")
		errCh <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		logger.WithError(err).Error("server stopped")
		return exitFailure
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.WithError(err).Error("shutdown failed")
		return exitFailure
	}
	logger.Info("server stopped")
	return exitOK
}
