// FILE: lixenwraith/logship/cmd/logship-demo/main.go
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/jessevdk/go-flags"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/valyala/fasthttp"
	"github.com/valyala/fasthttp/fasthttpadaptor"

	"github.com/lixenwraith/logship"
	"github.com/lixenwraith/logship/compat"
)

type options struct {
	Config  string   `long:"config" description:"TOML file with a [logship] table"`
	Listen  string   `long:"listen" default:":8080" description:"HTTP listen address"`
	EnvFile string   `long:"env-file" default:".env" description:"dotenv file loaded before reading the environment"`
	Set     []string `long:"set" description:"configuration override as key=value, repeatable"`
}

func main() {
	var opts options
	parser := flags.NewParser(&opts, flags.Default)
	if _, err := parser.Parse(); err != nil {
		var ferr *flags.Error
		if errors.As(err, &ferr) && ferr.Type == flags.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "logship-demo: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	// A missing .env is normal outside development
	if err := godotenv.Load(opts.EnvFile); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load %s: %w", opts.EnvFile, err)
	}

	cfg, err := logship.LoadConfig(opts.Config)
	if err != nil {
		return err
	}
	if err := cfg.ApplyOverrides(opts.Set...); err != nil {
		return err
	}

	registry := prometheus.NewRegistry()
	logger, err := logship.Init(cfg, logship.WithRegisterer(registry))
	if err != nil {
		return err
	}

	stop := logship.NotifyShutdown(logger, time.Duration(cfg.ShutdownTimeoutMs)*time.Millisecond, nil)
	defer stop()

	metrics := fasthttpadaptor.NewFastHTTPHandler(promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	router := func(ctx *fasthttp.RequestCtx) {
		switch string(ctx.Path()) {
		case "/":
			ctx.SetContentType("text/plain")
			ctx.SetBodyString("ok\n")
		case "/metrics":
			metrics(ctx)
		default:
			ctx.SetStatusCode(fasthttp.StatusNotFound)
		}
	}

	httpLogger, err := compat.NewBuilder().WithLogger(logger).BuildFastHTTP()
	if err != nil {
		return err
	}

	server := &fasthttp.Server{
		Handler: compat.FastHTTPAccessLog(logger, router),
		Logger:  httpLogger,
		Name:    "logship-demo",
	}

	logger.Info("demo server listening", "addr", opts.Listen)
	if err := server.ListenAndServe(opts.Listen); err != nil {
		logger.Error("server stopped", "error", err)
		_ = logger.Shutdown(0)
		return err
	}
	return nil
}
