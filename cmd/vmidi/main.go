// Command vmidi publishes a virtual MIDI port through the teVirtualMIDI
// driver. In loopback mode everything written to the port is echoed back to
// its readers; in monitor mode inbound messages are logged. Probe mode lists
// the MIDI devices the system exposes.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/shaban/virtualmidi"
	"github.com/shaban/virtualmidi/internal/config"
	"github.com/shaban/virtualmidi/prommetrics"
	"github.com/shaban/virtualmidi/tevm"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	fs := pflag.NewFlagSet("vmidi", pflag.ContinueOnError)
	cfgFile := fs.StringP("config", "c", "", "config file (yaml, json or toml)")
	config.RegisterFlags(fs)
	if err := fs.Parse(args); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return 0
		}
		return 2
	}

	cfg, err := config.Load(fs, *cfgFile)
	if err != nil {
		fmt.Fprintln(os.Stderr, "vmidi:", err)
		return 2
	}

	log := logrus.New()
	log.SetLevel(cfg.Level())

	if cfg.Mode == config.ModeProbe {
		if err := probe(os.Stdout, cfg.Port); err != nil {
			log.WithError(err).Error("probe failed")
			return 1
		}
		return 0
	}

	lib := tevm.New(tevm.Config{Path: cfg.Library, Logger: log})
	defer lib.Close()
	if err := lib.Load(); err != nil {
		log.WithError(err).Error("cannot start without the driver")
		return 1
	}

	opts := []virtualmidi.Option{
		virtualmidi.WithLogger(log),
		virtualmidi.WithQueueSize(cfg.QueueSize),
	}
	var (
		srv     *http.Server
		observe func(error)
	)
	if cfg.MetricsAddr != "" {
		hook, err := prommetrics.New(nil)
		if err != nil {
			log.WithError(err).Error("register metrics")
			return 1
		}
		opts = append(opts, virtualmidi.WithMetrics(hook))
		observe = hook.ObserveError
		srv = serveMetrics(cfg.MetricsAddr, log)
	}
	opts = append(opts, virtualmidi.WithErrorHandler(newErrorHandler(cfg.Strict, log, observe)))

	reg := virtualmidi.NewRegistry(lib, opts...)
	defer reg.Close()

	bindOpts, err := cfg.BindOptions()
	if err != nil {
		log.WithError(err).Error("port options")
		return 2
	}

	switch cfg.Mode {
	case config.ModeLoopback:
		_, _, err = startLoopback(reg, cfg.Port, bindOpts, log)
	case config.ModeMonitor:
		_, err = startMonitor(reg, cfg.Port, bindOpts, log)
	}
	if err != nil {
		log.WithError(err).Error("cannot publish port")
		return 1
	}
	log.WithFields(logrus.Fields{"port": cfg.Port, "mode": cfg.Mode}).Info("port published")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()
	log.Info("shutting down")

	if srv != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.WithError(err).Warn("metrics server shutdown")
		}
	}
	return 0
}

// newErrorHandler logs asynchronous errors, or panics on them when strict,
// after passing each one to observe.
func newErrorHandler(strict bool, log logrus.FieldLogger, observe func(error)) virtualmidi.ErrorHandler {
	var base virtualmidi.ErrorHandler = &virtualmidi.DefaultErrorHandler{Logger: log}
	if strict {
		base = &virtualmidi.PanicErrorHandler{}
	}
	return virtualmidi.NewLoggingErrorHandler(base, observe)
}

func serveMetrics(addr string, log logrus.FieldLogger) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	go func() {
		log.WithField("addr", addr).Info("serving metrics")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.WithError(err).Error("metrics server")
		}
	}()
	return srv
}
