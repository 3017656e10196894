// Command shockwave-lite is a runnable example server wiring
// internal/config, internal/server, and a side-port Prometheus /metrics
// endpoint (SPEC_FULL.md §12). Shaped after
// Reinis-FTM-go-http-server/cmd/httpserver/main.go's minimal main: build a
// handler, start serving, wait on SIGINT/SIGTERM, close.
package main

import (
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/shockwave-lite/shockwave-lite/internal/config"
	"github.com/shockwave-lite/shockwave-lite/internal/logging"
	"github.com/shockwave-lite/shockwave-lite/internal/server"
	"github.com/shockwave-lite/shockwave-lite/internal/wire"
)

func main() {
	opts := config.DefaultOptions()
	opts.Port = 8080
	opts.Address = "0.0.0.0"
	opts.ReuseAddress = true

	logger := logging.Default()

	handler := func(req *wire.Request) any {
		switch req.URI {
		case "/healthz":
			return "ok"
		default:
			resp := wire.NewTextResponse("hello from shockwave-lite\n")
			return resp
		}
	}

	srv := server.New(opts, handler, logger)

	go func() {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		// Deliberately a separate listener from srv: the main engine never
		// carries observability routes on its own accept loop.
		if err := http.ListenAndServe("127.0.0.1:9090", mux); err != nil {
			logrus.WithError(err).Warn("metrics listener stopped")
		}
	}()

	go func() {
		if err := srv.ListenAndServe(); err != nil {
			logrus.WithError(err).Fatal("server stopped")
		}
	}()

	logrus.WithField("addr", "0.0.0.0:8080").Info("shockwave-lite listening")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	<-sigChan

	srv.Stop()
	srv.Wait()
	log.Println("server gracefully stopped")
}
