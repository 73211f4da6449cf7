// Command httpd serves echo, user-agent and file routes over HTTP/1.1.
package main

import (
	"context"
	stderrors "errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/nczempin/httpd-go-uring/config"
	"github.com/nczempin/httpd-go-uring/logging"
	"github.com/nczempin/httpd-go-uring/router"
	"github.com/nczempin/httpd-go-uring/server"
	"github.com/nczempin/httpd-go-uring/storage"
)

func main() {
	cfg, err := config.Parse(os.Args[1:], os.Stderr)
	if err != nil {
		if stderrors.Is(err, flag.ErrHelp) {
			return
		}
		fmt.Fprintf(os.Stderr, "httpd: %v\n", err)
		os.Exit(2)
	}

	log := logging.New(os.Stderr, cfg.LogLevel, cfg.LogFormat)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rt := router.New(storage.NewFileStore(cfg.Directory))
	srv := server.New(cfg, rt, log)

	if err := srv.ListenAndServe(ctx); err != nil {
		log.Error().Err(err).Msg("server failed to start")
		stop()
		os.Exit(1)
	}
}
