package main

import (
	"context"
	"flag"
	"os"

	"github.com/ultrapress/ultrapress/pkg/server"
)

func runServe(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	addr := fs.String("addr", "", "listen address (overrides server.addr)")
	if err := fs.Parse(args); err != nil {
		return err
	}

	eng, err := openEngine(common, os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	listen := eng.Config().Server.Addr
	if *addr != "" {
		listen = *addr
	}

	logger := newLogger(os.Stderr, common.verbose)
	logger.Info("listening", "addr", listen, "provider", eng.Config().Provider)

	srv := server.New(eng, logger, server.WithOriginPatterns(eng.Config().Server.AllowedOrigins...))
	return srv.ListenAndServe(ctx, listen)
}
