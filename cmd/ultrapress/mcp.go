package main

import (
	"context"
	"errors"
	"flag"
	"os"

	"github.com/ultrapress/ultrapress/pkg/mcpserver"
)

func runMCP(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("mcp", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}

	// stdout carries the protocol; logs go to stderr.
	eng, err := openEngine(common, os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	err = mcpserver.NewForEngine("ultrapress", version, eng).Serve(ctx, os.Stdin, os.Stdout)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
