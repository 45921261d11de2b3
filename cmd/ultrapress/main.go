package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

const usage = `Usage: ultrapress <command> [flags]

Commands:
  chat    Talk to the site chatbot in the terminal
  seo     Generate an SEO title and meta description for an article
  serve   Run the HTTP and WebSocket API
  mcp     Serve the chat and SEO tools over MCP on stdio
  init    Write a configuration file interactively
  models  List the models offered per provider

Run 'ultrapress <command> -h' for command flags.
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "chat":
		err = runChat(ctx, args)
	case "seo":
		err = runSEO(ctx, args)
	case "serve":
		err = runServe(ctx, args)
	case "mcp":
		err = runMCP(ctx, args)
	case "init":
		err = runInit(args)
	case "models":
		err = runModels(args)
	case "-h", "-help", "--help", "help":
		fmt.Print(usage)
		return
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n%s", cmd, usage)
		os.Exit(2)
	}

	if err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("error: "+err.Error()))
		os.Exit(1)
	}
}

// commonFlags are shared by every command that builds an engine.
type commonFlags struct {
	config  string
	env     string
	verbose bool
}

func (c *commonFlags) register(fs *flag.FlagSet) {
	fs.StringVar(&c.config, "config", "", "path to configuration file (default: "+defaultConfigFile+" if present)")
	fs.StringVar(&c.env, "env", ".env", "path to .env file (ignored if missing)")
	fs.BoolVar(&c.verbose, "verbose", false, "log provider requests at debug level")
}
