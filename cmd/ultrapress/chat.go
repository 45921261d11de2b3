package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/ultrapress/ultrapress/pkg/engine"
	"github.com/ultrapress/ultrapress/pkg/modeladapter"
	usagepkg "github.com/ultrapress/ultrapress/pkg/modeladapter/usage"
	"github.com/ultrapress/ultrapress/pkg/session"
)

func runChat(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("chat", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	width := fs.Int("width", 100, "markdown wrap width")
	if err := fs.Parse(args); err != nil {
		return err
	}

	eng, err := openEngine(common, os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	if common.verbose {
		sub := eng.Events().Subscribe(16)
		defer eng.Events().Unsubscribe(sub)
		go printEvents(os.Stderr, sub)
	}

	initMarkdownRenderer(*width)

	r := &repl{
		eng:    eng,
		usage:  eng.Usage,
		in:     os.Stdin,
		out:    os.Stdout,
		render: renderMarkdown,
	}
	return r.run(ctx)
}

// conversationEngine is the part of *engine.Engine the REPL drives.
type conversationEngine interface {
	StartConversation(ctx context.Context) (*session.Conversation, error)
	Converse(ctx context.Context, sessionID, text string) (engine.Turn, error)
}

// repl is a line-oriented chat loop. Each input line is one user turn.
type repl struct {
	eng    conversationEngine
	usage  func() map[string]usagepkg.TokenCount
	in     io.Reader
	out    io.Writer
	render func(string) string

	sessionID string
}

func (r *repl) run(ctx context.Context) error {
	if err := r.start(ctx); err != nil {
		return err
	}
	fmt.Fprintln(r.out, dimStyle.Render("/reset starts over, /usage shows token counts, /quit exits"))

	scanner := bufio.NewScanner(r.in)
	for {
		fmt.Fprint(r.out, userPrefixStyle.Render("You > "))
		if !scanner.Scan() {
			fmt.Fprintln(r.out)
			return scanner.Err()
		}
		if ctx.Err() != nil {
			return nil
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		case "/reset":
			if err := r.start(ctx); err != nil {
				return err
			}
			continue
		case "/usage":
			r.printUsage()
			continue
		}

		turn, err := r.eng.Converse(ctx, r.sessionID, line)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			fmt.Fprintln(r.out, errorStyle.Render(describeError(err)))
			continue
		}
		r.sessionID = turn.SessionID
		r.printBot(turn.Reply)
	}
}

// start opens a fresh conversation and prints its welcome message.
func (r *repl) start(ctx context.Context) error {
	conv, err := r.eng.StartConversation(ctx)
	if err != nil {
		return err
	}
	r.sessionID = conv.ID
	if len(conv.Messages) > 0 {
		r.printBot(conv.Messages[0].Content)
	}
	return nil
}

func (r *repl) printBot(text string) {
	fmt.Fprintln(r.out, botPrefixStyle.Render("Bot >"))
	fmt.Fprintln(r.out, r.render(text))
}

func (r *repl) printUsage() {
	byModel := r.usage()
	if len(byModel) == 0 {
		fmt.Fprintln(r.out, dimStyle.Render("no requests yet"))
		return
	}
	for _, model := range slices.Sorted(maps.Keys(byModel)) {
		tc := byModel[model]
		fmt.Fprintln(r.out, dimStyle.Render(fmt.Sprintf("%s  in %s  out %s",
			model, fmtTokens(tc.InputTokens), fmtTokens(tc.OutputTokens))))
	}
}

// describeError prefixes provider failures with their kind.
func describeError(err error) string {
	if kind := modeladapter.KindOf(err); kind != "" {
		return fmt.Sprintf("%s: %v", kind, err)
	}
	return err.Error()
}

// printEvents writes one status line per engine event until sub closes.
func printEvents(w io.Writer, sub *engine.Subscription) {
	for e := range sub.C {
		var line string
		switch e.Kind {
		case engine.EventRequestStart:
			line = fmt.Sprintf("-> %s %s", e.Provider, e.Model)
		case engine.EventRequestEnd:
			if end, ok := e.Data.(engine.RequestEnd); ok {
				line = fmt.Sprintf("<- %s %s %s", e.Provider, e.Model, fmtDuration(end.Duration))
			}
		case engine.EventTurnSaved:
			line = "saved turn in " + e.SessionID
		case engine.EventError:
			line = fmt.Sprintf("!! %s %s: %v", e.Provider, e.Model, e.Data)
		}
		if line != "" {
			fmt.Fprintln(w, dimStyle.Render(line))
		}
	}
}
