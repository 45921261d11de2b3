package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/ultrapress/ultrapress/pkg/engine"
)

func runSEO(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("seo", flag.ExitOnError)
	var common commonFlags
	common.register(fs)
	title := fs.String("title", "", "article title")
	contentFile := fs.String("content", "", "file holding the article body, '-' for stdin")
	keyword := fs.String("keyword", "", "focus keyword")
	asJSON := fs.Bool("json", false, "print the result as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	body, err := readContent(*contentFile, os.Stdin)
	if err != nil {
		return err
	}
	if *title == "" && body == "" {
		return errors.New("seo: -title or -content is required")
	}

	eng, err := openEngine(common, os.Stderr)
	if err != nil {
		return err
	}
	defer func() { _ = eng.Close() }()

	meta, err := eng.GenerateSEO(ctx, engine.Article{Title: *title, Content: body, FocusKeyword: *keyword})
	if err != nil {
		return fmt.Errorf("seo: %s", describeError(err))
	}

	return printSEO(os.Stdout, meta, *asJSON)
}

// readContent returns the article body from path, stdin for "-", or "" when
// path is empty.
func readContent(path string, stdin io.Reader) (string, error) {
	var (
		data []byte
		err  error
	)
	switch path {
	case "":
		return "", nil
	case "-":
		data, err = io.ReadAll(stdin)
	default:
		data, err = os.ReadFile(path) //nolint:gosec // path comes from the command line
	}
	if err != nil {
		return "", fmt.Errorf("seo: read content: %w", err)
	}
	return string(data), nil
}

func printSEO(w io.Writer, meta engine.SEOMeta, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(meta)
	}

	fmt.Fprintf(w, "%s %s\n", headerStyle.Render("Title:"), meta.Title)
	fmt.Fprintf(w, "%s %s\n", headerStyle.Render("Description:"), meta.Description)
	if meta.SuggestedKeyword != "" {
		fmt.Fprintf(w, "%s %s\n", headerStyle.Render("Keyword:"), meta.SuggestedKeyword)
	}
	return nil
}
