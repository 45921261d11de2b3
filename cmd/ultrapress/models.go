package main

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ultrapress/ultrapress/pkg/engine"
	"github.com/ultrapress/ultrapress/pkg/modeladapter"
	"github.com/ultrapress/ultrapress/pkg/providers/gemini"
)

const (
	providerColWidth = 10
	modelColWidth    = 28
)

func runModels(args []string) error {
	fs := flag.NewFlagSet("models", flag.ExitOnError)
	provider := fs.String("provider", "", "only list this provider")
	if err := fs.Parse(args); err != nil {
		return err
	}

	providers := modeladapter.Providers()
	if *provider != "" {
		p, err := modeladapter.ParseProvider(*provider)
		if err != nil {
			return err
		}
		providers = []modeladapter.Provider{p}
	}

	writeModels(os.Stdout, providers)
	return nil
}

// writeModels prints one row per model with the provider's default marked.
func writeModels(w io.Writer, providers []modeladapter.Provider) {
	fmt.Fprintln(w, headerStyle.Render(padRight("PROVIDER", providerColWidth)+" "+padRight("MODEL", modelColWidth)+" NOTE"))

	for _, p := range providers {
		def := engine.DefaultModel(p)
		for _, m := range engine.AvailableModels(p) {
			var notes []string
			if m == def {
				notes = append(notes, "default")
			}
			if p == modeladapter.Gemini && gemini.NormalizeModel(m) != m {
				notes = append(notes, "sent as "+gemini.NormalizeModel(m))
			}
			fmt.Fprintf(w, "%s %s %s\n",
				padRight(string(p), providerColWidth),
				padRight(truncate(m, modelColWidth), modelColWidth),
				dimStyle.Render(strings.Join(notes, ", ")))
		}
	}

	fmt.Fprintln(w)
	for _, p := range providers {
		fmt.Fprintln(w, dimStyle.Render(fmt.Sprintf("%s key: %s", p, engine.EnvKeyVar(p))))
	}
}
