package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"gopkg.in/yaml.v3"

	"github.com/ultrapress/ultrapress/pkg/engine"
	"github.com/ultrapress/ultrapress/pkg/modeladapter"
	"github.com/ultrapress/ultrapress/pkg/prompt"
	"github.com/ultrapress/ultrapress/pkg/session"
)

// wizardAnswers holds everything the init wizard asks for.
type wizardAnswers struct {
	Provider       string
	APIKey         string //nolint:gosec // env var reference, not a secret
	Model          string
	Persona        string
	KnowledgeBase  string
	ContactInfo    string
	WelcomeMessage string
	SessionDriver  string
	RedisAddr      string
	Transcript     string
}

// configYAML is the file layout written by init. Zero values are omitted
// so the engine defaults apply.
type configYAML struct {
	Provider   string                  `yaml:"provider"`
	Providers  map[string]providerYAML `yaml:"providers"`
	Chatbot    chatbotYAML             `yaml:"chatbot"`
	Session    sessionYAML             `yaml:"session,omitempty"`
	Transcript *transcriptYAML         `yaml:"transcript,omitempty"`
}

type providerYAML struct {
	APIKey string `yaml:"api_key"` //nolint:gosec // env var reference, not a secret
	Model  string `yaml:"model"`
}

type chatbotYAML struct {
	Persona        string `yaml:"persona"`
	KnowledgeBase  string `yaml:"knowledge_base,omitempty"`
	ContactInfo    string `yaml:"contact_info,omitempty"`
	WelcomeMessage string `yaml:"welcome_message,omitempty"`
}

type sessionYAML struct {
	Driver    string `yaml:"driver,omitempty"`
	RedisAddr string `yaml:"redis_addr,omitempty"`
}

type transcriptYAML struct {
	Path string `yaml:"path"`
}

func runInit(args []string) error {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("config", defaultConfigFile, "file to write")
	force := fs.Bool("force", false, "overwrite an existing file")
	if err := fs.Parse(args); err != nil {
		return err
	}

	if !*force {
		if _, err := os.Stat(*path); err == nil {
			return fmt.Errorf("%s already exists (use -force to overwrite)", *path)
		}
	}

	answers, err := runWizard()
	if err != nil {
		return err
	}

	data, err := marshalConfig(answers)
	if err != nil {
		return err
	}

	if err := writeConfigFile(*path, data, *force); err != nil {
		return err
	}

	fmt.Println(successStyle.Render("Wrote " + *path))
	fmt.Println(dimStyle.Render("Export " + envReference(answers.Provider) + " or set " +
		engine.EnvKeyVar(modeladapter.Provider(answers.Provider)) + " before running 'ultrapress chat'."))

	return nil
}

func runWizard() (wizardAnswers, error) {
	a := wizardAnswers{
		Provider:       string(modeladapter.OpenAI),
		Persona:        prompt.DefaultPersona,
		WelcomeMessage: engine.DefaultWelcomeMessage,
		SessionDriver:  string(session.DriverMemory),
	}

	providerOpts := make([]huh.Option[string], 0, len(modeladapter.Providers()))
	for _, p := range modeladapter.Providers() {
		providerOpts = append(providerOpts, huh.NewOption(string(p), string(p)))
	}
	if err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().Title("AI provider").Options(providerOpts...).Value(&a.Provider),
	)).Run(); err != nil {
		return a, err
	}

	p := modeladapter.Provider(a.Provider)
	a.APIKey = envReference(a.Provider)
	a.Model = engine.DefaultModel(p)

	modelOpts := huh.NewOptions(engine.AvailableModels(p)...)
	if err := huh.NewForm(huh.NewGroup(
		huh.NewInput().Title("API key (env var reference or literal)").Value(&a.APIKey),
		huh.NewSelect[string]().Title("Model").Options(modelOpts...).Value(&a.Model),
	)).Run(); err != nil {
		return a, err
	}

	personaOpts := make([]huh.Option[string], 0, len(prompt.Personas()))
	for _, persona := range prompt.Personas() {
		personaOpts = append(personaOpts, huh.NewOption(persona.Label, persona.Key))
	}
	if err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().Title("Chatbot persona").Options(personaOpts...).Value(&a.Persona),
		huh.NewText().Title("Knowledge base (what the bot should know about your business)").Value(&a.KnowledgeBase),
		huh.NewInput().Title("Contact info for questions the bot cannot answer").Value(&a.ContactInfo),
		huh.NewInput().Title("Welcome message").Value(&a.WelcomeMessage),
	)).Run(); err != nil {
		return a, err
	}

	if err := huh.NewForm(huh.NewGroup(
		huh.NewSelect[string]().Title("Conversation store").Options(
			huh.NewOption("In memory", string(session.DriverMemory)),
			huh.NewOption("Redis", string(session.DriverRedis)),
		).Value(&a.SessionDriver),
		huh.NewInput().Title("SQLite transcript path (empty = disabled)").Value(&a.Transcript),
	)).Run(); err != nil {
		return a, err
	}

	if a.SessionDriver == string(session.DriverRedis) {
		a.RedisAddr = "localhost:6379"
		if err := huh.NewForm(huh.NewGroup(
			huh.NewInput().Title("Redis address").Value(&a.RedisAddr).Validate(validateNotEmpty),
		)).Run(); err != nil {
			return a, err
		}
	}

	return a, nil
}

// envReference returns the ${VAR} placeholder conventionally used for the
// provider's key.
func envReference(provider string) string {
	return "${" + strings.ToUpper(provider) + "_API_KEY}"
}

func validateNotEmpty(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("value is required")
	}
	return nil
}

func marshalConfig(a wizardAnswers) ([]byte, error) {
	yc := configYAML{
		Provider: a.Provider,
		Providers: map[string]providerYAML{
			a.Provider: {APIKey: a.APIKey, Model: a.Model},
		},
		Chatbot: chatbotYAML{
			Persona:        a.Persona,
			KnowledgeBase:  strings.TrimSpace(a.KnowledgeBase),
			ContactInfo:    strings.TrimSpace(a.ContactInfo),
			WelcomeMessage: strings.TrimSpace(a.WelcomeMessage),
		},
	}
	if a.SessionDriver != "" && a.SessionDriver != string(session.DriverMemory) {
		yc.Session = sessionYAML{Driver: a.SessionDriver, RedisAddr: a.RedisAddr}
	}
	if t := strings.TrimSpace(a.Transcript); t != "" {
		yc.Transcript = &transcriptYAML{Path: t}
	}

	data, err := yaml.Marshal(yc)
	if err != nil {
		return nil, fmt.Errorf("init: marshal config: %w", err)
	}
	return data, nil
}

// writeConfigFile writes data to path, creating parent directories. An
// existing file is only replaced when force is set.
func writeConfigFile(path string, data []byte, force bool) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("init: %w", err)
		}
	}

	flags := os.O_WRONLY | os.O_CREATE | os.O_EXCL
	if force {
		flags = os.O_WRONLY | os.O_CREATE | os.O_TRUNC
	}

	f, err := os.OpenFile(path, flags, 0o600) //nolint:gosec // path comes from the command line
	if err != nil {
		return fmt.Errorf("init: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("init: %w", err)
	}
	return f.Close()
}
