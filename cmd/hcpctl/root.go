package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/mattjoyce/hcpctl/internal/config"
	"github.com/mattjoyce/hcpctl/internal/credentials"
	"github.com/mattjoyce/hcpctl/internal/journal"
	"github.com/mattjoyce/hcpctl/internal/log"
	"github.com/mattjoyce/hcpctl/internal/observability"
	"github.com/mattjoyce/hcpctl/internal/output"
	"github.com/mattjoyce/hcpctl/internal/prompt"
	"github.com/mattjoyce/hcpctl/internal/tfe"
)

// BaseURLEnvVar points the client at a full API base URL instead of
// https://<host>, for proxies and local fakes.
const BaseURLEnvVar = "HCPCTL_API_URL"

// app holds the global flags and the lazily built collaborators of one
// invocation.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	configPath  string
	contextName string
	host        string
	token       string
	batch       bool
	logLevel    string
	format      string

	cfg      *config.Config
	client   *tfe.Client
	journal  *journal.Journal
	shutdown func(context.Context) error
}

func newApp(in io.Reader, out, errOut io.Writer) *app {
	return &app{in: in, out: out, errOut: errOut}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "hcpctl",
		Short:         "Query and maintain HCP Terraform and Terraform Enterprise workspaces",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
	}
	root.CompletionOptions.DisableDefaultCmd = true

	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "", "config file (default $HCPCTL_CONFIG or ~/.config/hcpctl/config.yaml)")
	pf.StringVar(&a.contextName, "context", "", "context to use for this invocation")
	pf.StringVar(&a.host, "host", "", "API host, e.g. app.terraform.io")
	pf.StringVar(&a.token, "token", "", "API token")
	pf.BoolVar(&a.batch, "batch", false, "never prompt; ambiguity becomes an error")
	pf.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn, error")
	pf.StringVarP(&a.format, "output", "o", "table", "output format: table, csv, json, yaml")

	root.AddCommand(
		newGetCommand(a),
		newDownloadCommand(a),
		newLogsCommand(a),
		newWatchCommand(a),
		newPurgeCommand(a),
		newConfigCommand(a),
		newJournalCommand(a),
		newVersionCommand(a),
	)
	return root
}

// setup loads the config and installs logging and tracing.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := a.loadConfig()
	if err != nil {
		return err
	}

	level := cfg.Log.Level
	if env := os.Getenv("HCPCTL_LOG"); env != "" {
		level = env
	}
	if a.logLevel != "" {
		level = a.logLevel
	}
	format := cfg.Log.Format
	if env := os.Getenv("HCPCTL_LOG_FORMAT"); env != "" {
		format = env
	}
	log.SetupWriter(a.errOut, level, format)

	shutdown, err := observability.InitTracingFromEnv("hcpctl", version)
	if err != nil {
		log.Warn("tracing disabled", "error", err)
	}
	a.shutdown = shutdown
	return nil
}

func (a *app) close() {
	if a.journal != nil {
		_ = a.journal.Close()
	}
	if a.shutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = a.shutdown(ctx)
	}
}

func (a *app) loadConfig() (*config.Config, error) {
	if a.cfg != nil {
		return a.cfg, nil
	}
	path := a.configPath
	if path == "" {
		path = config.Discover()
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := cfg.Select(a.contextName); err != nil {
		return nil, err
	}
	a.cfg = cfg
	return cfg, nil
}

func (a *app) printer() (*output.Printer, error) {
	f, err := output.ParseFormat(a.format)
	if err != nil {
		return nil, &tfe.ValidationError{Field: "output", Message: err.Error()}
	}
	return &output.Printer{Out: a.out, Format: f}, nil
}

// interactive reports whether prompts may be shown.
func (a *app) interactive() bool {
	if a.batch {
		return false
	}
	in, inOK := a.in.(*os.File)
	errOut, outOK := a.errOut.(*os.File)
	return inOK && outOK && prompt.Interactive(in, errOut)
}

func (a *app) prompter() *prompt.Prompter {
	return &prompt.Prompter{In: a.in, Out: a.errOut, Theme: prompt.NewDefaultTheme()}
}

// defaultOrg is the --org flag value, falling back to the active context.
func (a *app) defaultOrg(flag string) string {
	if flag != "" {
		return flag
	}
	if a.cfg == nil {
		return ""
	}
	return a.cfg.Active().DefaultOrg()
}

// apiClient resolves credentials and builds the client once.
func (a *app) apiClient(ctx context.Context) (*tfe.Client, error) {
	if a.client != nil {
		return a.client, nil
	}
	cfg, err := a.loadConfig()
	if err != nil {
		return nil, err
	}

	var chooser credentials.HostChooser
	if a.interactive() {
		chooser = a.prompter()
	}
	var ctxSource credentials.ContextSource
	if active := cfg.Active(); active != nil {
		ctxSource = active
	}
	resolver := credentials.NewResolver(ctxSource, credentials.NewTerraformFile(""), chooser)
	creds, err := resolver.Resolve(ctx, credentials.Request{Host: a.host, Token: a.token, Batch: a.batch})
	if err != nil {
		return nil, err
	}
	log.Debug("credentials resolved", "credentials", creds)

	s := cfg.Settings
	client, err := tfe.New(tfe.Config{
		Host:          creds.Host,
		Token:         creds.Token,
		BaseURL:       strings.TrimSpace(os.Getenv(BaseURLEnvVar)),
		Timeout:       s.Timeout,
		MaxConcurrent: s.Concurrency,
		MaxAttempts:   s.Retry.MaxAttempts,
		BackoffBase:   s.Retry.BackoffBase,
		Parallelism:   s.Parallelism,
		PageSize:      s.PageSize,
		UserAgent:     fmt.Sprintf("hcpctl/%s", version),
	})
	if err != nil {
		return nil, err
	}
	a.client = client
	return client, nil
}

// openJournal opens the journal unless it is disabled. Failures are
// logged and yield nil.
func (a *app) openJournal(ctx context.Context) *journal.Journal {
	if a.journal != nil {
		return a.journal
	}
	cfg, err := a.loadConfig()
	if err != nil || cfg.Journal.Disabled {
		return nil
	}
	path := cfg.Journal.Path
	if path == "" {
		path = config.DefaultJournalPath()
	}
	j, err := journal.Open(ctx, path)
	if err != nil {
		log.Warn("journal unavailable", "path", path, "error", err)
		return nil
	}
	a.journal = j
	return j
}
