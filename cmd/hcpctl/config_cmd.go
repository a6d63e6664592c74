package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mattjoyce/hcpctl/internal/config"
	"github.com/mattjoyce/hcpctl/internal/output"
)

type contextView struct {
	Name    string `json:"name"`
	Current bool   `json:"current"`
	Host    string `json:"host"`
	Org     string `json:"org,omitempty"`
	Token   string `json:"token"`
}

func newConfigCommand(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage named contexts in the config file",
	}
	cmd.AddCommand(
		newGetContextsCommand(a),
		newUseContextCommand(a),
		newSetContextCommand(a),
		newDeleteContextCommand(a),
	)
	return cmd
}

func newGetContextsCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "get-contexts",
		Short: "List contexts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := a.printer()
			if err != nil {
				return err
			}
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			views := []contextView{}
			t := output.Table{Headers: []string{"CURRENT", "NAME", "HOST", "ORG", "TOKEN"}}
			for _, name := range cfg.ContextNames() {
				c := cfg.Contexts[name]
				v := contextView{Name: name, Current: name == cfg.ActiveName(), Host: c.Host, Org: c.Org, Token: tokenSummary(c)}
				views = append(views, v)
				marker := ""
				if v.Current {
					marker = "*"
				}
				t.Rows = append(t.Rows, []string{marker, v.Name, v.Host, v.Org, v.Token})
			}
			return p.Print(views, t)
		},
	}
}

// tokenSummary never shows a literal token.
func tokenSummary(c *config.Context) string {
	switch {
	case c.Token == "":
		return "<none>"
	case strings.Contains(c.Token, "${"):
		return c.Token
	default:
		return "<redacted>"
	}
}

func newUseContextCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "use-context <name>",
		Short: "Make a context the default",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.UseContext(args[0]); err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Switched to context %q.\n", args[0])
			return nil
		},
	}
}

func newSetContextCommand(a *app) *cobra.Command {
	var ctx config.Context
	var use bool
	cmd := &cobra.Command{
		Use:   "set-context <name>",
		Short: "Create or replace a context",
		Long: "Create or replace a context. Prefer --token '${ENV_VAR}' over a literal\n" +
			"token; references are expanded when the context is used.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if ctx.Host == "" {
				ctx.Host = a.host
			}
			if ctx.Token == "" {
				ctx.Token = a.token
			}
			if err := cfg.SetContext(args[0], ctx); err != nil {
				return err
			}
			if use || cfg.CurrentContext == "" {
				if err := cfg.UseContext(args[0]); err != nil {
					return err
				}
			}
			if err := cfg.Save(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Context %q saved to %s.\n", args[0], cfg.Path())
			return nil
		},
	}
	cmd.Flags().StringVar(&ctx.Host, "context-host", "", "host of the context (default --host)")
	cmd.Flags().StringVar(&ctx.Token, "context-token", "", "token or ${ENV_VAR} reference (default --token)")
	cmd.Flags().StringVar(&ctx.Org, "org", "", "default organization")
	cmd.Flags().BoolVar(&use, "use", false, "also make it the current context")
	return cmd
}

func newDeleteContextCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete-context <name>",
		Short: "Remove a context",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := a.loadConfig()
			if err != nil {
				return err
			}
			if err := cfg.DeleteContext(args[0]); err != nil {
				return err
			}
			if err := cfg.Save(); err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Deleted context %q.\n", args[0])
			return nil
		},
	}
}
