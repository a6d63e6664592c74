package config

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// ContextEnvVar selects the active context when no flag is given.
const ContextEnvVar = "HCPCTL_CONTEXT"

// Select pins the active context for this invocation without touching the
// file. Priority: explicit name, $HCPCTL_CONTEXT, current_context.
func (c *Config) Select(name string) error {
	if name == "" {
		name = strings.TrimSpace(os.Getenv(ContextEnvVar))
	}
	if name == "" {
		c.selected = ""
		return nil
	}
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found in %s", name, c.path)
	}
	c.selected = name
	return nil
}

// ActiveName returns the name of the active context, or "" when none.
func (c *Config) ActiveName() string {
	if c.selected != "" {
		return c.selected
	}
	return c.CurrentContext
}

// Active returns the active context. The result is nil when no context is
// active, which the credential resolver treats as an empty source.
func (c *Config) Active() *Context {
	name := c.ActiveName()
	if name == "" {
		return nil
	}
	return c.Contexts[name]
}

// ContextNames returns the defined context names in sorted order.
func (c *Config) ContextNames() []string {
	names := make([]string, 0, len(c.Contexts))
	for name := range c.Contexts {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// SetContext creates or replaces a named context.
func (c *Config) SetContext(name string, ctx Context) error {
	if name == "" {
		return fmt.Errorf("context name is empty")
	}
	if ctx.Host == "" {
		return fmt.Errorf("context %q: host is required", name)
	}
	if c.Contexts == nil {
		c.Contexts = map[string]*Context{}
	}
	c.Contexts[name] = &ctx
	return nil
}

// UseContext makes name the persisted current context.
func (c *Config) UseContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	c.CurrentContext = name
	return nil
}

// DeleteContext removes a context, clearing current_context if it pointed at it.
func (c *Config) DeleteContext(name string) error {
	if _, ok := c.Contexts[name]; !ok {
		return fmt.Errorf("context %q not found", name)
	}
	delete(c.Contexts, name)
	if c.CurrentContext == name {
		c.CurrentContext = ""
	}
	if c.selected == name {
		c.selected = ""
	}
	return nil
}

// CurrentHost returns the context host with ${VAR} references expanded.
func (ctx *Context) CurrentHost() string {
	if ctx == nil {
		return ""
	}
	return strings.TrimSpace(interpolateEnv(ctx.Host))
}

// CurrentToken returns the context token with ${VAR} references expanded.
func (ctx *Context) CurrentToken() string {
	if ctx == nil {
		return ""
	}
	return strings.TrimSpace(interpolateEnv(ctx.Token))
}

// DefaultOrg returns the context's default organization, if any.
func (ctx *Context) DefaultOrg() string {
	if ctx == nil {
		return ""
	}
	return ctx.Org
}
