package credentials

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/mattjoyce/hcpctl/internal/log"
)

// Environment variables consulted in order; the first set and non-empty wins.
var (
	HostEnvVars  = []string{"TFE_HOSTNAME"}
	TokenEnvVars = []string{"HCP_TOKEN", "TFC_TOKEN", "TFE_TOKEN"}
)

// ContextSource is the active named context, if any.
type ContextSource interface {
	CurrentHost() string
	CurrentToken() string
}

// FileSource lists the (host, token) entries of a credentials file. A file
// that does not exist yields no entries and no error.
type FileSource interface {
	Path() string
	Entries() ([]Entry, error)
}

// HostChooser asks the user to pick one of several hosts.
type HostChooser interface {
	ChooseHost(ctx context.Context, hosts []string) (string, error)
}

// Request carries the explicitly supplied values for one invocation.
type Request struct {
	Host  string
	Token string
	// Batch forbids prompting; ambiguity becomes an error.
	Batch bool
}

// Resolver produces Credentials from layered sources. Every source is
// injected; the zero value consults nothing but the request.
type Resolver struct {
	LookupEnv func(string) (string, bool)
	Context   ContextSource
	File      FileSource
	Chooser   HostChooser
	Logger    *slog.Logger
}

// NewResolver wires a resolver to the process environment.
func NewResolver(ctxSource ContextSource, file FileSource, chooser HostChooser) *Resolver {
	return &Resolver{
		LookupEnv: os.LookupEnv,
		Context:   ctxSource,
		File:      file,
		Chooser:   chooser,
		Logger:    log.WithComponent("credentials"),
	}
}

// Resolve returns the effective host and token. Host and token are resolved
// independently: explicit value, environment, active context, credentials file.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Credentials, error) {
	entries := &fileEntries{source: r.File}

	host, err := r.resolveHost(ctx, req, entries)
	if err != nil {
		return Credentials{}, err
	}
	host = NormalizeHost(host)

	token, err := r.resolveToken(req, host, entries)
	if err != nil {
		return Credentials{}, err
	}
	return Credentials{Host: host, Token: token}, nil
}

func (r *Resolver) resolveHost(ctx context.Context, req Request, entries *fileEntries) (string, error) {
	if host := strings.TrimSpace(req.Host); host != "" {
		r.logger().Debug("using host from explicit flag", "host", host)
		return host, nil
	}
	if name, host := r.firstEnv(HostEnvVars); host != "" {
		r.logger().Debug("using host from environment", "var", name, "host", host)
		return host, nil
	}
	if r.Context != nil {
		if host := strings.TrimSpace(r.Context.CurrentHost()); host != "" {
			r.logger().Debug("using host from active context", "host", host)
			return host, nil
		}
	}

	list, err := entries.load()
	if err != nil {
		return "", err
	}
	hosts := make([]string, 0, len(list))
	for _, e := range list {
		hosts = append(hosts, e.Host)
	}

	switch len(hosts) {
	case 0:
		return "", &CredentialError{Reason: NoHostConfigured, Path: entries.path()}
	case 1:
		r.logger().Debug("using single host from credentials file", "path", entries.path(), "host", hosts[0])
		return hosts[0], nil
	}

	if req.Batch || r.Chooser == nil {
		return "", &CredentialError{Reason: AmbiguousHost, Hosts: hosts, Path: entries.path()}
	}
	host, err := r.Chooser.ChooseHost(ctx, hosts)
	if err != nil {
		return "", fmt.Errorf("choose host: %w", err)
	}
	return host, nil
}

func (r *Resolver) resolveToken(req Request, host string, entries *fileEntries) (string, error) {
	if token := strings.TrimSpace(req.Token); token != "" {
		r.logger().Debug("using token from explicit flag")
		return token, nil
	}
	if name, token := r.firstEnv(TokenEnvVars); token != "" {
		r.logger().Debug("using token from environment", "var", name)
		return token, nil
	}
	if r.Context != nil {
		if token := strings.TrimSpace(r.Context.CurrentToken()); token != "" {
			r.logger().Debug("using token from active context")
			return token, nil
		}
	}

	list, err := entries.load()
	if err != nil {
		return "", err
	}
	for _, e := range list {
		if NormalizeHost(e.Host) == host && e.Token != "" {
			r.logger().Debug("using token from credentials file", "path", entries.path(), "host", host)
			return e.Token, nil
		}
	}
	return "", &CredentialError{Reason: MissingToken, Host: host, Path: entries.path()}
}

func (r *Resolver) firstEnv(names []string) (string, string) {
	if r.LookupEnv == nil {
		return "", ""
	}
	for _, name := range names {
		if v, ok := r.LookupEnv(name); ok {
			if v = strings.TrimSpace(v); v != "" {
				return name, v
			}
		}
	}
	return "", ""
}

func (r *Resolver) logger() *slog.Logger {
	if r.Logger == nil {
		r.Logger = log.WithComponent("credentials")
	}
	return r.Logger
}

// NormalizeHost strips a scheme and trailing slashes so hosts compare equal
// however they were written.
func NormalizeHost(host string) string {
	host = strings.TrimSpace(host)
	host = strings.TrimPrefix(host, "https://")
	host = strings.TrimPrefix(host, "http://")
	return strings.TrimRight(host, "/")
}

// fileEntries reads the credentials file at most once per resolution.
type fileEntries struct {
	source  FileSource
	loaded  bool
	entries []Entry
	err     error
}

func (f *fileEntries) load() ([]Entry, error) {
	if f.source == nil {
		return nil, nil
	}
	if !f.loaded {
		f.entries, f.err = f.source.Entries()
		f.loaded = true
	}
	return f.entries, f.err
}

func (f *fileEntries) path() string {
	if f.source == nil {
		return ""
	}
	return f.source.Path()
}
