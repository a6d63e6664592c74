// Package credentials resolves the host and API token for one invocation.
package credentials

import (
	"fmt"
	"log/slog"
	"strings"
)

//go:generate mockgen -destination=mocks/mock_sources.go -package=mocks github.com/mattjoyce/hcpctl/internal/credentials ContextSource,FileSource,HostChooser

// Credentials is the resolved (host, token) pair. It is immutable once
// resolved and never persisted by this package.
type Credentials struct {
	Host  string
	Token string
}

// String never includes the token.
func (c Credentials) String() string {
	return fmt.Sprintf("host=%s token=%s", c.Host, redact(c.Token))
}

// LogValue keeps the token out of structured logs.
func (c Credentials) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("host", c.Host),
		slog.String("token", redact(c.Token)),
	)
}

func redact(token string) string {
	if token == "" {
		return "<none>"
	}
	return "<redacted>"
}

// Reason identifies why credentials could not be resolved.
type Reason string

const (
	MissingToken     Reason = "missing_token"
	AmbiguousHost    Reason = "ambiguous_host"
	NoHostConfigured Reason = "no_host_configured"
	UnreadableFile   Reason = "unreadable_file"
)

// CredentialError reports an unresolved host or token. It never carries the
// token value.
type CredentialError struct {
	Reason Reason
	Host   string
	Hosts  []string
	Path   string
	Err    error
}

func (e *CredentialError) Error() string {
	switch e.Reason {
	case MissingToken:
		msg := fmt.Sprintf("no API token found for host %s; set --token, one of %s, an active context token", e.Host, strings.Join(TokenEnvVars, ", "))
		if e.Path != "" {
			msg += ", or an entry in " + e.Path
		}
		return msg
	case AmbiguousHost:
		return fmt.Sprintf("multiple hosts in %s (%s) and batch mode forbids prompting; pass --host or set %s",
			e.Path, strings.Join(e.Hosts, ", "), HostEnvVars[0])
	case NoHostConfigured:
		msg := fmt.Sprintf("no host configured; pass --host, set %s, or activate a context", HostEnvVars[0])
		if e.Path != "" {
			msg += ", or add an entry to " + e.Path
		}
		return msg
	case UnreadableFile:
		return fmt.Sprintf("read credentials file %s: %v", e.Path, e.Err)
	default:
		return fmt.Sprintf("credentials: %s", e.Reason)
	}
}

func (e *CredentialError) Unwrap() error {
	return e.Err
}
