package credentials

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"sort"

	"github.com/tidwall/jsonc"
)

// Entry is one host block of a credentials file.
type Entry struct {
	Host  string
	Token string
}

// TerraformFile reads the Terraform CLI credentials file
// (credentials.tfrc.json). Comments and trailing commas are tolerated.
type TerraformFile struct {
	path string
}

// NewTerraformFile returns a source for path, or for the default location
// when path is empty.
func NewTerraformFile(path string) *TerraformFile {
	if path == "" {
		path = DefaultFilePath()
	}
	return &TerraformFile{path: path}
}

// DefaultFilePath returns %APPDATA%\terraform.d\credentials.tfrc.json on
// Windows and ~/.terraform.d/credentials.tfrc.json elsewhere.
func DefaultFilePath() string {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, "terraform.d", "credentials.tfrc.json")
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".terraform.d", "credentials.tfrc.json")
}

func (f *TerraformFile) Path() string {
	return f.path
}

// Entries returns the file's hosts sorted by name.
func (f *TerraformFile) Entries() ([]Entry, error) {
	if f.path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &CredentialError{Reason: UnreadableFile, Path: f.path, Err: err}
	}

	var doc struct {
		Credentials map[string]struct {
			Token string `json:"token"`
		} `json:"credentials"`
	}
	if err := json.Unmarshal(jsonc.ToJSON(data), &doc); err != nil {
		return nil, &CredentialError{Reason: UnreadableFile, Path: f.path, Err: err}
	}

	entries := make([]Entry, 0, len(doc.Credentials))
	for host, cred := range doc.Credentials {
		entries = append(entries, Entry{Host: host, Token: cred.Token})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Host < entries[j].Host })
	return entries, nil
}
