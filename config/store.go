package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/nightvault/archivist/command"
)

// document is the on-disk shape: a cleartext section read back verbatim,
// and an encrypted section whose leaves are base64 ciphertext strings.
type document struct {
	Cleartext map[string]any `yaml:"cleartext"`
	Secrets   map[string]any `yaml:"secrets"`
}

// Config is the immutable, process-wide configuration and secret record.
// It is loaded once at process start and never mutated; Set returns a
// rewritten file on disk, not a mutation of the in-memory value.
type Config struct {
	path      string
	key       []byte
	cleartext map[string]any
	secrets   map[string]any
}

// Load reads and parses the YAML file at path, using key (see LoadKey) to
// decrypt secrets on demand. Load itself does not decrypt anything; it only
// parses the document shape, so a malformed secret ciphertext only ever
// surfaces as a DecryptError from Get, not a fatal load-time error.
func Load(path string, key []byte) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: reading %q: %w", path, err)
	}
	var doc document
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("config: parsing %q: %w", path, err)
	}
	return &Config{
		path:      path,
		key:       key,
		cleartext: doc.Cleartext,
		secrets:   doc.Secrets,
	}, nil
}

// Get resolves a dotted path such as "cleartext.retention_days" or
// "secrets.database.password". Secrets resolve to a command.Secret, masked
// under its default rendering; cleartext values resolve to whatever scalar
// or nested map the YAML held. A path that resolves to nothing, or a
// secrets path that ends at a group rather than a ciphertext string,
// returns a *KeyError; a secret leaf that fails to decrypt returns a
// *DecryptError.
func (c *Config) Get(path string) (any, error) {
	segments := strings.Split(path, ".")
	if len(segments) < 2 {
		return nil, &KeyError{Path: path}
	}

	switch segments[0] {
	case "cleartext":
		v, ok := traverse(c.cleartext, segments[1:])
		if !ok {
			return nil, &KeyError{Path: path}
		}
		return v, nil

	case "secrets":
		v, ok := traverse(c.secrets, segments[1:])
		if !ok {
			return nil, &KeyError{Path: path}
		}
		ciphertext, ok := v.(string)
		if !ok {
			return nil, &KeyError{Path: path}
		}
		plaintext, err := open(c.key, ciphertext)
		if err != nil {
			return nil, &DecryptError{Path: path, Cause: err}
		}
		return command.Secret(plaintext), nil

	default:
		return nil, &KeyError{Path: path}
	}
}

// GetString is a convenience wrapper around Get for cleartext scalar values.
func (c *Config) GetString(path string) (string, error) {
	v, err := c.Get(path)
	if err != nil {
		return "", err
	}
	s, ok := v.(string)
	if !ok {
		return "", &KeyError{Path: path}
	}
	return s, nil
}

// Set re-encrypts value under path (which must begin with "secrets.") and
// rewrites the config file atomically: write to a temp file in the same
// directory, then rename over the original, so a crash mid-write never
// leaves a half-written config on disk.
func (c *Config) Set(path, value string) error {
	segments := strings.Split(path, ".")
	if len(segments) < 2 || segments[0] != "secrets" {
		return &KeyError{Path: path}
	}

	ciphertext, err := seal(c.key, value)
	if err != nil {
		return err
	}

	// Edit a deep copy so this Config keeps the values it was loaded with.
	var doc document
	snapshot, err := yaml.Marshal(document{Cleartext: c.cleartext, Secrets: c.secrets})
	if err == nil {
		err = yaml.Unmarshal(snapshot, &doc)
	}
	if err != nil {
		return fmt.Errorf("config: copying document: %w", err)
	}
	if doc.Secrets == nil {
		doc.Secrets = map[string]any{}
	}
	if err := setNested(doc.Secrets, segments[1:], ciphertext); err != nil {
		return err
	}

	out, err := yaml.Marshal(doc)
	if err != nil {
		return fmt.Errorf("config: marshaling: %w", err)
	}

	dir := filepath.Dir(c.path)
	tmp, err := os.CreateTemp(dir, ".config-*.yaml.tmp")
	if err != nil {
		return fmt.Errorf("config: creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.Write(out); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("config: writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("config: closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, c.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("config: renaming temp file into place: %w", err)
	}
	return nil
}

func traverse(tree map[string]any, segments []string) (any, bool) {
	var cur any = tree
	for _, seg := range segments {
		m, ok := cur.(map[string]any)
		if !ok {
			return nil, false
		}
		cur, ok = m[seg]
		if !ok {
			return nil, false
		}
	}
	return cur, true
}

func setNested(tree map[string]any, segments []string, value string) error {
	if len(segments) == 0 {
		return fmt.Errorf("config: empty secret path")
	}
	for _, seg := range segments[:len(segments)-1] {
		next, ok := tree[seg]
		if !ok {
			child := map[string]any{}
			tree[seg] = child
			tree = child
			continue
		}
		child, ok := next.(map[string]any)
		if !ok {
			return fmt.Errorf("config: %q is not a group", seg)
		}
		tree = child
	}
	tree[segments[len(segments)-1]] = value
	return nil
}
