package scaffold

import (
	"bytes"
	"embed"
	"fmt"
	"os"
	"path/filepath"
	"text/template"

	"github.com/dyluth/splatter/internal/config"
)

//go:embed templates/*
var templatesFS embed.FS

// Options fills the generated configuration.
type Options struct {
	Network  string
	RedisURL string
	Account  string
}

// Initialize writes a starter configuration to path.
// If force is true an existing file is replaced.
func Initialize(path string, opts Options, force bool) error {
	if force {
		if err := handleForce(path); err != nil {
			return err
		}
	} else if err := CheckExisting(path); err != nil {
		return err
	}

	content, err := render(opts)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}

	// The written file must load with the same rules the CLI applies.
	if _, err := config.Load(path); err != nil {
		os.Remove(path)
		return fmt.Errorf("created %s is not valid: %w", filepath.Base(path), err)
	}

	return nil
}

// handleForce removes an existing configuration if --force was specified
func handleForce(path string) error {
	if _, err := os.Stat(path); err == nil {
		if err := os.Remove(path); err != nil {
			return fmt.Errorf("failed to remove %s: %w", filepath.Base(path), err)
		}
	}
	return nil
}

func render(opts Options) ([]byte, error) {
	if opts.Network == "" {
		opts.Network = config.Default().Network
	}
	if opts.RedisURL == "" {
		opts.RedisURL = config.Default().RedisURL
	}

	raw, err := templatesFS.ReadFile("templates/splatter.yml.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read splatter.yml template: %w", err)
	}

	tmpl, err := template.New("splatter.yml").Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("failed to parse splatter.yml template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, opts); err != nil {
		return nil, fmt.Errorf("failed to render splatter.yml: %w", err)
	}
	return buf.Bytes(), nil
}
