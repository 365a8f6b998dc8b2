// ABOUTME: folio subcommands: serve, init, useradd and health
// ABOUTME: Each command loads the config file named by --config or FOLIO_CONFIG

package main

import (
	"bufio"
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"gopkg.in/yaml.v3"

	"github.com/2389/folio/internal/app"
	"github.com/2389/folio/internal/config"
	"github.com/2389/folio/internal/gateway"
)

// readPassword is a seam over term.ReadPassword.
var readPassword = func() ([]byte, error) {
	return term.ReadPassword(int(os.Stdin.Fd()))
}

func newServeCommand(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runServe(cmd.Context(), opts.configPath(), cmd.OutOrStdout())
		},
	}
}

func runServe(ctx context.Context, configPath string, out io.Writer) error {
	cyan := color.New(color.FgCyan)
	gray := color.New(color.FgHiBlack)
	green := color.New(color.FgGreen)

	cyan.Fprint(out, banner)
	gray.Fprintf(out, "    version: %s\n\n", version)

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logger := setupLogger(cfg.Logging, out)

	green.Fprint(out, "    ▶ ")
	fmt.Fprintf(out, "Config:    %s\n", configPath)
	green.Fprint(out, "    ▶ ")
	fmt.Fprintf(out, "HTTP:      %s\n", cfg.Server.HTTPAddr)
	green.Fprint(out, "    ▶ ")
	fmt.Fprintf(out, "Database:  %s", cfg.Database.Driver)
	if cfg.Database.Driver == "sqlite" {
		gray.Fprintf(out, " (%s)", cfg.Database.Path)
	}
	fmt.Fprintln(out)
	fmt.Fprintln(out)

	logger.Info("starting folio",
		"config", configPath,
		"http_addr", cfg.Server.HTTPAddr,
		"driver", cfg.Database.Driver,
	)

	driver, err := gateway.OpenDriver(ctx, cfg.Database)
	if err != nil {
		return err
	}

	gw, err := gateway.New(ctx, cfg, driver, logger)
	if err != nil {
		_ = driver.Close()
		return fmt.Errorf("creating gateway: %w", err)
	}

	return gw.Run(ctx)
}

func newInitCommand(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write a config file with a fresh session secret",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runInit(opts.configPath(), force, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config file")
	return cmd
}

func runInit(configPath string, force bool, out io.Writer) error {
	if _, err := os.Stat(configPath); err == nil && !force {
		return fmt.Errorf("config file already exists at %s (use --force to overwrite)", configPath)
	}

	secret := make([]byte, 32)
	if _, err := rand.Read(secret); err != nil {
		return fmt.Errorf("generating session secret: %w", err)
	}

	cfg := config.Default()
	cfg.Auth.SessionSecret = base64.StdEncoding.EncodeToString(secret)

	var data []byte
	if strings.EqualFold(filepath.Ext(configPath), ".toml") {
		var buf strings.Builder
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
		data = []byte(buf.String())
	} else {
		var err error
		if data, err = yaml.Marshal(cfg); err != nil {
			return fmt.Errorf("encoding config: %w", err)
		}
	}

	if dir := filepath.Dir(configPath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating config directory: %w", err)
		}
	}
	if err := os.WriteFile(configPath, data, 0o600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	color.New(color.FgGreen).Fprint(out, "✓ ")
	fmt.Fprintf(out, "Wrote %s\n", configPath)
	return nil
}

func newUserAddCommand(opts *rootOptions) *cobra.Command {
	var passwordStdin bool
	cmd := &cobra.Command{
		Use:   "useradd <username>",
		Short: "Create a user account",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			password, err := promptPassword(cmd, passwordStdin)
			if err != nil {
				return err
			}
			return runUserAdd(cmd.Context(), opts.configPath(), args[0], password, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&passwordStdin, "password-stdin", false, "read the password from stdin")
	return cmd
}

// promptPassword reads a line from stdin, or prompts twice on the terminal.
func promptPassword(cmd *cobra.Command, fromStdin bool) (string, error) {
	if fromStdin {
		line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
		if err != nil && !errors.Is(err, io.EOF) {
			return "", fmt.Errorf("reading password: %w", err)
		}
		return strings.TrimRight(line, "\r\n"), nil
	}

	errOut := cmd.ErrOrStderr()
	fmt.Fprint(errOut, "Password: ")
	first, err := readPassword()
	fmt.Fprintln(errOut)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	fmt.Fprint(errOut, "Confirm:  ")
	second, err := readPassword()
	fmt.Fprintln(errOut)
	if err != nil {
		return "", fmt.Errorf("reading password: %w", err)
	}
	if string(first) != string(second) {
		return "", errors.New("passwords do not match")
	}
	return string(first), nil
}

func runUserAdd(ctx context.Context, configPath, username, password string, out io.Writer) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if cfg.Database.Driver == "memory" {
		return errors.New("useradd needs a persistent database driver")
	}

	driver, err := gateway.OpenDriver(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer func() { _ = driver.Close() }()

	concepts, err := app.OpenConcepts(ctx, driver)
	if err != nil {
		return fmt.Errorf("opening concepts: %w", err)
	}
	user, err := concepts.Identity.Create(ctx, username, password)
	if err != nil {
		return fmt.Errorf("creating user: %w", err)
	}

	color.New(color.FgGreen).Fprint(out, "✓ ")
	fmt.Fprintf(out, "Created user %s ", user.Username)
	color.New(color.FgHiBlack).Fprintf(out, "(%s)\n", user.ID)
	return nil
}

func newHealthCommand(opts *rootOptions) *cobra.Command {
	var ready bool
	cmd := &cobra.Command{
		Use:   "health",
		Short: "Check a running server's health",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.configPath())
			if err != nil {
				return fmt.Errorf("loading config: %w", err)
			}
			path := "/health"
			if ready {
				path = "/health/ready"
			}
			return runHealth(cmd.Context(), "http://"+cfg.Server.HTTPAddr+path, cmd.OutOrStdout())
		},
	}
	cmd.Flags().BoolVar(&ready, "ready", false, "also check the database")
	return cmd
}

func runHealth(ctx context.Context, url string, out io.Writer) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}

	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("unhealthy: status %d", resp.StatusCode)
	}

	fmt.Fprintln(out, "healthy")
	return nil
}
