package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/mattt/mcp-server/internal"
	"github.com/mattt/mcp-server/internal/config"
	"github.com/mattt/mcp-server/internal/openapi"
	"github.com/mattt/mcp-server/internal/tools"
	"github.com/mattt/mcp-server/mcp"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

type flags struct {
	configPath    string
	verbose       bool
	name          string
	serverVersion string
	spec          string
	baseURL       string
	auth          string
	retries       int
	timeout       time.Duration
	rps           int
}

func newRootCmd() *cobra.Command {
	f := &flags{}

	cmd := &cobra.Command{
		Use:   "mcp-server",
		Short: "An MCP tool server over stdio",
		Long: `mcp-server speaks line-delimited JSON-RPC 2.0 on stdin and stdout.
It answers initialize, tools/list and tools/call, exposing a built-in echo tool
and, optionally, one tool per operation of an OpenAPI specification.

The --openapi value can be:
- A local file path
- An HTTP(S) URL
- "-" to read from stdin`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, f)
		},
	}

	cmd.Flags().StringVarP(&f.configPath, "config", "c", "", "Path to a YAML configuration file")
	cmd.Flags().BoolVarP(&f.verbose, "verbose", "v", false, "Enable verbose logging to stderr")
	cmd.Flags().StringVar(&f.name, "name", "", "Server name reported by initialize")
	cmd.Flags().StringVar(&f.serverVersion, "server-version", "", "Server version reported by initialize")
	cmd.Flags().StringVar(&f.spec, "openapi", "", "OpenAPI specification path or URL to expose as tools")
	cmd.Flags().StringVar(&f.baseURL, "base-url", "", "Base URL for OpenAPI calls, overriding the spec's servers")
	cmd.Flags().StringVar(&f.auth, "auth", "", "Authorization header value (e.g. 'Bearer token123', op://vault/item/field or env://NAME)")
	cmd.Flags().IntVar(&f.retries, "retries", 3, "Maximum number of retries for failed requests")
	cmd.Flags().DurationVar(&f.timeout, "timeout", 60*time.Second, "HTTP request timeout")
	cmd.Flags().IntVarP(&f.rps, "rps", "r", 0, "Maximum requests per second (0 for no limit)")

	cmd.Version = fmt.Sprintf("%s (commit: %s, built at: %s)", version, commit, date)

	return cmd
}

// loadConfig reads the configuration file and applies any flags set on the command line
func loadConfig(cmd *cobra.Command, f *flags) (*config.Config, error) {
	cfg, err := config.LoadFile(f.configPath)
	if err != nil {
		return nil, err
	}

	changed := cmd.Flags().Changed
	if changed("verbose") {
		cfg.Verbose = f.verbose
	}
	if changed("name") {
		cfg.Server.Name = f.name
	}
	if changed("server-version") {
		cfg.Server.Version = f.serverVersion
	}
	if changed("openapi") {
		cfg.OpenAPI.Spec = f.spec
	}
	if changed("base-url") {
		cfg.OpenAPI.BaseURL = f.baseURL
	}
	if changed("auth") {
		cfg.OpenAPI.Auth = f.auth
	}
	if changed("retries") {
		cfg.OpenAPI.Retries = f.retries
	}
	if changed("timeout") {
		cfg.OpenAPI.Timeout = f.timeout
	}
	if changed("rps") {
		cfg.OpenAPI.RPS = f.rps
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func run(cmd *cobra.Command, f *flags) error {
	cfg, err := loadConfig(cmd, f)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: slog.LevelDebug,
	}))
	if !cfg.Verbose {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	sigCtx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(sigCtx)

	g.Go(func() error {
		registry := mcp.NewRegistry()
		if err := tools.Register(registry); err != nil {
			return fmt.Errorf("error registering tools: %w", err)
		}

		rpcInput := cmd.InOrStdin()
		if cfg.OpenAPI.Spec != "" {
			if cfg.OpenAPI.Spec == "-" {
				logger.Info("reading spec from stdin")

				// When reading spec from stdin, we need to use /dev/tty for RPC input
				// because stdin isn't a TTY when reading from a pipe
				tty, err := os.Open("/dev/tty")
				if err != nil {
					return fmt.Errorf("error opening /dev/tty: %w", err)
				}
				defer tty.Close()
				rpcInput = tty
			}

			if err := registerOpenAPI(ctx, registry, cfg, cmd.InOrStdin(), logger); err != nil {
				return err
			}
		}

		server, err := mcp.NewServer(
			mcp.WithServerInfo(cfg.Server.Name, cfg.Server.Version),
			mcp.WithInstructions(cfg.Server.Instructions),
			mcp.WithRegistry(registry),
			mcp.WithLogger(logger),
		)
		if err != nil {
			return fmt.Errorf("error creating server: %w", err)
		}

		transport := mcp.NewStdioTransport(rpcInput, cmd.OutOrStdout(), logger)
		return transport.Run(ctx, server)
	})

	// Reads from stdin block until input arrives, so a signal ends the
	// command without waiting for the transport to notice.
	errc := make(chan error, 1)
	go func() { errc <- g.Wait() }()

	select {
	case err = <-errc:
	case <-sigCtx.Done():
		logger.Info("shutting down", "reason", context.Cause(sigCtx))
		err = nil
	}

	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func registerOpenAPI(ctx context.Context, registry *mcp.Registry, cfg *config.Config, stdin io.Reader, logger *slog.Logger) error {
	auth := cfg.OpenAPI.Auth
	if auth != "" {
		resolved, wasSecret, err := internal.ResolveSecretReference(ctx, auth)
		if err != nil {
			return fmt.Errorf("error resolving auth: %w", err)
		}
		if wasSecret {
			logger.Debug("resolved auth from secret reference")
		}
		auth = resolved
	}

	client := openapi.NewHTTPClient(openapi.ClientOptions{
		Retries:   cfg.OpenAPI.Retries,
		Timeout:   cfg.OpenAPI.Timeout,
		RPS:       cfg.OpenAPI.RPS,
		Auth:      auth,
		UserAgent: cfg.Server.Name + "/" + cfg.Server.Version,
	}, logger)

	logger.Info("loading spec", "location", cfg.OpenAPI.Spec)
	specData, err := openapi.LoadSpec(ctx, cfg.OpenAPI.Spec, client, stdin)
	if err != nil {
		return err
	}

	n, err := openapi.Register(registry, specData, openapi.Options{
		BaseURL:  cfg.OpenAPI.BaseURL,
		Client:   client,
		Disabled: cfg.OpenAPI.IsDisabled,
		Logger:   logger,
	})
	if err != nil {
		return fmt.Errorf("error registering OpenAPI tools: %w", err)
	}
	logger.Info("registered OpenAPI tools", "count", n)
	return nil
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
