package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"phishdetect/internal/adapters/memory"
	"phishdetect/internal/config"
	"phishdetect/internal/credentials"
	"phishdetect/internal/domain"
	"phishdetect/internal/errs"
	"phishdetect/internal/ports"
	"phishdetect/internal/providers"
	"phishdetect/internal/services/console"
	"phishdetect/internal/services/gateway"
	"phishdetect/internal/services/store"
)

type options struct {
	apiKey     string
	provider   string
	model      string
	noBanner   bool
	jsonOutput bool
	verbose    bool
	fileName   string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "phishctl",
		Short:         "Analyze emails, URLs, sandbox logs and API payloads for phishing",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.apiKey, "api-key", "", "model API key (default $API_KEY)")
	root.PersistentFlags().StringVar(&opts.provider, "provider", "", "model provider: gemini, openai or offline (default $MODEL_PROVIDER)")
	root.PersistentFlags().StringVar(&opts.model, "model", "", "model name (default $MODEL_NAME)")
	root.PersistentFlags().BoolVar(&opts.noBanner, "no-banner", false, "do not print the banner")
	root.PersistentFlags().BoolVar(&opts.jsonOutput, "json", false, "print the scan as JSON")
	root.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "log model calls to stderr")

	root.AddCommand(
		analyzeCmd(opts, "email <body|->", "Analyze an email body", domain.ScanEmail),
		analyzeCmd(opts, "url <url>", "Analyze a URL", domain.ScanURL),
		analyzeCmd(opts, "api [payload|-]", "Analyze a JSON API payload", domain.ScanAPI),
		fileCmd(opts),
	)
	return root
}

func analyzeCmd(opts *options, use, short string, t domain.ScanType) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			content, err := readArg(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			return runAnalysis(cmd, opts, t, ports.JobInput{Content: content})
		},
	}
}

func fileCmd(opts *options) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "file [syscall-log|-]",
		Short: "Analyze file metadata and a simulated syscall log",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			syscallLog, err := readArg(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			return runAnalysis(cmd, opts, domain.ScanFile, ports.JobInput{FileName: opts.fileName, SyscallLog: syscallLog})
		},
	}
	cmd.Flags().StringVarP(&opts.fileName, "name", "n", "", "artifact file name (default "+console.DefaultSandboxFile+")")
	return cmd
}

// readArg returns the single positional argument, reading stdin for "-".
func readArg(stdin io.Reader, args []string) (string, error) {
	if len(args) == 0 {
		return "", nil
	}
	if args[0] != "-" {
		return args[0], nil
	}
	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("read stdin: %w", err)
	}
	return strings.TrimRight(string(data), "\n"), nil
}

func runAnalysis(cmd *cobra.Command, opts *options, t domain.ScanType, in ports.JobInput) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if opts.provider != "" {
		cfg.ModelProvider = strings.ToLower(opts.provider)
	}
	if opts.model != "" {
		cfg.ModelName = opts.model
	}
	if opts.apiKey != "" {
		cfg.APIKey = opts.apiKey
	}
	if cfg.ModelProvider == config.ProviderOffline && cfg.APIKey == "" {
		cfg.APIKey = "offline"
	}

	level := slog.LevelWarn
	if opts.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))

	factory, err := providers.New(cfg)
	if err != nil {
		return err
	}
	gw := gateway.New(factory, credentials.NewSelector(cfg.APIKey), gateway.Options{
		ThinkingBudget: int32(cfg.ThinkingBudget),
		Logger:         logger,
	})
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	st, err := store.Open(ctx, memory.NewSlots(), memory.NewSlots(), store.Options{Logger: logger})
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if !opts.noBanner && !opts.jsonOutput {
		printBanner(out)
	}
	scan, err := console.New(gw, st, logger).Analyze(ctx, t, in)
	if errs.IsAuthenticationRequired(err) {
		return fmt.Errorf("%w\nset API_KEY or pass --api-key", err)
	}
	if err != nil {
		return err
	}
	if opts.jsonOutput {
		return writeJSON(out, scan)
	}
	renderScan(out, scan)
	return nil
}
