package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/mail"
	"os"
	"os/signal"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/aretw0/verso"
	"github.com/aretw0/verso/internal/config"
)

var (
	verbose    bool
	storePath  string
	configPath string
	authorFlag string
	outputFlag string

	logger *slog.Logger
	cfg    *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "verso",
	Short: "A versioned store of named resources backed by Git",
	Long: `Verso keeps a directory of files where every change is an authored revision.
Each save, delete or rename becomes exactly one git commit, stale edits are
merged instead of overwritten, and history, search and watch work per path.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		level := slog.LevelInfo
		if verbose {
			level = slog.LevelDebug
		}
		opts := &slog.HandlerOptions{
			Level: level,
		}
		logger = slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), opts)).
			With("op", uuid.NewString(), "cmd", cmd.Name())
		slog.SetDefault(logger)

		root, err := resolveStore()
		if err != nil {
			return err
		}
		storePath = root

		if configPath == "" {
			configPath = filepath.Join(storePath, verso.ConfigFileName)
		}
		cfg, err = config.Load(configPath)
		if err != nil {
			return err
		}
		if outputFlag == "" {
			outputFlag = cfg.Output
		}
		logger.Debug("store resolved", "path", storePath, "config", configPath)
		return nil
	},
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&storePath, "store", "C", "", "Store root (default: nearest store above the working directory)")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: <store>/.verso.yaml)")
	rootCmd.PersistentFlags().StringVar(&authorFlag, "author", "", `Author as "Name <email>" (default: author in config)`)
	rootCmd.PersistentFlags().StringVarP(&outputFlag, "output", "o", "", "Output format: text, json or yaml")
}

// resolveStore picks the --store flag, or the nearest store above the working
// directory, or the working directory itself.
func resolveStore() (string, error) {
	if storePath != "" {
		return filepath.Abs(storePath)
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	if root, err := verso.FindStoreRoot(cwd); err == nil {
		return root, nil
	}
	return cwd, nil
}

// openService opens the existing store, or creates it when autoInit is set.
func openService(autoInit bool) (*verso.Service, error) {
	opts := []verso.Option{
		verso.WithLogger(logger),
		verso.WithAutoInit(autoInit),
		verso.WithHook(cfg.Hook),
	}
	if cfg.Binary != "" {
		opts = append(opts, verso.WithBinary(cfg.Binary))
	}
	svc, err := verso.New(storePath, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to open store: %w", err)
	}
	return svc, nil
}

// author resolves who signs the change: --author first, then the config file.
func author() (verso.Author, error) {
	if authorFlag != "" {
		addr, err := mail.ParseAddress(authorFlag)
		if err != nil {
			return verso.Author{}, fmt.Errorf("invalid --author %q: %w", authorFlag, err)
		}
		return verso.Author{Name: addr.Name, Email: addr.Address}, nil
	}
	if cfg.Author.Name == "" || cfg.Author.Email == "" {
		return verso.Author{}, fmt.Errorf("no author: pass --author or set author in %s", configPath)
	}
	return cfg.Author, nil
}
