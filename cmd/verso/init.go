package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aretw0/verso"
	"github.com/aretw0/verso/internal/config"
)

var initHook bool

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a store (git init)",
	Long: `Initialize a new store in --store or the current directory. This runs
'git init' and, with --hook, installs a post-update hook so that pushes into
the store refresh its files. --author and --hook are recorded in the store's
config file so later commands pick them up.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := []verso.Option{
			verso.WithLogger(logger),
			verso.WithHook(initHook || cfg.Hook),
		}
		if cfg.Binary != "" {
			opts = append(opts, verso.WithBinary(cfg.Binary))
		}
		if authorFlag != "" {
			a, err := author()
			if err != nil {
				return err
			}
			if err := a.Validate(); err != nil {
				return err
			}
			cfg.Author = a
		}
		if _, err := verso.Init(storePath, opts...); err != nil {
			return fmt.Errorf("failed to initialize store: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), "Initialized empty verso store in", storePath)

		if authorFlag == "" && !initHook {
			return nil
		}
		cfg.Hook = cfg.Hook || initHook
		if err := config.Save(configPath, cfg); err != nil {
			return err
		}
		logger.Debug("config saved", "path", configPath)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().BoolVar(&initHook, "hook", false, "Install the post-update hook")
}
