// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sigil Contributors

package main

import (
	"errors"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sigil-dev/sketch/internal/config"
	sketcherr "github.com/sigil-dev/sketch/pkg/errors"
)

// NewRootCmd creates the root sketch command with all subcommands registered.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "sketch",
		Short:         "sketch: 2D parametric sketch constraint solver",
		Long:          "sketch relaxes 2D sketches of points, lines and circles until their geometric constraints hold.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := initViper(cmd); err != nil {
				return err
			}
			setupLogging(cmd)
			return nil
		},
	}

	// Global flags. These map to viper keys via initViper.
	root.PersistentFlags().StringP("config", "c", "", "path to config file")
	root.PersistentFlags().String("data-dir", "", "path to data directory")
	root.PersistentFlags().BoolP("verbose", "v", false, "enable verbose output")

	root.AddCommand(
		newSolveCmd(),
		newCheckCmd(),
		newRenderCmd(),
		newServeCmd(),
		newWatchCmd(),
		newDocCmd(),
		newVersionCmd(),
	)

	return root
}

// initViper sets up the global Viper with defaults, env bindings, flag
// bindings, and optional config file so the standard precedence
// (flag > env > file > defaults) is handled uniformly.
func initViper(cmd *cobra.Command) error {
	v := viper.GetViper()

	config.SetDefaults(v)
	config.SetupEnv(v)

	if cfgFile, _ := cmd.Flags().GetString("config"); cfgFile != "" {
		v.SetConfigFile(cfgFile)
		if err := v.ReadInConfig(); err != nil {
			return sketcherr.Errorf(sketcherr.CodeConfigLoadReadFailure, "reading config file: %w", err)
		}
	} else {
		// SetConfigType is left unset so Viper never tries the bare name,
		// which would match a ./sketch binary in the working directory.
		v.SetConfigName("sketch")
		v.AddConfigPath(".")
		v.AddConfigPath("$HOME/.config/sketch")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return sketcherr.Errorf(sketcherr.CodeConfigLoadReadFailure, "reading config: %w", err)
			}
			if path, err := config.DefaultConfigPath(); err == nil {
				if written := config.BootstrapConfig(path); written != "" {
					v.SetConfigFile(written)
					if err := v.ReadInConfig(); err != nil {
						return sketcherr.Errorf(sketcherr.CodeConfigLoadReadFailure, "reading bootstrapped config: %w", err)
					}
				}
			}
		}
	}

	// Flags only override when set, so bind them after the file is read.
	if f := cmd.Root().PersistentFlags().Lookup("data-dir"); f != nil && f.Changed {
		if err := v.BindPFlag("storage.data_dir", f); err != nil {
			return sketcherr.Errorf(sketcherr.CodeCLISetupFailure, "binding data-dir flag: %w", err)
		}
	}
	if err := v.BindPFlag("verbose", cmd.Root().PersistentFlags().Lookup("verbose")); err != nil {
		return sketcherr.Errorf(sketcherr.CodeCLISetupFailure, "binding verbose flag: %w", err)
	}

	return nil
}

// setupLogging installs a text handler on stderr, at debug level when
// --verbose is given.
func setupLogging(cmd *cobra.Command) {
	level := slog.LevelInfo
	if viper.GetBool("verbose") {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level})))
}

// loadConfig decodes and validates the configuration resolved by initViper.
func loadConfig() (*config.Config, error) {
	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return nil, sketcherr.Wrap(err, sketcherr.CodeCLISetupFailure, "loading config")
	}
	return cfg, nil
}
