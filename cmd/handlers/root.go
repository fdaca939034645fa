/*
Copyright © 2025 Your Name

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/
package handlers

import (
	"fmt"
	"os"

	"github.com/Mazurkevichkv/k-means/internal/config"
	"github.com/Mazurkevichkv/k-means/internal/logger"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// flagKeys maps persistent flags to the config keys they override.
var flagKeys = map[string]string{
	"clusters":     "kmeans.clusters",
	"elements":     "kmeans.elements",
	"iterations":   "kmeans.iterations",
	"auto":         "kmeans.auto",
	"speed":        "kmeans.speed",
	"seed":         "kmeans.seed",
	"empty-policy": "kmeans.empty_policy",
}

// NewRootCmd creates the root command with all subcommands attached
func NewRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "kmeans",
		Short: "kmeans animates k-means clustering of random points in 3D.",
		Long: `kmeans scatters random points in a 3D box, seeds random centroids and
runs k-means one iteration at a time. Every iteration recolors the points by
their nearest centroid and glides the centroids to the mean of their members.

Run it in the terminal (the default), serve it to a browser, or export the
final state as a standalone HTML chart.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI()
		},
	}

	// Initialize configuration
	cobra.OnInitialize(initConfig)

	// Add persistent flags
	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is $HOME/.kmeans.yaml)")
	flags.Int("clusters", 0, "number of clusters (default from config: 10)")
	flags.Int("elements", 0, "number of points (default from config: 500)")
	flags.Int("iterations", 0, "number of clustering steps (default from config: 30)")
	flags.Bool("auto", false, "chain clustering steps automatically")
	flags.Float64("speed", 0, "centroid animation speed (default from config: 5)")
	flags.Int64("seed", 0, "random seed, 0 picks one from the clock")
	flags.String("empty-policy", "", "what happens to a centroid with no members: keep or reseed")

	for flag, key := range flagKeys {
		if err := viper.BindPFlag(key, flags.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("failed to bind flag %s: %v", flag, err))
		}
	}

	// Add subcommands
	rootCmd.AddCommand(NewTUICmd())
	rootCmd.AddCommand(NewServeCmd())
	rootCmd.AddCommand(NewExportCmd())

	return rootCmd
}

// Execute runs the root command
func Execute() {
	rootCmd := NewRootCmd()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}

	opts := cfg.LoggerOptions()
	if cfg.App.Debug {
		opts.Level = "debug"
	}
	if err := logger.Configure(opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error configuring logger: %v\n", err)
		os.Exit(1)
	}

	if cfg.App.ConfigFile != "" {
		logger.Debug("Using config file", "path", cfg.App.ConfigFile)
	}
}
