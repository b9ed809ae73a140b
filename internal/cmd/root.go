// Package cmd wires the engine into the servup command line.
package cmd

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/servup/servup/internal/config"
)

var rootCmd = &cobra.Command{
	Use:   "servup",
	Short: "Supervisor for phpup dev servers",
	Long: `Servup starts, stops, and tracks phpup dev servers across your
registered projects. It reconciles its view against the servers actually
running on the machine, so servers started elsewhere (or surviving a
previous session) are picked up rather than double-started.`,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringP("config", "c", "", "config file (default is $HOME/.config/servup/config.yaml)")
	_ = viper.BindPFlag("config", rootCmd.PersistentFlags().Lookup("config"))
}

func initConfig() {
	// Defaults first so they hold even without a config file.
	config.SetDefaults()

	if cfgFile := viper.GetString("config"); cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath(config.StateDir())
		viper.AddConfigPath("$HOME/.config/servup")
		viper.AddConfigPath(".")
	}

	viper.AutomaticEnv()
	viper.SetEnvPrefix("SERVUP")
	// SERVUP_RECONCILE_INTERVAL_SECONDS overrides reconcile.interval_seconds.
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	_ = viper.ReadInConfig()
}
