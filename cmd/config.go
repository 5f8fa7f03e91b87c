package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sub07/powerkey/internal/config"
	"github.com/sub07/powerkey/internal/logger"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage powerkey configuration",
	Long:  `Manage powerkey configuration: timing, the macro file path, and the always-on-top default.`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Get()

		logger.Info("Current configuration:")
		logger.Infof("Config file: %s", config.GetConfigPath())
		logger.Infof("  Macro file: %s", cfg.MacroFile)
		logger.Infof("  Post-simulate delay: %dms", cfg.PostSimulateDelayMs)
		logger.Infof("  Post-yield replay delay: %dms", cfg.PostYieldReplayDelayMs)
		logger.Infof("  Grab deadline: %dms", cfg.GrabDeadlineMs)
		logger.Infof("  Focus poll interval: %dms", cfg.FocusPollIntervalMs)
		logger.Infof("  Always on top: %v", cfg.AlwaysOnTop)

		return nil
	},
}

var configSaveCmd = &cobra.Command{
	Use:   "save",
	Short: "Save current configuration to file",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Save(); err != nil {
			return err
		}
		logger.Infof("Configuration saved to: %s", config.GetConfigPath())
		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize configuration file with defaults",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Save(); err != nil {
			return err
		}
		logger.Infof("Configuration initialized at: %s", config.GetConfigPath())
		return nil
	},
}

func init() {
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configSaveCmd)
	configCmd.AddCommand(configInitCmd)
}
