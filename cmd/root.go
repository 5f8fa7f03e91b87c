package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	// Version is set during build
	Version = "0.1.0-dev"

	rootCmd = &cobra.Command{
		Use:   "powerkey",
		Short: "powerkey - a global keyboard macro recorder and player",
		Long: `powerkey records global keyboard input into a reusable macro, then
plays it back by grabbing the keyboard and synthesizing the recorded keys,
including focus changes and foreign-application interludes.`,
		SilenceUsage: true,
	}
)

// Execute runs the root command
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.Version = Version
	rootCmd.SetVersionTemplate(`{{with .Name}}{{printf "%s " .}}{{end}}{{printf "version %s\n" .Version}}`)

	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(configCmd)
}

// Exit with error message
func exitError(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, "Error: "+format+"\n", args...)
	os.Exit(1)
}
