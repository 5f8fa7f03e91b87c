package cmd

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/sub07/powerkey/internal/config"
)

func TestConfigInit(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "powerkey-test-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	defer os.Setenv("HOME", originalHome)

	viper.Reset()

	t.Run("creates config file when it doesn't exist", func(t *testing.T) {
		if err := executeCommand(rootCmd, "config", "init"); err != nil {
			t.Errorf("config init failed: %v", err)
		}

		configPath := filepath.Join(tmpDir, ".config", "powerkey", "powerkey.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			t.Error("Config file was not created")
		}
	})
}

func TestConfigShow(t *testing.T) {
	tmpDir, err := os.MkdirTemp("", "powerkey-test-*")
	if err != nil {
		t.Fatal(err)
	}
	defer os.RemoveAll(tmpDir)

	originalHome := os.Getenv("HOME")
	os.Setenv("HOME", tmpDir)
	defer os.Setenv("HOME", originalHome)

	viper.Reset()

	t.Run("shows default config when no file exists", func(t *testing.T) {
		if err := executeCommand(rootCmd, "config", "show"); err != nil {
			t.Errorf("config show failed: %v", err)
		}
	})
}

func TestConfigValidation(t *testing.T) {
	t.Run("validates TOML syntax", func(t *testing.T) {
		tmpDir, err := os.MkdirTemp("", "powerkey-test-*")
		if err != nil {
			t.Fatal(err)
		}
		defer os.RemoveAll(tmpDir)

		configDir := filepath.Join(tmpDir, ".config", "powerkey")
		os.MkdirAll(configDir, 0755)

		configPath := filepath.Join(configDir, "powerkey.toml")
		invalidTOML := `
[bad
macro_file = "x"
`
		os.WriteFile(configPath, []byte(invalidTOML), 0644)

		originalHome := os.Getenv("HOME")
		os.Setenv("HOME", tmpDir)
		defer os.Setenv("HOME", originalHome)

		viper.Reset()

		err = config.Init()
		if err == nil {
			t.Error("Expected error for invalid TOML, got nil")
		}
		if err != nil && !contains(err.Error(), "parsing") {
			t.Errorf("Expected TOML parsing error, got: %v", err)
		}
	})
}

// Helper function to execute cobra commands in tests
func executeCommand(root *cobra.Command, args ...string) error {
	root.SetArgs(args)
	return root.Execute()
}

func contains(s, substr string) bool {
	return strings.Contains(s, substr)
}
