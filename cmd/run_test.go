package cmd

import "testing"

func TestRunCommandRegistered(t *testing.T) {
	found := false
	for _, c := range rootCmd.Commands() {
		if c.Name() == "run" {
			found = true
		}
	}
	if !found {
		t.Error("run command not registered on root command")
	}
}

func TestRunCommandUse(t *testing.T) {
	if runCmd.Use != "run" {
		t.Errorf("unexpected Use: %q", runCmd.Use)
	}
}
