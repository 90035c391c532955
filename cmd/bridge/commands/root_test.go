// ABOUTME: Tests for root CLI command and global flags
// ABOUTME: Verifies command structure and registered subcommands
package commands

import (
	"testing"
)

func TestNewRootCmd(t *testing.T) {
	cmd := NewRootCmd()

	if cmd.Use != "bridge" {
		t.Errorf("Use = %q, want %q", cmd.Use, "bridge")
	}
	if cmd.Short == "" {
		t.Error("Short description should not be empty")
	}
	if cmd.Long == "" {
		t.Error("Long description should not be empty")
	}
}

func TestRootCmd_Subcommands(t *testing.T) {
	cmd := NewRootCmd()

	want := map[string]bool{
		"serve":        false,
		"check-config": false,
		"version":      false,
	}
	for _, sub := range cmd.Commands() {
		if _, ok := want[sub.Name()]; ok {
			want[sub.Name()] = true
		}
	}
	for name, found := range want {
		if !found {
			t.Errorf("subcommand %q not registered", name)
		}
	}
}

func TestRootCmd_QuietFlag(t *testing.T) {
	cmd := NewRootCmd()

	flag := cmd.PersistentFlags().Lookup("quiet")
	if flag == nil {
		t.Fatal("quiet flag not registered")
	}
	if flag.Shorthand != "q" {
		t.Errorf("quiet shorthand = %q, want %q", flag.Shorthand, "q")
	}
	if flag.DefValue != "false" {
		t.Errorf("quiet default = %q, want %q", flag.DefValue, "false")
	}
}
