package cmd

import (
	"testing"

	"github.com/spf13/viper"

	"github.com/btraven00/ampclean/internal/config"
)

func TestRunFlags_DryRunDefaultMatchesConfig(t *testing.T) {
	flag := runCmd.Flags().Lookup("dry-run")
	if flag == nil {
		t.Fatal("run has no --dry-run flag")
	}

	v := viper.New()
	config.SetDefaults(v)

	want := "false"
	if v.GetBool("run.dry_run") {
		want = "true"
	}

	if flag.DefValue != want {
		t.Errorf("--dry-run default = %s, config default = %s", flag.DefValue, want)
	}
}
