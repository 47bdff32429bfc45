// Package cli provides the cobra command tree for seqpack.
// Commands hold no business logic; they resolve flags and stored defaults
// into a RunConfig and call the driving ports.
package cli

import (
	"github.com/spf13/cobra"

	configfile "github.com/holobase-labs/seqpack-cli/internal/adapters/driven/config/file"
	"github.com/holobase-labs/seqpack-cli/internal/core/ports/driven"
	"github.com/holobase-labs/seqpack-cli/internal/core/ports/driving"
	"github.com/holobase-labs/seqpack-cli/internal/logger"
)

// Version information, injected at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

// Services bundles the driving ports and stores the commands use.
type Services struct {
	Pipeline driving.Pipeline
	History  driving.History
	Watcher  driving.Watcher
	Config   driven.ConfigStore
}

// services holds the currently wired services.
var services *Services

// SetServices wires the services the commands call. Must be called before
// Execute.
func SetServices(s *Services) {
	services = s
}

// SetVersionInfo overrides the build-time version information.
func SetVersionInfo(v, c, d string) {
	version, commit, date = v, c, d
}

var verboseFlag bool

var rootCmd = &cobra.Command{
	Use:   "seqpack",
	Short: "Normalize raw acquisition folders into the canonical layout",
	Long: `seqpack rewrites folders of raw acquisition data (images, optional pose
tracks, optional LiDAR point clouds) into a single canonical on-disk layout
with deterministic, collision-free names, so independent data providers can
submit structurally identical archives.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		if !verboseFlag && services != nil && services.Config != nil {
			verboseFlag = services.Config.GetBool(configfile.KeyVerbose)
		}
		logger.SetVerbose(verboseFlag)
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verboseFlag, "verbose", "v", false, "enable debug logging")
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}
