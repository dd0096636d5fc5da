package app

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X github.com/blackwell-systems/devboot/internal/app.Version=...".
var (
	Version = "dev"
	Commit  = "none"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the devboot version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "devboot %s (%s) %s/%s\n", Version, Commit, runtime.GOOS, runtime.GOARCH)
	},
}
