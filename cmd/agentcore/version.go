package cmd

import (
	"runtime"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/spf13/cobra"
)

// Set at build time with -ldflags "-X".
var (
	Version   = "dev"
	BuildDate = "unknown"
)

var versionCommand = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Args:  noArgs,
	Run: func(cmd *cobra.Command, args []string) {
		printf("agentcore %s (built %s)\n", Version, BuildDate)
		printf("  %s, aws-sdk-go-v2 %s\n", runtime.Version(), aws.SDKVersion)
	},
}

func init() {
	Agentcore.AddCommand(versionCommand)
}
