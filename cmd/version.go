package cmd

import (
	"fmt"

	"github.com/edigermatthew/wonder-alt/host/app"
	"github.com/spf13/cobra"
)

func newVersionCmd(build app.BuildInfo) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print build information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			version := build.BinVersion
			if version == "" {
				version = "dev"
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "wonder-alt %s\n", version)
			fmt.Fprintf(out, "commit:  %s\n", build.CommitSHA)
			fmt.Fprintf(out, "built:   %s\n", build.BuildTime)
			fmt.Fprintf(out, "runtime: %s %s\n", build.RuntimeVer, build.BuildArch)
		},
	}
}
