package cmd

import (
	"bufio"
	"fmt"
	"io"

	"github.com/edigermatthew/wonder-alt/host/alttext"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
)

func newNormalizeCmd() *cobra.Command {
	var existing string
	var verbose bool

	cmd := &cobra.Command{
		Use:   "normalize [title...]",
		Short: "Print the alt text generated for each title",
		Long: "Print the alt text generated for each title argument, or for each\n" +
			"line of standard input when no titles are given. Titles that produce\n" +
			"no alt text print an empty line.",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			if len(args) > 0 {
				for _, title := range args {
					printNormalized(out, title, existing, verbose)
				}
				return nil
			}

			scanner := bufio.NewScanner(cmd.InOrStdin())
			for scanner.Scan() {
				printNormalized(out, scanner.Text(), existing, verbose)
			}
			return scanner.Err()
		},
	}
	cmd.Flags().StringVar(&existing, "existing", "", "treat every title as already having this alt text")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "show the title next to the result")
	return cmd
}

func printNormalized(w io.Writer, title, existing string, verbose bool) {
	alt, ok := alttext.FillIfAbsent(existing, title)
	if !verbose {
		fmt.Fprintln(w, alt)
		return
	}
	if !ok {
		fmt.Fprintf(w, "%q -> %s\n", title, color.YellowString("(unchanged)"))
		return
	}
	fmt.Fprintf(w, "%q -> %s\n", title, color.GreenString(alt))
}
