package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/jmylchreest/itscooked/internal/output"
	"github.com/jmylchreest/itscooked/internal/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	RunE: func(cmd *cobra.Command, args []string) error {
		full, _ := cmd.Flags().GetBool("full")
		formatStr, _ := cmd.Flags().GetString("format")

		if formatStr == "" || formatStr == string(output.FormatText) {
			if full {
				fmt.Fprintln(cmd.OutOrStdout(), version.Full())
			} else {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %s\n", version.Name, version.String())
			}
			return nil
		}

		format, err := output.ParseFormat(formatStr)
		if err != nil {
			return err
		}
		w, err := output.NewWriter(cmd.OutOrStdout(), format)
		if err != nil {
			return err
		}
		if err := w.Write(version.Get()); err != nil {
			return err
		}
		return w.Close()
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	versionCmd.Flags().Bool("full", false, "show commit, build date and platform")
	versionCmd.Flags().String("format", "", "output format: json, jsonl, yaml, text")
}
