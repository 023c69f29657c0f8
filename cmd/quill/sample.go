package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"quill/internal/driver"
	"quill/internal/samples"
)

var sampleCmd = &cobra.Command{
	Use:   "sample [name]",
	Short: "List or export the built-in sample packages",
	Long: `Without a name, sample lists the built-in programs and the profile each
one targets. With a name, it writes the package to a .qfir file.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runSample,
}

func init() {
	sampleCmd.Flags().StringP("output", "o", "", "output file (default <name>.qfir)")
}

func runSample(cmd *cobra.Command, args []string) error {
	if len(args) == 0 {
		w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
		for _, s := range samples.All() {
			fmt.Fprintf(w, "%s\t%s\t%s\n", s.Name, s.Profile, s.Summary)
		}
		return w.Flush()
	}
	s, err := samples.Lookup(args[0])
	if err != nil {
		return err
	}
	out, err := cmd.Flags().GetString("output")
	if err != nil {
		return err
	}
	if out == "" {
		out = s.Name + driver.PackageExt
	}
	if err := driver.SavePackage(out, s.Build()); err != nil {
		return fmt.Errorf("failed to write %s: %w", out, err)
	}
	if quiet, _ := cmd.Root().PersistentFlags().GetBool("quiet"); !quiet {
		fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%s)\n", out, s.Profile)
	}
	return nil
}
