package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ByLCY/inkwell/diagfmt"
	"github.com/ByLCY/inkwell/snippet"
)

var checkCmd = &cobra.Command{
	Use:   "check [flags] <file>...",
	Short: "Report diagnostics without writing images",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runCheck,
}

func init() {
	addRenderFlags(checkCmd)
	checkCmd.Flags().Bool("warnings-as-errors", false, "treat warnings as errors")
}

func runCheck(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	strict, err := cmd.Flags().GetBool("warnings-as-errors")
	if err != nil {
		return fmt.Errorf("failed to get warnings-as-errors flag: %w", err)
	}

	var all []snippet.Diagnostic
	failed := 0
	for _, input := range args {
		text, err := readInput(input)
		if err != nil {
			return err
		}
		_, diags, err := snippet.Typeset(a.env, text, a.options())
		if err != nil {
			return fmt.Errorf("%s: %w", input, err)
		}
		if err := a.report(input, text, diags); err != nil {
			return err
		}
		if hasBlocking(diags, strict) {
			failed++
		}
		all = append(all, diags...)
	}
	fmt.Fprintln(cmd.OutOrStdout(), diagfmt.Summary(all))
	if failed > 0 {
		return fmt.Errorf("%d of %d input(s) have problems", failed, len(args))
	}
	return nil
}

func hasBlocking(diags []snippet.Diagnostic, strict bool) bool {
	for _, d := range diags {
		if d.Severity == snippet.SeverityError || strict {
			return true
		}
	}
	return false
}
