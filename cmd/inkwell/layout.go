package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ByLCY/inkwell/layout"
	"github.com/ByLCY/inkwell/snippet"
)

var layoutCmd = &cobra.Command{
	Use:   "layout [flags] <file>",
	Short: "Write the typeset page layout as debug JSON",
	Args:  cobra.ExactArgs(1),
	RunE:  runLayout,
}

func init() {
	addRenderFlags(layoutCmd)
	layoutCmd.Flags().StringP("out", "o", "", "JSON output path, - for stdout (default: <input>.json)")
}

func runLayout(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	out, err := cmd.Flags().GetString("out")
	if err != nil {
		return fmt.Errorf("failed to get out flag: %w", err)
	}
	input := args[0]
	text, err := readInput(input)
	if err != nil {
		return err
	}
	doc, diags, err := snippet.Typeset(a.env, text, a.options())
	if err != nil {
		return err
	}
	if err := a.report(input, text, diags); err != nil {
		return err
	}
	if doc == nil {
		return fmt.Errorf("%s failed to compile", input)
	}
	if out == "-" {
		return layout.EncodeDebugJSON(cmd.OutOrStdout(), doc)
	}
	path := outputPath(input, out, "", ".json")
	if err := layout.WriteDebugJSON(doc, path); err != nil {
		return fmt.Errorf("写入调试 JSON 失败: %w", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), "已输出布局调试 JSON：%s\n", path)
	return nil
}
