package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/ByLCY/inkwell/snippet"
)

var renderCmd = &cobra.Command{
	Use:   "render [flags] <file>...",
	Short: "Render snippets to PNG files",
	Long:  `Compile each input and write <name>.png next to it (or into --out-dir); inputs are processed in parallel`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRender,
}

func init() {
	addRenderFlags(renderCmd)
	renderCmd.Flags().StringP("out", "o", "", "output path (single input only)")
	renderCmd.Flags().String("out-dir", "", "directory for rendered images")
	renderCmd.Flags().Int("jobs", 0, "max parallel compiles (0=auto)")
}

// renderJob 是单个输入的处理结果。
type renderJob struct {
	input  string
	output string
	text   string
	result *snippet.CompileResult
}

func runRender(cmd *cobra.Command, args []string) error {
	a, err := newApp(cmd)
	if err != nil {
		return err
	}
	out, err := cmd.Flags().GetString("out")
	if err != nil {
		return fmt.Errorf("failed to get out flag: %w", err)
	}
	outDir, err := cmd.Flags().GetString("out-dir")
	if err != nil {
		return fmt.Errorf("failed to get out-dir flag: %w", err)
	}
	jobs, err := cmd.Flags().GetInt("jobs")
	if err != nil {
		return fmt.Errorf("failed to get jobs flag: %w", err)
	}
	if out != "" && len(args) > 1 {
		return fmt.Errorf("--out can only be used with a single input")
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	results := make([]renderJob, len(args))
	opts := a.options()
	var g errgroup.Group
	g.SetLimit(jobs)
	for i, input := range args {
		g.Go(func() error {
			text, err := readInput(input)
			if err != nil {
				return err
			}
			res, err := snippet.Compile(a.env, text, opts)
			if err != nil {
				return fmt.Errorf("%s: %w", input, err)
			}
			job := renderJob{input: input, text: text, result: res, output: outputPath(input, out, outDir, ".png")}
			if res.Image != nil {
				if err := writeOutput(job.output, res.Image); err != nil {
					return err
				}
			}
			results[i] = job
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	failed := 0
	for _, job := range results {
		if err := a.report(job.input, job.text, job.result.Diagnostics); err != nil {
			return err
		}
		if job.result.Image == nil {
			failed++
			continue
		}
		a.log.Debug("rendered", zap.String("input", job.input), zap.String("output", job.output))
		fmt.Fprintf(cmd.OutOrStdout(), "已生成 PNG：%s\n", job.output)
	}
	if failed > 0 {
		return fmt.Errorf("%d of %d input(s) failed to compile", failed, len(args))
	}
	return nil
}

// outputPath 推导输出文件路径。
func outputPath(input, out, outDir, ext string) string {
	if out != "" {
		return out
	}
	base := strings.TrimSuffix(filepath.Base(input), filepath.Ext(input)) + ext
	if outDir != "" {
		return filepath.Join(outDir, base)
	}
	return filepath.Join(filepath.Dir(input), base)
}

func writeOutput(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建输出目录失败: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("写入 %s 失败: %w", path, err)
	}
	return nil
}
