package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"github.com/ByLCY/inkwell/config"
	"github.com/ByLCY/inkwell/diagfmt"
	"github.com/ByLCY/inkwell/server"
	"github.com/ByLCY/inkwell/snippet"
)

// app 是一次命令执行共享的状态。
type app struct {
	cfg   config.Config
	env   *snippet.Environment
	log   *zap.Logger
	color bool
}

// newApp 配置日志、读取配置并构建编译环境。
func newApp(cmd *cobra.Command) (*app, error) {
	verbose, err := cmd.Root().PersistentFlags().GetBool("verbose")
	if err != nil {
		return nil, fmt.Errorf("failed to get verbose flag: %w", err)
	}
	log := zap.NewNop()
	if verbose {
		if log, err = zap.NewDevelopment(); err != nil {
			return nil, fmt.Errorf("failed to create logger: %w", err)
		}
	}
	snippet.SetLogger(log.Named("snippet"))
	server.SetLogger(log.Named("server"))

	path, err := cmd.Root().PersistentFlags().GetString("config")
	if err != nil {
		return nil, fmt.Errorf("failed to get config flag: %w", err)
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	if err := applyRenderFlags(cmd, &cfg); err != nil {
		return nil, err
	}

	colorMode, err := cmd.Root().PersistentFlags().GetString("color")
	if err != nil {
		return nil, fmt.Errorf("failed to get color flag: %w", err)
	}
	useColor, err := resolveColor(colorMode)
	if err != nil {
		return nil, err
	}

	env, err := snippet.Setup()
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, env: env, log: log, color: useColor}, nil
}

// addRenderFlags 注册编译选项标志；未显式给出的标志不覆盖配置文件。
func addRenderFlags(cmd *cobra.Command) {
	cmd.Flags().Float64("scale", 2, "pixels per point")
	cmd.Flags().Bool("autosize", true, "size the page to its content")
	cmd.Flags().Bool("transparent", false, "render without a page background")
}

func applyRenderFlags(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()
	if flags.Lookup("scale") == nil {
		return nil
	}
	var err error
	if flags.Changed("scale") {
		if cfg.Render.Scale, err = flags.GetFloat64("scale"); err != nil {
			return fmt.Errorf("failed to get scale flag: %w", err)
		}
	}
	if flags.Changed("autosize") {
		if cfg.Render.Autosize, err = flags.GetBool("autosize"); err != nil {
			return fmt.Errorf("failed to get autosize flag: %w", err)
		}
	}
	if flags.Changed("transparent") {
		if cfg.Render.Transparent, err = flags.GetBool("transparent"); err != nil {
			return fmt.Errorf("failed to get transparent flag: %w", err)
		}
	}
	return cfg.Validate()
}

func resolveColor(mode string) (bool, error) {
	switch mode {
	case "on":
		return true, nil
	case "off":
		return false, nil
	case "auto":
		return !color.NoColor && term.IsTerminal(int(os.Stderr.Fd())), nil
	}
	return false, fmt.Errorf("unknown color mode %q (expected auto|on|off)", mode)
}

func (a *app) options() snippet.Options {
	return snippet.Options{
		Scale:       a.cfg.Render.Scale,
		Autosize:    a.cfg.Render.Autosize,
		Transparent: a.cfg.Render.Transparent,
	}
}

// report 打印一个输入的诊断。
func (a *app) report(name, text string, diags []snippet.Diagnostic) error {
	if len(diags) == 0 {
		return nil
	}
	return diagfmt.Pretty(os.Stderr, name, text, diags, diagfmt.PrettyOpts{Color: a.color, Context: true})
}

func readInput(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("无法读取输入 %s: %w", path, err)
	}
	return string(data), nil
}
