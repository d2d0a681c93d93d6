package main

import (
	"io"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/John-Robertt/AVPM/internal/app/inventory"
	"github.com/John-Robertt/AVPM/internal/app/manager"
	"github.com/John-Robertt/AVPM/internal/config"
	"github.com/John-Robertt/AVPM/internal/logging"
)

// session 是一次命令执行所需的全部对象：生效配置、日志器与 Manager。
type session struct {
	cfg config.EffectiveConfig
	log *zerolog.Logger
	mgr *manager.Manager
}

// cliArgs 只把用户显式给出的参数标记为 Set，未给出的交给配置文件 / 环境变量 / 默认值。
func cliArgs(fs *pflag.FlagSet) config.CLIArgs {
	var a config.CLIArgs
	a.ConfigPath, _ = fs.GetString(flagConfig)
	if fs.Changed(flagFormat) {
		a.Formats, _ = fs.GetStringSlice(flagFormat)
		a.FormatsSet = true
	}
	if fs.Changed(flagDepth) {
		a.MaxDepth, _ = fs.GetInt(flagDepth)
		a.MaxDepthSet = true
	}
	if fs.Changed(flagConcurrency) {
		a.Concurrency, _ = fs.GetInt(flagConcurrency)
		a.ConcurrencySet = true
	}
	if fs.Changed(flagOutput) {
		a.Output, _ = fs.GetString(flagOutput)
		a.OutputSet = true
	}
	return a
}

func newSession(cmd *cobra.Command, d deps) (*session, error) {
	log := logging.FromContext(cmd.Context())

	cfg, err := config.LoadEffective(d.cwd, d.userConfigDir, cliArgs(cmd.Flags()))
	if err != nil {
		if config.Code(err) == config.ErrCodeNotFound {
			return nil, usageErr("%v", err)
		}
		return nil, failed(err)
	}
	log.Debug().
		Str("config_file", cfg.ConfigFile).
		Int("max_depth", cfg.MaxDepth).
		Int("concurrency", cfg.Concurrency).
		Strs("exclude_dirs", cfg.ExcludeDirs).
		Msg("生效配置")

	var obs inventory.Observer
	if w, ok := progressWriter(d); ok {
		obs = newProgressUI(w, cfg)
	}
	asm := inventory.New(d.profile, inventory.Options{
		Formats:     cfg.Formats,
		MaxDepth:    cfg.MaxDepth,
		Concurrency: cfg.Concurrency,
		ExcludeDirs: cfg.ExcludeDirs,
		ExtraRoots:  cfg.ExtraRoots,
	}, obs)

	return &session{cfg: cfg, log: log, mgr: manager.New(asm, d.trasher)}, nil
}

// scan 执行扫描；失败时包装为退出码 1。
func (s *session) scan(cmd *cobra.Command) error {
	if err := s.mgr.Scan(cmd.Context()); err != nil {
		return failed(err)
	}
	return nil
}

// outputFormat 返回生效的输出格式：显式配置优先，否则终端用 table、管道用 json。
func (s *session) outputFormat(d deps) string {
	if s.cfg.Output != "" {
		return s.cfg.Output
	}
	if isTTY(d.out) {
		return outputTable
	}
	return outputJSON
}

// progressWriter 只在交互终端启用进度输出，且只写 stderr，不污染 stdout 的结果文档。
func progressWriter(d deps) (io.Writer, bool) {
	if isTTY(d.errOut) {
		return d.errOut, true
	}
	return nil, false
}
