package main

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/John-Robertt/AVPM/internal/logging"
)

const (
	flagConfig    = "config"
	flagLogLevel  = "log-level"
	flagLogFormat = "log-format"

	flagFormat      = "format"
	flagDepth       = "depth"
	flagConcurrency = "concurrency"
	flagOutput      = "output"
)

func newRootCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "avpm",
		Short: "音频插件清单与清理工具",
		Long: `avpm 在本机约定位置查找 VST2 / VST3 / AAX / AU 插件，
读取名称、厂商与版本，按厂商归并后输出；也可以把选中的插件移到系统回收站。`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, _ := cmd.Flags().GetString(flagLogLevel)
			format, _ := cmd.Flags().GetString(flagLogFormat)
			log, err := logging.New(level, format, d.errOut)
			if err != nil {
				return usageErr("%v", err)
			}
			cmd.SetContext(logging.WithContext(cmd.Context(), log))
			return nil
		},
		SilenceUsage:      true,
		SilenceErrors:     true,
		DisableAutoGenTag: true,
	}
	cmd.SetIn(d.in)
	cmd.SetOut(d.out)
	cmd.SetErr(d.errOut)
	cmd.SetFlagErrorFunc(func(c *cobra.Command, err error) error {
		return usageErr("%v（使用 %s --help 查看用法）", err, c.CommandPath())
	})

	pf := cmd.PersistentFlags()
	pf.String(flagConfig, "", "配置文件路径（默认查找 ./avpm.* 与 <用户配置目录>/avpm/avpm.*）")
	pf.String(flagLogLevel, logging.DefaultLevel, "日志级别：debug|info|warn|error")
	pf.String(flagLogFormat, logging.FormatConsole, "日志格式：console|json")

	cmd.AddCommand(newScanCmd(d), newRemoveCmd(d), newDupesCmd(d))
	return cmd
}

// addScanFlags 注册会影响扫描结果的参数；scan / remove / dupes 共用。
func addScanFlags(fs *pflag.FlagSet) {
	fs.StringSlice(flagFormat, nil, "只扫描这些格式（可重复或逗号分隔）：vst2,vst3,aax,au")
	fs.Int(flagDepth, 0, "最大遍历深度（默认 5，范围 1..32）")
	fs.Int(flagConcurrency, 0, "并行遍历的根目录数（默认 4，范围 1..32）")
	fs.StringP(flagOutput, "o", "", "输出格式：table|json|yaml（默认终端为 table，否则 json）")
}
