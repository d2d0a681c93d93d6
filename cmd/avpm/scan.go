package main

import (
	"encoding/json"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/AVPM/internal/domain"
	"github.com/John-Robertt/AVPM/internal/infra/fsx"
)

const flagReport = "report"

func newScanCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scan",
		Short: "扫描已安装的插件并按厂商归并输出",
		Example: `  avpm scan
  avpm scan --format vst3 --format au -o yaml
  avpm scan --report ./plugins.json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := newSession(cmd, d)
			if err != nil {
				return err
			}
			if err := s.scan(cmd); err != nil {
				return err
			}
			rep, _ := s.mgr.Report()

			if path, _ := cmd.Flags().GetString(flagReport); path != "" {
				if err := writeReportFile(d.cwd, path, rep); err != nil {
					return failed(err)
				}
				s.log.Info().Str("path", path).Msg("已写入报告")
			}

			// stdout 只输出一个结果文档；摘要走 stderr。
			format := s.outputFormat(d)
			if format == outputTable {
				renderInventory(d.out, rep.Inventory)
				renderSummary(d.out, rep)
				return nil
			}
			if err := writeDoc(d.out, format, rep); err != nil {
				return failed(err)
			}
			renderSummary(d.errOut, rep)
			return nil
		},
	}
	addScanFlags(cmd.Flags())
	cmd.Flags().String(flagReport, "", "同时把 JSON 报告原子写入该文件（已存在则覆盖）")
	return cmd
}

func writeReportFile(cwd, path string, rep domain.ScanReport) error {
	b, err := json.MarshalIndent(rep, "", "  ")
	if err != nil {
		return err
	}
	b = append(b, '\n')
	if !filepath.IsAbs(path) {
		path = filepath.Join(cwd, path)
	}
	return fsx.WriteFileAtomic(filepath.Dir(path), filepath.Base(path), b)
}

func noArgs(cmd *cobra.Command, args []string) error {
	if len(args) > 0 {
		return usageErr("%s 不接受位置参数：%q", cmd.CommandPath(), args)
	}
	return nil
}
