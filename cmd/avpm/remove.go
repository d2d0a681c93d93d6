package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/John-Robertt/AVPM/internal/app/manager"
	"github.com/John-Robertt/AVPM/internal/app/planner"
	"github.com/John-Robertt/AVPM/internal/domain"
)

const (
	flagManufacturer = "manufacturer"
	flagPlugin       = "plugin"
	flagApply        = "apply"
	flagYes          = "yes"
)

// removeDoc 是 remove 在非表格输出下的结果文档。
type removeDoc struct {
	Applied bool                     `json:"applied" yaml:"applied"`
	Plan    domain.RemovalPlan       `json:"plan" yaml:"plan"`
	Outcome *manager.DeletionOutcome `json:"outcome,omitempty" yaml:"outcome,omitempty"`
}

func newRemoveCmd(d deps) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remove",
		Short: "把选中的插件移到系统回收站（默认只打印计划）",
		Long: `remove 先重新扫描，再按 --manufacturer / --plugin 解析出删除计划。
不带 --apply 时只打印计划；带 --apply 时在确认后把插件移到回收站，
然后逐个核对路径是否真的消失。任何插件残留都会以退出码 1 结束。`,
		Example: `  avpm remove --manufacturer "Example Audio"
  avpm remove --plugin "/Library/Audio/Plug-Ins/VST3/Crusher.vst3" --apply
  avpm remove --manufacturer acme --apply --yes -o json`,
		Args: noArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fs := cmd.Flags()
			var sel planner.Selection
			sel.Manufacturers, _ = fs.GetStringArray(flagManufacturer)
			sel.Plugins, _ = fs.GetStringArray(flagPlugin)
			apply, _ := fs.GetBool(flagApply)
			yes, _ := fs.GetBool(flagYes)
			if sel.Empty() {
				return usageErr("至少需要一个 --manufacturer 或 --plugin")
			}

			s, err := newSession(cmd, d)
			if err != nil {
				return err
			}
			if err := s.scan(cmd); err != nil {
				return err
			}

			plan := planner.PlanRemoval(s.mgr.Inventory(), sel)
			for _, u := range plan.Unknown {
				s.log.Warn().Str("entry", u).Msg("清单中没有该厂商或插件，已忽略")
			}
			format := s.outputFormat(d)

			if !apply || len(plan.Targets) == 0 {
				if format == outputTable {
					renderPlan(d.out, plan)
					if len(plan.Targets) > 0 {
						fmt.Fprintln(d.out, "这是预演；加 --apply 才会移到回收站。")
					}
					return nil
				}
				return docOrFail(d.out, format, removeDoc{Plan: plan})
			}

			if !yes {
				if !isTTY(d.in) {
					return usageErr("非交互模式下删除需要 --yes")
				}
				renderPlan(d.errOut, plan)
				ok, err := confirm(d.in, d.errOut, fmt.Sprintf("确认把以上 %d 个插件移到回收站？[y/N] ", len(plan.Targets)))
				if err != nil {
					return failed(err)
				}
				if !ok {
					fmt.Fprintln(d.errOut, "已取消。")
					return silentExit(exitFailed)
				}
			}

			selectPlan(s.mgr, plan)
			out, err := s.mgr.ConfirmDeletion(cmd.Context())
			if err != nil {
				return failed(err)
			}

			if format == outputTable {
				renderOutcome(d.out, out)
			} else if err := docOrFail(d.out, format, removeDoc{Applied: true, Plan: plan, Outcome: &out}); err != nil {
				return err
			}
			if msg := s.mgr.DeletionError(); msg != "" {
				printError(d.errOut, msg)
				s.mgr.DismissError()
				return silentExit(exitFailed)
			}
			return nil
		},
	}
	addScanFlags(cmd.Flags())
	fs := cmd.Flags()
	fs.StringArrayP(flagManufacturer, "m", nil, "按厂商选择（可重复；大小写与公司后缀不敏感）")
	fs.StringArrayP(flagPlugin, "p", nil, "按插件路径选择（可重复）")
	fs.Bool(flagApply, false, "真正移到回收站（默认只打印计划）")
	fs.BoolP(flagYes, "y", false, "跳过确认提示")
	return cmd
}

// selectPlan 把计划翻译为 Manager 的选择：整组消失的厂商整组勾选，其余逐个勾选。
func selectPlan(m *manager.Manager, plan domain.RemovalPlan) {
	m.ClearSelection()
	for _, name := range plan.DroppedGroups {
		m.ToggleManufacturer(name)
	}
	for _, p := range plan.Targets {
		if !m.IsSelected(p.Path) {
			m.TogglePlugin(p.Path)
		}
	}
}

func confirm(in io.Reader, w io.Writer, prompt string) (bool, error) {
	fmt.Fprint(w, prompt)
	line, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && err != io.EOF {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(line)) {
	case "y", "yes", "是":
		return true, nil
	default:
		return false, nil
	}
}

func printError(w io.Writer, msg string) {
	c := color.New(color.FgHiRed, color.Bold)
	if !isTTY(w) {
		c.DisableColor()
	}
	c.Fprintln(w, msg)
}

func docOrFail(w io.Writer, format string, v any) error {
	if err := writeDoc(w, format, v); err != nil {
		return failed(err)
	}
	return nil
}
