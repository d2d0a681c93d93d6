package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"gopkg.in/yaml.v3"

	"github.com/John-Robertt/AVPM/internal/app/dupes"
	"github.com/John-Robertt/AVPM/internal/app/manager"
	"github.com/John-Robertt/AVPM/internal/domain"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// writeDoc 把 v 作为单个机器可读文档写出（json / yaml）。
func writeDoc(w io.Writer, format string, v any) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(v); err != nil {
			return err
		}
		return enc.Close()
	default:
		return fmt.Errorf("未知的输出格式 %q", format)
	}
}

func newTable(w io.Writer) table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.SetStyle(table.StyleLight)
	t.Style().Options.SeparateRows = false
	return t
}

// renderInventory 以厂商分段的表格输出清单。
func renderInventory(w io.Writer, inv domain.Inventory) {
	t := newTable(w)
	t.AppendHeader(table.Row{"厂商", "名称", "格式", "版本", "路径"})
	for _, g := range inv.Groups {
		for i, p := range g.Plugins {
			mfr := ""
			if i == 0 {
				mfr = g.Manufacturer
			}
			t.AppendRow(table.Row{mfr, p.Name, p.Format.String(), orDash(p.Version), p.Path})
		}
		t.AppendSeparator()
	}
	t.SetColumnConfigs([]table.ColumnConfig{
		{Number: 5, WidthMax: 80, WidthMaxEnforcer: text.WrapHard},
	})
	t.Render()
}

func renderSummary(w io.Writer, rep domain.ScanReport) {
	s := rep.Summary
	fmt.Fprintf(w, "完成：plugins=%d manufacturers=%d roots_scanned=%d roots_missing=%d roots_skipped=%d\n",
		s.Plugins, s.Manufacturers, s.RootsScanned, s.RootsMissing, s.RootsSkipped)
}

func renderPlan(w io.Writer, plan domain.RemovalPlan) {
	if len(plan.Targets) == 0 {
		fmt.Fprintln(w, "没有匹配的插件。")
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"厂商", "名称", "格式", "路径"})
	for _, p := range plan.Targets {
		t.AppendRow(table.Row{p.Manufacturer, p.Name, p.Format.String(), p.Path})
	}
	t.AppendFooter(table.Row{"", "", "合计", len(plan.Targets)})
	t.Render()
	if len(plan.DroppedGroups) > 0 {
		fmt.Fprintf(w, "删除后整组消失的厂商：%s\n", strings.Join(plan.DroppedGroups, ", "))
	}
}

func renderOutcome(w io.Writer, out manager.DeletionOutcome) {
	for _, p := range out.Removed {
		fmt.Fprintf(w, "已移到回收站：%s\n", p)
	}
	for _, p := range out.Survived {
		fmt.Fprintf(w, "仍然存在：%s\n", p)
	}
	fmt.Fprintf(w, "完成：attempted=%d removed=%d survived=%d\n", len(out.Attempted), len(out.Removed), len(out.Survived))
}

func renderDupes(w io.Writer, sets []dupes.Set) {
	if len(sets) == 0 {
		fmt.Fprintln(w, "没有重复安装的插件。")
		return
	}
	t := newTable(w)
	t.AppendHeader(table.Row{"厂商", "名称", "版本", "格式", "路径"})
	for _, s := range sets {
		for i, r := range s.Records {
			mfr, name := "", ""
			if i == 0 {
				mfr, name = s.Manufacturer, s.Name
			}
			t.AppendRow(table.Row{mfr, name, orDash(r.Version), r.Format.String(), r.Path})
		}
		t.AppendSeparator()
	}
	t.Render()
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
