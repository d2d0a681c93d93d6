package app

import (
	"path/filepath"
	"testing"

	"github.com/John-Robertt/AVPM/internal/domain"
)

func rec(name, manufacturer, path string) domain.PluginRecord {
	return domain.PluginRecord{Name: name, Manufacturer: manufacturer, Path: path, Format: domain.FormatVST3}
}

func TestGroupByManufacturer_MergeSpellingVariants(t *testing.T) {
	dir := filepath.Join(string(filepath.Separator), "plugins")
	records := []domain.PluginRecord{
		rec("zeta", "Example, Inc.", filepath.Join(dir, "z.vst3")),
		rec("Alpha", "Example Inc", filepath.Join(dir, "a.vst3")),
		rec("beta", "EXAMPLE INC.", filepath.Join(dir, "b.vst3")),
		rec("Gamma", "Example-Inc", filepath.Join(dir, "g.vst3")),
		rec("Delta", "Example Inc", filepath.Join(dir, "d.vst3")),
	}

	inv := GroupByManufacturer(records)

	if len(inv.Groups) != 1 {
		t.Fatalf("期望 1 个厂商组，实际 %d：%v", len(inv.Groups), inv.Manufacturers())
	}
	g := inv.Groups[0]
	if g.Manufacturer != "Example" {
		t.Fatalf("期望显示名 Example，实际 %q", g.Manufacturer)
	}
	// 组内必须按名称大小写不敏感排序。
	want := []string{"Alpha", "beta", "Delta", "Gamma", "zeta"}
	for i, p := range g.Plugins {
		if p.Name != want[i] {
			t.Fatalf("组内排序不稳定：第 %d 个期望 %q，实际 %q", i, want[i], p.Name)
		}
		if p.Manufacturer != "Example" {
			t.Fatalf("组内厂商名未统一：%q", p.Manufacturer)
		}
	}
}

func TestGroupByManufacturer_GroupsSortedByDisplayName(t *testing.T) {
	records := []domain.PluginRecord{
		rec("X", "Zeta Ltd", "/z"),
		rec("Y", "Acme", "/a"),
		rec("Z", "Unknown", "/u"),
	}

	inv := GroupByManufacturer(records)

	got := inv.Manufacturers()
	want := []string{"Acme", "Unknown", "Zeta"}
	if len(got) != len(want) {
		t.Fatalf("期望 %v，实际 %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("期望 %v，实际 %v", want, got)
		}
	}
}

func TestGroupByManufacturer_Empty(t *testing.T) {
	inv := GroupByManufacturer(nil)
	if !inv.Empty() || inv.Len() != 0 {
		t.Fatalf("空输入应得到空清单：%+v", inv)
	}
}

func TestDedupeByPath_FirstWins(t *testing.T) {
	records := []domain.PluginRecord{
		rec("A", "M", "/same"),
		rec("B", "M", "/same"),
		rec("C", "M", "/other"),
	}
	out, dropped := DedupeByPath(records)
	if dropped != 1 || len(out) != 2 {
		t.Fatalf("期望去重 1 条，实际 dropped=%d len=%d", dropped, len(out))
	}
	if out[0].Name != "A" {
		t.Fatalf("应保留先出现的记录，实际 %q", out[0].Name)
	}
}
