// Package planner 把用户给出的厂商名/插件路径解析为确定性的删除计划（不做任何删除）。
package planner

import (
	"path/filepath"
	"strings"

	"github.com/John-Robertt/AVPM/internal/domain"
	"github.com/John-Robertt/AVPM/internal/normalize"
)

// Selection 是用户在 CLI 上给出的删除条件。
type Selection struct {
	// Manufacturers 按显示名匹配；不完全一致时再按规范化键匹配（"example inc" 也能命中 "Example"）。
	Manufacturers []string
	// Plugins 是插件路径；相对路径按 Clean 后比较。
	Plugins []string
}

// Empty 表示没有任何条件。
func (s Selection) Empty() bool {
	return len(s.Manufacturers) == 0 && len(s.Plugins) == 0
}

// PlanRemoval 生成删除计划。
//
// 规则（硬约束）：
// - Targets 按清单顺序输出（组按显示名，组内按名称），同一路径只出现一次
// - 某组全部插件都在 Targets 中时，该组记入 DroppedGroups
// - 找不到的厂商名或路径记入 Unknown，不影响其他条目
func PlanRemoval(inv domain.Inventory, sel Selection) domain.RemovalPlan {
	want := map[string]struct{}{}
	var unknown []string

	for _, m := range sel.Manufacturers {
		g, ok := findGroup(inv, m)
		if !ok {
			unknown = append(unknown, m)
			continue
		}
		for _, p := range g.Plugins {
			want[p.Path] = struct{}{}
		}
	}
	for _, p := range sel.Plugins {
		rec, ok := findPlugin(inv, p)
		if !ok {
			unknown = append(unknown, p)
			continue
		}
		want[rec.Path] = struct{}{}
	}

	plan := domain.RemovalPlan{
		Targets:       []domain.PluginRecord{},
		DroppedGroups: []string{},
		Unknown:       unknown,
	}
	for _, g := range inv.Groups {
		hit := 0
		for _, p := range g.Plugins {
			if _, ok := want[p.Path]; ok {
				plan.Targets = append(plan.Targets, p)
				hit++
			}
		}
		if hit > 0 && hit == len(g.Plugins) {
			plan.DroppedGroups = append(plan.DroppedGroups, g.Manufacturer)
		}
	}
	return plan
}

func findGroup(inv domain.Inventory, name string) (domain.Group, bool) {
	name = strings.TrimSpace(name)
	if g, ok := inv.Group(name); ok {
		return g, true
	}
	key := normalize.Key(name)
	if key == "" {
		return domain.Group{}, false
	}
	for _, g := range inv.Groups {
		if normalize.Key(g.Manufacturer) == key {
			return g, true
		}
	}
	return domain.Group{}, false
}

func findPlugin(inv domain.Inventory, path string) (domain.PluginRecord, bool) {
	if rec, ok := inv.Find(path); ok {
		return rec, true
	}
	// 尽量保留原样比较；只有原样找不到时才 Clean（例如结尾多了分隔符）。
	return inv.Find(filepath.Clean(strings.TrimSpace(path)))
}
