package domain

import (
	"sort"
	"strings"
)

// Group 是同一规范化厂商下的插件集合。
type Group struct {
	Manufacturer string         `json:"manufacturer" yaml:"manufacturer"`
	Plugins      []PluginRecord `json:"plugins" yaml:"plugins"`
}

// Inventory 是“规范厂商名 -> 插件列表”的有序映射。
//
// 约束：
// - Groups 按 Manufacturer 字节序排序，组名唯一
// - 组内按 Name 大小写不敏感排序（同名再按 Path）
// - 不存在空组：删除导致为空的组会被一并移除
type Inventory struct {
	Groups []Group `json:"groups" yaml:"groups"`
}

// SortGroups 强制稳定输出：组按名称排序，组内按名称（大小写不敏感）排序。
func (inv *Inventory) SortGroups() {
	sort.Slice(inv.Groups, func(i, j int) bool { return inv.Groups[i].Manufacturer < inv.Groups[j].Manufacturer })
	for i := range inv.Groups {
		SortPlugins(inv.Groups[i].Plugins)
	}
}

// SortPlugins 按名称大小写不敏感排序；同名时按 Path，保证结果与遍历顺序无关。
func SortPlugins(ps []PluginRecord) {
	sort.SliceStable(ps, func(i, j int) bool {
		a := strings.ToLower(ps[i].Name)
		b := strings.ToLower(ps[j].Name)
		if a != b {
			return a < b
		}
		return ps[i].Path < ps[j].Path
	})
}

// Len 返回插件总数。
func (inv Inventory) Len() int {
	n := 0
	for _, g := range inv.Groups {
		n += len(g.Plugins)
	}
	return n
}

// Empty 表示没有任何插件。
func (inv Inventory) Empty() bool { return len(inv.Groups) == 0 }

// Manufacturers 按顺序返回全部组名。
func (inv Inventory) Manufacturers() []string {
	out := make([]string, 0, len(inv.Groups))
	for _, g := range inv.Groups {
		out = append(out, g.Manufacturer)
	}
	return out
}

// Group 按规范厂商名查找分组。
func (inv Inventory) Group(manufacturer string) (Group, bool) {
	for _, g := range inv.Groups {
		if g.Manufacturer == manufacturer {
			return g, true
		}
	}
	return Group{}, false
}

// Find 按路径查找插件。
func (inv Inventory) Find(path string) (PluginRecord, bool) {
	for _, g := range inv.Groups {
		for _, p := range g.Plugins {
			if p.Path == path {
				return p, true
			}
		}
	}
	return PluginRecord{}, false
}

// Remove 删除 paths 中出现的插件，并丢弃变空的组。
// 返回被删除的记录与受影响的组名（按组顺序）。
func (inv *Inventory) Remove(paths map[string]struct{}) (removed []PluginRecord, affected []string) {
	if len(paths) == 0 {
		return nil, nil
	}
	kept := inv.Groups[:0]
	for _, g := range inv.Groups {
		plugins := make([]PluginRecord, 0, len(g.Plugins))
		for _, p := range g.Plugins {
			if _, ok := paths[p.Path]; ok {
				removed = append(removed, p)
				continue
			}
			plugins = append(plugins, p)
		}
		if len(plugins) < len(g.Plugins) {
			affected = append(affected, g.Manufacturer)
		}
		if len(plugins) == 0 {
			continue
		}
		g.Plugins = plugins
		kept = append(kept, g)
	}
	inv.Groups = kept
	return removed, affected
}

// Clone 深拷贝，供调用方持有快照。
func (inv Inventory) Clone() Inventory {
	out := Inventory{Groups: make([]Group, len(inv.Groups))}
	for i, g := range inv.Groups {
		out.Groups[i] = Group{
			Manufacturer: g.Manufacturer,
			Plugins:      append([]PluginRecord(nil), g.Plugins...),
		}
	}
	return out
}
