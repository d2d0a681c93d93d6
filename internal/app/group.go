package app

import (
	"github.com/John-Robertt/AVPM/internal/domain"
	"github.com/John-Robertt/AVPM/internal/normalize"
)

// GroupByManufacturer 把插件记录按规范化厂商分组为 Inventory。
//
// - 分组依据是 normalize.Key（而不是最终显示名）
// - 每组的显示名由组内原始拼写投票得出，并回写到组内每条记录
// - groups 稳定排序：按显示名字节序
// - 组内稳定排序：按 Name 大小写不敏感，同名按 Path
func GroupByManufacturer(records []domain.PluginRecord) domain.Inventory {
	grouped := normalize.Group(records)

	inv := domain.Inventory{Groups: make([]domain.Group, 0, len(grouped))}
	for display, plugins := range grouped {
		inv.Groups = append(inv.Groups, domain.Group{
			Manufacturer: display,
			Plugins:      plugins,
		})
	}
	inv.SortGroups()
	return inv
}

// DedupeByPath 保证同一路径只保留一条记录（先出现者优先），维持“路径即主键”的不变量。
// 第二个返回值是被丢弃的重复条数。
func DedupeByPath(records []domain.PluginRecord) ([]domain.PluginRecord, int) {
	seen := make(map[string]struct{}, len(records))
	out := make([]domain.PluginRecord, 0, len(records))
	dropped := 0
	for _, r := range records {
		if _, ok := seen[r.Path]; ok {
			dropped++
			continue
		}
		seen[r.Path] = struct{}{}
		out = append(out, r)
	}
	return out, dropped
}
