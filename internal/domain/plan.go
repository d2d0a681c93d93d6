package domain

// RemovalPlan 描述一次删除的目标（只描述，不执行；执行必须经过用户确认）。
type RemovalPlan struct {
	// Targets 按厂商、名称稳定排序。
	Targets []PluginRecord `json:"targets" yaml:"targets"`
	// DroppedGroups 是删除全部成功后会整体消失的厂商组。
	DroppedGroups []string `json:"dropped_groups" yaml:"dropped_groups"`
	// Unknown 是选择集中不属于当前清单的路径（通常是上次扫描后已变化）。
	Unknown []string `json:"unknown,omitempty" yaml:"unknown,omitempty"`
}

// Paths 返回计划删除的路径列表（顺序与 Targets 一致）。
func (p RemovalPlan) Paths() []string {
	out := make([]string, 0, len(p.Targets))
	for _, t := range p.Targets {
		out = append(out, t.Path)
	}
	return out
}
