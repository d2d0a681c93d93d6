// Package dupes 找出同一厂商下名称相同、但以多个路径（或多种格式）安装的插件。
package dupes

import (
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/John-Robertt/AVPM/internal/domain"
	"github.com/John-Robertt/AVPM/internal/normalize"
)

// Set 是一组重复安装；Records 按版本从新到旧排列，无法解析的版本排在最后。
type Set struct {
	Manufacturer string                `json:"manufacturer" yaml:"manufacturer"`
	Name         string                `json:"name" yaml:"name"`
	Records      []domain.PluginRecord `json:"records" yaml:"records"`
}

// Newest 返回版本最新的记录。
func (s Set) Newest() domain.PluginRecord { return s.Records[0] }

// Find 在清单中查找重复安装。
// 分组键是 规范化厂商 + 小写名称；只输出成员数大于 1 的组，按厂商、名称排序。
func Find(inv domain.Inventory) []Set {
	type key struct{ mfr, name string }
	byKey := map[key]*Set{}
	var order []key
	for _, g := range inv.Groups {
		for _, p := range g.Plugins {
			k := key{normalize.Key(p.Manufacturer), strings.ToLower(strings.TrimSpace(p.Name))}
			s, ok := byKey[k]
			if !ok {
				s = &Set{Manufacturer: g.Manufacturer, Name: p.Name}
				byKey[k] = s
				order = append(order, k)
			}
			s.Records = append(s.Records, p)
		}
	}

	out := make([]Set, 0, len(order))
	for _, k := range order {
		s := byKey[k]
		if len(s.Records) < 2 {
			continue
		}
		SortNewestFirst(s.Records)
		out = append(out, *s)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Manufacturer != out[j].Manufacturer {
			return out[i].Manufacturer < out[j].Manufacturer
		}
		return strings.ToLower(out[i].Name) < strings.ToLower(out[j].Name)
	})
	return out
}

// SortNewestFirst 按版本降序稳定排序；版本相同或都无法解析时按 Path。
func SortNewestFirst(rs []domain.PluginRecord) {
	vs := make(map[string]*semver.Version, len(rs))
	for _, r := range rs {
		vs[r.Path] = Parse(r.Version)
	}
	sort.SliceStable(rs, func(i, j int) bool {
		a, b := vs[rs[i].Path], vs[rs[j].Path]
		switch {
		case a != nil && b != nil:
			if c := a.Compare(b); c != 0 {
				return c > 0
			}
		case a != nil:
			return true
		case b != nil:
			return false
		}
		return rs[i].Path < rs[j].Path
	})
}

// Parse 宽松解析插件版本号。
//
// PE 资源里的 "1.2.3.4" 只取前三段；"v2"、"2.1" 这类由 semver 自动补零。
// 空串或无法解析时返回 nil。
func Parse(v string) *semver.Version {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	if parts := strings.SplitN(v, ".", 4); len(parts) == 4 {
		v = strings.Join(parts[:3], ".")
	}
	sv, err := semver.NewVersion(v)
	if err != nil {
		return nil
	}
	return sv
}
