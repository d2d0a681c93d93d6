// Package normalize 把各插件声明的厂商名归并为每个真实厂商唯一的显示名。
package normalize

import (
	"regexp"
	"sort"
	"strings"

	"github.com/John-Robertt/AVPM/internal/domain"
)

// 结尾的公司类型后缀（可连续多个，例如 "Co., Ltd."）。
// 后缀前必须有空白、逗号或连字符，避免把 "Disco"、"Acme.co" 之类的名字截断。
var legalSuffixRE = regexp.MustCompile(`(?i)(?:[\s,\-]+\b(?:ltd|llc|lcc|inc|gmbh|corp|co|ag|a/s)\.?)+$`)

// StripLegalSuffix 去掉结尾的公司类型后缀并修剪空白。
// 若去掉后为空（名字本身就是后缀），返回修剪后的原串。
func StripLegalSuffix(name string) string {
	trimmed := strings.TrimSpace(name)
	out := strings.TrimSpace(legalSuffixRE.ReplaceAllString(trimmed, ""))
	if out == "" {
		return trimmed
	}
	return out
}

// Key 计算分组键：去后缀、转小写、删除 '-' 与空格。
func Key(manufacturer string) string {
	s := strings.ToLower(StripLegalSuffix(manufacturer))
	return strings.NewReplacer("-", "", " ", "").Replace(s)
}

// Canonical 在同组原始拼写中投票选出显示名，并去掉公司后缀。
//
// 规则：出现次数多者胜；平票时优先不含 '-' 的拼写，再优先更短的，最后按字节序。
// originals 为空时返回 "Unknown"。
func Canonical(originals []string) string {
	winner := mostCommon(originals)
	if winner == "" {
		return domain.UnknownManufacturer
	}
	return StripLegalSuffix(winner)
}

func mostCommon(originals []string) string {
	if len(originals) == 0 {
		return ""
	}
	counts := make(map[string]int, len(originals))
	for _, s := range originals {
		counts[s]++
	}

	cands := make([]string, 0, len(counts))
	for s := range counts {
		cands = append(cands, s)
	}
	sort.Slice(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if counts[a] != counts[b] {
			return counts[a] > counts[b]
		}
		ha, hb := strings.Contains(a, "-"), strings.Contains(b, "-")
		if ha != hb {
			return !ha
		}
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})

	if strings.TrimSpace(cands[0]) == "" {
		// 全是空白：退回第一条记录的原值。
		return originals[0]
	}
	return cands[0]
}

// Group 把记录按 Key 分组，并把每组的 Manufacturer 改写为同一个显示名。
// 返回 显示名 -> 记录（记录顺序保持输入顺序）。
func Group(records []domain.PluginRecord) map[string][]domain.PluginRecord {
	byKey := make(map[string][]domain.PluginRecord, 32)
	order := make([]string, 0, 32)
	for _, r := range records {
		k := Key(r.Manufacturer)
		if _, ok := byKey[k]; !ok {
			order = append(order, k)
		}
		byKey[k] = append(byKey[k], r)
	}

	out := make(map[string][]domain.PluginRecord, len(byKey))
	for _, k := range order {
		group := byKey[k]
		originals := make([]string, 0, len(group))
		for _, r := range group {
			originals = append(originals, r.Manufacturer)
		}
		display := Canonical(originals)
		for i := range group {
			group[i].Manufacturer = display
		}
		out[display] = append(out[display], group...)
	}
	return out
}
