package domain

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	RootStatusScanned = "scanned"
	RootStatusMissing = "missing"
	RootStatusSkipped = "skipped"
)

const (
	ErrCodeScanFailed         = "scan_failed"
	ErrCodeTrashFailed        = "trash_failed"
	ErrCodeDeletionIncomplete = "deletion_incomplete"
)

// ScanReport 是对外稳定输出（stdout JSON / --report 文件）的结构。
type ScanReport struct {
	ScanID   string `json:"scan_id" yaml:"scan_id"`
	Platform string `json:"platform" yaml:"platform"`

	StartedAt  time.Time `json:"started_at" yaml:"started_at"`
	FinishedAt time.Time `json:"finished_at" yaml:"finished_at"`

	Summary ScanSummary  `json:"summary" yaml:"summary"`
	Roots   []RootResult `json:"roots" yaml:"roots"`

	Inventory Inventory `json:"inventory" yaml:"inventory"`
}

type ScanSummary struct {
	Plugins       int `json:"plugins" yaml:"plugins"`
	Manufacturers int `json:"manufacturers" yaml:"manufacturers"`
	RootsScanned  int `json:"roots_scanned" yaml:"roots_scanned"`
	RootsMissing  int `json:"roots_missing" yaml:"roots_missing"`
	RootsSkipped  int `json:"roots_skipped" yaml:"roots_skipped"`

	ByFormat map[string]int `json:"by_format" yaml:"by_format"`
}

// RootResult 记录一个候选根目录的处理结果。
type RootResult struct {
	Format  Format `json:"format" yaml:"format"`
	Path    string `json:"path" yaml:"path"`
	Status  string `json:"status" yaml:"status"`
	Plugins int    `json:"plugins" yaml:"plugins"`
}

// Finalize 做三件事：
// 1) 时间统一为 UTC
// 2) roots 稳定排序：先按格式，再按路径
// 3) summary 由 roots 与 inventory 计算得出
func (r *ScanReport) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Roots, func(i, j int) bool {
		if r.Roots[i].Format != r.Roots[j].Format {
			return r.Roots[i].Format < r.Roots[j].Format
		}
		return r.Roots[i].Path < r.Roots[j].Path
	})

	s := ScanSummary{
		Plugins:       r.Inventory.Len(),
		Manufacturers: len(r.Inventory.Groups),
		ByFormat:      map[string]int{},
	}
	for _, rt := range r.Roots {
		switch rt.Status {
		case RootStatusScanned:
			s.RootsScanned++
		case RootStatusMissing:
			s.RootsMissing++
		case RootStatusSkipped:
			s.RootsSkipped++
		}
	}
	for _, g := range r.Inventory.Groups {
		for _, p := range g.Plugins {
			s.ByFormat[p.Format.String()]++
		}
	}
	r.Summary = s
}

// MarshalJSON 保证 groups 为空时输出 [] 而不是 null，便于下游脚本处理。
func (r ScanReport) MarshalJSON() ([]byte, error) {
	type Alias ScanReport
	a := Alias(r)
	if a.Roots == nil {
		a.Roots = []RootResult{}
	}
	if a.Inventory.Groups == nil {
		a.Inventory.Groups = []Group{}
	}
	return json.Marshal(a)
}
