// Package metadata 从插件的静态文件中读取显示名、厂商与版本。
//
// 读取来源按调用方给定的顺序尝试，任何来源失败都只降级，不会让整个提取失败。
package metadata

import (
	"strings"

	"github.com/rs/zerolog"

	"github.com/John-Robertt/AVPM/internal/domain"
)

// Fields 是一个来源能提供的字段；空串表示该来源没有给出。
type Fields struct {
	Name         string
	Manufacturer string
	Version      string
}

func (f Fields) complete() bool {
	return f.Name != "" && f.Manufacturer != ""
}

// merge 只填充 f 中尚为空的字段，先到先得。
func (f Fields) merge(o Fields) Fields {
	if f.Name == "" {
		f.Name = strings.TrimSpace(o.Name)
	}
	if f.Manufacturer == "" {
		f.Manufacturer = strings.TrimSpace(o.Manufacturer)
	}
	if f.Version == "" {
		f.Version = strings.TrimSpace(o.Version)
	}
	return f
}

// Source 从插件路径读取字段。
// 文件不存在、格式损坏等情况返回 error，由 Extractor 记录后跳过。
type Source func(path string) (Fields, error)

// Extractor 依次尝试多个 Source，并在全部失败时回退到由路径推导的记录。
type Extractor struct {
	Log zerolog.Logger
}

// Extract 是 Extractor 零值（不输出日志）的便捷形式。
func Extract(path string, f domain.Format, sources ...Source) domain.PluginRecord {
	return Extractor{Log: zerolog.Nop()}.Extract(path, f, sources...)
}

// Extract 永不失败：
// - 名称缺失时使用文件名（去扩展名）
// - 厂商缺失时使用 "Unknown"
// - 版本缺失时为空串
func (e Extractor) Extract(path string, f domain.Format, sources ...Source) domain.PluginRecord {
	var got Fields
	for i, src := range sources {
		if got.complete() {
			break
		}
		fs, err := src(path)
		if err != nil {
			e.Log.Debug().Err(err).Str("path", path).Int("source", i).Msg("元数据来源不可用，继续下一个")
			continue
		}
		got = got.merge(fs)
	}

	rec := domain.PluginRecord{
		Name:         got.Name,
		Manufacturer: got.Manufacturer,
		Version:      got.Version,
		Path:         path,
		Format:       f,
	}
	if rec.Name == "" {
		rec.Name = domain.FallbackName(path)
	}
	if rec.Manufacturer == "" {
		rec.Manufacturer = domain.UnknownManufacturer
	}
	return rec
}
