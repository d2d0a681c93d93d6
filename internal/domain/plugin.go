package domain

import (
	"fmt"
	"path/filepath"
	"strings"
)

// Format 是插件的打包格式。
type Format int

const (
	FormatVST2 Format = iota
	FormatVST3
	FormatAAX
	FormatAU
)

// AllFormats 按固定顺序列出全部格式；扫描与输出都依赖这个顺序保持稳定。
var AllFormats = []Format{FormatVST2, FormatVST3, FormatAAX, FormatAU}

func (f Format) String() string {
	switch f {
	case FormatVST2:
		return "VST2"
	case FormatVST3:
		return "VST3"
	case FormatAAX:
		return "AAX"
	case FormatAU:
		return "AU"
	default:
		return fmt.Sprintf("Format(%d)", int(f))
	}
}

// ParseFormat 大小写不敏感地解析格式名。
// AU 额外接受 "audiounit" 与 "component"。
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "vst2", "vst":
		return FormatVST2, nil
	case "vst3":
		return FormatVST3, nil
	case "aax":
		return FormatAAX, nil
	case "au", "audiounit", "component":
		return FormatAU, nil
	default:
		return 0, fmt.Errorf("未知的插件格式 %q（可选：vst2|vst3|aax|au）", s)
	}
}

func (f Format) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Format) UnmarshalText(b []byte) error {
	v, err := ParseFormat(string(b))
	if err != nil {
		return err
	}
	*f = v
	return nil
}

// UnknownManufacturer 是无法解析厂商时使用的哨兵值。
const UnknownManufacturer = "Unknown"

// PluginRecord 描述一次扫描得到的单个插件。
//
// 不变量：
// - Path 是扫描结果内的唯一主键，必须与遍历时得到的路径完全一致（不解析符号链接）
// - Name 永不为空
// - 除 Manufacturer 会被规范化改写一次外，记录创建后不再修改
type PluginRecord struct {
	Name         string `json:"name" yaml:"name"`
	Manufacturer string `json:"manufacturer" yaml:"manufacturer"`
	Version      string `json:"version,omitempty" yaml:"version,omitempty"` // 空串表示未知
	Path         string `json:"path" yaml:"path"`
	Format       Format `json:"format" yaml:"format"`
}

// FallbackName 由路径推导兜底显示名：去掉扩展名的文件名；仍为空时用完整文件名，最后是 "Unknown"。
func FallbackName(path string) string {
	base := filepath.Base(path)
	if base == "." || base == string(filepath.Separator) {
		base = ""
	}
	stem := strings.TrimSpace(strings.TrimSuffix(base, filepath.Ext(base)))
	if stem != "" {
		return stem
	}
	if b := strings.TrimSpace(base); b != "" {
		return b
	}
	return UnknownManufacturer
}
