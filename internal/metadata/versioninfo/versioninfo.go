// Package versioninfo 解析 Windows 可执行文件中的 VS_VERSIONINFO 资源。
//
// 只读取两种真实结构：
// - VS_FIXEDFILEINFO：数值版本号 major.minor.build.revision
// - StringFileInfo/StringTable/String：按语言/代码页组织的 UTF-16 字符串表
//
// 所有读取都基于越界检查的字节视图；任何结构损坏都以 error 返回，不会 panic。
package versioninfo

import (
	"errors"
	"fmt"
	"strings"
)

// FixedFileInfoSignature 是 VS_FIXEDFILEINFO.dwSignature 的固定值。
const FixedFileInfoSignature = 0xFEEF04BD

// DefaultTranslation 是缺少 VarFileInfo\Translation 时约定俗成的语言/代码页（en-US, Unicode）。
const DefaultTranslation = "040904B0"

const (
	keyVersionInfo    = "VS_VERSION_INFO"
	keyStringFileInfo = "StringFileInfo"
	keyVarFileInfo    = "VarFileInfo"
	keyTranslation    = "Translation"

	blockHeaderSize   = 6
	fixedFileInfoSize = 52
	maxDepth          = 8
)

var ErrNotVersionInfo = errors.New("versioninfo: not a VS_VERSIONINFO block")

// FixedFileInfo 对应 VS_FIXEDFILEINFO（13 个 DWORD）。
type FixedFileInfo struct {
	Signature        uint32
	StrucVersion     uint32
	FileVersionMS    uint32
	FileVersionLS    uint32
	ProductVersionMS uint32
	ProductVersionLS uint32
	FileFlagsMask    uint32
	FileFlags        uint32
	FileOS           uint32
	FileType         uint32
	FileSubtype      uint32
	FileDateMS       uint32
	FileDateLS       uint32
}

// FileVersion 返回 "major.minor.build.revision"。
func (f FixedFileInfo) FileVersion() string {
	return fmt.Sprintf("%d.%d.%d.%d",
		f.FileVersionMS>>16, f.FileVersionMS&0xFFFF,
		f.FileVersionLS>>16, f.FileVersionLS&0xFFFF,
	)
}

// StringTable 是一个语言/代码页下的全部字符串。
type StringTable struct {
	// Key 是 8 位十六进制的 语言ID+代码页，例如 "040904B0"。
	Key    string
	Values map[string]string
}

// Info 是解析后的版本资源。
type Info struct {
	Fixed        *FixedFileInfo
	Translations []string // 形如 "040904B0"，按资源中声明的顺序
	Tables       []StringTable
}

// block 是版本资源里所有结构共用的通用形态：
// wLength / wValueLength / wType / szKey / Padding / Value / Padding / Children。
type block struct {
	key      string
	typ      uint16
	value    view
	children []block
}

// Parse 解析完整的 VS_VERSIONINFO 资源字节。
func Parse(b []byte) (*Info, error) {
	root, _, err := parseBlock(view(b), 0, 0)
	if err != nil {
		return nil, err
	}
	if root.key != keyVersionInfo {
		return nil, fmt.Errorf("%w: key %q", ErrNotVersionInfo, root.key)
	}

	info := &Info{}
	if len(root.value) >= fixedFileInfoSize {
		fixed, err := parseFixed(root.value)
		if err == nil && fixed.Signature == FixedFileInfoSignature {
			info.Fixed = &fixed
		}
	}

	for _, child := range root.children {
		switch child.key {
		case keyStringFileInfo:
			for _, tbl := range child.children {
				st := StringTable{Key: strings.ToUpper(tbl.key), Values: map[string]string{}}
				for _, s := range tbl.children {
					st.Values[s.key] = decodeValue(s)
				}
				info.Tables = append(info.Tables, st)
			}
		case keyVarFileInfo:
			for _, v := range child.children {
				if v.key != keyTranslation {
					continue
				}
				info.Translations = append(info.Translations, parseTranslations(v.value)...)
			}
		}
	}
	return info, nil
}

func parseBlock(v view, off, depth int) (block, int, error) {
	if depth > maxDepth {
		return block{}, 0, fmt.Errorf("versioninfo: nesting deeper than %d", maxDepth)
	}
	length, err := v.u16(off)
	if err != nil {
		return block{}, 0, err
	}
	valueLength, err := v.u16(off + 2)
	if err != nil {
		return block{}, 0, err
	}
	typ, err := v.u16(off + 4)
	if err != nil {
		return block{}, 0, err
	}
	if int(length) < blockHeaderSize {
		return block{}, 0, fmt.Errorf("%w: block length %d at %d", ErrTruncated, length, off)
	}
	end := off + int(length)
	if end > len(v) {
		return block{}, 0, fmt.Errorf("%w: block end %d beyond %d", ErrTruncated, end, len(v))
	}

	key, next, err := v.utf16z(off+blockHeaderSize, end)
	if err != nil {
		return block{}, 0, err
	}
	b := block{key: key, typ: typ}

	valStart := align4(next)
	valLen := int(valueLength)
	if typ == 1 {
		// 文本值的 wValueLength 以 WCHAR 计；个别编译器写成字节数，统一按上限截断。
		valLen *= 2
	}
	if valStart > end {
		valStart = end
	}
	if valStart+valLen > end {
		valLen = end - valStart
	}
	b.value, err = v.slice(valStart, valLen)
	if err != nil {
		return block{}, 0, err
	}

	cur := align4(valStart + valLen)
	for cur+blockHeaderSize <= end {
		if l, _ := v.u16(cur); l == 0 {
			// 结尾的 0 填充。
			break
		}
		child, childEnd, err := parseBlock(v[:end], cur, depth+1)
		if err != nil {
			return block{}, 0, err
		}
		b.children = append(b.children, child)
		cur = align4(childEnd)
	}
	return b, end, nil
}

func parseFixed(v view) (FixedFileInfo, error) {
	var words [13]uint32
	for i := range words {
		w, err := v.u32(i * 4)
		if err != nil {
			return FixedFileInfo{}, err
		}
		words[i] = w
	}
	return FixedFileInfo{
		Signature:        words[0],
		StrucVersion:     words[1],
		FileVersionMS:    words[2],
		FileVersionLS:    words[3],
		ProductVersionMS: words[4],
		ProductVersionLS: words[5],
		FileFlagsMask:    words[6],
		FileFlags:        words[7],
		FileOS:           words[8],
		FileType:         words[9],
		FileSubtype:      words[10],
		FileDateMS:       words[11],
		FileDateLS:       words[12],
	}, nil
}

func parseTranslations(v view) []string {
	var out []string
	for off := 0; off+4 <= len(v); off += 4 {
		lang, _ := v.u16(off)
		cp, _ := v.u16(off + 2)
		out = append(out, fmt.Sprintf("%04X%04X", lang, cp))
	}
	return out
}

func decodeValue(b block) string {
	if len(b.value) == 0 {
		return ""
	}
	s, _, err := b.value.utf16z(0, len(b.value))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(s)
}

// FileVersion 返回固定信息块里的文件版本；没有固定信息块时返回空串。
func (i *Info) FileVersion() string {
	if i == nil || i.Fixed == nil {
		return ""
	}
	return i.Fixed.FileVersion()
}

// Lookup 在字符串表里查找 key。
//
// 依次尝试：资源声明的每个翻译（语言/代码页），DefaultTranslation，
// 最后是其余全部表；返回第一个非空值。
func (i *Info) Lookup(key string) string {
	if i == nil {
		return ""
	}
	tried := make(map[string]struct{}, len(i.Tables))
	order := make([]string, 0, len(i.Translations)+1)
	order = append(order, i.Translations...)
	order = append(order, DefaultTranslation)

	for _, tk := range order {
		tk = strings.ToUpper(tk)
		if _, ok := tried[tk]; ok {
			continue
		}
		tried[tk] = struct{}{}
		for _, t := range i.Tables {
			if t.Key != tk {
				continue
			}
			if v := t.Values[key]; v != "" {
				return v
			}
		}
	}
	for _, t := range i.Tables {
		if _, ok := tried[t.Key]; ok {
			continue
		}
		if v := t.Values[key]; v != "" {
			return v
		}
	}
	return ""
}
