package metadata

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"howett.net/plist"
)

// InfoPlistPath 返回 bundle 内清单文件的位置。
func InfoPlistPath(bundle string) string {
	return filepath.Join(bundle, "Contents", "Info.plist")
}

// Plist 读取 bundle 的 Contents/Info.plist（XML 或二进制格式均可）。
//
// 字段来源：
// - AudioComponents[0].name 形如 "厂商: 名称"，按第一个 ':' 拆分
// - 名称回退 CFBundleName，再回退 CFBundleDisplayName
// - 厂商回退 CFBundleIdentifier 的第二段（com.acme.Foo -> acme）
// - 版本取 CFBundleShortVersionString，否则 CFBundleVersion
func Plist(bundle string) (Fields, error) {
	p := InfoPlistPath(bundle)
	b, err := os.ReadFile(p)
	if err != nil {
		return Fields{}, errors.Wrapf(err, "读取 %s", p)
	}
	var root map[string]interface{}
	if _, err := plist.Unmarshal(b, &root); err != nil {
		return Fields{}, errors.Wrapf(err, "解析 %s", p)
	}
	if root == nil {
		return Fields{}, errors.Errorf("%s 的根节点不是字典", p)
	}
	return plistFields(root), nil
}

func plistFields(root map[string]interface{}) Fields {
	var out Fields

	if comps, ok := root["AudioComponents"].([]interface{}); ok && len(comps) > 0 {
		if comp, ok := comps[0].(map[string]interface{}); ok {
			if full, ok := comp["name"].(string); ok {
				if manuf, name, found := strings.Cut(full, ":"); found {
					out.Manufacturer = strings.TrimSpace(manuf)
					out.Name = strings.TrimSpace(name)
				}
			}
		}
	}

	if out.Name == "" {
		out.Name = firstString(root, "CFBundleName", "CFBundleDisplayName")
	}
	if out.Manufacturer == "" {
		if id := firstString(root, "CFBundleIdentifier"); id != "" {
			if parts := strings.Split(id, "."); len(parts) >= 2 {
				out.Manufacturer = strings.TrimSpace(parts[1])
			}
		}
	}
	out.Version = firstString(root, "CFBundleShortVersionString", "CFBundleVersion")
	return out
}

// firstString 返回第一个存在且为非空字符串的键值。
func firstString(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		if s, ok := m[k].(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s)
		}
	}
	return ""
}
