package metadata

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// SidecarNames 是 VST3 bundle 可能附带的描述文件名，按优先级排列。
var SidecarNames = []string{"moduleinfo.json", "plugin.json"}

// sidecarDirs 是相对 bundle 根的查找目录：先 Contents/Resources，再 Contents。
var sidecarDirs = []string{
	filepath.Join("Contents", "Resources"),
	"Contents",
}

// Sidecar 读取 bundle 内的 JSON 描述文件。
//
// 只有名称或厂商至少一个存在时才算命中；否则继续尝试下一个文件。
func Sidecar(bundle string) (Fields, error) {
	var lastErr error
	for _, dir := range sidecarDirs {
		for _, name := range SidecarNames {
			p := filepath.Join(bundle, dir, name)
			b, err := os.ReadFile(p)
			if err != nil {
				if !os.IsNotExist(err) {
					lastErr = errors.Wrapf(err, "读取 %s", p)
				}
				continue
			}
			doc, err := decodeSidecar(b)
			if err != nil {
				lastErr = errors.Wrapf(err, "解析 %s", p)
				continue
			}
			f := sidecarFields(doc)
			if f.Name != "" || f.Manufacturer != "" {
				return f, nil
			}
		}
	}
	if lastErr != nil {
		return Fields{}, lastErr
	}
	return Fields{}, errors.Errorf("%s 下没有可用的描述文件", bundle)
}

// decodeSidecar 先按严格 JSON 解析；失败时用 YAML 解析器再试一次，
// 以兼容 moduleinfo.json 中常见的 JSON5 写法（尾随逗号）。
func decodeSidecar(b []byte) (map[string]interface{}, error) {
	var doc map[string]interface{}
	jsonErr := json.Unmarshal(b, &doc)
	if jsonErr == nil {
		return doc, nil
	}
	doc = nil
	if err := yaml.Unmarshal(b, &doc); err != nil || doc == nil {
		return nil, jsonErr
	}
	return doc, nil
}

func sidecarFields(doc map[string]interface{}) Fields {
	f := Fields{
		Name:         scalar(doc, "Name", "name"),
		Manufacturer: scalar(doc, "Vendor", "vendor", "Company", "company"),
		Version:      scalar(doc, "Version", "version"),
	}
	if f.Manufacturer == "" {
		if fi, ok := doc["Factory Info"].(map[string]interface{}); ok {
			f.Manufacturer = scalar(fi, "Vendor", "vendor")
		}
	}
	return f
}

// scalar 返回第一个存在的键的字符串形式；数字版本号（如 2）也接受。
func scalar(m map[string]interface{}, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64, int:
			return fmt.Sprint(v)
		}
	}
	return ""
}
