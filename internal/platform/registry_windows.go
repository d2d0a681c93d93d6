//go:build windows

package platform

import "golang.org/x/sys/windows/registry"

type systemRegistry struct{}

// SystemRegistry 返回读取真实注册表的实现。
func SystemRegistry() Registry { return systemRegistry{} }

func (systemRegistry) LocalMachineString(key, value string) (string, error) {
	k, err := registry.OpenKey(registry.LOCAL_MACHINE, key, registry.QUERY_VALUE)
	if err != nil {
		return "", err
	}
	defer k.Close()
	s, _, err := k.GetStringValue(value)
	if err != nil {
		return "", err
	}
	// REG_EXPAND_SZ 里常见 %ProgramFiles% 之类的变量。
	if expanded, err := registry.ExpandString(s); err == nil {
		s = expanded
	}
	return s, nil
}
