//go:build !windows

package platform

type noRegistry struct{}

// SystemRegistry 在非 Windows 宿主上总是返回 ErrNoRegistry。
func SystemRegistry() Registry { return noRegistry{} }

func (noRegistry) LocalMachineString(string, string) (string, error) {
	return "", ErrNoRegistry
}
