package metadata

import (
	"github.com/pkg/errors"

	"github.com/John-Robertt/AVPM/internal/metadata/versioninfo"
)

// PE 读取 Windows 可执行文件（.dll / .vst3 / .aaxplugin 内部二进制）的版本资源。
//
// 名称取 ProductName，缺失时取 FileDescription；厂商取 CompanyName；
// 版本取 VS_FIXEDFILEINFO 的文件版本。
func PE(path string) (Fields, error) {
	info, err := versioninfo.ReadFile(path)
	if err != nil {
		return Fields{}, errors.Wrapf(err, "读取版本资源 %s", path)
	}
	return peFields(info), nil
}

func peFields(info *versioninfo.Info) Fields {
	name := info.Lookup("ProductName")
	if name == "" {
		name = info.Lookup("FileDescription")
	}
	return Fields{
		Name:         name,
		Manufacturer: info.Lookup("CompanyName"),
		Version:      info.FileVersion(),
	}
}
