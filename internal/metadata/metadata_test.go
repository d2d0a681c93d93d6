package metadata

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"howett.net/plist"

	"github.com/John-Robertt/AVPM/internal/domain"
	vt "github.com/John-Robertt/AVPM/internal/metadata/versioninfo/versioninfotest"
)

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, b, 0o644))
}

func peImage(product, company string, major, minor uint16) []byte {
	var strs [][]byte
	if product != "" {
		strs = append(strs, vt.String("ProductName", product))
	}
	if company != "" {
		strs = append(strs, vt.String("CompanyName", company))
	}
	return vt.PE(vt.VersionInfo(
		vt.Fixed(major, minor, 0, 0),
		vt.StringFileInfo(vt.StringTable("040904B0", strs...)),
		vt.VarFileInfo([2]uint16{0x0409, 0x04B0}),
	))
}

const auPlist = `<?xml version="1.0" encoding="UTF-8"?>
<!DOCTYPE plist PUBLIC "-//Apple//DTD PLIST 1.0//EN" "http://www.apple.com/DTDs/PropertyList-1.0.dtd">
<plist version="1.0">
<dict>
	<key>AudioComponents</key>
	<array>
		<dict>
			<key>name</key>
			<string>Acme Audio: Crusher</string>
		</dict>
	</array>
	<key>CFBundleName</key>
	<string>CrusherBundle</string>
	<key>CFBundleIdentifier</key>
	<string>com.acme.crusher</string>
	<key>CFBundleShortVersionString</key>
	<string>2.1.0</string>
	<key>CFBundleVersion</key>
	<string>2100</string>
</dict>
</plist>`

func TestPlist_AudioComponents(t *testing.T) {
	bundle := filepath.Join(t.TempDir(), "Crusher.component")
	writeFile(t, InfoPlistPath(bundle), []byte(auPlist))

	f, err := Plist(bundle)
	require.NoError(t, err)
	assert.Equal(t, Fields{Name: "Crusher", Manufacturer: "Acme Audio", Version: "2.1.0"}, f)
}

func TestPlist_BinaryAndIdentifierFallback(t *testing.T) {
	bundle := filepath.Join(t.TempDir(), "Verb.vst3")
	doc := map[string]interface{}{
		"CFBundleDisplayName": "Verb",
		"CFBundleIdentifier":  "com.fabfilter.Verb",
		"CFBundleVersion":     "3.0",
	}
	b, err := plist.Marshal(doc, plist.BinaryFormat)
	require.NoError(t, err)
	writeFile(t, InfoPlistPath(bundle), b)

	f, err := Plist(bundle)
	require.NoError(t, err)
	assert.Equal(t, Fields{Name: "Verb", Manufacturer: "fabfilter", Version: "3.0"}, f)
}

func TestPlist_ComponentNameWithoutColon(t *testing.T) {
	f := plistFields(map[string]interface{}{
		"AudioComponents": []interface{}{map[string]interface{}{"name": "NoColon"}},
		"CFBundleName":    "Fallback",
	})
	assert.Equal(t, "Fallback", f.Name)
	assert.Empty(t, f.Manufacturer)
}

func TestPlist_Missing(t *testing.T) {
	_, err := Plist(filepath.Join(t.TempDir(), "none.vst"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

func TestSidecar_Variants(t *testing.T) {
	tests := []struct {
		name string
		rel  string
		body string
		want Fields
	}{
		{
			name: "moduleinfo 大写键与 Factory Info",
			rel:  filepath.Join("Contents", "Resources", "moduleinfo.json"),
			body: `{"Name": "Crusher", "Version": "1.4.2", "Factory Info": {"Vendor": "Acme"},}`,
			want: Fields{Name: "Crusher", Manufacturer: "Acme", Version: "1.4.2"},
		},
		{
			name: "plugin.json 小写键",
			rel:  filepath.Join("Contents", "plugin.json"),
			body: `{"name": "Delay", "company": "Echo Ltd", "version": 2}`,
			want: Fields{Name: "Delay", Manufacturer: "Echo Ltd", Version: "2"},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			bundle := filepath.Join(t.TempDir(), "X.vst3")
			writeFile(t, filepath.Join(bundle, tc.rel), []byte(tc.body))
			f, err := Sidecar(bundle)
			require.NoError(t, err)
			assert.Equal(t, tc.want, f)
		})
	}
}

func TestSidecar_RequiresNameOrVendor(t *testing.T) {
	bundle := filepath.Join(t.TempDir(), "X.vst3")
	writeFile(t, filepath.Join(bundle, "Contents", "moduleinfo.json"), []byte(`{"Version": "1.0"}`))
	_, err := Sidecar(bundle)
	require.Error(t, err)
}

func TestPE_Source(t *testing.T) {
	p := filepath.Join(t.TempDir(), "Crusher.dll")
	writeFile(t, p, peImage("Crusher", "Acme Audio GmbH", 1, 5))

	f, err := PE(p)
	require.NoError(t, err)
	assert.Equal(t, Fields{Name: "Crusher", Manufacturer: "Acme Audio GmbH", Version: "1.5.0.0"}, f)
}

func TestNestedBinary_PrefersArchDir(t *testing.T) {
	bundle := filepath.Join(t.TempDir(), "Crusher.vst3")
	writeFile(t, filepath.Join(bundle, "Contents", "arm64-win", "Crusher.vst3"), peImage("ArmBuild", "Acme", 1, 0))
	writeFile(t, filepath.Join(bundle, "Contents", "x86_64-win", "Crusher.vst3"), peImage("X64Build", "Acme", 1, 0))

	f, err := NestedBinary(domain.FormatVST3, "amd64")(bundle)
	require.NoError(t, err)
	assert.Equal(t, "X64Build", f.Name)

	f, err = NestedBinary(domain.FormatVST3, "arm64")(bundle)
	require.NoError(t, err)
	assert.Equal(t, "ArmBuild", f.Name)
}

func TestNestedBinary_DepthBound(t *testing.T) {
	bundle := filepath.Join(t.TempDir(), "Deep.aaxplugin")
	writeFile(t, filepath.Join(bundle, "Contents", "a", "b", "c", "Deep.aaxplugin"), peImage("TooDeep", "Acme", 1, 0))

	_, err := NestedBinary(domain.FormatAAX, "riscv64")(bundle)
	require.Error(t, err, "超过 3 层的二进制不应被读取")

	writeFile(t, filepath.Join(bundle, "Contents", "a", "b", "Deep.aax"), peImage("JustRight", "Acme", 1, 0))
	f, err := NestedBinary(domain.FormatAAX, "riscv64")(bundle)
	require.NoError(t, err)
	assert.Equal(t, "JustRight", f.Name)
}

func TestExtract_MergeAndStop(t *testing.T) {
	calls := 0
	first := func(string) (Fields, error) {
		calls++
		return Fields{Name: "Crusher", Version: "1.0"}, nil
	}
	failing := func(string) (Fields, error) {
		calls++
		return Fields{}, errors.New("broken")
	}
	second := func(string) (Fields, error) {
		calls++
		return Fields{Name: "Ignored", Manufacturer: "Acme", Version: "9.9"}, nil
	}
	never := func(string) (Fields, error) {
		t.Fatalf("名称与厂商齐全后不应继续尝试")
		return Fields{}, nil
	}

	rec := Extract("/p/Crusher.vst3", domain.FormatVST3, first, failing, second, never)
	assert.Equal(t, 3, calls)
	assert.Equal(t, domain.PluginRecord{
		Name: "Crusher", Manufacturer: "Acme", Version: "1.0",
		Path: "/p/Crusher.vst3", Format: domain.FormatVST3,
	}, rec)
}

func TestExtract_Fallback(t *testing.T) {
	failing := func(string) (Fields, error) { return Fields{}, errors.New("nope") }
	rec := Extract(filepath.Join("plugins", "Reverb.dll"), domain.FormatVST2, failing)
	assert.Equal(t, "Reverb", rec.Name)
	assert.Equal(t, domain.UnknownManufacturer, rec.Manufacturer)
	assert.Empty(t, rec.Version)
	assert.Equal(t, domain.FormatVST2, rec.Format)

	rec = Extract(filepath.Join("plugins", ".vst3"), domain.FormatVST3)
	assert.Equal(t, ".vst3", rec.Name)
}
