package versioninfo_test

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/John-Robertt/AVPM/internal/metadata/versioninfo"
	vt "github.com/John-Robertt/AVPM/internal/metadata/versioninfo/versioninfotest"
)

func sample() []byte {
	return vt.VersionInfo(
		vt.Fixed(1, 2, 3, 4),
		vt.StringFileInfo(
			vt.StringTable("040904b0",
				vt.String("CompanyName", "Acme Audio"),
				vt.String("ProductName", "Crusher"),
				vt.String("FileDescription", "Crusher VST"),
			),
		),
		vt.VarFileInfo([2]uint16{0x0409, 0x04B0}),
	)
}

func TestParse_FixedAndStrings(t *testing.T) {
	info, err := versioninfo.Parse(sample())
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := info.FileVersion(); got != "1.2.3.4" {
		t.Fatalf("文件版本期望 1.2.3.4，实际 %q", got)
	}
	if len(info.Translations) != 1 || info.Translations[0] != "040904B0" {
		t.Fatalf("翻译列表不符合预期：%v", info.Translations)
	}
	if got := info.Lookup("ProductName"); got != "Crusher" {
		t.Fatalf("ProductName 期望 Crusher，实际 %q", got)
	}
	if got := info.Lookup("CompanyName"); got != "Acme Audio" {
		t.Fatalf("CompanyName 期望 Acme Audio，实际 %q", got)
	}
	if got := info.Lookup("LegalCopyright"); got != "" {
		t.Fatalf("不存在的键应返回空串，实际 %q", got)
	}
}

func TestParse_WithoutFixedInfo(t *testing.T) {
	vi := vt.VersionInfo(nil,
		vt.StringFileInfo(vt.StringTable("040904B0", vt.String("ProductName", "Solo"))),
	)
	info, err := versioninfo.Parse(vi)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if info.Fixed != nil || info.FileVersion() != "" {
		t.Fatalf("没有固定信息块时版本应为空：%+v", info.Fixed)
	}
	if got := info.Lookup("ProductName"); got != "Solo" {
		t.Fatalf("期望 Solo，实际 %q", got)
	}
}

func TestLookup_TranslationOrder(t *testing.T) {
	vi := vt.VersionInfo(vt.Fixed(2, 0, 0, 0),
		vt.StringFileInfo(
			vt.StringTable("040904B0", vt.String("ProductName", "English")),
			vt.StringTable("040704B0", vt.String("ProductName", "Deutsch"), vt.String("CompanyName", "Firma")),
		),
		vt.VarFileInfo([2]uint16{0x0407, 0x04B0}),
	)
	info, err := versioninfo.Parse(vi)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	// 声明的翻译优先于默认翻译。
	if got := info.Lookup("ProductName"); got != "Deutsch" {
		t.Fatalf("期望 Deutsch，实际 %q", got)
	}
}

func TestLookup_FallsBackToAnyTable(t *testing.T) {
	vi := vt.VersionInfo(nil,
		vt.StringFileInfo(
			vt.StringTable("041104B0", vt.String("CompanyName", "Nihon")),
		),
	)
	info, err := versioninfo.Parse(vi)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := info.Lookup("CompanyName"); got != "Nihon" {
		t.Fatalf("应回退到任意表，实际 %q", got)
	}
}

func TestParse_Truncated(t *testing.T) {
	vi := sample()
	_, err := versioninfo.Parse(vi[:len(vi)-10])
	if !errors.Is(err, versioninfo.ErrTruncated) {
		t.Fatalf("截断数据期望 ErrTruncated，实际 %v", err)
	}
	if _, err := versioninfo.Parse([]byte{1}); !errors.Is(err, versioninfo.ErrTruncated) {
		t.Fatalf("极短输入期望 ErrTruncated，实际 %v", err)
	}
}

func TestParse_WrongRootKey(t *testing.T) {
	b := vt.StringFileInfo()
	if _, err := versioninfo.Parse(b); !errors.Is(err, versioninfo.ErrNotVersionInfo) {
		t.Fatalf("期望 ErrNotVersionInfo，实际 %v", err)
	}
}

func TestRead_PE(t *testing.T) {
	img := vt.PE(sample())
	info, err := versioninfo.Read(bytes.NewReader(img))
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if info.FileVersion() != "1.2.3.4" || info.Lookup("ProductName") != "Crusher" {
		t.Fatalf("PE 中的版本资源解析错误：%q %q", info.FileVersion(), info.Lookup("ProductName"))
	}
}

func TestRead_PEWithoutResource(t *testing.T) {
	_, err := versioninfo.Read(bytes.NewReader(vt.PE(nil)))
	if !errors.Is(err, versioninfo.ErrNoVersionResource) {
		t.Fatalf("期望 ErrNoVersionResource，实际 %v", err)
	}
}

func TestReadFile_NotPE(t *testing.T) {
	p := filepath.Join(t.TempDir(), "garbage.dll")
	if err := os.WriteFile(p, []byte("not a portable executable"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := versioninfo.ReadFile(p); err == nil {
		t.Fatalf("非 PE 文件应返回错误")
	}
}
