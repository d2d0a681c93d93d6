package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/John-Robertt/AVPM/internal/domain"
)

func TestLoadEffective_Defaults(t *testing.T) {
	cwd := t.TempDir()

	eff, err := LoadEffective(cwd, "", CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ConfigFile != "" {
		t.Fatalf("没有配置文件时 ConfigFile 应为空，实际 %q", eff.ConfigFile)
	}
	if len(eff.Formats) != len(domain.AllFormats) {
		t.Fatalf("默认应扫描全部格式，实际 %v", eff.Formats)
	}
	if eff.MaxDepth != DefaultMaxDepth || eff.Concurrency != DefaultConcurrency {
		t.Fatalf("默认值不正确：depth=%d concurrency=%d", eff.MaxDepth, eff.Concurrency)
	}
	if eff.Output != "" {
		t.Fatalf("默认 output 应为空（由终端决定），实际 %q", eff.Output)
	}
}

func TestLoadEffective_ExplicitConfigNotFound(t *testing.T) {
	cwd := t.TempDir()

	_, err := LoadEffective(cwd, "", CLIArgs{ConfigPath: "missing.yaml"})
	if Code(err) != ErrCodeNotFound {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeNotFound, err, Code(err))
	}
}

func TestLoadEffective_DiscoverYAMLInCwd(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "avpm.yaml"), []byte(`
formats: [vst3, au]
max_depth: 3
exclude_dirs: [" backup ", ""]
extra_roots:
  vst3: [/opt/vst3]
`))

	eff, err := LoadEffective(cwd, "", CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.ConfigFile != filepath.Join(cwd, "avpm.yaml") {
		t.Fatalf("ConfigFile 不正确：%q", eff.ConfigFile)
	}
	if len(eff.Formats) != 2 || eff.Formats[0] != domain.FormatVST3 || eff.Formats[1] != domain.FormatAU {
		t.Fatalf("formats 不正确：%v", eff.Formats)
	}
	if eff.MaxDepth != 3 {
		t.Fatalf("期望 max_depth=3，实际 %d", eff.MaxDepth)
	}
	if len(eff.ExcludeDirs) != 1 || eff.ExcludeDirs[0] != "backup" {
		t.Fatalf("exclude_dirs 未清理：%q", eff.ExcludeDirs)
	}
	if got := eff.ExtraRoots[domain.FormatVST3]; len(got) != 1 || got[0] != "/opt/vst3" {
		t.Fatalf("extra_roots.vst3 不正确：%v", got)
	}
}

func TestLoadEffective_UserConfigDirJSON(t *testing.T) {
	cwd := t.TempDir()
	ucd := t.TempDir()
	writeFile(t, filepath.Join(ucd, "avpm", "avpm.json"), []byte(`{"concurrency": 99, "output": "JSON"}`))

	eff, err := LoadEffective(cwd, ucd, CLIArgs{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Concurrency != 32 {
		t.Fatalf("concurrency 应截断到 32，实际 %d", eff.Concurrency)
	}
	if eff.Output != "json" {
		t.Fatalf("output 应规范为小写，实际 %q", eff.Output)
	}
}

func TestLoadEffective_CLIOverridesFileAndEnv(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "avpm.toml"), []byte("max_depth = 8\nconcurrency = 2\n"))
	t.Setenv("AVPM_CONCURRENCY", "6")

	eff, err := LoadEffective(cwd, "", CLIArgs{MaxDepth: 5, MaxDepthSet: true})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	// 显式 --depth=5 即使等于默认值，也必须覆盖配置文件。
	if eff.MaxDepth != 5 {
		t.Fatalf("期望 max_depth=5，实际 %d", eff.MaxDepth)
	}
	// 环境变量覆盖配置文件。
	if eff.Concurrency != 6 {
		t.Fatalf("期望 concurrency=6（来自环境变量），实际 %d", eff.Concurrency)
	}
}

func TestLoadEffective_InvalidValues(t *testing.T) {
	cwd := t.TempDir()

	cases := []CLIArgs{
		{Formats: []string{"vst4"}, FormatsSet: true},
		{Formats: []string{" , "}, FormatsSet: true},
		{Output: "xml", OutputSet: true},
	}
	for _, c := range cases {
		_, err := LoadEffective(cwd, "", c)
		if Code(err) != ErrCodeInvalid {
			t.Fatalf("%+v：期望 %q，实际 err=%v", c, ErrCodeInvalid, err)
		}
	}
}

func TestLoadEffective_MalformedFile(t *testing.T) {
	cwd := t.TempDir()
	p := filepath.Join(cwd, "custom.yaml")
	writeFile(t, p, []byte("formats: [vst3\n"))

	_, err := LoadEffective(cwd, "", CLIArgs{ConfigPath: p})
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v", ErrCodeInvalid, err)
	}
}

func TestLoadEffective_FormatsDedupAndCommaList(t *testing.T) {
	cwd := t.TempDir()

	eff, err := LoadEffective(cwd, "", CLIArgs{Formats: []string{"VST3,au", "vst3"}, FormatsSet: true, MaxDepth: -3, MaxDepthSet: true})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if len(eff.Formats) != 2 {
		t.Fatalf("formats 应去重，实际 %v", eff.Formats)
	}
	if eff.MaxDepth != 1 {
		t.Fatalf("负数深度应截断到 1，实际 %d", eff.MaxDepth)
	}
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("创建目录失败：%v", err)
	}
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写入文件失败：%v", err)
	}
}
