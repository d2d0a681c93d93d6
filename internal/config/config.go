// Package config 合并 CLI、环境变量、配置文件与内置默认值，得到一次运行的最终配置。
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/John-Robertt/AVPM/internal/domain"
)

const (
	// ErrCodeNotFound 表示显式指定的 --config 文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// FileBaseName 是自动发现时的配置文件名（不含扩展名，支持 yaml/json/toml）。
	FileBaseName = "avpm"
	// EnvPrefix 是环境变量前缀，例如 AVPM_MAX_DEPTH。
	EnvPrefix = "AVPM"

	DefaultMaxDepth    = 5
	DefaultConcurrency = 4

	minBound = 1
	maxBound = 32
)

// 合法的输出格式；空串表示由 CLI 按终端类型决定。
var validOutputs = []string{"", "table", "json", "yaml"}

// CLIArgs 保留“是否显式指定”的信息，保证 --depth=5 这种与默认值相同的显式输入也能覆盖配置文件。
type CLIArgs struct {
	ConfigPath string

	Formats    []string
	FormatsSet bool

	MaxDepth    int
	MaxDepthSet bool

	Concurrency    int
	ConcurrencySet bool

	Output    string
	OutputSet bool
}

// FileConfig 对应 avpm.{yaml,json,toml}。
type FileConfig struct {
	Formats     []string   `mapstructure:"formats"`
	MaxDepth    int        `mapstructure:"max_depth"`
	Concurrency int        `mapstructure:"concurrency"`
	ExcludeDirs []string   `mapstructure:"exclude_dirs"`
	ExtraRoots  ExtraRoots `mapstructure:"extra_roots"`
	Output      string     `mapstructure:"output"`
}

// ExtraRoots 是按格式追加的扫描根目录。
type ExtraRoots struct {
	VST2 []string `mapstructure:"vst2"`
	VST3 []string `mapstructure:"vst3"`
	AAX  []string `mapstructure:"aax"`
	AU   []string `mapstructure:"au"`
}

// EffectiveConfig 是合并并规范化后的最终配置（实现层直接消费，不再做二次默认/优先级判断）。
type EffectiveConfig struct {
	// ConfigFile 是实际读取的配置文件；未使用配置文件时为空串。
	ConfigFile string

	Formats     []domain.Format
	MaxDepth    int
	Concurrency int
	ExcludeDirs []string
	ExtraRoots  map[domain.Format][]string
	Output      string
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 发现并读取配置文件，然后与环境变量、CLI 参数合并为最终配置。
//
// 发现规则（固定）：
// 1) CLI 提供 --config：必须存在，否则 config_not_found
// 2) 否则依次查找 <cwd>/avpm.* 与 <userConfigDir>/avpm/avpm.*（都可选）
//
// 覆盖优先级（固定）：CLI 显式指定 > 环境变量 AVPM_* > 配置文件 > 内置默认值。
func LoadEffective(cwd, userConfigDir string, cli CLIArgs) (EffectiveConfig, error) {
	cwdAbs, err := filepath.Abs(cwd)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cwd, Err: err}
	}

	v := newViper()

	cfgPath := ""
	if strings.TrimSpace(cli.ConfigPath) != "" {
		cfgPath = absCleanFrom(cwdAbs, cli.ConfigPath)
		if _, err := os.Stat(cfgPath); err != nil {
			if os.IsNotExist(err) {
				return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
			}
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		v.SetConfigFile(cfgPath)
		if err := v.ReadInConfig(); err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
	} else {
		v.SetConfigName(FileBaseName)
		v.AddConfigPath(cwdAbs)
		if strings.TrimSpace(userConfigDir) != "" {
			v.AddConfigPath(filepath.Join(userConfigDir, FileBaseName))
		}
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: v.ConfigFileUsed(), Err: err}
			}
		}
		cfgPath = v.ConfigFileUsed()
	}

	var fc FileConfig
	if err := v.Unmarshal(&fc); err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	return merge(cli, fc, cfgPath)
}

func newViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// AutomaticEnv 只对已知键生效，所以每个键都要有默认值。
	v.SetDefault("formats", []string{"vst2", "vst3", "aax", "au"})
	v.SetDefault("max_depth", DefaultMaxDepth)
	v.SetDefault("concurrency", DefaultConcurrency)
	v.SetDefault("exclude_dirs", []string{})
	v.SetDefault("extra_roots.vst2", []string{})
	v.SetDefault("extra_roots.vst3", []string{})
	v.SetDefault("extra_roots.aax", []string{})
	v.SetDefault("extra_roots.au", []string{})
	v.SetDefault("output", "")
	return v
}

func merge(cli CLIArgs, fc FileConfig, cfgPath string) (EffectiveConfig, error) {
	invalid := func(err error) (EffectiveConfig, error) {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}

	rawFormats := fc.Formats
	if cli.FormatsSet {
		rawFormats = cli.Formats
	}
	formats, err := parseFormats(rawFormats)
	if err != nil {
		return invalid(err)
	}

	maxDepth := fc.MaxDepth
	if cli.MaxDepthSet {
		maxDepth = cli.MaxDepth
	}
	concurrency := fc.Concurrency
	if cli.ConcurrencySet {
		concurrency = cli.Concurrency
	}

	output := strings.ToLower(strings.TrimSpace(fc.Output))
	if cli.OutputSet {
		output = strings.ToLower(strings.TrimSpace(cli.Output))
	}
	if !contains(validOutputs, output) {
		return invalid(fmt.Errorf("output 只能是 table、json 或 yaml，实际是 %q", output))
	}

	return EffectiveConfig{
		ConfigFile:  cfgPath,
		Formats:     formats,
		MaxDepth:    clamp(maxDepth, DefaultMaxDepth),
		Concurrency: clamp(concurrency, DefaultConcurrency),
		ExcludeDirs: cleanList(fc.ExcludeDirs),
		ExtraRoots: map[domain.Format][]string{
			domain.FormatVST2: cleanList(fc.ExtraRoots.VST2),
			domain.FormatVST3: cleanList(fc.ExtraRoots.VST3),
			domain.FormatAAX:  cleanList(fc.ExtraRoots.AAX),
			domain.FormatAU:   cleanList(fc.ExtraRoots.AU),
		},
		Output: output,
	}, nil
}

// parseFormats 解析并去重，保持输入顺序。
func parseFormats(raw []string) ([]domain.Format, error) {
	seen := map[domain.Format]struct{}{}
	var out []domain.Format
	for _, s := range raw {
		for _, part := range strings.Split(s, ",") {
			if strings.TrimSpace(part) == "" {
				continue
			}
			f, err := domain.ParseFormat(part)
			if err != nil {
				return nil, err
			}
			if _, ok := seen[f]; ok {
				continue
			}
			seen[f] = struct{}{}
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("formats 不能为空")
	}
	return out, nil
}

// clamp：0 表示未指定，取默认值；其余截断到 [1, 32]。
func clamp(n, def int) int {
	if n == 0 {
		return def
	}
	if n < minBound {
		return minBound
	}
	if n > maxBound {
		return maxBound
	}
	return n
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func contains(list []string, s string) bool {
	for _, x := range list {
		if x == s {
			return true
		}
	}
	return false
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Clean(filepath.Join(base, p))
}
