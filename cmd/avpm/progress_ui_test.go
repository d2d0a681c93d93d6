package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/John-Robertt/AVPM/internal/config"
	"github.com/John-Robertt/AVPM/internal/domain"
)

func TestProgressUI_PrintsPhasesAndRoots(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressUI(&buf, config.EffectiveConfig{MaxDepth: 5, Concurrency: 4})

	p.OnStart("0123456789abcdef", "linux", []domain.Format{domain.FormatVST2, domain.FormatVST3})
	p.OnPhaseDone("resolve", map[string]any{"roots": 1, "skipped": 2}, time.Second)
	p.OnRootDone(1, 1, domain.RootResult{Format: domain.FormatVST3, Path: "/usr/lib/vst3", Plugins: 7}, 1500*time.Millisecond)
	p.OnPhaseDone("detect", map[string]any{"plugins": 7, "duplicates": 0}, 2*time.Second)
	p.OnPhaseDone("group", map[string]any{"manufacturers": 3}, 0)

	out := buf.String()
	for _, want := range []string{
		"avpm scan 01234567",
		"formats: VST2,VST3",
		"exclude_dirs: []",
		"根目录: scan=1 missing_or_skipped=2",
		"[1/1] VST3 /usr/lib/vst3 plugins=7 (1.5s)",
		"识别: plugins=7",
		"分组: manufacturers=3",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("输出缺少 %q：\n%s", want, out)
		}
	}
	if p.tickerStarted {
		t.Fatalf("全部根目录完成后 ticker 应已停止")
	}
}

func TestProgressUI_NoRootsNoTicker(t *testing.T) {
	var buf bytes.Buffer
	p := newProgressUI(&buf, config.EffectiveConfig{})
	p.OnPhaseDone("resolve", map[string]any{"roots": 0, "skipped": 4}, 0)
	if p.tickerStarted {
		t.Fatalf("没有根目录时不应启动 ticker")
	}
	p.OnPhaseDone("detect", nil, 0)
}

func TestFormatHelpers(t *testing.T) {
	if got := formatElapsed(3725 * time.Second); got != "01:02:05" {
		t.Fatalf("formatElapsed 错误：%q", got)
	}
	if got := truncate("abcdefghij", 6); got != "abc..." {
		t.Fatalf("truncate 错误：%q", got)
	}
	if got := intField(map[string]any{"n": int64(3)}, "n"); got != 3 {
		t.Fatalf("intField 错误：%d", got)
	}
	if got := intField(nil, "n"); got != 0 {
		t.Fatalf("nil map 应返回 0，实际 %d", got)
	}
}
