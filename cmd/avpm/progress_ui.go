package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/AVPM/internal/app/inventory"
	"github.com/John-Robertt/AVPM/internal/config"
	"github.com/John-Robertt/AVPM/internal/domain"
)

var _ inventory.Observer = (*progressUI)(nil)

// progressUI 是交互终端下的简洁进度输出。
//
// - 只写 stderr，不污染 stdout 的结果文档
// - 事件驱动：inventory 只发事件，CLI 决定如何展示
// - keepalive：长时间没有根目录完成时定期输出一行
type progressUI struct {
	w   io.Writer
	cfg config.EffectiveConfig

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time

	total   int
	done    int
	plugins int

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newProgressUI(w io.Writer, cfg config.EffectiveConfig) *progressUI {
	return &progressUI{
		w:                  w,
		cfg:                cfg,
		keepaliveThreshold: 6 * time.Second,
		tickerInterval:     2 * time.Second,
	}
}

func (p *progressUI) OnStart(scanID, platform string, formats []domain.Format) {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.startedAt.IsZero() {
		p.startedAt = now
	}

	names := make([]string, 0, len(formats))
	for _, f := range formats {
		names = append(names, f.String())
	}

	fmt.Fprintf(p.w, "[%s] avpm scan %s\n", now.Format("15:04:05"), shortID(scanID))
	fmt.Fprintln(p.w, "配置（生效）:")
	fmt.Fprintf(p.w, "  platform: %s\n", platform)
	fmt.Fprintf(p.w, "  formats: %s\n", strings.Join(names, ","))
	fmt.Fprintf(p.w, "  max_depth: %d\n", p.cfg.MaxDepth)
	fmt.Fprintf(p.w, "  concurrency: %d\n", p.cfg.Concurrency)
	fmt.Fprintf(p.w, "  exclude_dirs: %s\n", formatStringListJSON(p.cfg.ExcludeDirs))
	if p.cfg.ConfigFile != "" {
		fmt.Fprintf(p.w, "  config: %s\n", p.cfg.ConfigFile)
	}
	fmt.Fprintln(p.w)

	p.lastPrinted = time.Now()
}

func (p *progressUI) OnPhaseDone(name string, fields map[string]any, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch name {
	case "resolve":
		p.total = intField(fields, "roots")
		fmt.Fprintf(p.w, "根目录: scan=%d missing_or_skipped=%d (%s)\n",
			p.total, intField(fields, "skipped"), formatShortDuration(dur),
		)
		if p.total > 0 && !p.tickerStarted {
			p.startTickerLocked()
		}
	case "detect":
		p.stopTickerLocked()
		fmt.Fprintf(p.w, "识别: plugins=%d duplicates=%d (%s)\n",
			intField(fields, "plugins"), intField(fields, "duplicates"), formatShortDuration(dur),
		)
	case "group":
		fmt.Fprintf(p.w, "分组: manufacturers=%d (%s)\n\n",
			intField(fields, "manufacturers"), formatShortDuration(dur),
		)
	default:
		fmt.Fprintf(p.w, "%s (%s)\n", name, formatShortDuration(dur))
	}

	p.lastPrinted = time.Now()
}

func (p *progressUI) OnRootDone(done, total int, root domain.RootResult, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = done
	p.total = total
	p.plugins += root.Plugins

	fmt.Fprintf(p.w, "[%d/%d] %-4s %s plugins=%d (%s)\n",
		done, total, root.Format, truncate(root.Path, 120), root.Plugins, formatShortDuration(dur),
	)
	p.lastPrinted = time.Now()

	if p.done >= p.total {
		p.stopTickerLocked()
	}
}

func (p *progressUI) stopTickerLocked() {
	if p.tickerStarted {
		close(p.stopCh)
		p.tickerStarted = false
	}
}

func (p *progressUI) startTickerLocked() {
	p.stopCh = make(chan struct{})
	p.tickerStarted = true

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	threshold := p.keepaliveThreshold
	if threshold <= 0 {
		threshold = 6 * time.Second
	}
	stop := p.stopCh

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				p.mu.Lock()
				if p.total > 0 && p.done < p.total && time.Since(p.lastPrinted) > threshold {
					fmt.Fprintf(p.w, "进度: roots=%d/%d plugins=%d elapsed=%s\n",
						p.done, p.total, p.plugins, formatElapsed(time.Since(p.startedAt)),
					)
					p.lastPrinted = time.Now()
				}
				p.mu.Unlock()
			case <-stop:
				return
			}
		}
	}()
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func formatStringListJSON(xs []string) string {
	// nil 会被编码成 "null"，展示时用 "[]"。
	if xs == nil {
		xs = []string{}
	}
	b, err := json.Marshal(xs)
	if err != nil {
		return "[]"
	}
	return string(b)
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	return fmt.Sprintf("%02d:%02d:%02d", sec/3600, (sec%3600)/60, sec%60)
}

func intField(fields map[string]any, key string) int {
	switch x := fields[key].(type) {
	case int:
		return x
	case int64:
		return int(x)
	case uint:
		return int(x)
	default:
		return 0
	}
}
