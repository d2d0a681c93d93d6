package inventory

import (
	"time"

	"github.com/John-Robertt/AVPM/internal/domain"
)

// Observer 用于把扫描进度从核心流程中解耦出来。
//
// 约束：
// - inventory 包只负责发事件，不做任何输出（避免污染 stdout 的 JSON 契约）。
// - Observer 的实现必须并发安全：OnRootDone 可能来自多个 goroutine。
type Observer interface {
	// OnStart 在 Scan 开始时调用。
	OnStart(scanID, platform string, formats []domain.Format)
	// OnPhaseDone 在阶段结束时调用（resolve / detect / group）。
	OnPhaseDone(name string, fields map[string]any, dur time.Duration)
	// OnRootDone 在一个根目录遍历完成时调用。
	OnRootDone(done, total int, root domain.RootResult, dur time.Duration)
}
