// Package manager 持有一次会话的清单与选择状态，并实现扫描、勾选与删除这几个同步操作。
package manager

import (
	"context"
	"errors"
	"os"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/John-Robertt/AVPM/internal/app/inventory"
	"github.com/John-Robertt/AVPM/internal/domain"
	"github.com/John-Robertt/AVPM/internal/infra/fsx"
	"github.com/John-Robertt/AVPM/internal/logging"
)

// ErrBusy 表示已有扫描或删除在进行中。
var ErrBusy = errors.New("manager: 已有扫描或删除正在进行")

// DeletionFailedMessage 是删除未完全成功时展示给用户的唯一提示。
const DeletionFailedMessage = "部分或全部插件未能移到回收站。\n常见原因是文件权限不足（Windows 上尤为常见）。\n请尝试以管理员身份重新运行。"

// Scanner 执行一次完整扫描；*inventory.Assembler 满足该接口。
type Scanner interface {
	Scan(ctx context.Context) (inventory.Result, error)
}

// Trasher 是删除原语：把一组路径移到系统回收站。
// 返回值只代表整次调用成功与否，不区分具体路径。
type Trasher interface {
	Trash(paths []string) error
}

// TrashFunc 让普通函数满足 Trasher。
type TrashFunc func(paths []string) error

func (f TrashFunc) Trash(paths []string) error { return f(paths) }

// DeletionOutcome 描述一次删除的结果（对账后）。
type DeletionOutcome struct {
	Attempted []string              `json:"attempted" yaml:"attempted"`
	Removed   []string              `json:"removed" yaml:"removed"`
	Survived  []string              `json:"survived" yaml:"survived"`
	Err       string                `json:"error,omitempty" yaml:"error,omitempty"`
	Records   []domain.PluginRecord `json:"-" yaml:"-"`
}

// Manager 是展示层回调核心的唯一入口。
//
// 约束：
// - 选择集始终是当前清单路径的子集
// - 厂商被标记为选中，当且仅当该组全部插件都被选中
// - 扫描失败时保留上一次的清单与选择
type Manager struct {
	scanner Scanner
	trasher Trasher
	exists  func(path string) bool

	busy atomic.Bool

	mu           sync.Mutex
	inv          domain.Inventory
	report       *domain.ScanReport
	selected     map[string]struct{}
	selectedMfrs map[string]struct{}
	deletionErr  string
}

// Option 配置 Manager。
type Option func(*Manager)

// WithExists 替换存在性检查（测试用）。
func WithExists(fn func(string) bool) Option {
	return func(m *Manager) { m.exists = fn }
}

// New 创建 Manager。
func New(s Scanner, t Trasher, opts ...Option) *Manager {
	m := &Manager{
		scanner:      s,
		trasher:      t,
		exists:       lexists,
		selected:     map[string]struct{}{},
		selectedMfrs: map[string]struct{}{},
	}
	for _, o := range opts {
		o(m)
	}
	return m
}

// lexists 不跟随符号链接：链接本身被移走即视为已删除。
func lexists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil || !os.IsNotExist(err)
}

// Busy 表示扫描或删除是否在进行中。
func (m *Manager) Busy() bool { return m.busy.Load() }

// Scan 执行一次扫描。成功时原子地替换清单并清空选择与错误提示；失败时状态保持不变。
func (m *Manager) Scan(ctx context.Context) error {
	if !m.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	defer m.busy.Store(false)

	res, err := m.scanner.Scan(ctx)
	if err != nil {
		logging.FromContext(ctx).Error().Err(err).Msg("扫描失败，保留上一次的清单")
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.inv = res.Inventory
	rep := res.Report
	m.report = &rep
	m.selected = map[string]struct{}{}
	m.selectedMfrs = map[string]struct{}{}
	m.deletionErr = ""
	return nil
}

// ToggleManufacturer 整组选中或整组取消。未知厂商忽略。
func (m *Manager) ToggleManufacturer(manufacturer string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	g, ok := m.inv.Group(manufacturer)
	if !ok {
		return
	}
	if _, on := m.selectedMfrs[manufacturer]; on {
		delete(m.selectedMfrs, manufacturer)
		for _, p := range g.Plugins {
			delete(m.selected, p.Path)
		}
		return
	}
	m.selectedMfrs[manufacturer] = struct{}{}
	for _, p := range g.Plugins {
		m.selected[p.Path] = struct{}{}
	}
}

// TogglePlugin 切换单个插件，并按“组内是否全选”重算厂商选中状态。未知路径忽略。
func (m *Manager) TogglePlugin(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rec, ok := m.inv.Find(path)
	if !ok {
		return
	}
	if _, on := m.selected[path]; on {
		delete(m.selected, path)
	} else {
		m.selected[path] = struct{}{}
	}
	m.syncManufacturer(rec.Manufacturer)
}

func (m *Manager) syncManufacturer(manufacturer string) {
	g, ok := m.inv.Group(manufacturer)
	if !ok {
		delete(m.selectedMfrs, manufacturer)
		return
	}
	for _, p := range g.Plugins {
		if _, on := m.selected[p.Path]; !on {
			delete(m.selectedMfrs, manufacturer)
			return
		}
	}
	m.selectedMfrs[manufacturer] = struct{}{}
}

// ClearSelection 清空全部选择。
func (m *Manager) ClearSelection() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.selected = map[string]struct{}{}
	m.selectedMfrs = map[string]struct{}{}
}

// ConfirmDeletion 把当前选择的快照交给删除原语，然后逐个核对路径是否还存在。
//
// - 已不存在的路径：从清单移除，变空的组一并移除，受影响厂商取消选中
// - 快照中的全部路径都移出选择集（无论成败）
// - 原语报错或有任何路径残留：设置 DeletionFailedMessage
//
// 选择为空时什么都不做。不会自动重试。
func (m *Manager) ConfirmDeletion(ctx context.Context) (DeletionOutcome, error) {
	if !m.busy.CompareAndSwap(false, true) {
		return DeletionOutcome{}, ErrBusy
	}
	defer m.busy.Store(false)
	log := logging.FromContext(ctx)

	m.mu.Lock()
	paths := sortedKeys(m.selected)
	m.mu.Unlock()
	if len(paths) == 0 {
		return DeletionOutcome{}, nil
	}

	trashErr := m.trasher.Trash(paths)
	if trashErr != nil {
		log.Error().Err(trashErr).Int("paths", len(paths)).Msg("移到回收站失败")
	}

	out := DeletionOutcome{Attempted: paths}
	gone := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		if m.exists(p) {
			out.Survived = append(out.Survived, p)
			continue
		}
		gone[p] = struct{}{}
		out.Removed = append(out.Removed, p)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	removed, affected := m.inv.Remove(gone)
	out.Records = removed
	for _, p := range paths {
		delete(m.selected, p)
	}
	for _, name := range affected {
		delete(m.selectedMfrs, name)
	}
	// 残留路径所在的组也不再是“全选”。
	for _, p := range out.Survived {
		if rec, ok := m.inv.Find(p); ok {
			m.syncManufacturer(rec.Manufacturer)
		}
	}
	if m.report != nil {
		m.report.Inventory = m.inv.Clone()
		m.report.Finalize()
	}

	if trashErr != nil || len(out.Survived) > 0 {
		m.deletionErr = DeletionFailedMessage
		out.Err = DeletionFailedMessage
		logEvent(log, trashErr).
			Strs("trash_failed", fsx.FailedPaths(trashErr)).
			Strs("survived", out.Survived).
			Int("removed", len(out.Removed)).
			Msg("删除未完全成功")
	}
	return out, nil
}

func logEvent(log *zerolog.Logger, err error) *zerolog.Event {
	if err != nil {
		return log.Warn().Err(err)
	}
	return log.Warn()
}

// DismissError 清除删除错误提示。
func (m *Manager) DismissError() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.deletionErr = ""
}

// Inventory 返回当前清单的快照。
func (m *Manager) Inventory() domain.Inventory {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.inv.Clone()
}

// Report 返回最近一次成功扫描的报告（删除后会同步清单部分）；尚未扫描时返回 false。
func (m *Manager) Report() (domain.ScanReport, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.report == nil {
		return domain.ScanReport{}, false
	}
	rep := *m.report
	rep.Inventory = m.inv.Clone()
	return rep, true
}

// Selected 返回已选路径（排序后）。
func (m *Manager) Selected() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedKeys(m.selected)
}

// IsSelected 判断路径是否被选中。
func (m *Manager) IsSelected(path string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.selected[path]
	return ok
}

// SelectedManufacturers 返回整组被选中的厂商（排序后）。
func (m *Manager) SelectedManufacturers() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return sortedKeys(m.selectedMfrs)
}

// DeletionError 返回待用户确认的删除错误提示；没有时为空串。
func (m *Manager) DeletionError() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.deletionErr
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
