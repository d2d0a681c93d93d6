// Package inventory 把路径解析、格式识别、元数据提取与厂商归并串成一次完整扫描。
package inventory

import (
	"context"
	"fmt"
	"os"
	"sync"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/John-Robertt/AVPM/internal/app"
	"github.com/John-Robertt/AVPM/internal/domain"
	"github.com/John-Robertt/AVPM/internal/logging"
	"github.com/John-Robertt/AVPM/internal/metadata"
	"github.com/John-Robertt/AVPM/internal/platform"
	"github.com/John-Robertt/AVPM/internal/scan"
)

// DefaultConcurrency 是并行遍历的根目录数上限的默认值。
const DefaultConcurrency = 4

// Options 是一次扫描的输入（通常来自 config.EffectiveConfig）。
type Options struct {
	// Formats 为空时扫描全部格式。
	Formats     []domain.Format
	MaxDepth    int
	Concurrency int
	ExcludeDirs []string
	ExtraRoots  map[domain.Format][]string
}

// Result 是一次成功扫描的产物。
type Result struct {
	Inventory domain.Inventory
	Report    domain.ScanReport
}

// Error 是扫描级错误：遍历原语出现了意料之外的失败。
type Error struct {
	Code string
	Root string
	Err  error
}

func (e *Error) Error() string {
	if e.Root != "" {
		return fmt.Sprintf("%s：根目录 %q：%v", e.Code, e.Root, e.Err)
	}
	return fmt.Sprintf("%s：%v", e.Code, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Assembler 执行扫描。零值不可用：Profile 必填。
type Assembler struct {
	Profile  platform.Profile
	Options  Options
	Observer Observer

	// now 仅供测试替换。
	now func() time.Time
}

// New 创建 Assembler。
func New(p platform.Profile, opts Options, obs Observer) *Assembler {
	return &Assembler{Profile: p, Options: opts, Observer: obs}
}

type job struct {
	format domain.Format
	root   string
}

// Scan 执行一次完整扫描。
//
// 流程：
// 1) 按格式解析候选根目录；不存在的根目录记为 missing，不算错误
// 2) 每个根目录一个任务，并发度受 Concurrency 限制；任务内串行识别与提取
// 3) 全部任务结束后按任务顺序合并，去掉重复路径（先出现者优先）
// 4) 按厂商归并分组并稳定排序
//
// 零个插件得到空的合法清单。只有根目录检查出现意外错误时返回 *Error。
func (a *Assembler) Scan(ctx context.Context) (Result, error) {
	now := a.now
	if now == nil {
		now = time.Now
	}
	log := logging.FromContext(ctx)
	started := now().UTC()
	scanID := uuid.NewString()

	formats := a.Options.Formats
	if len(formats) == 0 {
		formats = domain.AllFormats
	}
	if a.Observer != nil {
		a.Observer.OnStart(scanID, a.Profile.Name(), formats)
	}

	// 阶段一：解析根目录。
	resolveStarted := time.Now()
	var (
		jobs  []job
		roots []domain.RootResult
	)
	for _, f := range formats {
		for _, r := range platform.Resolve(a.Profile, f, a.Options.ExtraRoots[f]) {
			status, err := checkRoot(r)
			if err != nil {
				log.Error().Err(err).Str("root", r).Msg("检查根目录失败，扫描中止")
				return Result{}, &Error{Code: domain.ErrCodeScanFailed, Root: r, Err: errors.Wrapf(err, "检查 %s 根目录", f)}
			}
			if status != domain.RootStatusScanned {
				log.Debug().Str("root", r).Str("format", f.String()).Str("status", status).Msg("跳过根目录")
				roots = append(roots, domain.RootResult{Format: f, Path: r, Status: status})
				continue
			}
			jobs = append(jobs, job{format: f, root: r})
		}
	}
	if a.Observer != nil {
		a.Observer.OnPhaseDone("resolve", map[string]any{
			"roots":   len(jobs),
			"skipped": len(roots),
		}, time.Since(resolveStarted))
	}

	// 阶段二：按根目录并发遍历 + 提取。
	detectStarted := time.Now()
	workers := a.Options.Concurrency
	if workers < 1 {
		workers = DefaultConcurrency
	}
	extractor := metadata.Extractor{Log: *log}
	perJob := make([][]domain.PluginRecord, len(jobs))

	var (
		mu   sync.Mutex
		done int
	)
	var g errgroup.Group
	g.SetLimit(workers)
	for i, j := range jobs {
		g.Go(func() error {
			jobStarted := time.Now()
			perJob[i] = a.scanRoot(j, extractor, log)
			if a.Observer != nil {
				mu.Lock()
				done++
				n := done
				mu.Unlock()
				a.Observer.OnRootDone(n, len(jobs), domain.RootResult{
					Format:  j.format,
					Path:    j.root,
					Status:  domain.RootStatusScanned,
					Plugins: len(perJob[i]),
				}, time.Since(jobStarted))
			}
			return nil
		})
	}
	_ = g.Wait()

	var records []domain.PluginRecord
	for i, j := range jobs {
		roots = append(roots, domain.RootResult{
			Format:  j.format,
			Path:    j.root,
			Status:  domain.RootStatusScanned,
			Plugins: len(perJob[i]),
		})
		records = append(records, perJob[i]...)
	}
	records, dropped := app.DedupeByPath(records)
	if dropped > 0 {
		log.Debug().Int("dropped", dropped).Msg("多个根目录命中同一路径，已去重")
	}
	if a.Observer != nil {
		a.Observer.OnPhaseDone("detect", map[string]any{
			"plugins":    len(records),
			"duplicates": dropped,
		}, time.Since(detectStarted))
	}

	// 阶段三：分组。
	groupStarted := time.Now()
	inv := app.GroupByManufacturer(records)
	if a.Observer != nil {
		a.Observer.OnPhaseDone("group", map[string]any{
			"manufacturers": len(inv.Groups),
		}, time.Since(groupStarted))
	}

	rep := domain.ScanReport{
		ScanID:     scanID,
		Platform:   a.Profile.Name(),
		StartedAt:  started,
		FinishedAt: now().UTC(),
		Roots:      roots,
		Inventory:  inv,
	}
	rep.Finalize()
	log.Info().Str("scan_id", scanID).Int("plugins", rep.Summary.Plugins).Int("manufacturers", rep.Summary.Manufacturers).Msg("扫描完成")

	return Result{Inventory: inv, Report: rep}, nil
}

func (a *Assembler) scanRoot(j job, ex metadata.Extractor, log *zerolog.Logger) []domain.PluginRecord {
	opts := scan.Options{
		MaxDepth:    a.Options.MaxDepth,
		ExcludeDirs: a.Options.ExcludeDirs,
		OnSkip: func(path string, err error) {
			log.Debug().Err(err).Str("path", path).Msg("遍历条目出错，已跳过")
		},
	}
	var out []domain.PluginRecord
	for e := range scan.Detect(j.root, j.format, a.Profile, opts) {
		out = append(out, ex.Extract(e.Path, j.format, a.Profile.Sources(j.format, e.IsDir)...))
	}
	return out
}

// checkRoot 判断根目录是否可遍历。
// 不存在（含路径中间段不是目录）记为 missing；无权限或不是目录记为 skipped；其余错误向上返回。
func checkRoot(root string) (string, error) {
	info, err := os.Stat(root)
	switch {
	case err == nil:
		if !info.IsDir() {
			return domain.RootStatusSkipped, nil
		}
		return domain.RootStatusScanned, nil
	case os.IsNotExist(err), errors.Is(err, syscall.ENOTDIR):
		return domain.RootStatusMissing, nil
	case os.IsPermission(err):
		return domain.RootStatusSkipped, nil
	default:
		return "", err
	}
}
