package inventory

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/AVPM/internal/domain"
	"github.com/John-Robertt/AVPM/internal/platform"
)

// testProfile 沿用 macOS 的识别规则与元数据来源，但根目录由测试指定。
type testProfile struct {
	platform.Darwin
	roots map[domain.Format][]string
}

func (p testProfile) CandidateRoots(f domain.Format) []string { return p.roots[f] }

func writePlist(t *testing.T, bundle, name, manufacturer, version string) {
	t.Helper()
	body := `<?xml version="1.0" encoding="UTF-8"?>
<plist version="1.0"><dict>
<key>AudioComponents</key><array><dict><key>name</key><string>` + manufacturer + `: ` + name + `</string></dict></array>
<key>CFBundleShortVersionString</key><string>` + version + `</string>
</dict></plist>`
	p := filepath.Join(bundle, "Contents", "Info.plist")
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(body), 0o644))
}

func fixture(t *testing.T) (testProfile, []string) {
	t.Helper()
	vst3 := t.TempDir()
	au := t.TempDir()

	paths := []string{
		filepath.Join(vst3, "Crusher.vst3"),
		filepath.Join(vst3, "Vendor", "Delay.vst3"),
		filepath.Join(au, "Crusher.component"),
		filepath.Join(au, "Mystery.component"),
	}
	writePlist(t, paths[0], "Crusher", "Example, Inc.", "1.0")
	writePlist(t, paths[1], "Delay", "Example Inc", "2.0")
	writePlist(t, paths[2], "Crusher", "EXAMPLE INC.", "1.0")
	require.NoError(t, os.MkdirAll(paths[3], 0o755))

	return testProfile{roots: map[domain.Format][]string{
		domain.FormatVST3: {vst3, filepath.Join(vst3, "missing")},
		domain.FormatAU:   {au},
	}}, paths
}

func TestScan_GroupsAndKeepsPaths(t *testing.T) {
	p, paths := fixture(t)
	a := New(p, Options{Concurrency: 2}, nil)

	res, err := a.Scan(context.Background())
	require.NoError(t, err)

	inv := res.Inventory
	require.Equal(t, []string{"Example", "Unknown"}, inv.Manufacturers())
	g, ok := inv.Group("Example")
	require.True(t, ok)
	require.Len(t, g.Plugins, 3)

	// 记录的 path 与遍历得到的路径完全一致。
	for _, want := range paths {
		rec, ok := inv.Find(want)
		require.True(t, ok, "缺少 %s", want)
		assert.Equal(t, want, rec.Path)
	}
	mystery, _ := inv.Find(paths[3])
	assert.Equal(t, "Mystery", mystery.Name)
	assert.Equal(t, domain.FormatAU, mystery.Format)

	rep := res.Report
	assert.NotEmpty(t, rep.ScanID)
	assert.Equal(t, "darwin", rep.Platform)
	assert.Equal(t, 4, rep.Summary.Plugins)
	assert.Equal(t, 2, rep.Summary.RootsScanned)
	assert.Equal(t, 1, rep.Summary.RootsMissing)
	assert.Equal(t, 2, rep.Summary.ByFormat["VST3"])
}

func TestScan_Idempotent(t *testing.T) {
	p, _ := fixture(t)
	a := New(p, Options{Concurrency: 4}, nil)

	first, err := a.Scan(context.Background())
	require.NoError(t, err)
	second, err := a.Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, first.Inventory, second.Inventory)
	assert.NotEqual(t, first.Report.ScanID, second.Report.ScanID)
}

func TestScan_EmptyRoots(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "nope")
	p := testProfile{roots: map[domain.Format][]string{
		domain.FormatVST2: {missing},
		domain.FormatVST3: {missing + "3"},
	}}

	res, err := New(p, Options{}, nil).Scan(context.Background())
	require.NoError(t, err, "没有任何根目录存在时不应报错")
	assert.True(t, res.Inventory.Empty())
	assert.Equal(t, 0, res.Report.Summary.Plugins)
	assert.Equal(t, 2, res.Report.Summary.RootsMissing)
}

func TestScan_FormatsAndDuplicateRoots(t *testing.T) {
	p, _ := fixture(t)
	// 同一根目录经 extra roots 再出现一次：Resolve 去重，记录不重复。
	opts := Options{
		Formats:    []domain.Format{domain.FormatVST3},
		ExtraRoots: map[domain.Format][]string{domain.FormatVST3: {p.roots[domain.FormatVST3][0] + string(filepath.Separator)}},
	}
	res, err := New(p, opts, nil).Scan(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, res.Inventory.Len())
}

func TestScan_RootCheckFailureIsScanLevel(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("需要符号链接")
	}
	dir := t.TempDir()
	loop := filepath.Join(dir, "loop")
	require.NoError(t, os.Symlink(loop, loop))

	p := testProfile{roots: map[domain.Format][]string{domain.FormatVST3: {loop}}}
	_, err := New(p, Options{}, nil).Scan(context.Background())
	require.Error(t, err)

	var se *Error
	require.ErrorAs(t, err, &se)
	assert.Equal(t, domain.ErrCodeScanFailed, se.Code)
	assert.Equal(t, loop, se.Root)
}

type recordingObserver struct {
	mu     sync.Mutex
	phases []string
	roots  int
	start  bool
}

func (o *recordingObserver) OnStart(string, string, []domain.Format) { o.start = true }

func (o *recordingObserver) OnPhaseDone(name string, _ map[string]any, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.phases = append(o.phases, name)
}

func (o *recordingObserver) OnRootDone(int, int, domain.RootResult, time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.roots++
}

func TestScan_ObserverEvents(t *testing.T) {
	p, _ := fixture(t)
	obs := &recordingObserver{}
	_, err := New(p, Options{}, obs).Scan(context.Background())
	require.NoError(t, err)

	assert.True(t, obs.start)
	assert.Equal(t, []string{"resolve", "detect", "group"}, obs.phases)
	assert.Equal(t, 2, obs.roots)
}
