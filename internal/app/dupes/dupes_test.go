package dupes

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/John-Robertt/AVPM/internal/app"
	"github.com/John-Robertt/AVPM/internal/domain"
)

func TestParse(t *testing.T) {
	cases := map[string]string{
		"1.2.3":     "1.2.3",
		"1.2.3.4":   "1.2.3",
		"v2":        "2.0.0",
		"2.1":       "2.1.0",
		" 3.0.0 ":   "3.0.0",
		"1.0.0-rc1": "1.0.0-rc1",
	}
	for in, want := range cases {
		v := Parse(in)
		require.NotNil(t, v, in)
		assert.Equal(t, want, v.String(), in)
	}
	assert.Nil(t, Parse(""))
	assert.Nil(t, Parse("build 2024"))
}

func TestFind_GroupsAcrossFormats(t *testing.T) {
	inv := app.GroupByManufacturer([]domain.PluginRecord{
		{Name: "Crusher", Manufacturer: "Acme Inc", Version: "1.2.0", Path: "/a/Crusher.vst3", Format: domain.FormatVST3},
		{Name: "crusher", Manufacturer: "Acme", Version: "1.10.0.7", Path: "/b/Crusher.dll", Format: domain.FormatVST2},
		{Name: "Crusher", Manufacturer: "acme", Version: "", Path: "/c/Crusher.aaxplugin", Format: domain.FormatAAX},
		{Name: "Verb", Manufacturer: "Acme", Version: "1.0", Path: "/a/Verb.vst3", Format: domain.FormatVST3},
		{Name: "Crusher", Manufacturer: "Other", Version: "9.0", Path: "/a/Other.vst3", Format: domain.FormatVST3},
	})

	sets := Find(inv)
	require.Len(t, sets, 1)
	s := sets[0]
	assert.Equal(t, "Acme", s.Manufacturer)
	require.Len(t, s.Records, 3)
	assert.Equal(t, "/b/Crusher.dll", s.Newest().Path)
	assert.Equal(t, "/a/Crusher.vst3", s.Records[1].Path)
	assert.Equal(t, "/c/Crusher.aaxplugin", s.Records[2].Path, "无版本的记录排在最后")
}

func TestFind_NoDuplicates(t *testing.T) {
	inv := app.GroupByManufacturer([]domain.PluginRecord{
		{Name: "A", Manufacturer: "X", Path: "/a"},
		{Name: "B", Manufacturer: "X", Path: "/b"},
	})
	assert.Empty(t, Find(inv))
	assert.Empty(t, Find(domain.Inventory{}))
}

func TestSortNewestFirst_TiesByPath(t *testing.T) {
	rs := []domain.PluginRecord{
		{Path: "/z", Version: "bogus"},
		{Path: "/b", Version: "1.0"},
		{Path: "/a", Version: "1.0.0"},
		{Path: "/y"},
	}
	SortNewestFirst(rs)
	got := []string{rs[0].Path, rs[1].Path, rs[2].Path, rs[3].Path}
	assert.Equal(t, []string{"/a", "/b", "/y", "/z"}, got)
}
