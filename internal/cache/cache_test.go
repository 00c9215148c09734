package cache

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gensec-template/gensec-template/internal/lab"
)

// clock is a settable time source
type clock struct {
	t time.Time
}

func (c *clock) now() time.Time { return c.t }

func (c *clock) advance(d time.Duration) { c.t = c.t.Add(d) }

func openTestCache(t *testing.T, ttl time.Duration) (*Cache, *clock) {
	t.Helper()
	c, err := Open(t.TempDir(), ttl)
	require.NoError(t, err)
	t.Cleanup(func() { c.Close() }) // nolint:errcheck

	clk := &clock{t: time.Date(2025, 1, 6, 9, 0, 0, 0, time.UTC)}
	c.now = clk.now
	return c, clk
}

func sampleLab() *lab.Lab {
	setup := lab.NewSection(1, "Setup")
	setup.AddQuestion("Take a screenshot of the activated environment")
	models := lab.NewSection(2, "Models via APIs")
	models.AddQuestion("Include your OdinId in the prompt")

	return &lab.Lab{
		Number:          "01.3",
		ID:              "G01.3_ProgramModel",
		Title:           "Programmatic Model Access",
		URL:             "https://codelabs.cs.pdx.edu/labs/G01.3_ProgramModel/index.html",
		Sections:        []*lab.Section{setup, models},
		DurationMinutes: 45,
	}
}

func TestOpen_CreatesDirectory(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "cache")

	c, err := Open(dir, 0)
	require.NoError(t, err)
	defer c.Close() // nolint:errcheck

	_, err = os.Stat(filepath.Join(dir, "cache.db"))
	assert.NoError(t, err)
	assert.Equal(t, dir, c.Dir())
	assert.Equal(t, DefaultTTL, c.TTL())
}

func TestExpandDir(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)

	dir, err := ExpandDir("~/.cache/x")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".cache/x"), dir)

	dir, err = ExpandDir("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".cache/gensec-template"), dir)

	dir, err = ExpandDir("/tmp/abs")
	require.NoError(t, err)
	assert.Equal(t, "/tmp/abs", dir)
}

func TestIndex_RoundTrip(t *testing.T) {
	c, _ := openTestCache(t, time.Hour)

	got, err := c.Index()
	require.NoError(t, err)
	assert.Nil(t, got)

	idx := lab.NewIndex([]*lab.Lab{sampleLab().Summary()})
	require.NoError(t, c.SetIndex(idx))

	got, err = c.Index()
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, 1, got.LabCount())
	assert.True(t, idx.LastUpdated.Equal(got.LastUpdated))
	assert.Equal(t, "G01.3_ProgramModel", got.Labs[0].ID)
}

func TestLab_RoundTrip(t *testing.T) {
	c, _ := openTestCache(t, time.Hour)
	want := sampleLab()

	require.NoError(t, c.SetLab(want))

	got, err := c.Lab(want.ID)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("cached lab mismatch (-want +got):\n%s", diff)
	}

	missing, err := c.Lab("G99.9_Missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestSetLab_RequiresID(t *testing.T) {
	c, _ := openTestCache(t, time.Hour)
	assert.Error(t, c.SetLab(&lab.Lab{Number: "01.1"}))
}

func TestExpiry(t *testing.T) {
	c, clk := openTestCache(t, time.Hour)
	require.NoError(t, c.SetLab(sampleLab()))

	clk.advance(59 * time.Minute)
	got, err := c.Lab("G01.3_ProgramModel")
	require.NoError(t, err)
	assert.NotNil(t, got)

	clk.advance(time.Minute)
	got, err = c.Lab("G01.3_ProgramModel")
	require.NoError(t, err)
	assert.Nil(t, got, "entry should expire exactly at its TTL")
	assert.Equal(t, 0, c.Len(), "expired entry should be removed on read")
}

func TestCleanExpired(t *testing.T) {
	c, clk := openTestCache(t, time.Hour)

	require.NoError(t, c.SetIndex(lab.NewIndex(nil)))
	clk.advance(30 * time.Minute)
	require.NoError(t, c.SetLab(sampleLab()))
	clk.advance(45 * time.Minute)

	removed, err := c.CleanExpired()
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, c.Len())

	removed, err = c.CleanExpired()
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
}

func TestSetLab_MissingID(t *testing.T) {
	c, _ := openTestCache(t, time.Hour)

	l := sampleLab()
	l.ID = ""
	err := c.SetLab(l)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing ID")
	assert.Equal(t, 0, c.Len())
}

func TestClear(t *testing.T) {
	c, _ := openTestCache(t, time.Hour)
	require.NoError(t, c.SetIndex(lab.NewIndex(nil)))
	require.NoError(t, c.SetLab(sampleLab()))

	removed, err := c.Clear()
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 0, c.Len())

	// still usable after clearing
	require.NoError(t, c.SetLab(sampleLab()))
	assert.Equal(t, 1, c.Len())
}

func TestInfo(t *testing.T) {
	c, clk := openTestCache(t, 24*time.Hour)

	info, err := c.Info()
	require.NoError(t, err)
	assert.False(t, info.IndexCached)
	assert.Empty(t, info.CachedLabs)

	require.NoError(t, c.SetIndex(lab.NewIndex(nil)))
	l := sampleLab()
	require.NoError(t, c.SetLab(l))
	other := sampleLab()
	other.ID = "G01.1_Setup"
	require.NoError(t, c.SetLab(other))
	clk.advance(2 * time.Hour)

	info, err = c.Info()
	require.NoError(t, err)
	assert.Equal(t, c.Dir(), info.Directory)
	assert.Equal(t, 3, info.EntryCount)
	assert.True(t, info.IndexCached)
	assert.Equal(t, 2*time.Hour, info.IndexAge)
	assert.Equal(t, []string{"G01.1_Setup", "G01.3_ProgramModel"}, info.CachedLabs)
	assert.Greater(t, info.SizeBytes, int64(0))

	clk.advance(23 * time.Hour)

	info, err = c.Info()
	require.NoError(t, err)
	assert.Equal(t, 0, info.EntryCount)
	assert.False(t, info.IndexCached)
	assert.Empty(t, info.CachedLabs)
	assert.Equal(t, 3, c.Len())
}

func TestFormatAge(t *testing.T) {
	tests := []struct {
		age  time.Duration
		want string
	}{
		{0, "0 minutes ago"},
		{42 * time.Minute, "42 minutes ago"},
		{90 * time.Minute, "1 hours ago"},
		{23 * time.Hour, "23 hours ago"},
		{49 * time.Hour, "2 days ago"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatAge(tt.age))
		})
	}
}
