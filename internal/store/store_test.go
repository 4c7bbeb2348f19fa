package store

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coreman2200/matrixctl/internal/pattern"
)

func TestSingleRoundTrip(t *testing.T) {
	dir := t.TempDir()
	p := pattern.Fallback()

	path, err := Save(dir, "cross", SinglePayload(p))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "cross.json"), path)

	pl, err := Load(path)
	require.NoError(t, err)
	got, err := pl.ToPattern()
	require.NoError(t, err)
	assert.True(t, got.Equal(p))
}

func TestAnimationRoundTrip(t *testing.T) {
	dir := t.TempDir()
	a := pattern.Animation{pattern.Fallback(), pattern.Pattern{1, 2, 3, 4, 5, 6, 7, 8}}

	path, err := Save(dir, "wave", AnimationPayload(a))
	require.NoError(t, err)

	pl, err := Load(path)
	require.NoError(t, err)
	got, err := pl.ToAnimation()
	require.NoError(t, err)
	assert.True(t, got.Equal(a))
}

func TestSaveDefaultsToTimestampedName(t *testing.T) {
	dir := t.TempDir()
	path, err := Save(dir, "", SinglePayload(pattern.Fallback()))
	require.NoError(t, err)
	assert.Contains(t, filepath.Base(path), "single_")
}

func TestCleanName(t *testing.T) {
	assert.Equal(t, "eye blinking", CleanName(`eye/ blinking?*`))
	assert.Equal(t, "", CleanName(`<>:"|`))
}

func TestLoadRejectsBadShapes(t *testing.T) {
	dir := t.TempDir()
	cases := map[string]string{
		"short.json":     `{"type":"single","pattern":[1,2,3]}`,
		"range.json":     `{"type":"single","pattern":[1,2,3,4,5,6,7,999]}`,
		"empty.json":     `{"type":"animation","patterns":[]}`,
		"unknown.json":   `{"type":"mosaic"}`,
		"malformed.json": `{`,
	}
	for name, body := range cases {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
		_, err := Load(path)
		assert.Error(t, err, name)
	}
}

func TestListSplitsByType(t *testing.T) {
	dir := t.TempDir()
	_, err := Save(dir, "a", SinglePayload(pattern.Fallback()))
	require.NoError(t, err)
	_, err = Save(dir, "b", AnimationPayload(pattern.FallbackAnimation(2)))
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk.json"), []byte("{"), 0o644))

	singles, animations, err := List(dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.json"}, singles)
	assert.Equal(t, []string{"b.json"}, animations)
}

func TestListMissingDirIsEmpty(t *testing.T) {
	singles, animations, err := List(filepath.Join(t.TempDir(), "nope"))
	require.NoError(t, err)
	assert.Empty(t, singles)
	assert.Empty(t, animations)
}
