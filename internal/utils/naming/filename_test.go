package naming

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotFilename(t *testing.T) {
	loc := time.FixedZone("UTC+9", 9*3600)
	taken := time.Date(2025, 8, 3, 7, 5, 9, 0, loc)
	assert.Equal(t, "20250803 070509.png", SnapshotFilename(taken))
}

func TestSnapshotName(t *testing.T) {
	name, ok := SnapshotName("20250803 070509.png")
	require.True(t, ok)
	assert.Equal(t, "20250803 070509", name)

	for _, f := range []string{"plaza.gif", ".lock", ".snap.png-123.tmp", ".png", "notes.txt"} {
		_, ok := SnapshotName(f)
		assert.False(t, ok, f)
	}
}

func TestAnimationFilename(t *testing.T) {
	assert.Equal(t, "plaza.gif", AnimationFilename("plaza"))
}

func TestRegionDir(t *testing.T) {
	base := t.TempDir()

	dir, err := RegionDir(base, "plaza")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(base, "plaza"), dir)

	for _, name := range []string{"", " ", "..", "../escape", "a/b", `a\b`, " padded"} {
		_, err := RegionDir(base, name)
		assert.Error(t, err, "%q", name)
	}
}

func TestValidatePath(t *testing.T) {
	base := t.TempDir()
	assert.NoError(t, ValidatePath(base, filepath.Join(base, "x", "y.png")))
	assert.NoError(t, ValidatePath(base, filepath.Join(base, "..hidden")))
	assert.Error(t, ValidatePath(base, filepath.Join(base, "..", "y.png")))
	assert.Error(t, ValidatePath("", "y.png"))
}
