package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesSpecInvariants(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 64, cfg.MaxFrames)
	assert.Equal(t, 256, cfg.InitialStackSize)
	assert.False(t, cfg.Trace)
}

func TestLoadMissingFileReturnsDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestLoadOverlaysPartialDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loxvm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("trace: true\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	// trace was set explicitly; the other two fields must keep their
	// spec-mandated defaults rather than zeroing out.
	assert.True(t, cfg.Trace)
	assert.Equal(t, DefaultMaxFrames, cfg.MaxFrames)
	assert.Equal(t, DefaultInitialStackSize, cfg.InitialStackSize)
}

func TestLoadOverridesAllFields(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loxvm.yaml")
	doc := "max_frames: 128\ninitial_stack_size: 512\ntrace: true\n"
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, Config{MaxFrames: 128, InitialStackSize: 512, Trace: true}, cfg)
}

func TestLoadRejectsMalformedYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loxvm.yaml")
	require.NoError(t, os.WriteFile(path, []byte("max_frames: [this is not an int\n"), 0o644))

	_, err := Load(path)
	assert.Error(t, err)
}

func TestTrimSourceExt(t *testing.T) {
	assert.Equal(t, "script", TrimSourceExt("script.lox"))
	assert.Equal(t, "script", TrimSourceExt("script"))
	// The extension is only stripped when something precedes it.
	assert.Equal(t, ".lox", TrimSourceExt(".lox"))
}

func TestHasSourceExt(t *testing.T) {
	assert.True(t, HasSourceExt("script.lox"))
	assert.False(t, HasSourceExt("script.txt"))
	assert.False(t, HasSourceExt("lox"))
}
