package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func TestDefaults(t *testing.T) {
	c := Default()
	require.Equal(t, 512, c.Compiler.MaxDepth)
	require.Equal(t, uint32(8), c.Compiler.FrameAlign)
	require.Equal(t, 1024*1024, c.Runtime.StackSize)
	require.Equal(t, 4096, c.Runtime.ArgStageSize)
	require.Equal(t, 1000, c.Runtime.ContextCheckInterval)
	require.Nil(t, c.Validate())

	level, err := c.LogLevel()
	require.Nil(t, err)
	require.Equal(t, zerolog.InfoLevel, level)
}

func TestParseOverrides(t *testing.T) {
	c, err := Parse([]byte(`
[compiler]
frame_align = 16

[runtime]
stack_size = 65536

[log]
level = "DEBUG"
`))
	require.Nil(t, err)
	require.Equal(t, uint32(16), c.Compiler.FrameAlign)
	require.Equal(t, 512, c.Compiler.MaxDepth)
	require.Equal(t, 65536, c.Runtime.StackSize)
	require.Equal(t, 4096, c.Runtime.ArgStageSize)
	level, err := c.LogLevel()
	require.Nil(t, err)
	require.Equal(t, zerolog.DebugLevel, level)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		data string
		want string
	}{
		{"syntax", "[compiler\n", "parse error"},
		{"unknown key", "[runtime]\nheap = 1\n", "runtime.heap"},
		{"frame align", "[compiler]\nframe_align = 12\n", "frame_align"},
		{"log level", "[log]\nlevel = \"loud\"\n", "log.level"},
		{"negative interval", "[runtime]\ncontext_check_interval = -1\n", "context_check_interval"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			require.Error(t, err)
			require.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestFindAndLoad(t *testing.T) {
	dir := t.TempDir()
	nested := filepath.Join(dir, "a", "b")
	require.Nil(t, os.MkdirAll(nested, 0o755))

	c, err := FindAndLoad(nested)
	require.Nil(t, err)
	require.Equal(t, "", c.Path)

	path := filepath.Join(dir, FileName)
	require.Nil(t, os.WriteFile(path, []byte("[compiler]\nmax_depth = 64\n"), 0o644))
	c, err = FindAndLoad(nested)
	require.Nil(t, err)
	require.Equal(t, 64, c.Compiler.MaxDepth)
	require.Equal(t, path, c.Path)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), FileName))
	require.Error(t, err)
	require.Contains(t, err.Error(), "cannot read")
}
