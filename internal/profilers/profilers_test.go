package profilers

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterFlags(t *testing.T) {
	fs := pflag.NewFlagSet("test", pflag.ContinueOnError)
	RegisterFlags(fs)
	require.NoError(t, fs.Parse([]string{"--prof=6060", "--cpu_profile=cpu.out"}))
	assert.Equal(t, 6060, config.HTTPPort)
	assert.Equal(t, "cpu.out", config.CPUProfile)
	config = Config{HTTPPort: -1}
}

func TestCPUProfile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cpu.out")
	require.NoError(t, SetupWithConfig(context.Background(), Config{HTTPPort: -1, CPUProfile: path}))
	OnQuit()
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
	config = Config{HTTPPort: -1}
}
