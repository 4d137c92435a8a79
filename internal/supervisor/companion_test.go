package supervisor

import (
	"errors"
	"os/exec"
	"testing"
	"time"

	"solarnode/helper/common"
	"solarnode/internal/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompanion_StartAndStop(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Node.StopGrace = 2 * time.Second

	companion := NewCompanion(common.NewNullSugaredLogger(), cfg, "")
	companion.command = []string{"sleep", "30"}

	require.NoError(t, companion.Start())
	assert.Equal(t, ErrCompanionAlreadyStarted, companion.Start())

	require.NoError(t, companion.Stop())

	select {
	case <-companion.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("companion did not exit after Stop")
	}
}

func TestCompanion_AbnormalExitSurfaces(t *testing.T) {
	cfg := config.DefaultConfig()

	companion := NewCompanion(common.NewNullSugaredLogger(), cfg, "")
	companion.command = []string{"sh", "-c", "exit 3"}

	require.NoError(t, companion.Start())

	select {
	case <-companion.Done():
	case <-time.After(5 * time.Second):
		t.Fatal("companion did not exit")
	}

	err := companion.ExitError()
	require.Error(t, err)

	var exitErr *exec.ExitError

	require.True(t, errors.As(err, &exitErr))
	assert.Equal(t, 3, exitErr.ExitCode())
}

func TestCompanion_SelfExecForwardsConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.API.Workers = 8
	cfg.API.Port = 3100

	companion := NewCompanion(common.NewNullSugaredLogger(), cfg, "/etc/solarnode/config.yaml")

	argv, err := companion.buildArgv()
	require.NoError(t, err)

	// both processes must resolve their settings from the same file, or the
	// companion would read a token and endpoint the node never used
	assert.Equal(t, []string{
		"api",
		"--workers", "8",
		"--port", "3100",
		"--config", "/etc/solarnode/config.yaml",
	}, argv[1:])
}

func TestCompanion_SelfExecWithoutConfigFile(t *testing.T) {
	companion := NewCompanion(common.NewNullSugaredLogger(), config.DefaultConfig(), "")

	argv, err := companion.buildArgv()
	require.NoError(t, err)

	assert.NotContains(t, argv, "--config")
}
