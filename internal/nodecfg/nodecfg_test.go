package nodecfg

import (
	"os"
	"path/filepath"
	"testing"

	"solarnode/chain"
	"solarnode/helper/common"
	"solarnode/internal/config"
	"solarnode/secrets"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testNodeConfig(t *testing.T) *config.NodeConfig {
	t.Helper()

	baseDir := t.TempDir()

	genesisPath := filepath.Join(baseDir, "genesis.json")
	require.NoError(t, chain.WriteGenesisToDisk(&chain.Genesis{
		Alloc:       []chain.AllocEntry{{Address: "A", State: chain.AllocState{MicroAlgos: 1, Online: 1}}},
		FeeSink:     "F",
		Network:     "testnet",
		Protocol:    chain.DefaultProtocol,
		RewardsPool: "R",
		Timestamp:   1700000000,
	}, genesisPath))

	nodeConfig := config.DefaultConfig().Node
	nodeConfig.DataDir = filepath.Join(baseDir, "data")
	nodeConfig.GenesisPath = genesisPath

	return &nodeConfig
}

func TestMaterialize_CreatesArtifacts(t *testing.T) {
	nodeConfig := testNodeConfig(t)
	m := NewMaterializer(common.NewNullSugaredLogger(), nodeConfig)

	require.NoError(t, m.Materialize())

	dirInfo, err := os.Stat(nodeConfig.DataDir)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(common.DirPerms), dirInfo.Mode().Perm())

	for _, name := range []string{ConfigFilename, secrets.APIToken} {
		info, err := os.Stat(filepath.Join(nodeConfig.DataDir, name))
		require.NoError(t, err, name)
		assert.Equal(t, os.FileMode(common.SecretPerms), info.Mode().Perm(), name)
	}

	token, err := os.ReadFile(filepath.Join(nodeConfig.DataDir, secrets.APIToken))
	require.NoError(t, err)
	assert.Len(t, token, 64)
}

func TestMaterialize_Idempotent(t *testing.T) {
	nodeConfig := testNodeConfig(t)
	m := NewMaterializer(common.NewNullSugaredLogger(), nodeConfig)

	require.NoError(t, m.Materialize())

	configBefore, err := os.ReadFile(filepath.Join(nodeConfig.DataDir, ConfigFilename))
	require.NoError(t, err)
	tokenBefore, err := os.ReadFile(filepath.Join(nodeConfig.DataDir, secrets.APIToken))
	require.NoError(t, err)

	// second run must not rewrite any artifact
	require.NoError(t, m.Materialize())

	configAfter, err := os.ReadFile(filepath.Join(nodeConfig.DataDir, ConfigFilename))
	require.NoError(t, err)
	tokenAfter, err := os.ReadFile(filepath.Join(nodeConfig.DataDir, secrets.APIToken))
	require.NoError(t, err)

	assert.Equal(t, configBefore, configAfter)
	assert.Equal(t, tokenBefore, tokenAfter)
}

func TestMaterialize_ReusesExistingToken(t *testing.T) {
	nodeConfig := testNodeConfig(t)

	require.NoError(t, os.MkdirAll(nodeConfig.DataDir, common.DirPerms))
	tokenPath := filepath.Join(nodeConfig.DataDir, secrets.APIToken)
	require.NoError(t, os.WriteFile(tokenPath, []byte("carried-over-token"), common.SecretPerms))

	m := NewMaterializer(common.NewNullSugaredLogger(), nodeConfig)
	require.NoError(t, m.Materialize())

	token, err := os.ReadFile(tokenPath)
	require.NoError(t, err)
	assert.Equal(t, "carried-over-token", string(token))
}

func TestMaterialize_MissingGenesis(t *testing.T) {
	nodeConfig := testNodeConfig(t)
	require.NoError(t, os.Remove(nodeConfig.GenesisPath))

	m := NewMaterializer(common.NewNullSugaredLogger(), nodeConfig)

	err := m.Materialize()
	require.ErrorIs(t, err, ErrGenesisMissing)

	// the fatal precondition aborts before any artifact is created
	assert.False(t, common.DirectoryExists(nodeConfig.DataDir))
}

func TestMaterialize_ConfigContents(t *testing.T) {
	nodeConfig := testNodeConfig(t)
	nodeConfig.EndpointAddr = "127.0.0.1:8081"
	nodeConfig.GossipAddr = ":4161"

	m := NewMaterializer(common.NewNullSugaredLogger(), nodeConfig)
	require.NoError(t, m.Materialize())

	data, err := os.ReadFile(filepath.Join(nodeConfig.DataDir, ConfigFilename))
	require.NoError(t, err)

	assert.Contains(t, string(data), `"EndpointAddress": "127.0.0.1:8081"`)
	assert.Contains(t, string(data), `"NetAddress": ":4161"`)
	assert.Contains(t, string(data), `"DisableAPIAuth": false`)
}
