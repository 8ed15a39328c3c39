package main

import (
	"bytes"
	"context"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/mourao666/cassandra-sim/config"
	"github.com/mourao666/cassandra-sim/dht"
	"github.com/mourao666/cassandra-sim/hyperplane"
	"github.com/mourao666/cassandra-sim/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

// fixedConfig uses the 8-bit fixture bank and a local blob store under a
// temporary directory.
func fixedConfig(t *testing.T) config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Bank.Bits = len(testutil.FixedNormals)
	cfg.Bank.Dimension = len(testutil.FixedNormals[0])
	cfg.Bank.Normals = testutil.FixedNormals
	cfg.BlobStore.Kind = "local"
	cfg.BlobStore.Root = t.TempDir()
	cfg.Cluster.Name = "n1"
	cfg.Log.Level = "error"
	return cfg
}

func writeConfig(t *testing.T, cfg config.Config) string {
	t.Helper()
	data, err := cfg.Marshal()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "simtoken.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func fixturePartitioner(t *testing.T) *dht.SimilarityPartitioner {
	t.Helper()
	bank, err := hyperplane.NewBank(testutil.FixedNormals)
	require.NoError(t, err)
	p, err := dht.NewSimilarityPartitioner(bank)
	require.NoError(t, err)
	return p
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "Version:    "+Version)
}

func TestConfigCommands(t *testing.T) {
	out, err := execute(t, "config", "show")
	require.NoError(t, err)
	assert.Contains(t, out, "bank:")
	assert.Contains(t, out, "keys_per_split: 128")

	path := writeConfig(t, fixedConfig(t))
	out, err = execute(t, "-c", path, "config", "validate")
	require.NoError(t, err)
	assert.Contains(t, out, "valid")

	bad := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("log:\n  format: xml\n"), 0o644))
	_, err = execute(t, "-c", bad, "config", "validate")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)

	_, err = execute(t, "--log-level", "loud", "version")
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestTokenCommand(t *testing.T) {
	path := writeConfig(t, fixedConfig(t))

	out, err := execute(t, "-c", path, "token", "10", "5", "6", "1", "0", "2")
	require.NoError(t, err)
	assert.Equal(t, "01110101\tae\n", out)

	out, err = execute(t, "-c", path, "token", "--random", "3")
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	for _, line := range lines {
		literal, _, ok := strings.Cut(line, "\t")
		require.True(t, ok)
		assert.Len(t, literal, 8)
	}

	_, err = execute(t, "-c", path, "token")
	assert.Error(t, err)
	_, err = execute(t, "-c", path, "token", "1", "x")
	assert.ErrorContains(t, err, "component 1")
	_, err = execute(t, "-c", path, "token", "1", "2")
	assert.ErrorIs(t, err, hyperplane.ErrKeyShape)
}

func TestMidpointCommand(t *testing.T) {
	path := writeConfig(t, fixedConfig(t))
	p := fixturePartitioner(t)
	f := p.TokenFactory()

	for _, c := range [][2]string{{"00000001", "00001100"}, {"11000000", "00000001"}} {
		left, err := f.FromString(c[0])
		require.NoError(t, err)
		right, err := f.FromString(c[1])
		require.NoError(t, err)
		want := p.Midpoint(left, right)

		out, err := execute(t, "-c", path, "midpoint", c[0], c[1])
		require.NoError(t, err)
		assert.Equal(t, want.String()+"\t"+hex.EncodeToString(want.Bytes())+"\n", out)
	}

	_, err := execute(t, "-c", path, "midpoint", "01", "2")
	assert.Error(t, err)
	_, err = execute(t, "-c", path, "midpoint", "01")
	assert.Error(t, err)
}

func TestBankCommands(t *testing.T) {
	cfg := config.Default()
	cfg.BlobStore.Kind = "local"
	cfg.BlobStore.Root = t.TempDir()
	cfg.Log.Level = "error"
	path := writeConfig(t, cfg)

	out, err := execute(t, "-c", path, "bank", "generate", "--name", "b1", "--bits", "16", "--dim", "4", "--seed", "9", "--current")
	require.NoError(t, err)
	assert.Contains(t, out, "saved bank b1 (bits=16 dim=4 seed=9)")

	out, err = execute(t, "-c", path, "bank", "show", "--current")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "b1"`)
	assert.Contains(t, out, `"bits": 16`)
	assert.Contains(t, out, `"dim": 4`)
	assert.Contains(t, out, `"seed": 9`)
	assert.NotContains(t, out, "normals")

	out, err = execute(t, "-c", path, "bank", "show", "--name", "b1", "--normals")
	require.NoError(t, err)
	assert.Contains(t, out, "normals")

	// The configured bank is generated from its seed when the store lacks it.
	out, err = execute(t, "-c", path, "bank", "show")
	require.NoError(t, err)
	assert.Contains(t, out, `"name": "bank-default"`)
	assert.Contains(t, out, `"bits": 64`)

	_, err = execute(t, "-c", path, "bank", "show", "--name", "missing")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestNodeStaticRing(t *testing.T) {
	ctx := context.Background()
	cfg := fixedConfig(t)
	cfg.Cluster.Token = "01100110"
	a := &app{cfg: cfg, logger: dht.NoopLogger()}

	n, err := a.newNode(ctx, nil)
	require.NoError(t, err)
	assert.Equal(t, "n1", n.name)
	require.NotNil(t, n.static)
	assert.Equal(t, []string{"n1"}, n.static.Endpoints())

	rec := httptest.NewRecorder()
	n.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	require.NoError(t, n.shutdown(ctx, time.Second))
	_, err = os.Stat(filepath.Join(cfg.BlobStore.Root, "rings", "n1.json"))
	require.NoError(t, err)

	// A restart restores the saved ring instead of the configured token.
	a.cfg.Cluster.Token = "11111111"
	n, err = a.newNode(ctx, nil)
	require.NoError(t, err)
	defer func() { _ = n.close() }()
	tokens := n.static.SortedTokens()
	require.Len(t, tokens, 1)
	assert.Equal(t, "01100110", tokens[0].String())
}

func TestNodeRejectsBadToken(t *testing.T) {
	cfg := fixedConfig(t)
	cfg.Cluster.Token = "0x"
	a := &app{cfg: cfg, logger: dht.NoopLogger()}

	_, err := a.newNode(context.Background(), nil)
	assert.ErrorContains(t, err, "cluster.token")
}

func TestNodeCluster(t *testing.T) {
	if testing.Short() {
		t.Skip("starts gossip listeners")
	}
	ctx := context.Background()

	// A 64-bit bank keeps the joiner's random token clear of a's.
	cfgA := fixedConfig(t)
	cfgA.Bank.Normals = nil
	cfgA.Bank.Bits = 64
	cfgA.Cluster.Enabled = true
	cfgA.Cluster.Name = "a"
	cfgA.Cluster.BindAddr = "127.0.0.1"
	cfgA.Cluster.BindPort = 0
	cfgA.Cluster.Token = "10000000"
	a, err := (&app{cfg: cfgA, logger: dht.NoopLogger()}).newNode(ctx, nil)
	require.NoError(t, err)
	defer func() { _ = a.close() }()

	cfgB := cfgA
	cfgB.Cluster.Name = "b"
	cfgB.Cluster.Token = ""
	b, err := (&app{cfg: cfgB, logger: dht.NoopLogger()}).newNode(ctx, []string{a.membership.Addr()})
	require.NoError(t, err)
	defer func() { _ = b.close() }()

	require.Eventually(t, func() bool {
		return len(a.membership.SortedTokens()) == 2 && len(b.membership.SortedTokens()) == 2
	}, 5*time.Second, 50*time.Millisecond)

	r, err := b.currentRing()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b"}, r.Endpoints())

	require.NoError(t, b.shutdown(ctx, time.Second))
}

func TestServeStopsOnCancel(t *testing.T) {
	cfg := fixedConfig(t)
	cfg.HTTP.Addr = "127.0.0.1:0"
	a := &app{cfg: cfg, logger: dht.NoopLogger()}

	ctx, cancel := context.WithCancel(context.Background())
	errc := make(chan error, 1)
	go func() { errc <- a.serve(ctx, nil) }()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case err := <-errc:
		require.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("serve did not return")
	}
	_, err := os.Stat(filepath.Join(cfg.BlobStore.Root, "rings", "n1.json"))
	assert.NoError(t, err)
}
