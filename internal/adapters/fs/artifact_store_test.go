package fs

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/trebuchet-org/treb-amm/internal/domain"
	"github.com/trebuchet-org/treb-amm/internal/domain/config"
)

func testRecord(identity string) *domain.ArtifactRecord {
	hash := common.HexToHash("0xabc1")
	return &domain.ArtifactRecord{
		Identity:     identity,
		Address:      common.HexToAddress("0x5FbDB2315678afecb367f032d93F642f64180aa3"),
		TemplateName: "SmartToken",
		DeployTxHash: &hash,
		BlockNumber:  2,
		DeployedAt:   time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		ABI:          json.RawMessage(`[]`),
		Configured:   true,
	}
}

func TestArtifactStore_PutGet(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewArtifactStoreAdapter(dir, "sepolia")
	require.NoError(t, err)

	rec := testRecord("BNT")
	require.NoError(t, store.Put(ctx, rec))

	got, err := store.Get(ctx, "BNT")
	require.NoError(t, err)
	assert.Equal(t, rec, got)

	_, err = os.Stat(filepath.Join(dir, "sepolia", "BNT.json"))
	require.NoError(t, err)

	exists, err := store.Exists(ctx, "BNT")
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = store.Get(ctx, "VBNT")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	exists, err = store.Exists(ctx, "VBNT")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestArtifactStore_AttachedRecordHasNullTxHash(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewArtifactStoreAdapter(dir, "mainnet")
	require.NoError(t, err)

	rec := testRecord("BNT")
	rec.DeployTxHash = nil
	rec.BlockNumber = 0
	require.NoError(t, store.Put(ctx, rec))

	data, err := os.ReadFile(filepath.Join(dir, "mainnet", "BNT.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"deployTxHash": null`)

	got, err := store.Get(ctx, "BNT")
	require.NoError(t, err)
	assert.True(t, got.Attached())
}

func TestArtifactStore_ListAndReset(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	store, err := NewArtifactStoreAdapter(dir, "local")
	require.NoError(t, err)

	records, err := store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	for _, id := range []string{"VBNT", "BNT", "MasterVault"} {
		require.NoError(t, store.Put(ctx, testRecord(id)))
	}
	// stray files are ignored
	require.NoError(t, os.WriteFile(filepath.Join(dir, "local", "notes.txt"), []byte("x"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "local", ".tmp-123"), []byte("x"), 0644))

	records, err = store.List(ctx)
	require.NoError(t, err)
	ids := make([]string, len(records))
	for i, r := range records {
		ids[i] = r.Identity
	}
	assert.Equal(t, []string{"BNT", "MasterVault", "VBNT"}, ids)

	other, err := NewArtifactStoreAdapter(dir, "mainnet")
	require.NoError(t, err)
	require.NoError(t, other.Put(ctx, testRecord("BNT")))

	require.NoError(t, store.Reset(ctx))
	records, err = store.List(ctx)
	require.NoError(t, err)
	assert.Empty(t, records)

	// other networks are untouched
	exists, err := other.Exists(ctx, "BNT")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestArtifactStore_RefusesSkippedRecords(t *testing.T) {
	store, err := NewArtifactStoreAdapter(t.TempDir(), "local")
	require.NoError(t, err)

	err = store.Put(context.Background(), domain.SkippedRecord("TestToken1", "TestERC20Token"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "skipped")
}

func TestArtifactStore_InvalidNames(t *testing.T) {
	for _, network := range []string{"", "..", "a/b", `a\b`} {
		_, err := NewArtifactStoreAdapter(t.TempDir(), network)
		assert.Error(t, err, network)
	}

	store, err := NewArtifactStoreAdapter(t.TempDir(), "local")
	require.NoError(t, err)
	for _, identity := range []string{"", "../escape", ".hidden"} {
		_, err := store.Get(context.Background(), identity)
		require.Error(t, err, identity)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
	}
}

func TestArtifactStore_CorruptFile(t *testing.T) {
	dir := t.TempDir()
	store, err := NewArtifactStoreAdapter(dir, "local")
	require.NoError(t, err)
	require.NoError(t, os.MkdirAll(store.Dir(), 0755))
	require.NoError(t, os.WriteFile(filepath.Join(store.Dir(), "BNT.json"), []byte("{"), 0644))

	_, err = store.Get(context.Background(), "BNT")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse artifact file")
}

func TestArtifactStoreFactory(t *testing.T) {
	dir := t.TempDir()
	factory := NewArtifactStoreFactory(&config.RuntimeConfig{DeploymentsDir: dir})

	store, err := factory.Open("sepolia")
	require.NoError(t, err)
	assert.Equal(t, "sepolia", store.Network())
	assert.Equal(t, filepath.Join(dir, "sepolia"), store.(*ArtifactStoreAdapter).Dir())

	_, err = factory.Open("../etc")
	assert.Error(t, err)
}

func TestWriteFileAtomic_LeavesNoTempFiles(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested")
	path := filepath.Join(dir, "out.json")

	require.NoError(t, writeFileAtomic(path, []byte("one")))
	require.NoError(t, writeFileAtomic(path, []byte("two")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "out.json", entries[0].Name())
}
