package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sort"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/koustreak/playerdb/internal/errs"
	"github.com/koustreak/playerdb/internal/filestore"
	"github.com/koustreak/playerdb/internal/logger"
	"github.com/koustreak/playerdb/internal/players"
)

// memStore is an in-memory filestore.Store.
type memStore struct {
	mu      sync.Mutex
	buckets map[string]map[string][]byte
	modTime time.Time
}

func newMemStore() *memStore {
	return &memStore{buckets: make(map[string]map[string][]byte), modTime: time.Unix(1700000000, 0).UTC()}
}

func (m *memStore) Ping(context.Context) error { return nil }
func (m *memStore) Close() error { return nil }

func (m *memStore) EnsureBucket(_ context.Context, bucket string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.buckets[bucket]; !ok {
		m.buckets[bucket] = make(map[string][]byte)
	}
	return nil
}

func (m *memStore) PutObject(_ context.Context, bucket, key string, r io.Reader, _ int64, ct string) (*filestore.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	b, ok := m.buckets[bucket]
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, "no such bucket")
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	b[key] = data
	return &filestore.ObjectInfo{Key: key, Size: int64(len(data)), ContentType: ct, LastModified: m.modTime}, nil
}

func (m *memStore) ListObjects(_ context.Context, bucket string, opts filestore.ListOptions) ([]filestore.ObjectInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []filestore.ObjectInfo
	for k, v := range m.buckets[bucket] {
		if strings.HasPrefix(k, opts.Prefix) {
			out = append(out, filestore.ObjectInfo{Key: k, Size: int64(len(v)), LastModified: m.modTime})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out, nil
}

func (m *memStore) GetObject(_ context.Context, bucket, key string) (filestore.Object, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.buckets[bucket][key]
	if !ok {
		return nil, errs.New(errs.ErrKindNotFound, "no such key")
	}
	return &memObject{Reader: bytes.NewReader(data), info: &filestore.ObjectInfo{Key: key, Size: int64(len(data))}}, nil
}

func (m *memStore) PresignGetURL(_ context.Context, bucket, key string, ttl time.Duration) (string, error) {
	return "https://store.local/" + bucket + "/" + key + "?ttl=" + ttl.String(), nil
}

type memObject struct {
	*bytes.Reader
	info *filestore.ObjectInfo
}

func (o *memObject) Close() error { return nil }
func (o *memObject) Info() *filestore.ObjectInfo { return o.info }

type staticSource struct {
	rows []players.Player
	err  error
}

func (s staticSource) List(context.Context) ([]players.Player, error) { return s.rows, s.err }

func newExporter(t *testing.T, src Source) (*Exporter, *memStore) {
	t.Helper()
	store := newMemStore()
	e := New(store, "snapshots", src, Config{}, logger.Nop())
	require.NoError(t, e.Init(context.Background()))
	return e, store
}

func TestExport(t *testing.T) {
	rows := players.SeedPlayers()
	e, store := newExporter(t, staticSource{rows: rows})
	e.now = func() time.Time { return time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC) }
	e.newID = func() string { return "abc" }

	entry, err := e.Export(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "20240501T123000Z-abc.json", entry.Name)
	assert.Equal(t, "players/20240501T123000Z-abc.json", entry.Key)
	assert.Equal(t, "https://store.local/snapshots/players/20240501T123000Z-abc.json?ttl=15m0s", entry.URL)

	var doc Document
	require.NoError(t, json.Unmarshal(store.buckets["snapshots"][entry.Key], &doc))
	assert.Equal(t, rows, doc.Players)
	assert.True(t, doc.TakenAt.Equal(time.Date(2024, 5, 1, 12, 30, 0, 0, time.UTC)))
	assert.Equal(t, int64(len(store.buckets["snapshots"][entry.Key])), entry.Size)
}

func TestExport_SourceError(t *testing.T) {
	boom := errs.New(errs.ErrKindPoolExhausted, "busy")
	e, store := newExporter(t, staticSource{err: boom})

	_, err := e.Export(context.Background())
	assert.True(t, errors.Is(err, boom))
	assert.Empty(t, store.buckets["snapshots"])
}

func TestList_NewestFirst(t *testing.T) {
	e, store := newExporter(t, staticSource{rows: []players.Player{{ID: 1, Coins: 2, Goods: 3}}})

	for i, ts := range []time.Time{
		time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
	} {
		ts := ts
		e.now = func() time.Time { return ts }
		e.newID = func() string { return string(rune('a' + i)) }
		_, err := e.Export(context.Background())
		require.NoError(t, err)
	}
	store.buckets["snapshots"]["players/readme.txt"] = []byte("ignored")
	store.buckets["snapshots"]["other/20250101T000000Z-z.json"] = []byte("{}")

	list, err := e.List(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.Equal(t, "20240301T000000Z-b.json", list[0].Name)
	assert.Equal(t, "20240201T000000Z-c.json", list[1].Name)
	assert.Equal(t, "20240101T000000Z-a.json", list[2].Name)
	for _, entry := range list {
		assert.NotEmpty(t, entry.URL)
	}
}

func TestOpen(t *testing.T) {
	e, _ := newExporter(t, staticSource{rows: players.SeedPlayers()})
	entry, err := e.Export(context.Background())
	require.NoError(t, err)

	obj, err := e.Open(context.Background(), entry.Name)
	require.NoError(t, err)
	defer obj.Close()

	var doc Document
	require.NoError(t, json.NewDecoder(obj).Decode(&doc))
	assert.Len(t, doc.Players, 11)

	for _, bad := range []string{"", "../secret.json", `a\b.json`, "x.txt"} {
		_, err := e.Open(context.Background(), bad)
		assert.True(t, errs.IsInvalidInput(err), bad)
	}

	_, err = e.Open(context.Background(), "missing.json")
	assert.True(t, errs.IsNotFound(err))
}

func TestNew_Defaults(t *testing.T) {
	e := New(newMemStore(), "b", staticSource{}, Config{}, logger.Nop())
	assert.Equal(t, DefaultConfig(), e.cfg)
}
