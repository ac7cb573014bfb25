// Package snapshot exports the players table as JSON documents to object
// storage and lists the stored exports with presigned download links.
package snapshot

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/koustreak/playerdb/internal/errs"
	"github.com/koustreak/playerdb/internal/filestore"
	"github.com/koustreak/playerdb/internal/logger"
	"github.com/koustreak/playerdb/internal/players"
)

const (
	contentType     = "application/json"
	timestampLayout = "20060102T150405Z"
)

// Config controls where snapshots are written and how long download links
// stay valid.
type Config struct {
	Prefix     string        `yaml:"prefix"`
	PresignTTL time.Duration `yaml:"presign_ttl"`
}

// DefaultConfig returns the snapshot defaults.
func DefaultConfig() Config {
	return Config{
		Prefix:     "players",
		PresignTTL: 15 * time.Minute,
	}
}

// Source provides the rows to export. *players.Repository satisfies it.
type Source interface {
	List(ctx context.Context) ([]players.Player, error)
}

// Document is the JSON body of one snapshot object.
type Document struct {
	TakenAt time.Time        `json:"takenAt"`
	Players []players.Player `json:"players"`
}

// Entry describes a stored snapshot.
type Entry struct {
	Name         string    `json:"name"`
	Key          string    `json:"key"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
	URL          string    `json:"url,omitempty"`
}

// Exporter writes and lists snapshots. It is safe for concurrent use.
type Exporter struct {
	store  filestore.Store
	bucket string
	src    Source
	cfg    Config
	log    *logger.Logger

	now   func() time.Time
	newID func() string
}

// New returns an Exporter writing into bucket on store.
func New(store filestore.Store, bucket string, src Source, cfg Config, log *logger.Logger) *Exporter {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultConfig().Prefix
	}
	if cfg.PresignTTL <= 0 {
		cfg.PresignTTL = DefaultConfig().PresignTTL
	}
	return &Exporter{
		store:  store,
		bucket: bucket,
		src:    src,
		cfg:    cfg,
		log:    log.With().Str("component", "snapshot").Str("bucket", bucket).Logger(),
		now:    func() time.Time { return time.Now().UTC() },
		newID:  func() string { return uuid.NewString() },
	}
}

// Init creates the bucket if it does not exist yet.
func (e *Exporter) Init(ctx context.Context) error {
	return e.store.EnsureBucket(ctx, e.bucket)
}

// Export reads every player and stores them as one JSON object named
// <prefix>/<UTC timestamp>-<uuid>.json.
func (e *Exporter) Export(ctx context.Context) (*Entry, error) {
	list, err := e.src.List(ctx)
	if err != nil {
		return nil, err
	}

	doc := Document{TakenAt: e.now(), Players: list}
	body, err := json.Marshal(doc)
	if err != nil {
		return nil, errs.Wrap(errs.ErrKindUnknown, "failed to encode snapshot", err)
	}

	name := fmt.Sprintf("%s-%s.json", doc.TakenAt.Format(timestampLayout), e.newID())
	key := e.key(name)

	info, err := e.store.PutObject(ctx, e.bucket, key, bytes.NewReader(body), int64(len(body)), contentType)
	if err != nil {
		return nil, err
	}

	e.log.InfoWith("snapshot stored", logger.Fields{
		"key":     key,
		"players": len(list),
		"bytes":   len(body),
	})

	url, err := e.store.PresignGetURL(ctx, e.bucket, key, e.cfg.PresignTTL)
	if err != nil {
		return nil, err
	}
	return &Entry{
		Name:         name,
		Key:          key,
		Size:         info.Size,
		LastModified: info.LastModified,
		URL:          url,
	}, nil
}

// List returns the stored snapshots, newest first.
func (e *Exporter) List(ctx context.Context) ([]Entry, error) {
	objs, err := e.store.ListObjects(ctx, e.bucket, filestore.ListOptions{
		Prefix:    e.cfg.Prefix + "/",
		Recursive: true,
	})
	if err != nil {
		return nil, err
	}

	out := make([]Entry, 0, len(objs))
	for _, o := range objs {
		if o.IsDir || !strings.HasSuffix(o.Key, ".json") {
			continue
		}
		url, err := e.store.PresignGetURL(ctx, e.bucket, o.Key, e.cfg.PresignTTL)
		if err != nil {
			return nil, err
		}
		out = append(out, Entry{
			Name:         path.Base(o.Key),
			Key:          o.Key,
			Size:         o.Size,
			LastModified: o.LastModified,
			URL:          url,
		})
	}

	// Names start with the timestamp, so they sort chronologically.
	sort.Slice(out, func(i, j int) bool { return out[i].Name > out[j].Name })
	return out, nil
}

// Open streams the snapshot called name. The caller must close the result.
func (e *Exporter) Open(ctx context.Context, name string) (filestore.Object, error) {
	if name == "" || strings.ContainsAny(name, `/\`) || !strings.HasSuffix(name, ".json") {
		return nil, errs.New(errs.ErrKindInvalidInput, fmt.Sprintf("invalid snapshot name %q", name))
	}
	return e.store.GetObject(ctx, e.bucket, e.key(name))
}

func (e *Exporter) key(name string) string {
	return e.cfg.Prefix + "/" + name
}
