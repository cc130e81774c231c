// Package store persists the desk's state in a diskv directory: the session
// slot, logged interactions and debtor records.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/peterbourgon/diskv/v3"

	"tableflip.dev/desk/pkg/debtor"
)

const (
	// SessionKey holds the persisted session record.
	SessionKey = "collection_user"

	interactionPrefix = "interaction"
	debtorPrefix      = "debtor"
	tempDir           = ".tmp"
)

// Persistence is the storage contract the desk runs against.
type Persistence interface {
	ReadSession() ([]byte, error)
	WriteSession(data []byte) error
	EraseSession() error

	AppendInteraction(i debtor.Interaction) error
	Interactions(ctx context.Context) []debtor.Interaction

	SaveDebtor(d *debtor.Debtor) error
	Debtors(ctx context.Context) []*debtor.Debtor

	Watch(ctx context.Context) (<-chan Event, error)
}

// Load creates a Persistence backed by diskv using the provided config.
func Load(cfg Config) (Persistence, error) {
	if cfg == nil {
		var err error
		cfg, err = LoadConfig()
		if err != nil {
			return nil, err
		}
	}
	basePath := cfg.BasePath()
	if basePath == "" {
		return nil, errors.New("store: base path required")
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("store: ensure base path: %w", err)
	}
	return &persistence{
		d: diskv.New(diskv.Options{
			BasePath:          basePath,
			TempDir:           filepath.Join(basePath, tempDir),
			AdvancedTransform: keyToPathTransform,
			InverseTransform:  pathToKeyTransform,
			// Other processes rewrite the session slot, so reads always go
			// to disk.
			CacheSizeMax: 0,
		}),
		basePath: basePath,
		logger:   slog.New(slog.DiscardHandler),
	}, nil
}

// WithLogger returns p logging skipped records to l. Persistences not
// created by Load are returned unchanged.
func WithLogger(p Persistence, l *slog.Logger) Persistence {
	if ps, ok := p.(*persistence); ok && l != nil {
		ps.logger = l
	}
	return p
}

type persistence struct {
	d        *diskv.Diskv
	basePath string
	logger   *slog.Logger
}

func (p *persistence) ReadSession() ([]byte, error) {
	val, err := p.d.Read(SessionKey)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("store: read session: %w", err)
	}
	return val, nil
}

func (p *persistence) WriteSession(data []byte) error {
	if err := p.d.Write(SessionKey, data); err != nil {
		return fmt.Errorf("store: write session: %w", err)
	}
	return nil
}

func (p *persistence) EraseSession() error {
	if err := p.d.Erase(SessionKey); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("store: erase session: %w", err)
	}
	return nil
}

func (p *persistence) AppendInteraction(i debtor.Interaction) error {
	if i.ID == "" {
		return errors.New("store: interaction id required")
	}
	data, err := json.Marshal(i)
	if err != nil {
		return err
	}
	return p.d.Write(toKey(interactionPrefix, i.ID), data)
}

// Interactions returns every stored interaction, oldest first.
func (p *persistence) Interactions(ctx context.Context) []debtor.Interaction {
	all := make([]debtor.Interaction, 0)
	for key := range p.d.KeysPrefix(interactionPrefix+"-", ctx.Done()) {
		val, err := p.d.Read(key)
		if err != nil {
			p.logger.Warn("skipping interaction", "key", key, "error", err)
			continue
		}
		var i debtor.Interaction
		if err := json.Unmarshal(val, &i); err != nil {
			p.logger.Warn("skipping interaction", "key", key, "error", err)
			continue
		}
		all = append(all, i)
	}
	sort.SliceStable(all, func(a, b int) bool {
		if all[a].At.Equal(all[b].At) {
			return all[a].ID < all[b].ID
		}
		return all[a].At.Before(all[b].At)
	})
	return all
}

func (p *persistence) SaveDebtor(d *debtor.Debtor) error {
	if d == nil || d.ID == "" {
		return errors.New("store: debtor id required")
	}
	data, err := json.Marshal(d)
	if err != nil {
		return err
	}
	return p.d.Write(toKey(debtorPrefix, d.ID), data)
}

// Debtors returns every stored debtor in queue arrival order.
func (p *persistence) Debtors(ctx context.Context) []*debtor.Debtor {
	all := make([]*debtor.Debtor, 0)
	for key := range p.d.KeysPrefix(debtorPrefix+"-", ctx.Done()) {
		val, err := p.d.Read(key)
		if err != nil {
			p.logger.Warn("skipping debtor", "key", key, "error", err)
			continue
		}
		d := &debtor.Debtor{}
		if err := json.Unmarshal(val, d); err != nil {
			p.logger.Warn("skipping debtor", "key", key, "error", err)
			continue
		}
		all = append(all, d)
	}
	debtor.SortBySeq(all)
	return all
}

// keyToPathTransform puts `prefix-id` keys in a directory per prefix. Keys
// without a dash, such as the session slot, live at the base path. Ids may
// contain dashes, so only the first one splits.
func keyToPathTransform(s string) *diskv.PathKey {
	prefix, rest, ok := strings.Cut(s, "-")
	if !ok {
		return &diskv.PathKey{Path: []string{}, FileName: s}
	}
	return &diskv.PathKey{Path: []string{prefix}, FileName: rest}
}

func pathToKeyTransform(pathKey *diskv.PathKey) string {
	if len(pathKey.Path) == 0 {
		return pathKey.FileName
	}
	return fmt.Sprintf("%s-%s", strings.Join(pathKey.Path, "-"), pathKey.FileName)
}

func toKey(prefix, id string) string {
	return prefix + "-" + id
}
