// Package fixture loads the static JSON datasets produced by the offline
// pipeline and keeps them in memory for the lifetime of the process.
package fixture

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"

	"dialectical-topology/internal/dataset"
	"dialectical-topology/internal/platform/metrics"
)

// DefaultCacheSize holds every known fixture with room to spare.
const DefaultCacheSize = 16

// Loader fetches fixtures from a Source once per file name and serves later
// requests from an in-memory cache. Failed loads are not cached.
type Loader struct {
	src     Source
	cache   *lru.Cache[string, []byte]
	group   singleflight.Group
	log     *slog.Logger
	metrics *metrics.Metrics
}

// NewLoader returns a Loader over src. If cacheSize <= 0, DefaultCacheSize is
// used. Metrics may be nil.
func NewLoader(src Source, cacheSize int, log *slog.Logger, m *metrics.Metrics) (*Loader, error) {
	if cacheSize <= 0 {
		cacheSize = DefaultCacheSize
	}
	cache, err := lru.New[string, []byte](cacheSize)
	if err != nil {
		return nil, err
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Loader{src: src, cache: cache, log: log, metrics: m}, nil
}

// Raw returns the bytes of a fixture. Concurrent calls for the same name
// share one read of the source. Any error is a *LoadError.
func (l *Loader) Raw(ctx context.Context, name string) ([]byte, error) {
	if b, ok := l.cache.Get(name); ok {
		if l.metrics != nil {
			l.metrics.IncFixtureCacheHits()
		}
		return b, nil
	}

	v, err, _ := l.group.Do(name, func() (interface{}, error) {
		if b, ok := l.cache.Get(name); ok {
			return b, nil
		}
		// The read is shared by every waiter, so one caller going away
		// must not fail it for the rest.
		b, err := l.read(context.WithoutCancel(ctx), name)
		if err != nil {
			return nil, err
		}
		l.cache.Add(name, b)
		return b, nil
	})
	if err != nil {
		le := classify(name, err)
		l.log.Warn("fixture load failed",
			slog.String("file", name),
			slog.String("kind", le.Kind.String()),
			slog.String("error", err.Error()))
		if l.metrics != nil {
			l.metrics.IncFixtureFailures(name, le.Kind.String())
		}
		return nil, le
	}
	return v.([]byte), nil
}

func (l *Loader) read(ctx context.Context, name string) ([]byte, error) {
	rc, err := l.src.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, err
	}
	if !json.Valid(b) {
		return nil, &LoadError{File: name, Kind: KindParse, Err: errInvalidJSON}
	}
	if l.metrics != nil {
		l.metrics.IncFixtureLoads(name)
	}
	l.log.Debug("fixture loaded", slog.String("file", name), slog.Int("bytes", len(b)))
	return b, nil
}

// Decode loads a fixture and unmarshals it into v. A decoding failure is a
// *LoadError of KindParse.
func (l *Loader) Decode(ctx context.Context, name string, v any) error {
	b, err := l.Raw(ctx, name)
	if err != nil {
		return err
	}
	if err := json.NewDecoder(bytes.NewReader(b)).Decode(v); err != nil {
		if l.metrics != nil {
			l.metrics.IncFixtureFailures(name, KindParse.String())
		}
		return &LoadError{File: name, Kind: KindParse, Err: err}
	}
	return nil
}

// Cached reports whether name is held in the cache.
func (l *Loader) Cached(name string) bool {
	return l.cache.Contains(name)
}

// Purge drops every cached fixture.
func (l *Loader) Purge() {
	l.cache.Purge()
}

// Manifest loads manifest.json.
func (l *Loader) Manifest(ctx context.Context) (*dataset.Manifest, error) {
	var m dataset.Manifest
	if err := l.Decode(ctx, dataset.FileManifest, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

// Landscape loads landscape.json and normalises it.
func (l *Loader) Landscape(ctx context.Context) (*dataset.Landscape, error) {
	var d dataset.Landscape
	if err := l.Decode(ctx, dataset.FileLandscape, &d); err != nil {
		return nil, err
	}
	return dataset.NormalizeLandscape(&d), nil
}

// Claims loads claims.json.
func (l *Loader) Claims(ctx context.Context) (*dataset.Claims, error) {
	var d dataset.Claims
	if err := l.Decode(ctx, dataset.FileClaims, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Flow loads flow.json.
func (l *Loader) Flow(ctx context.Context) (*dataset.Flow, error) {
	var d dataset.Flow
	if err := l.Decode(ctx, dataset.FileFlow, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Ontology loads ontology.json.
func (l *Loader) Ontology(ctx context.Context) (*dataset.Ontology, error) {
	var d dataset.Ontology
	if err := l.Decode(ctx, dataset.FileOntology, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Dialogue loads dialogue.json.
func (l *Loader) Dialogue(ctx context.Context) (*dataset.Dialogue, error) {
	var d dataset.Dialogue
	if err := l.Decode(ctx, dataset.FileDialogue, &d); err != nil {
		return nil, err
	}
	return &d, nil
}

// Lens loads the dataset rendered by lens.
func (l *Loader) Lens(ctx context.Context, lens dataset.Lens) (any, error) {
	switch lens {
	case dataset.LensLandscape:
		return l.Landscape(ctx)
	case dataset.LensClaims:
		return l.Claims(ctx)
	case dataset.LensFlow:
		return l.Flow(ctx)
	case dataset.LensWorldviews:
		return l.Ontology(ctx)
	case dataset.LensArena:
		return l.Dialogue(ctx)
	}
	return nil, &LoadError{File: lens.File(), Kind: KindNotFound, Err: errUnknownLens}
}
