package dataset

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/brizzai/auto-eda/internal/config"
	"github.com/brizzai/auto-eda/internal/logger"
	"github.com/brizzai/auto-eda/internal/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// SampleNone is the selector value meaning "no sample dataset"
const SampleNone = "None"

// ErrUnknownSample is returned for a sample name outside the catalog
var ErrUnknownSample = errors.New("unknown sample dataset")

// Fetcher downloads the raw bytes of a sample
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Sample describes one entry of the catalog
type Sample struct {
	Name  string
	URL   string
	Comma rune
}

// builtinSamples lists the selector entries in display order
var builtinSamples = []Sample{
	{Name: "Titanic", Comma: ','},
	{Name: "Iris", Comma: ','},
	{Name: "Diabetes", Comma: '\t'},
}

// Catalog loads sample datasets by name. Frames are cached for the life of the
// process and concurrent loads of one sample share a single download.
type Catalog struct {
	fetcher Fetcher
	metrics *metrics.Metrics
	samples map[string]Sample
	names   []string

	mu    sync.RWMutex
	cache map[string]*Frame
	group singleflight.Group
}

// NewCatalog builds the catalog from the configured sample URLs. Samples
// without a URL are left out of the selector.
func NewCatalog(cfg config.ProfilerConfig, fetcher Fetcher, m *metrics.Metrics) *Catalog {
	c := &Catalog{
		fetcher: fetcher,
		metrics: m,
		samples: make(map[string]Sample),
		cache:   make(map[string]*Frame),
		names:   []string{SampleNone},
	}

	// viper lowercases map keys
	urls := make(map[string]string, len(cfg.Samples))
	for name, url := range cfg.Samples {
		urls[strings.ToLower(name)] = url
	}

	for _, s := range builtinSamples {
		url := urls[strings.ToLower(s.Name)]
		if url == "" {
			continue
		}
		s.URL = url
		c.samples[strings.ToLower(s.Name)] = s
		c.names = append(c.names, s.Name)
	}
	return c
}

// Names returns the selector options, starting with SampleNone
func (c *Catalog) Names() []string {
	out := make([]string, len(c.names))
	copy(out, c.names)
	return out
}

// Load returns the named sample. SampleNone and the empty name yield a nil frame
// and a nil error.
func (c *Catalog) Load(ctx context.Context, name string) (*Frame, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, SampleNone) {
		return nil, nil
	}

	key := strings.ToLower(name)
	sample, ok := c.samples[key]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSample, name)
	}

	c.mu.RLock()
	frame, cached := c.cache[key]
	c.mu.RUnlock()
	if cached {
		return frame, nil
	}

	// The download outlives a cancelled caller so that waiting callers still get it
	v, err, shared := c.group.Do(key, func() (any, error) {
		return c.fetch(context.WithoutCancel(ctx), sample)
	})
	if err != nil {
		return nil, err
	}
	if shared {
		logger.Debug("Sample download shared", zap.String("sample", sample.Name))
	}
	return v.(*Frame), nil
}

func (c *Catalog) fetch(ctx context.Context, sample Sample) (*Frame, error) {
	body, err := c.fetcher.Fetch(ctx, sample.URL)
	if err == nil {
		var frame *Frame
		frame, err = ParseDelimited(bytes.NewReader(body), sample.Comma)
		if err == nil {
			c.mu.Lock()
			c.cache[strings.ToLower(sample.Name)] = frame
			c.mu.Unlock()

			c.metrics.DatasetLoad("sample", nil)
			logger.Info("Loaded sample dataset",
				zap.String("sample", sample.Name),
				zap.Int("rows", frame.NumRows()),
				zap.Int("columns", frame.NumCols()),
			)
			return frame, nil
		}
	}

	c.metrics.DatasetLoad("sample", err)
	logger.Warn("Failed to load sample dataset", zap.String("sample", sample.Name), zap.Error(err))
	return nil, fmt.Errorf("failed to load sample %s: %w", sample.Name, err)
}
