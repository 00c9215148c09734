package catalog

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/gensec-template/gensec-template/internal/lab"
	"github.com/gensec-template/gensec-template/internal/logger"
)

// DefaultConcurrency is the number of lab pages scraped at once
const DefaultConcurrency = 4

// Source scrapes labs from the course website
type Source interface {
	ScrapeIndex(ctx context.Context) (*lab.Index, error)
	ScrapeSections(ctx context.Context, l *lab.Lab) (*lab.Lab, error)
}

// Store keeps scraped labs between runs. A nil result means missing or expired.
type Store interface {
	Index() (*lab.Index, error)
	SetIndex(idx *lab.Index) error
	Lab(id string) (*lab.Lab, error)
	SetLab(l *lab.Lab) error
}

// Catalog looks labs up in a Store before scraping them from a Source
type Catalog struct {
	source      Source
	store       Store
	skipLabs    bool
	concurrency int
	log         *logger.Logger
}

// Option configures a Catalog
type Option func(*Catalog)

// SkipLabCache stops full labs being read from or written to the store.
// The index is still cached. Used when labs are parsed differently from what
// the cache holds.
func SkipLabCache() Option {
	return func(c *Catalog) {
		c.skipLabs = true
	}
}

// WithConcurrency sets how many labs Labs scrapes at once
func WithConcurrency(n int) Option {
	return func(c *Catalog) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// New creates a Catalog. store may be nil, in which case every lookup scrapes.
func New(source Source, store Store, opts ...Option) *Catalog {
	c := &Catalog{
		source:      source,
		store:       store,
		concurrency: DefaultConcurrency,
		log:         logger.Default().With("catalog"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Index returns the lab index, scraping it when refresh is set or the cache has none
func (c *Catalog) Index(ctx context.Context, refresh bool) (*lab.Index, error) {
	if c.store != nil && !refresh {
		idx, err := c.store.Index()
		if err != nil {
			c.log.Warn("Reading cached index failed", logger.Fields{"error": err.Error()})
		} else if idx != nil {
			logger.IncrCounter("cache.hit")
			c.log.Debug("Using cached index", logger.Fields{"labs": idx.LabCount()})
			return idx, nil
		}
		logger.IncrCounter("cache.miss")
	}

	idx, err := c.source.ScrapeIndex(ctx)
	if err != nil {
		return nil, err
	}

	if c.store != nil {
		if err := c.store.SetIndex(idx); err != nil {
			c.log.Warn("Caching index failed", logger.Fields{"error": err.Error()})
		}
	}
	return idx, nil
}

// Lab returns the fully scraped lab identified by ref.
// ref may be a lab number, a lab ID or a lab URL.
func (c *Catalog) Lab(ctx context.Context, ref string, refresh bool) (*lab.Lab, error) {
	ref, err := lab.ParseRef(ref)
	if err != nil {
		return nil, err
	}

	idx, err := c.Index(ctx, refresh)
	if err != nil {
		return nil, err
	}

	summary := idx.Find(ref)
	if summary == nil {
		return nil, fmt.Errorf("%w: %s", lab.ErrNotFound, ref)
	}

	return c.Sections(ctx, summary, refresh)
}

// Sections returns l with its sections, from the cache when possible
func (c *Catalog) Sections(ctx context.Context, l *lab.Lab, refresh bool) (*lab.Lab, error) {
	useStore := c.store != nil && !c.skipLabs

	if useStore && !refresh {
		cached, err := c.store.Lab(l.ID)
		if err != nil {
			c.log.Warn("Reading cached lab failed", logger.Fields{"lab_id": l.ID, "error": err.Error()})
		} else if cached != nil && cached.HasSections() {
			logger.IncrCounter("cache.hit")
			return cached, nil
		}
		logger.IncrCounter("cache.miss")
	}

	full, err := c.source.ScrapeSections(ctx, l)
	if err != nil {
		return nil, err
	}

	if useStore {
		if err := c.store.SetLab(full); err != nil {
			c.log.Warn("Caching lab failed", logger.Fields{"lab_id": l.ID, "error": err.Error()})
		}
	}
	return full, nil
}

// Result is the outcome of fetching one lab
type Result struct {
	Lab *lab.Lab
	Err error
}

// Labs fetches the sections of every lab in labs, a few at a time.
// Results are in the same order as labs. A failed lab does not stop the others.
func (c *Catalog) Labs(ctx context.Context, labs []*lab.Lab, refresh bool) []Result {
	results := make([]Result, len(labs))

	var g errgroup.Group
	g.SetLimit(c.concurrency)

	for i, l := range labs {
		i, l := i, l
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				results[i] = Result{Lab: l, Err: err}
				return nil
			}
			full, err := c.Sections(ctx, l, refresh)
			if err != nil {
				results[i] = Result{Lab: l, Err: err}
				return nil
			}
			results[i] = Result{Lab: full}
			return nil
		})
	}
	g.Wait() // nolint:errcheck

	return results
}

// Week returns the labs of a course week, e.g. "1" or "01", ordered by number
func (c *Catalog) Week(ctx context.Context, week string, refresh bool) ([]*lab.Lab, error) {
	idx, err := c.Index(ctx, refresh)
	if err != nil {
		return nil, err
	}

	labs := idx.Week(week)
	if len(labs) == 0 {
		return nil, fmt.Errorf("%w: no labs for week %s", lab.ErrNotFound, lab.NormalizeWeek(week))
	}
	return labs, nil
}
