package scraper

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/go-resty/resty/v2"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"

	"github.com/gensec-template/gensec-template/internal/lab"
	"github.com/gensec-template/gensec-template/internal/logger"
	"github.com/gensec-template/gensec-template/internal/parser"
)

const (
	DefaultBaseURL    = "https://codelabs.cs.pdx.edu/cs475/"
	UserAgent         = "gensec-template/0.1.0 (Lab Template Generator)"
	Timeout           = 30 * time.Second
	DefaultMaxRetries = 3
	DefaultRetryDelay = 1 * time.Second

	// sections tried when a lab page gives no hint about its length
	defaultSectionGuess = 10
)

const acceptHTML = "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8"

var tracer = otel.Tracer("github.com/gensec-template/gensec-template/internal/scraper")

// Scraper fetches and parses lab pages from the course website
type Scraper struct {
	client     *resty.Client
	baseURL    string
	maxRetries int
	retryDelay time.Duration
	mode       parser.Mode
	log        *logger.Logger
}

// Option configures a Scraper
type Option func(*Scraper)

// WithBaseURL sets the course page that lists the labs
func WithBaseURL(baseURL string) Option {
	return func(s *Scraper) {
		s.baseURL = baseURL
	}
}

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) Option {
	return func(s *Scraper) {
		s.client.SetTimeout(d)
	}
}

// WithRetries sets the number of attempts per page and the delay before the first retry.
// The delay doubles after every failed attempt.
func WithRetries(attempts int, delay time.Duration) Option {
	return func(s *Scraper) {
		s.maxRetries = attempts
		s.retryDelay = delay
	}
}

// WithMode sets how deliverable questions are recognised
func WithMode(mode parser.Mode) Option {
	return func(s *Scraper) {
		s.mode = mode
	}
}

// New creates a new Scraper instance
func New(opts ...Option) *Scraper {
	s := &Scraper{
		client: resty.New().
			SetTimeout(Timeout).
			SetHeader("User-Agent", UserAgent).
			SetHeader("Accept", acceptHTML).
			SetRedirectPolicy(resty.FlexibleRedirectPolicy(10)),
		baseURL:    DefaultBaseURL,
		maxRetries: DefaultMaxRetries,
		retryDelay: DefaultRetryDelay,
		mode:       parser.ModeBold,
		log:        logger.Default().With("scraper"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// BaseURL returns the course page the scraper reads the lab index from
func (s *Scraper) BaseURL() string {
	return s.baseURL
}

// Mode returns the question extraction mode
func (s *Scraper) Mode() parser.Mode {
	return s.mode
}

// Fetch GETs a page, retrying transport errors, timeouts and 5xx responses with
// exponential backoff. 4xx responses fail immediately.
func (s *Scraper) Fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, span := tracer.Start(ctx, "Fetch")
	defer span.End()
	span.SetAttributes(attribute.String("http.url", url))

	start := time.Now()
	attempts := 0
	var body []byte

	op := func() error {
		attempts++
		logger.IncrCounter("http.requests")

		resp, err := s.client.R().SetContext(ctx).Get(url)
		if err != nil {
			if ctx.Err() != nil {
				return backoff.Permanent(ctx.Err())
			}
			return err
		}

		if code := resp.StatusCode(); code >= 400 {
			statusErr := &StatusError{URL: url, StatusCode: code}
			if code >= 500 {
				return statusErr
			}
			return backoff.Permanent(statusErr)
		}

		body = resp.Body()
		return nil
	}

	notify := func(err error, wait time.Duration) {
		logger.IncrCounter("http.retries")
		s.log.Debug("Retrying request", logger.Fields{
			"url":     url,
			"attempt": attempts,
			"wait":    wait.String(),
			"cause":   err.Error(),
		})
	}

	err := backoff.RetryNotify(op, backoff.WithContext(s.newBackOff(), ctx), notify)
	logger.RecordTiming("http.fetch", time.Since(start))
	span.SetAttributes(attribute.Int("http.attempts", attempts))

	if err != nil {
		fetchErr := &FetchError{URL: url, Attempts: attempts, Err: err}
		span.RecordError(fetchErr)
		span.SetStatus(codes.Error, "fetch failed")
		s.log.Warn("Request failed", logger.Fields{"url": url, "attempts": attempts})
		return nil, fetchErr
	}

	s.log.Debug("Fetched page", logger.Fields{"url": url, "bytes": len(body), "attempts": attempts})
	return body, nil
}

// newBackOff returns the retry schedule: delay, 2*delay, 4*delay... for maxRetries attempts
func (s *Scraper) newBackOff() backoff.BackOff {
	b := backoff.NewExponentialBackOff()
	b.InitialInterval = s.retryDelay
	b.Multiplier = 2
	b.RandomizationFactor = 0
	b.MaxInterval = s.retryDelay * 64
	b.MaxElapsedTime = 0
	b.Reset()

	retries := s.maxRetries - 1
	if retries < 0 {
		retries = 0
	}
	return backoff.WithMaxRetries(b, uint64(retries))
}

// ScrapeIndex fetches the course page and returns every lab it lists, without sections
func (s *Scraper) ScrapeIndex(ctx context.Context) (*lab.Index, error) {
	ctx, span := tracer.Start(ctx, "ScrapeIndex")
	defer span.End()

	body, err := s.Fetch(ctx, s.baseURL)
	if err != nil {
		return nil, fmt.Errorf("fetching lab index: %w", err)
	}

	doc, err := parser.Load(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	labs := parser.ParseIndex(doc, s.baseURL)
	span.SetAttributes(attribute.Int("labs", len(labs)))
	s.log.Info("Parsed lab index", logger.Fields{"url": s.baseURL, "labs": len(labs)})

	return lab.NewIndex(labs), nil
}

// ScrapeSections fetches a lab page and returns a copy of l with its sections filled in.
// Every section lives in the same HTML document, so the page is fetched once.
func (s *Scraper) ScrapeSections(ctx context.Context, l *lab.Lab) (*lab.Lab, error) {
	ctx, span := tracer.Start(ctx, "ScrapeSections")
	defer span.End()
	span.SetAttributes(attribute.String("lab.id", l.ID))

	body, err := s.Fetch(ctx, l.URL)
	if err != nil {
		return nil, fmt.Errorf("fetching lab %s: %w", l.ID, err)
	}

	doc, err := parser.Load(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	page := parser.ParseLabPage(doc)

	full := *l
	if full.Title == "" {
		full.Title = page.Title
	}

	count := parser.SectionCount(doc)
	if count == 0 {
		count = len(page.SectionTitles)
	}
	if count == 0 {
		count = defaultSectionGuess
	}

	sections := make([]*lab.Section, 0, count)
	for i := 0; i < count; i++ {
		section := parser.ParseSection(doc, i+1, s.mode)
		if section.Title == "" && i < len(page.SectionTitles) {
			section.Title = page.SectionTitles[i]
		}
		if section.Title != "" || len(section.Questions) > 0 {
			sections = append(sections, section)
		}
	}
	full.Sections = sections

	span.SetAttributes(attribute.Int("lab.sections", len(sections)))
	s.log.Info("Parsed lab", logger.Fields{
		"lab_id":    full.ID,
		"sections":  full.SectionCount(),
		"questions": full.TotalQuestions(),
	})

	return &full, nil
}

// ScrapeLab scrapes the index, finds the lab by ID or number and scrapes its sections
func (s *Scraper) ScrapeLab(ctx context.Context, ref string) (*lab.Lab, error) {
	idx, err := s.ScrapeIndex(ctx)
	if err != nil {
		return nil, err
	}

	l := idx.Find(ref)
	if l == nil {
		return nil, fmt.Errorf("%w: %s", lab.ErrNotFound, ref)
	}

	return s.ScrapeSections(ctx, l)
}
