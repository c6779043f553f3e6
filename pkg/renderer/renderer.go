package renderer

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/text/language"

	"github.com/dmitrymomot/notifykit/pkg/notification"
	"github.com/dmitrymomot/notifykit/pkg/template"
)

const (
	defaultLocale   = "en-US"
	defaultTimezone = "UTC"

	defaultCacheTTL      = 5 * time.Minute
	defaultCacheCapacity = 1000

	defaultBulkConcurrency = 10
)

// Request describes a single rendering job: which template, for which
// channel, with what variables. Locale and Timezone override the service
// defaults when set.
type Request struct {
	Template  *template.Template
	Channel   notification.Channel
	Variables map[string]any
	Locale    string
	Timezone  string
}

// BulkResult pairs one request's outcome with its position in the input
// slice. Exactly one of Output and Err is meaningful.
type BulkResult struct {
	Index  int
	Output template.Rendered
	Err    error
}

// Service renders templates through the grammar evaluator with result
// caching. It is safe for concurrent use.
type Service struct {
	cache       *renderCache
	locale      string
	timezone    string
	concurrency int
	log         *slog.Logger
	now         func() time.Time
}

// Option configures the Service.
type Option func(*Service)

// WithLogger sets the structured logger used for render diagnostics.
func WithLogger(log *slog.Logger) Option {
	return func(s *Service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithLocale sets the default locale for number and string formatting.
func WithLocale(locale string) Option {
	return func(s *Service) { s.locale = locale }
}

// WithTimezone sets the default timezone for date formatting and @now.
func WithTimezone(tz string) Option {
	return func(s *Service) { s.timezone = tz }
}

// WithCache overrides the result cache capacity and TTL.
func WithCache(capacity int, ttl time.Duration) Option {
	return func(s *Service) {
		if capacity > 0 && ttl > 0 {
			s.cache = newRenderCache(capacity, ttl)
		}
	}
}

// WithBulkConcurrency bounds the number of requests RenderBulk processes in
// parallel.
func WithBulkConcurrency(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

// WithClock overrides the time source. Used in tests to pin @now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// New creates a rendering service with a 1000-entry, 5-minute result cache.
func New(opts ...Option) *Service {
	s := &Service{
		cache:       newRenderCache(defaultCacheCapacity, defaultCacheTTL),
		locale:      defaultLocale,
		timezone:    defaultTimezone,
		concurrency: defaultBulkConcurrency,
		log:         slog.Default(),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Render evaluates the template's channel content against the request
// variables. Identical requests within the cache TTL are served from cache
// without re-evaluating the grammar.
func (s *Service) Render(ctx context.Context, req Request) (template.Rendered, error) {
	if err := ctx.Err(); err != nil {
		return template.Rendered{}, err
	}
	if req.Template == nil {
		return template.Rendered{}, ErrNilTemplate
	}

	tpl := req.Template
	fail := func(err error) (template.Rendered, error) {
		return template.Rendered{}, renderErr(tpl.ID(), req.Channel, err)
	}

	if !tpl.IsActive() {
		return fail(template.ErrTemplateInactive)
	}
	ct, ok := tpl.ChannelTemplate(req.Channel)
	if !ok {
		return fail(template.ErrChannelTemplateNotFound)
	}
	if !ct.Enabled {
		return fail(template.ErrChannelTemplateDisabled)
	}
	if err := tpl.ValidateVariables(req.Variables); err != nil {
		return fail(err)
	}

	locale := req.Locale
	if locale == "" {
		locale = s.locale
	}
	if _, err := language.Parse(locale); err != nil {
		return fail(fmt.Errorf("%w: %q", ErrInvalidLocale, locale))
	}
	timezone := req.Timezone
	if timezone == "" {
		timezone = s.timezone
	}
	location, err := time.LoadLocation(timezone)
	if err != nil {
		return fail(fmt.Errorf("%w: %q", ErrInvalidTimezone, timezone))
	}

	now := s.now()
	key := cacheKey(tpl.ID(), tpl.CurrentVersion(), req.Channel, req.Variables, locale, timezone)
	if cached, ok := s.cache.get(key, now); ok {
		return cached, nil
	}

	ec := evalContext{
		vars:     s.scope(tpl, req.Variables, locale, timezone, now),
		locale:   locale,
		location: location,
	}

	out := template.Rendered{
		Subject: postprocess(evaluate(ct.Subject, ec), ct.Format),
		Body:    postprocess(evaluate(ct.Body, ec), ct.Format),
		Format:  ct.Format,
	}
	s.cache.put(key, out, now)

	s.log.DebugContext(ctx, "template rendered",
		slog.String("template_id", tpl.ID()),
		slog.String("channel", string(req.Channel)),
		slog.Int("version", tpl.CurrentVersion()),
	)
	return out, nil
}

// RenderBulk renders many requests with bounded concurrency. The batch
// never aborts: each failure, including a panicking formatter, becomes a
// RenderingError in that request's slot. Results are ordered by input index.
func (s *Service) RenderBulk(ctx context.Context, reqs []Request) []BulkResult {
	results := make([]BulkResult, len(reqs))

	sem := make(chan struct{}, s.concurrency)
	var wg sync.WaitGroup
	for i, req := range reqs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sem <- struct{}{}
			defer func() { <-sem }()

			defer func() {
				if r := recover(); r != nil {
					var id string
					if req.Template != nil {
						id = req.Template.ID()
					}
					results[i] = BulkResult{
						Index: i,
						Err:   renderErr(id, req.Channel, fmt.Errorf("panic: %v", r)),
					}
					s.log.ErrorContext(ctx, "render panic recovered",
						slog.Int("index", i),
						slog.Any("panic", r),
					)
				}
			}()

			out, err := s.Render(ctx, req)
			results[i] = BulkResult{Index: i, Output: out, Err: err}
		}()
	}
	wg.Wait()

	return results
}

// Preview renders a template with auto-generated sample values filled in
// for any declared variable the caller did not supply. It lets authors see
// output without assembling a full variable set.
func (s *Service) Preview(ctx context.Context, tpl *template.Template, channel notification.Channel, vars map[string]any) (template.Rendered, error) {
	if tpl == nil {
		return template.Rendered{}, ErrNilTemplate
	}

	filled := make(map[string]any, len(vars))
	for k, v := range vars {
		filled[k] = v
	}
	for _, v := range tpl.Variables() {
		if _, ok := filled[v.Name]; ok {
			continue
		}
		if v.DefaultValue != nil {
			continue
		}
		filled[v.Name] = sampleValue(v, s.now())
	}

	return s.Render(ctx, Request{Template: tpl, Channel: channel, Variables: filled})
}

// scope assembles the evaluation scope: declared defaults overlaid with
// supplied variables, plus the system variables.
func (s *Service) scope(tpl *template.Template, vars map[string]any, locale, timezone string, now time.Time) map[string]any {
	scope := tpl.Bindings(vars)
	scope["@now"] = now
	scope["@templateId"] = tpl.ID()
	scope["@templateName"] = tpl.Name()
	scope["@locale"] = locale
	scope["@timezone"] = timezone
	return scope
}

// sampleValue produces a plausible placeholder for a variable in previews.
func sampleValue(v template.Variable, now time.Time) any {
	if v.Constraints != nil && len(v.Constraints.Options) > 0 {
		return v.Constraints.Options[0]
	}
	switch v.Type {
	case template.VariableNumber:
		return 42
	case template.VariableBoolean:
		return true
	case template.VariableDate:
		return now
	case template.VariableObject:
		return map[string]any{"key": "value"}
	default:
		return "sample_" + v.Name
	}
}
