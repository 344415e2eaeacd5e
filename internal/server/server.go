// Package server exposes forms over HTTP: step pages, posted actions,
// result charts, embedded assets, health and Prometheus metrics.
package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-logr/logr"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/goliatone/go-formflow"
	"github.com/goliatone/go-formflow/pkg/assets"
	"github.com/goliatone/go-formflow/pkg/charts"
	"github.com/goliatone/go-formflow/pkg/charts/c3"
	"github.com/goliatone/go-formflow/pkg/flow"
	"github.com/goliatone/go-formflow/pkg/frontend"
	"github.com/goliatone/go-formflow/pkg/model"
	"github.com/goliatone/go-formflow/pkg/nonce"
	"github.com/goliatone/go-formflow/pkg/render"
	"github.com/goliatone/go-formflow/pkg/render/template"
	"github.com/goliatone/go-formflow/pkg/render/template/pongo"
	"github.com/goliatone/go-formflow/pkg/results"
	"github.com/goliatone/go-formflow/pkg/source"
	"github.com/goliatone/go-formflow/pkg/store"
)

//go:embed templates/*.tpl
var pageTemplates embed.FS

// DefaultOwnerCookie names the cookie that ties submissions to a visitor.
const DefaultOwnerCookie = "formflow_owner"

const (
	messageCompleted    = "Thank you, your answers were saved."
	messageCompletedKey = "formflow.notice.completed"
	shutdownTimeout     = 10 * time.Second
)

// Option configures the server.
type Option func(*Server)

// WithLogger sets the logger.
func WithLogger(log logr.Logger) Option {
	return func(s *Server) {
		s.logger = log
	}
}

// WithOverrides customizes the rendered steps.
func WithOverrides(sets ...frontend.Overrides) Option {
	return func(s *Server) {
		s.overrides = append(s.overrides, sets...)
	}
}

// WithLocalizer translates labels and notices.
func WithLocalizer(l render.Localizer) Option {
	return func(s *Server) {
		s.localizer = l
	}
}

// WithCharts sets the chart creators and the one used when a request does
// not name one.
func WithCharts(reg *charts.Registry, defaultCreator string) Option {
	return func(s *Server) {
		if reg != nil {
			s.charts = reg
		}
		if defaultCreator = strings.TrimSpace(defaultCreator); defaultCreator != "" {
			s.defaultCreator = defaultCreator
		}
	}
}

// WithAssetBase sets the URL prefix of the embedded assets.
func WithAssetBase(base string) Option {
	return func(s *Server) {
		if base = strings.TrimSpace(base); base != "" {
			s.assetBase = strings.TrimSuffix(base, "/")
		}
	}
}

// WithOwnerCookie sets the owner cookie name and its Secure flag.
func WithOwnerCookie(name string, secure bool) Option {
	return func(s *Server) {
		if name = strings.TrimSpace(name); name != "" {
			s.ownerCookie = name
		}
		s.secureCookie = secure
	}
}

// WithRegistry sets the Prometheus registry metrics are registered with and
// served from.
func WithRegistry(reg *prometheus.Registry) Option {
	return func(s *Server) {
		if reg != nil {
			s.registry = reg
		}
	}
}

// Server is the HTTP surface.
type Server struct {
	echo           *echo.Echo
	catalog        *source.Catalog
	submissions    store.Submissions
	renderer       *frontend.Renderer
	processor      *flow.Processor
	results        *results.Service
	charts         *charts.Registry
	pages          template.TemplateRenderer
	metrics        *Metrics
	registry       *prometheus.Registry
	localizer      render.Localizer
	overrides      []frontend.Overrides
	defaultCreator string
	assetBase      string
	ownerCookie    string
	secureCookie   bool
	logger         logr.Logger
}

// New wires the server.
func New(catalog *source.Catalog, submissions store.Submissions, issuer nonce.Issuer, options ...Option) (*Server, error) {
	if catalog == nil {
		return nil, errors.New("server: catalog is required")
	}
	s := &Server{
		catalog:        catalog,
		submissions:    submissions,
		registry:       prometheus.NewRegistry(),
		defaultCreator: c3.Name,
		assetBase:      "/assets",
		ownerCookie:    DefaultOwnerCookie,
		logger:         logr.Discard(),
	}
	for _, opt := range options {
		if opt != nil {
			opt(s)
		}
	}
	if s.charts == nil {
		reg, err := formflow.DefaultChartRegistry(s.assetBase)
		if err != nil {
			return nil, fmt.Errorf("server: %w", err)
		}
		s.charts = reg
	}

	renderer, err := frontend.New(
		frontend.WithIssuer(issuer),
		frontend.WithAccessChecker(OwnerAccess),
		frontend.WithOverrides(s.overrides...),
		frontend.WithLocalizer(s.localizer),
		frontend.WithLogger(s.logger.WithName("frontend")),
	)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	processor, err := flow.New(submissions, issuer,
		flow.WithLocalizer(s.localizer),
		flow.WithLogger(s.logger.WithName("flow")),
	)
	if err != nil {
		return nil, fmt.Errorf("server: %w", err)
	}
	templates, err := fs.Sub(pageTemplates, "templates")
	if err != nil {
		return nil, fmt.Errorf("server: page templates: %w", err)
	}
	pages, err := pongo.New(pongo.WithFS(templates))
	if err != nil {
		return nil, fmt.Errorf("server: page templates: %w", err)
	}

	s.renderer = renderer
	s.processor = processor
	s.results = results.NewService(submissions, s.charts, results.WithLogger(s.logger.WithName("results")))
	s.pages = pages
	s.metrics = NewMetrics(s.registry)
	s.echo = echo.New()
	s.echo.HideBanner = true
	s.echo.HidePort = true
	s.routes()
	return s, nil
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on address until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) Start(ctx context.Context, address string) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.echo.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()
	s.logger.Info("server listening", "address", address)

	select {
	case err, ok := <-errCh:
		if ok {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	s.logger.Info("server shutting down")
	return s.echo.Shutdown(shutdownCtx)
}

func (s *Server) routes() {
	e := s.echo
	e.Use(s.observe)

	e.GET("/healthz", s.health)
	e.GET("/metrics", echo.WrapHandler(promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})))
	e.GET("/assets/*", echo.WrapHandler(http.StripPrefix("/assets/", http.FileServer(http.FS(assets.FS())))))

	g := e.Group("/forms", ownerMiddleware(s.ownerCookie, s.secureCookie))
	g.GET("", s.listForms)
	g.GET("/:id", s.showStep)
	g.POST("/:id", s.postStep)
	g.GET("/:id/done", s.done)
	g.GET("/:id/results", s.showResults)
}

func (s *Server) observe(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		code := c.Response().Status
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
		} else if err != nil {
			code = http.StatusInternalServerError
		}
		s.metrics.RequestDuration.
			WithLabelValues(c.Request().Method, c.Path(), strconv.Itoa(code)).
			Observe(time.Since(start).Seconds())
		return err
	}
}

func (s *Server) health(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status": "ok",
		"forms":  s.catalog.Len(),
	})
}

type formSummary struct {
	ID         string `json:"id"`
	Title      string `json:"title,omitempty"`
	Containers int    `json:"containers"`
	URL        string `json:"url"`
}

func (s *Server) listForms(c echo.Context) error {
	forms := s.catalog.List()
	out := make([]formSummary, 0, len(forms))
	for _, form := range forms {
		out = append(out, formSummary{
			ID:         form.ID,
			Title:      form.Title,
			Containers: len(form.Containers),
			URL:        formURL(form.ID),
		})
	}
	return c.JSON(http.StatusOK, out)
}

func (s *Server) showStep(c echo.Context) error {
	form, err := s.form(c)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()

	var sub *model.Submission
	if id := strings.TrimSpace(c.QueryParam("submission")); id != "" {
		sub, err = s.submissions.Get(ctx, id)
		if err != nil {
			return s.storeError(err)
		}
	}

	out, err := s.renderer.Render(ctx, frontend.Request{
		Form:       form,
		Submission: sub,
		PageID:     c.QueryParam("page"),
		Locale:     c.QueryParam("lang"),
		Action:     actionURL(form.ID, c.QueryParam("lang")),
	})
	if err != nil {
		s.logger.Error(err, "render step failed", "form", form.ID)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to render form")
	}
	s.metrics.StepsRendered.WithLabelValues(form.ID, string(out.Status)).Inc()

	if out.Status == frontend.StatusSkipped {
		if sub.Completed() {
			return c.Redirect(http.StatusSeeOther, doneURL(form.ID, sub.PageID, c.QueryParam("lang")))
		}
		return echo.NewHTTPError(http.StatusForbidden, "this submission belongs to another visitor")
	}
	return s.page(c, formTitle(form), "", out.HTML, c.QueryParam("lang"))
}

func (s *Server) postStep(c echo.Context) error {
	form, err := s.form(c)
	if err != nil {
		return err
	}
	req := c.Request()
	if err := req.ParseForm(); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "malformed form body")
	}

	action := s.processor.ParseRequest(req.PostForm)
	action.OwnerKey = OwnerFromContext(req.Context())
	action.Locale = c.QueryParam("lang")

	outcome, err := s.processor.Handle(req.Context(), form, action)
	if err != nil {
		s.metrics.Actions.WithLabelValues(form.ID, string(action.Action), "rejected").Inc()
		return s.actionError(form, err)
	}

	result := "moved"
	switch {
	case outcome.Completed:
		result = "completed"
	case outcome.Invalid:
		result = "invalid"
	}
	s.metrics.Actions.WithLabelValues(form.ID, string(action.Action), result).Inc()

	if outcome.Completed {
		return c.Redirect(http.StatusSeeOther, doneURL(form.ID, outcome.RedirectPageID, action.Locale))
	}
	return c.Redirect(http.StatusSeeOther, stepURL(form.ID, outcome.Submission.ID, outcome.RedirectPageID, action.Locale))
}

func (s *Server) done(c echo.Context) error {
	form, err := s.form(c)
	if err != nil {
		return err
	}
	locale := c.QueryParam("lang")
	message := s.localizer.Text(locale, messageCompletedKey, messageCompleted)
	body := `<div class="formflow-notice formflow-notice-info"><p>` + html.EscapeString(message) + `</p></div>`
	return s.page(c, formTitle(form), "", body, locale)
}

func (s *Server) showResults(c echo.Context) error {
	form, err := s.form(c)
	if err != nil {
		return err
	}
	name := strings.TrimSpace(c.QueryParam("creator"))
	if name == "" {
		name = s.defaultCreator
	}
	creator, err := s.charts.Get(name)
	if err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("unknown chart creator %q", name))
	}

	locale := c.QueryParam("lang")
	rendered, err := s.results.Charts(c.Request().Context(), form, name, charts.WithLocalizer(s.localizer, locale))
	if err != nil {
		s.logger.Error(err, "render results failed", "form", form.ID, "creator", name)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to render results")
	}
	if c.QueryParam("format") == "json" {
		return c.JSON(http.StatusOK, rendered)
	}

	head, err := s.head(creator.Assets()...)
	if err != nil {
		s.logger.Error(err, "asset markup failed", "creator", name)
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to render results")
	}

	var body strings.Builder
	for _, chart := range rendered {
		if chart.Widget.Empty() {
			continue
		}
		body.WriteString(`<section class="formflow-chart">`)
		body.WriteString(chart.Widget.HTML)
		body.WriteString(`</section>`)
	}
	return s.page(c, formTitle(form), head, body.String(), locale)
}

// head returns the tags for the page stylesheet plus extra.
func (s *Server) head(extra ...assets.Asset) (string, error) {
	page := assets.NewRegistry()
	if err := page.Enqueue(assets.ContextFrontend, assets.Style("formflow", s.assetBase+"/"+assets.Stylesheet)); err != nil {
		return "", err
	}
	if err := page.Enqueue(assets.ContextFrontend, extra...); err != nil {
		return "", err
	}
	return page.Markup(assets.ContextFrontend)
}

func (s *Server) page(c echo.Context, title, head, body, locale string) error {
	if head == "" {
		var err error
		if head, err = s.head(); err != nil {
			s.logger.Error(err, "asset markup failed")
		}
	}
	out, err := s.pages.RenderTemplate("page", map[string]any{
		"title":  title,
		"head":   head,
		"body":   body,
		"locale": locale,
	})
	if err != nil {
		s.logger.Error(err, "render page failed")
		return echo.NewHTTPError(http.StatusInternalServerError, "failed to render page")
	}
	return c.HTML(http.StatusOK, out)
}

func (s *Server) form(c echo.Context) (model.Form, error) {
	form, ok := s.catalog.Get(c.Param("id"))
	if !ok {
		return model.Form{}, echo.NewHTTPError(http.StatusNotFound, "form not found")
	}
	return form, nil
}

func (s *Server) storeError(err error) error {
	if errors.Is(err, store.ErrNotFound) {
		return echo.NewHTTPError(http.StatusNotFound, "submission not found")
	}
	s.logger.Error(err, "store failure")
	return echo.NewHTTPError(http.StatusInternalServerError, "storage failure")
}

func (s *Server) actionError(form model.Form, err error) error {
	switch {
	case errors.Is(err, flow.ErrInvalidToken), errors.Is(err, flow.ErrForbidden):
		return echo.NewHTTPError(http.StatusForbidden, "the form expired or belongs to another visitor, reload and try again")
	case errors.Is(err, flow.ErrUnknownAction), errors.Is(err, flow.ErrFormMismatch):
		return echo.NewHTTPError(http.StatusBadRequest, "invalid form action")
	case errors.Is(err, flow.ErrAlreadyCompleted):
		return echo.NewHTTPError(http.StatusConflict, "this submission is already complete")
	case errors.Is(err, model.ErrNoContainers):
		return echo.NewHTTPError(http.StatusUnprocessableEntity, frontend.MessageNoContainer)
	}
	if errors.Is(err, store.ErrNotFound) {
		return s.storeError(err)
	}
	s.logger.Error(err, "handle action failed", "form", form.ID)
	return echo.NewHTTPError(http.StatusInternalServerError, "failed to save the form")
}

func formTitle(form model.Form) string {
	if form.Title != "" {
		return form.Title
	}
	return model.Humanize(form.ID)
}

func formURL(formID string) string {
	return "/forms/" + url.PathEscape(formID)
}

// actionURL keeps the visitor's locale on the posted step.
func actionURL(formID, locale string) string {
	return withQuery(formURL(formID), "lang", locale)
}

func stepURL(formID, submissionID, pageID, locale string) string {
	return withQuery(formURL(formID), "submission", submissionID, "page", pageID, "lang", locale)
}

func doneURL(formID, pageID, locale string) string {
	return withQuery(formURL(formID)+"/done", "page", pageID, "lang", locale)
}

// withQuery appends the non-empty key/value pairs as a query string.
func withQuery(path string, pairs ...string) string {
	query := url.Values{}
	for i := 0; i+1 < len(pairs); i += 2 {
		if value := strings.TrimSpace(pairs[i+1]); value != "" {
			query.Set(pairs[i], value)
		}
	}
	if len(query) == 0 {
		return path
	}
	return path + "?" + query.Encode()
}
