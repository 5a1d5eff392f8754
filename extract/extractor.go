package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/skillsenselab/ingest/config"
	"github.com/skillsenselab/ingest/errors"
	"github.com/skillsenselab/ingest/httpclient"
	"github.com/skillsenselab/ingest/logger"
	"github.com/skillsenselab/ingest/record"
	"github.com/skillsenselab/ingest/resilience"
	"github.com/skillsenselab/ingest/storage"
)

// Extractor fetches raw records from the configured REST endpoint, walking
// pagination and persisting every fetched page before advancing. Re-running
// for the same run date re-fetches from the start; extraction is not
// resumable mid-walk.
type Extractor struct {
	cfg    *config.Pipeline
	client *httpclient.Client
	store  *storage.PayloadStore
	log    *logger.Logger
}

// New builds an extractor for one pipeline. Credentials named by the auth
// spec are resolved from the environment here, once, and never logged.
func New(cfg *config.Pipeline, store *storage.PayloadStore, log *logger.Logger) (*Extractor, error) {
	auth, err := resolveAuth(cfg.Auth, log)
	if err != nil {
		return nil, err
	}

	clientCfg := httpclient.Config{
		BaseURL: cfg.BaseURL,
		Auth:    auth,
		Retry:   httpclient.DefaultRetryConfig(),
	}
	if cfg.RateLimit.Requests > 0 {
		clientCfg.RateLimiter = &resilience.RateLimiterConfig{
			Name:     cfg.Name,
			Requests: cfg.RateLimit.Requests,
			Window:   cfg.RateLimit.ParsedWindow(),
		}
	}

	client, err := httpclient.New(clientCfg)
	if err != nil {
		return nil, errors.Config(fmt.Sprintf("build http client: %v", err))
	}

	return &Extractor{
		cfg:    cfg,
		client: client,
		store:  store,
		log:    log.WithComponent("extractor").WithFields(map[string]interface{}{logger.FieldPipeline: cfg.Name}),
	}, nil
}

// walk tracks the pagination position across requests.
type walk struct {
	strategy string
	page     int    // next page number (page strategy)
	cursor   string // cursor for the next request (cursor strategy)
	path     string // request path; next_link swaps in absolute URLs
	done     bool
}

func newWalk(cfg *config.Pipeline) *walk {
	w := &walk{strategy: config.PaginationNone, path: cfg.Endpoint, page: 1}
	if cfg.Pagination != nil {
		w.strategy = cfg.Pagination.Type
		if cfg.Pagination.StartPage > 0 {
			w.page = cfg.Pagination.StartPage
		}
	}
	return w
}

// Run fetches all pages for runDate and returns the raw records in fetch
// order. Each page is persisted to the payload store before the walk
// advances, so a failed run leaves its fetched pages inspectable.
func (e *Extractor) Run(ctx context.Context, runDate string) (record.Batch, error) {
	w := newWalk(e.cfg)
	var batch record.Batch
	pageIdx := 1

	for !w.done {
		query := make(map[string]string, len(e.cfg.Params)+1)
		for k, v := range e.cfg.Params {
			query[k] = v
		}
		switch w.strategy {
		case config.PaginationPage:
			query[e.cfg.Pagination.PageParam] = strconv.Itoa(w.page)
		case config.PaginationCursor:
			if w.cursor != "" {
				query[e.cfg.Pagination.CursorParam] = w.cursor
			}
		}

		resp, err := e.client.Do(ctx, httpclient.Request{Path: w.path, Query: query})
		if err != nil {
			return nil, errors.Extraction(
				fmt.Sprintf("fetch page %d: %v", pageIdx, err),
				httpclient.StatusOf(err), pageIdx, w.cursor,
			)
		}

		var payload interface{}
		if err := json.Unmarshal(resp.Body, &payload); err != nil {
			return nil, errors.Extraction(
				fmt.Sprintf("decode page %d: %v", pageIdx, err),
				resp.StatusCode, pageIdx, w.cursor,
			)
		}

		records := recordsFrom(payload)

		// Page-numbered walks stop on an empty page without persisting it.
		if w.strategy == config.PaginationPage && len(records) == 0 {
			break
		}

		if err := e.store.SaveRawPage(ctx, e.cfg.Name, runDate, pageIdx, resp.Body); err != nil {
			return nil, errors.Extraction(
				fmt.Sprintf("persist page %d: %v", pageIdx, err),
				0, pageIdx, w.cursor,
			)
		}
		e.log.Info("fetched page", map[string]interface{}{
			logger.FieldPage: pageIdx,
			logger.FieldRows: len(records),
		})

		fetchedAt := time.Now().UTC()
		for _, data := range records {
			batch = append(batch, record.Raw{
				Data:      data,
				Source:    e.cfg.Name,
				FetchedAt: fetchedAt,
				Page:      pageIdx,
				Cursor:    w.cursor,
			})
		}

		e.advance(w, payload)
		pageIdx++
	}

	e.log.Info("extraction complete", map[string]interface{}{
		logger.FieldRows:    len(batch),
		logger.FieldRunDate: runDate,
	})
	return batch, nil
}

// advance moves the walk to the next page, or marks it done when the
// response signals the end: an absent cursor field, a missing next link,
// or no pagination at all.
func (e *Extractor) advance(w *walk, payload interface{}) {
	switch w.strategy {
	case config.PaginationPage:
		w.page++
	case config.PaginationCursor:
		data, ok := payload.(map[string]interface{})
		if !ok {
			w.done = true
			return
		}
		cursor, ok := record.ResolveString(data, e.cfg.Pagination.CursorKey)
		if !ok || cursor == "" {
			w.done = true
			return
		}
		w.cursor = cursor
	case config.PaginationNextLink:
		data, ok := payload.(map[string]interface{})
		if !ok {
			w.done = true
			return
		}
		next, ok := record.ResolveString(data, e.cfg.Pagination.NextLinkKey)
		if !ok || next == "" {
			w.done = true
			return
		}
		// Absolute URLs bypass the client's base URL.
		w.path = next
	default:
		w.done = true
	}
}
