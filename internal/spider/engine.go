package spider

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"prodcat/catalogworker/logger"
)

// Engine drives one spider run: it seeds the frontier with the spider's start
// requests, applies the middleware chain to every request, fetches with a
// bounded worker pool, and routes parse outputs back into the frontier or
// into the item handler. All run state (frontier, dedup set, counters) lives
// for exactly one run.
type Engine struct {
	fetcher     *Fetcher
	handler     ItemHandler
	concurrency int
	metrics     *Metrics
}

// NewEngine creates an engine. handler may be nil, which discards items;
// metrics may be nil, which disables instrumentation.
func NewEngine(fetcher *Fetcher, handler ItemHandler, concurrency int, metrics *Metrics) *Engine {
	if concurrency < 1 {
		concurrency = 1
	}
	return &Engine{
		fetcher:     fetcher,
		handler:     handler,
		concurrency: concurrency,
		metrics:     metrics,
	}
}

// Run executes the spider until its frontier drains or the context is
// cancelled. A fetch or parse failure abandons only that branch.
func (e *Engine) Run(ctx context.Context, sp Spider) error {
	log := logger.ForSpider(string(sp.Type()))
	chain := Chain(sp.Middleware())
	queue := newRequestQueue()

	// pending counts requests admitted to the frontier but not yet fully
	// processed; the frontier closes when it reaches zero
	var pending int64

	finish := func() {
		if atomic.AddInt64(&pending, -1) == 0 {
			queue.close()
		}
	}

	enqueue := func(req *Request) {
		terminal, err := chain.Apply(req)
		if err != nil {
			if errors.Is(err, ErrRequestDropped) {
				e.metrics.IncDuplicates()
				log.Debug().Str("url", req.URL).Msg("Dropped duplicate request")
			} else {
				e.metrics.IncError("middleware")
				log.Warn().Err(err).Str("url", req.URL).Msg("Middleware rejected request")
			}
			return
		}

		atomic.AddInt64(&pending, 1)
		if err := queue.push(terminal); err != nil {
			// Run is shutting down; the request is abandoned
			atomic.AddInt64(&pending, -1)
		}
	}

	// Seed the frontier before the workers start so an all-duplicate seed set
	// still closes the queue deterministically
	atomic.AddInt64(&pending, 1)
	for _, req := range sp.StartRequests() {
		enqueue(req)
	}
	finish()

	// A cancelled context abandons everything still queued
	watchDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			queue.closeNow()
		case <-watchDone:
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < e.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				req, err := queue.pop()
				if err != nil {
					return
				}
				e.process(ctx, sp, log, req, enqueue)
				finish()
			}
		}()
	}

	wg.Wait()
	close(watchDone)

	if err := ctx.Err(); err != nil {
		log.Warn().Err(err).Msg("Spider run cancelled")
		return err
	}

	return nil
}

// process fetches one request, parses the response, and routes the outputs.
// Parse is atomic per response: outputs are routed only after the callback
// returned its complete result.
func (e *Engine) process(ctx context.Context, sp Spider, log *logger.Logger, req *Request, enqueue func(*Request)) {
	e.metrics.IncRequest(string(sp.Type()))

	start := time.Now()
	resp, err := e.fetcher.Do(ctx, req)
	e.metrics.ObserveFetch(time.Since(start))
	if err != nil {
		e.metrics.IncError("fetch")
		log.Warn().
			Err(err).
			Str("url", req.URL).
			Msg("Fetch failed, abandoning branch")
		return
	}

	outputs, err := sp.Parse(req.Callback, resp)
	if err != nil {
		e.metrics.IncError("parse")
		log.Warn().
			Err(err).
			Str("url", req.URL).
			Str("callback", req.Callback).
			Msg("Parse failed, abandoning branch")
		return
	}

	for _, out := range outputs {
		switch {
		case out.Request != nil:
			enqueue(out.Request)
		case out.Item != nil:
			e.metrics.IncItems()
			if e.handler != nil {
				e.handler.ProcessItem(ctx, out.Item)
			}
		}
	}
}
