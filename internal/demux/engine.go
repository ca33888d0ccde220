package demux

import (
	"context"
	"errors"
	"fmt"
	"io"

	"golang.org/x/sync/errgroup"
)

// DefaultBatchSize is the number of read groups handed to each classification
// worker at a time in parallel mode.
const DefaultBatchSize = 4096

// Options configures an Engine.
type Options struct {
	Workers   int // parallel classification workers (default: 1, sequential)
	BatchSize int // read groups per worker batch (default: DefaultBatchSize)
}

// Engine drives one demultiplexing pass: read groups in lockstep, classify,
// route, count. Routing and counting always happen in input order, so
// sequential and parallel runs produce identical output.
type Engine struct {
	quad       *QuadReader
	classifier *Classifier
	router     *Router
	stats      *Stats
	workers    int
	batchSize  int
}

// NewEngine wires the pipeline components together.
func NewEngine(quad *QuadReader, classifier *Classifier, router *Router, stats *Stats, opts *Options) *Engine {
	if opts == nil {
		opts = &Options{}
	}
	workers := opts.Workers
	if workers < 1 {
		workers = 1
	}
	batchSize := opts.BatchSize
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}
	return &Engine{
		quad:       quad,
		classifier: classifier,
		router:     router,
		stats:      stats,
		workers:    workers,
		batchSize:  batchSize,
	}
}

// Run processes the input to exhaustion or the first fatal error. Writes made
// before a failure remain on disk; append-only semantics keep them valid.
func (e *Engine) Run() error {
	if e.workers == 1 {
		return e.runSequential()
	}
	return e.runParallel()
}

func (e *Engine) runSequential() error {
	for {
		g, err := e.quad.Next()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}

		reason, barcode, err := e.classifier.Classify(g)
		if err != nil {
			return err
		}
		annotateIndexes(g)
		if err := e.dispatch(g, reason, barcode); err != nil {
			return err
		}
	}
}

// annotateIndexes copies each index sequence onto the matching primary
// record's separator line, for accepted and rejected reads alike.
func annotateIndexes(g *ReadGroup) {
	g.Read1.AnnotatePlus(string(g.Index1.Sequence))
	g.Read2.AnnotatePlus(string(g.Index2.Sequence))
}

// dispatch applies the stateful side of one classification: counters first,
// then the bucket write.
func (e *Engine) dispatch(g *ReadGroup, reason Reason, barcode string) error {
	e.stats.Record(reason, barcode)
	if reason == 0 {
		return e.router.Accept(g, barcode)
	}
	return e.router.Reject(g, reason)
}

// groupOutcome is the pure classification result for one read group.
type groupOutcome struct {
	reason  Reason
	barcode string
}

// classifyJob is a batch of read groups handed to one worker.
type classifyJob struct {
	seqNum int
	groups []*ReadGroup
}

// classifyResult carries a classified batch back to the collector.
type classifyResult struct {
	seqNum   int
	groups   []*ReadGroup
	outcomes []groupOutcome
	err      error
}

// runParallel fans classification out over a worker pool and folds results
// back in input order through a single collector, which alone touches the
// router and the stats.
func (e *Engine) runParallel() error {
	jobs := make(chan classifyJob, e.workers*2)
	results := make(chan classifyResult, e.workers*2)

	g, ctx := errgroup.WithContext(context.Background())

	for i := 0; i < e.workers; i++ {
		g.Go(func() error {
			return e.classifyWorker(ctx, jobs, results)
		})
	}

	g.Go(func() error {
		defer close(jobs)
		return e.produceJobs(ctx, jobs)
	})

	var collectorErr error
	collectorDone := make(chan struct{})
	go func() {
		defer close(collectorDone)
		collectorErr = e.collectResults(results)
	}()

	workerErr := g.Wait()
	close(results)
	<-collectorDone

	if workerErr != nil {
		return workerErr
	}
	return collectorErr
}

func (e *Engine) produceJobs(ctx context.Context, jobs chan<- classifyJob) error {
	seqNum := 0
	for {
		batch, err := e.quad.NextBatch(e.batchSize)
		if err != nil && !errors.Is(err, io.EOF) {
			return err
		}
		if len(batch) == 0 {
			return nil
		}

		select {
		case jobs <- classifyJob{seqNum: seqNum, groups: batch}:
			seqNum++
		case <-ctx.Done():
			return ctx.Err()
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
	}
}

func (e *Engine) classifyWorker(ctx context.Context, jobs <-chan classifyJob, results chan<- classifyResult) error {
	for job := range jobs {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}

		outcomes := make([]groupOutcome, len(job.groups))
		var jobErr error
		for i, grp := range job.groups {
			reason, barcode, err := e.classifier.Classify(grp)
			if err != nil {
				jobErr = err
				break
			}
			annotateIndexes(grp)
			outcomes[i] = groupOutcome{reason: reason, barcode: barcode}
		}
		results <- classifyResult{seqNum: job.seqNum, groups: job.groups, outcomes: outcomes, err: jobErr}
		if jobErr != nil {
			return fmt.Errorf("classifying batch %d: %w", job.seqNum, jobErr)
		}
	}
	return nil
}

// collectResults applies classified batches strictly in input order. On
// failure it keeps draining so workers never block on a full results channel.
func (e *Engine) collectResults(results <-chan classifyResult) error {
	pending := make(map[int]classifyResult)
	nextSeqNum := 0

	var firstErr error
	for result := range results {
		if firstErr != nil {
			continue
		}
		if result.err != nil {
			firstErr = fmt.Errorf("classifying batch %d: %w", result.seqNum, result.err)
			continue
		}

		pending[result.seqNum] = result

		for {
			res, ok := pending[nextSeqNum]
			if !ok {
				break
			}
			for i, grp := range res.groups {
				out := res.outcomes[i]
				if err := e.dispatch(grp, out.reason, out.barcode); err != nil {
					firstErr = err
					break
				}
			}
			delete(pending, nextSeqNum)
			nextSeqNum++
			if firstErr != nil {
				break
			}
		}
	}

	return firstErr
}
