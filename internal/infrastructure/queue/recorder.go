package queue

import (
	"context"
	"hash/fnv"

	"github.com/rs/zerolog"

	"github.com/trueque/marketplace/internal/core/service"
)

const (
	defaultWorkers = 4
	channelBuffer  = 256
)

// SearchRecorder writes search hits to the counter off the request path.
// Hits are sharded onto a fixed set of workers by province id, so increments
// for one province are applied in the order they arrived.
type SearchRecorder struct {
	workers []chan string
	counter service.SearchCounter
	log     zerolog.Logger
}

// NewSearchRecorder creates a SearchRecorder with numWorkers sharded workers.
// If numWorkers <= 0, defaultWorkers is used.
func NewSearchRecorder(numWorkers int, counter service.SearchCounter, log zerolog.Logger) *SearchRecorder {
	if numWorkers <= 0 {
		numWorkers = defaultWorkers
	}
	r := &SearchRecorder{
		workers: make([]chan string, numWorkers),
		counter: counter,
		log:     log,
	}
	for i := range r.workers {
		r.workers[i] = make(chan string, channelBuffer)
	}
	return r
}

// Start launches all worker goroutines. Workers stop when ctx is cancelled.
func (r *SearchRecorder) Start(ctx context.Context) {
	for i, ch := range r.workers {
		go r.runWorker(ctx, i, ch)
	}
}

// Enqueue hands a province hit to its worker. Non-blocking up to
// channelBuffer capacity; a full shard drops the hit rather than stalling
// the search request, since the counters are advisory.
func (r *SearchRecorder) Enqueue(provinceID string) {
	select {
	case r.workers[r.shardIndex(provinceID)] <- provinceID:
	default:
		r.log.Warn().Str("province_id", provinceID).Msg("search recorder shard full, hit dropped")
	}
}

// shardIndex maps a province id deterministically to a worker index.
func (r *SearchRecorder) shardIndex(provinceID string) int {
	h := fnv.New32a()
	_, _ = h.Write([]byte(provinceID))
	return int(h.Sum32()) % len(r.workers)
}

func (r *SearchRecorder) runWorker(ctx context.Context, id int, ch <-chan string) {
	for {
		select {
		case <-ctx.Done():
			return
		case provinceID, ok := <-ch:
			if !ok {
				return
			}
			if err := r.counter.Record(ctx, provinceID); err != nil {
				r.log.Error().Err(err).
					Str("province_id", provinceID).
					Int("worker_id", id).
					Msg("search count not recorded")
			}
		}
	}
}
