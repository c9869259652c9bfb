package usage

import (
	"context"
	"log"
	"sync/atomic"
	"time"

	"github.com/aman-churiwal/event-gateway/internal/models"
	"github.com/google/uuid"
)

// Sink persists usage records in batches.
type Sink interface {
	CreateBatch(ctx context.Context, records []models.UsageRecord) error
}

// Recorder accepts one usage record per admitted request and writes them
// out in the background. Record never blocks and never returns an error;
// under pressure the oldest pending record is dropped and counted, so a
// slow sink cannot add latency to the request path.
type Recorder struct {
	ch         chan models.UsageRecord
	sink       Sink
	batchSize  int
	flushEvery time.Duration

	dropped atomic.Int64

	stop chan struct{}
	done chan struct{}
}

func NewRecorder(sink Sink, bufferSize, batchSize int, flushEvery time.Duration) *Recorder {
	if bufferSize <= 0 {
		bufferSize = 1000
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if flushEvery <= 0 {
		flushEvery = 5 * time.Second
	}

	return &Recorder{
		ch:         make(chan models.UsageRecord, bufferSize),
		sink:       sink,
		batchSize:  batchSize,
		flushEvery: flushEvery,
		stop:       make(chan struct{}),
		done:       make(chan struct{}),
	}
}

func (r *Recorder) Start() {
	go r.run()
}

// Stop drains whatever is queued and flushes it before returning.
func (r *Recorder) Stop() {
	close(r.stop)
	<-r.done
}

func (r *Recorder) Record(clientID uuid.UUID, endpoint, method string, status int) {
	record := models.UsageRecord{
		ClientID:   clientID,
		Endpoint:   endpoint,
		Method:     method,
		StatusCode: status,
		Timestamp:  time.Now(),
	}

	select {
	case r.ch <- record:
		return
	default:
	}

	// Buffer full: make room by discarding the oldest pending record.
	select {
	case <-r.ch:
		r.dropped.Add(1)
	default:
	}

	select {
	case r.ch <- record:
	default:
		r.dropped.Add(1)
	}
}

// Dropped returns how many records were discarded under pressure.
func (r *Recorder) Dropped() int64 {
	return r.dropped.Load()
}

func (r *Recorder) run() {
	defer close(r.done)

	batch := make([]models.UsageRecord, 0, r.batchSize)
	ticker := time.NewTicker(r.flushEvery)
	defer ticker.Stop()

	for {
		select {
		case record := <-r.ch:
			batch = append(batch, record)
			if len(batch) >= r.batchSize {
				r.flush(batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				r.flush(batch)
				batch = batch[:0]
			}
		case <-r.stop:
			for {
				select {
				case record := <-r.ch:
					batch = append(batch, record)
					continue
				default:
				}
				break
			}
			if len(batch) > 0 {
				r.flush(batch)
			}
			return
		}
	}
}

func (r *Recorder) flush(batch []models.UsageRecord) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	records := make([]models.UsageRecord, len(batch))
	copy(records, batch)

	if err := r.sink.CreateBatch(ctx, records); err != nil {
		// Usage persistence must never surface to request handling
		log.Printf("Failed to insert usage records: %v", err)
	}
}
