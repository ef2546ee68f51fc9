package shipper

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/carepulse/carepulse/analyzer/internal/config"
	"github.com/carepulse/carepulse/pkg/types"
)

const (
	analyzePath = "/api/v1/analyze"

	backoffInitial    = 1 * time.Second
	backoffMax        = 60 * time.Second
	backoffMultiplier = 2.0

	// DefaultBufferSize bounds the number of batches queued while the
	// server is unreachable.
	DefaultBufferSize = 64
)

// ErrRejected wraps 4xx answers. The batch itself is at fault, so it is
// never retried.
var ErrRejected = errors.New("shipper: batch rejected")

// apiError is the server's error body.
type apiError struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// Shipper posts raw batches to carepulse-server. Send is synchronous; Ship
// queues for the background Run loop, evicting the oldest batch when full.
type Shipper struct {
	client *resty.Client
	source string
	buf    chan *types.Batch
}

// New builds a Shipper for target. source names this analyzer in stored runs.
func New(target config.ServerTarget, source string, bufferSize int) *Shipper {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	c := resty.New().
		SetBaseURL(target.Endpoint).
		SetTimeout(target.Timeout).
		SetRetryCount(target.Retries).
		SetRetryWaitTime(target.RetryWait).
		SetRetryMaxWaitTime(target.RetryMaxWait).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		AddRetryCondition(func(r *resty.Response, err error) bool {
			if err != nil {
				return true
			}
			return r.StatusCode() == http.StatusTooManyRequests || r.StatusCode() >= 500
		})

	switch target.Auth.Mode {
	case "apikey":
		c.SetHeader(target.Auth.Header, target.Auth.Key())
	case "bearer":
		c.SetAuthToken(target.Auth.Token())
	}

	return &Shipper{
		client: c,
		source: source,
		buf:    make(chan *types.Batch, bufferSize),
	}
}

// NewBatch stamps rows with a fresh batch id.
func (s *Shipper) NewBatch(patients []types.Row, hospital types.Row) *types.Batch {
	return &types.Batch{
		BatchID:  uuid.NewString(),
		Source:   s.source,
		Patients: patients,
		Hospital: hospital,
	}
}

// Send posts b and returns the stored run id. Network failures, 429 and 5xx
// answers are retried by the client; 4xx answers wrap ErrRejected.
func (s *Shipper) Send(ctx context.Context, b *types.Batch) (string, error) {
	var run types.RunSummary
	resp, err := s.client.R().
		SetContext(ctx).
		SetBody(b).
		SetResult(&run).
		SetError(&apiError{}).
		Post(analyzePath)
	if err != nil {
		return "", fmt.Errorf("shipper: post: %w", err)
	}
	if resp.IsError() {
		msg := resp.Status()
		if e, ok := resp.Error().(*apiError); ok && e.Error != "" {
			msg = e.Code + ": " + e.Error
		}
		if resp.StatusCode() >= 400 && resp.StatusCode() < 500 && resp.StatusCode() != http.StatusTooManyRequests {
			return "", fmt.Errorf("%w: %s", ErrRejected, msg)
		}
		return "", fmt.Errorf("shipper: server error: %s", msg)
	}
	log.Debug().Str("batch", b.BatchID).Str("run", run.ID).Msg("shipper: batch delivered")
	return run.ID, nil
}

// Ship enqueues b without blocking.
func (s *Shipper) Ship(b *types.Batch) {
	select {
	case s.buf <- b:
	default:
		select {
		case old := <-s.buf:
			log.Warn().Str("batch", old.BatchID).Int("buffer_cap", cap(s.buf)).
				Msg("shipper: buffer full, evicted oldest batch")
		default:
		}
		s.buf <- b
	}
}

// Run drains the queue until ctx is cancelled, backing off after transient
// failures. Rejected batches are logged and dropped.
func (s *Shipper) Run(ctx context.Context) {
	bo := newBackoff()
	for {
		select {
		case <-ctx.Done():
			return
		case b := <-s.buf:
			_, err := s.Send(ctx, b)
			switch {
			case err == nil:
				bo.reset()
				continue
			case errors.Is(err, ErrRejected):
				log.Error().Err(err).Str("batch", b.BatchID).Msg("shipper: discarding rejected batch")
				continue
			case ctx.Err() != nil:
				return
			}

			s.requeue(b)
			wait := bo.next()
			log.Warn().Err(err).Str("batch", b.BatchID).Dur("retry_in", wait).Msg("shipper: send failed, will retry")
			select {
			case <-ctx.Done():
				return
			case <-time.After(wait):
			}
		}
	}
}

func (s *Shipper) requeue(b *types.Batch) {
	select {
	case s.buf <- b:
	default:
		log.Warn().Str("batch", b.BatchID).Msg("shipper: buffer full, dropping failed batch")
	}
}

// backoff implements truncated exponential backoff with jitter.
type backoff struct {
	current time.Duration
}

func newBackoff() *backoff {
	return &backoff{current: backoffInitial}
}

// next returns the current backoff duration with ±25% jitter and advances.
func (b *backoff) next() time.Duration {
	d := b.current
	jitter := time.Duration(float64(b.current) * 0.25 * (rand.Float64()*2 - 1)) //nolint:gosec // not crypto
	d += jitter
	if d < 0 {
		d = 0
	}

	b.current = time.Duration(float64(b.current) * backoffMultiplier)
	if b.current > backoffMax {
		b.current = backoffMax
	}
	return d
}

func (b *backoff) reset() {
	b.current = backoffInitial
}
