package assistant

import (
	"context"
	stderrors "errors"
	"io"
	"iter"
	"strings"
	"time"

	"rental-marketplace/internal/common/errors"
	"rental-marketplace/internal/common/logger"
	"rental-marketplace/internal/common/metrics"
)

var errEmptyResponse = stderrors.New("empty response from model")

// FlushWriter is a response writer that can push buffered bytes to the client.
type FlushWriter interface {
	io.Writer
	Flush()
}

// Transcript is what a stream delivered.
type Transcript struct {
	Text   string
	Chunks int
}

// Relay forwards generated text to callers under a deadline.
type Relay struct {
	gen           Generator
	timeout       time.Duration
	streamTimeout time.Duration
	logger        logger.Logger
}

func NewRelay(gen Generator, timeout, streamTimeout time.Duration, log logger.Logger) *Relay {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if streamTimeout <= 0 {
		streamTimeout = 2 * time.Minute
	}
	return &Relay{gen: gen, timeout: timeout, streamTimeout: streamTimeout, logger: log}
}

// Buffered returns the whole generated text at once.
func (r *Relay) Buffered(ctx context.Context, p Prompt) (string, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	text, err := r.gen.Generate(ctx, p)
	if err == nil && strings.TrimSpace(text) == "" {
		err = errEmptyResponse
	}
	if err != nil {
		stdErr := r.classify(ctx, err, r.timeout)
		r.observe(p.Feature, "buffered", string(stdErr.Code), start)
		return "", stdErr
	}

	r.observe(p.Feature, "buffered", "ok", start)
	return text, nil
}

// Stream writes chunks to w as they arrive, flushing after each one.
// begin runs once, right before the first chunk is written; if the stream fails
// before that point nothing has been written and the error can still be reported
// as a normal response. A failure after the first chunk ends the stream with an
// AI_STREAM_INTERRUPTED error and the partial transcript.
func (r *Relay) Stream(ctx context.Context, p Prompt, begin func(), w FlushWriter) (*Transcript, error) {
	start := time.Now()
	ctx, cancel := context.WithTimeout(ctx, r.streamTimeout)
	defer cancel()

	next, stop := iter.Pull2(r.gen.Stream(ctx, p))
	defer stop()

	chunk, err, ok := next()
	if !ok {
		err = errEmptyResponse
	}
	if err != nil {
		stdErr := r.classify(ctx, err, r.streamTimeout)
		r.observe(p.Feature, "stream", string(stdErr.Code), start)
		return nil, stdErr
	}

	if begin != nil {
		begin()
	}

	var sb strings.Builder
	tr := &Transcript{}
	for {
		if _, werr := io.WriteString(w, chunk); werr != nil {
			return r.interrupted(ctx, p, tr, &sb, werr, start)
		}
		w.Flush()
		sb.WriteString(chunk)
		tr.Chunks++
		metrics.AIStreamChunks.WithLabelValues(p.Feature).Inc()

		chunk, err, ok = next()
		if !ok {
			break
		}
		if err != nil {
			return r.interrupted(ctx, p, tr, &sb, err, start)
		}
	}

	tr.Text = sb.String()
	r.observe(p.Feature, "stream", "ok", start)
	return tr, nil
}

func (r *Relay) interrupted(ctx context.Context, p Prompt, tr *Transcript, sb *strings.Builder, cause error, start time.Time) (*Transcript, error) {
	tr.Text = sb.String()
	if stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		cause = errors.NewAITimeoutError(r.streamTimeout)
	}
	r.logger.WithContext(ctx).Warn("AI stream interrupted", map[string]interface{}{
		"feature":   p.Feature,
		"chunks":    tr.Chunks,
		"delivered": len(tr.Text),
		"error":     cause.Error(),
	})
	r.observe(p.Feature, "stream", string(errors.ErrCodeAIStreamInterrupted), start)
	return tr, errors.NewAIStreamInterruptedError(len(tr.Text), cause)
}

func (r *Relay) classify(ctx context.Context, err error, timeout time.Duration) *errors.StandardError {
	var stdErr *errors.StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr
	}
	if stderrors.Is(err, context.DeadlineExceeded) || stderrors.Is(ctx.Err(), context.DeadlineExceeded) {
		return errors.NewAITimeoutError(timeout)
	}
	return errors.NewAIGenerationFailedError(err)
}

func (r *Relay) observe(feature, mode, outcome string, start time.Time) {
	metrics.AIRequestDuration.WithLabelValues(feature, mode, outcome).Observe(time.Since(start).Seconds())
}
