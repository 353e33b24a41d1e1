// Package ratelimiter throttles per-session transfer bandwidth using the
// token bucket algorithm from golang.org/x/time/rate.
//
// A TransferLimiter carries two independent buckets, one per direction.
// Limits come from the user's transfer-rate authority at login; a zero rate
// means the direction is unlimited.
package ratelimiter

import (
	"context"

	"golang.org/x/time/rate"
)

// TransferLimiter throttles one session's uploads and downloads.
//
// All methods are safe for concurrent use, although a control connection
// normally drives one transfer at a time.
type TransferLimiter struct {
	upload   *rate.Limiter
	download *rate.Limiter
}

// New creates a limiter with the given sustained rates in bytes per second.
// A zero rate leaves that direction unlimited. Burst capacity matches the
// sustained rate so a one second stall never grants more than one second of
// catch-up.
func New(uploadBytesPerSecond, downloadBytesPerSecond int) *TransferLimiter {
	return &TransferLimiter{
		upload:   newDirection(uploadBytesPerSecond),
		download: newDirection(downloadBytesPerSecond),
	}
}

func newDirection(bytesPerSecond int) *rate.Limiter {
	if bytesPerSecond <= 0 {
		return rate.NewLimiter(rate.Inf, 0)
	}
	return rate.NewLimiter(rate.Limit(bytesPerSecond), bytesPerSecond)
}

// WaitUpload blocks until n bytes of upload budget are available or the
// context is cancelled.
func (t *TransferLimiter) WaitUpload(ctx context.Context, n int) error {
	return waitN(ctx, t.upload, n)
}

// WaitDownload blocks until n bytes of download budget are available or the
// context is cancelled.
func (t *TransferLimiter) WaitDownload(ctx context.Context, n int) error {
	return waitN(ctx, t.download, n)
}

// waitN reserves n tokens in chunks no larger than the limiter's burst, so
// a single large buffer cannot exceed the bucket capacity and fail outright.
func waitN(ctx context.Context, l *rate.Limiter, n int) error {
	if l.Limit() == rate.Inf {
		return nil
	}
	burst := l.Burst()
	for n > 0 {
		chunk := n
		if chunk > burst {
			chunk = burst
		}
		if err := l.WaitN(ctx, chunk); err != nil {
			return err
		}
		n -= chunk
	}
	return nil
}

// UploadLimit returns the sustained upload rate in bytes per second, zero
// when unlimited.
func (t *TransferLimiter) UploadLimit() int {
	return limitOf(t.upload)
}

// DownloadLimit returns the sustained download rate in bytes per second,
// zero when unlimited.
func (t *TransferLimiter) DownloadLimit() int {
	return limitOf(t.download)
}

func limitOf(l *rate.Limiter) int {
	if l.Limit() == rate.Inf {
		return 0
	}
	return int(l.Limit())
}
