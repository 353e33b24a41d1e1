package ratelimiter

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLimits(t *testing.T) {
	tests := []struct {
		name         string
		upload       int
		download     int
		wantUpload   int
		wantDownload int
	}{
		{"both limited", 1000, 2000, 1000, 2000},
		{"upload only", 500, 0, 500, 0},
		{"download only", 0, 800, 0, 800},
		{"unlimited", 0, 0, 0, 0},
		{"negative treated as unlimited", -1, -5, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := New(tt.upload, tt.download)
			assert.Equal(t, tt.wantUpload, l.UploadLimit())
			assert.Equal(t, tt.wantDownload, l.DownloadLimit())
		})
	}
}

func TestUnlimitedNeverBlocks(t *testing.T) {
	l := New(0, 0)
	ctx := context.Background()

	assert.NoError(t, l.WaitUpload(ctx, 1<<30))
	assert.NoError(t, l.WaitDownload(ctx, 1<<30))
}

func TestWaitWithinBurst(t *testing.T) {
	// A fresh bucket holds one second of budget, so a request within
	// the burst returns without sleeping.
	l := New(4096, 4096)
	ctx := context.Background()

	require.NoError(t, l.WaitUpload(ctx, 4096))
	require.NoError(t, l.WaitDownload(ctx, 1024))
}

func TestWaitLargerThanBurst(t *testing.T) {
	// Requests above the bucket capacity are split into burst-sized
	// chunks instead of failing outright. The high rate keeps the test
	// from sleeping meaningfully.
	l := New(1<<20, 0)
	require.NoError(t, l.WaitUpload(context.Background(), 3<<20))
}

func TestWaitHonorsCancellation(t *testing.T) {
	l := New(1, 1)
	// Drain the initial burst so the next wait would have to sleep.
	require.NoError(t, l.WaitUpload(context.Background(), 1))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Error(t, l.WaitUpload(ctx, 1))
}

func TestDirectionsAreIndependent(t *testing.T) {
	l := New(1, 1<<20)
	ctx := context.Background()

	// Exhaust the upload bucket; downloads still proceed.
	require.NoError(t, l.WaitUpload(ctx, 1))
	assert.NoError(t, l.WaitDownload(ctx, 1<<20))
}
