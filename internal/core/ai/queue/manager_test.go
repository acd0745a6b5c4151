package queue

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"cookclip/internal/core/ai/provider"
	"cookclip/internal/infrastructure/config"
	"cookclip/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoProvider() provider.Provider {
	return provider.Func(func(_ context.Context, req *provider.Request) (*provider.Response, error) {
		return &provider.Response{Content: req.Messages[0].Content}, nil
	})
}

func TestGenerateRunsThroughWorkers(t *testing.T) {
	m := NewManager(echoProvider(), config.QueueConfig{Workers: 2, MaxSize: 10})
	defer m.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			resp, err := m.Generate(context.Background(), &provider.Request{Messages: []provider.Message{provider.User("hi")}})
			assert.NoError(t, err)
			assert.Equal(t, "hi", resp.Content)
		}()
	}
	wg.Wait()

	status := m.GetQueueStatus()
	assert.Equal(t, int64(8), status.ProcessedCount)
	assert.Equal(t, 2, status.Workers)
	assert.Equal(t, "func", m.GetModel())
}

func TestConcurrencyIsBoundedByWorkers(t *testing.T) {
	var inFlight, peak int32
	release := make(chan struct{})
	slow := provider.Func(func(context.Context, *provider.Request) (*provider.Response, error) {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		<-release
		atomic.AddInt32(&inFlight, -1)
		return &provider.Response{}, nil
	})

	m := NewManager(slow, config.QueueConfig{Workers: 2, MaxSize: 10})
	defer m.Close()

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = m.Generate(context.Background(), &provider.Request{})
		}()
	}

	require.Eventually(t, func() bool { return atomic.LoadInt32(&inFlight) == 2 }, time.Second, 5*time.Millisecond)
	close(release)
	wg.Wait()
	assert.Equal(t, int32(2), atomic.LoadInt32(&peak))
}

func TestGenerateRejectsWhenFull(t *testing.T) {
	started := make(chan struct{}, 1)
	release := make(chan struct{})
	blocking := provider.Func(func(context.Context, *provider.Request) (*provider.Response, error) {
		started <- struct{}{}
		<-release
		return &provider.Response{}, nil
	})

	m := NewManager(blocking, config.QueueConfig{Workers: 1, MaxSize: 1})
	defer m.Close()

	go func() { _, _ = m.Generate(context.Background(), &provider.Request{}) }()
	<-started
	go func() { _, _ = m.Generate(context.Background(), &provider.Request{}) }()
	require.Eventually(t, func() bool { return m.GetQueueStatus().QueueLength == 1 }, time.Second, 5*time.Millisecond)

	_, err := m.Generate(context.Background(), &provider.Request{})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.True(t, common.HasCode(err, common.ErrCodeTooManyRequests))

	close(release)
}

func TestGenerateHonoursCallerDeadline(t *testing.T) {
	hang := provider.Func(func(ctx context.Context, _ *provider.Request) (*provider.Response, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	})
	m := NewManager(hang, config.QueueConfig{Workers: 1, MaxSize: 1})
	defer m.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := m.Generate(ctx, &provider.Request{})
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestGenerateAfterClose(t *testing.T) {
	m := NewManager(echoProvider(), config.QueueConfig{Workers: 1, MaxSize: 1})
	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	_, err := m.Generate(context.Background(), &provider.Request{})
	assert.ErrorIs(t, err, ErrClosed)
}
