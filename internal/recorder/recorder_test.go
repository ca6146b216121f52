package recorder

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/cats-rs/twitch-scrapurr/internal/config"
	"github.com/cats-rs/twitch-scrapurr/internal/postprocess"
	"github.com/cats-rs/twitch-scrapurr/internal/streamlink"
	"github.com/cats-rs/twitch-scrapurr/internal/target"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// fakeClock returns immediately from After and records every requested
// sleep so poll cadence is observable.
type fakeClock struct {
	mu     sync.Mutex
	now    time.Time
	sleeps []time.Duration
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	c.sleeps = append(c.sleeps, d)
	c.mu.Unlock()
	ch := make(chan time.Time, 1)
	ch <- c.now
	return ch
}

func (c *fakeClock) recorded() []time.Duration {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]time.Duration(nil), c.sleeps...)
}

// scriptProber plays back a fixed live/offline sequence; onCall hooks let
// tests end the loop.
type scriptProber struct {
	results []bool
	errs    []error
	calls   int
	onCall  func(n int)
}

func (p *scriptProber) IsLive(_ context.Context, _ string) (bool, error) {
	n := p.calls
	p.calls++
	if p.onCall != nil {
		p.onCall(p.calls)
	}
	var err error
	if n < len(p.errs) {
		err = p.errs[n]
	}
	if n < len(p.results) {
		return p.results[n], err
	}
	return false, err
}

type captureCall struct {
	args    []string
	outPath string
}

type fakeCapturer struct {
	calls  []captureCall
	run    func(ctx context.Context, outPath string) streamlink.Result
	result streamlink.Result
}

func (c *fakeCapturer) Capture(ctx context.Context, args []string, outPath string) streamlink.Result {
	c.calls = append(c.calls, captureCall{args: args, outPath: outPath})
	if c.run != nil {
		return c.run(ctx, outPath)
	}
	return c.result
}

type pipelineCall struct {
	path   string
	ctxErr error
}

type fakePipeline struct {
	calls []pipelineCall
}

func (p *fakePipeline) Run(ctx context.Context, tsPath string) postprocess.Result {
	p.calls = append(p.calls, pipelineCall{path: tsPath, ctxErr: ctx.Err()})
	return postprocess.Result{MP4Path: tsPath + ".mp4"}
}

func testSettings(interval int) config.Settings {
	return config.Settings{
		OutputDirectory:      "/unused",
		ConvertToMP4:         true,
		UseFFmpegConvert:     false,
		GenerateContactSheet: true,
		CheckIntervalSeconds: interval,
	}
}

func plainNotify(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithCancel(parent)
}

func TestRecordCapturesOnFourthCheck(t *testing.T) {
	outDir := t.TempDir()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	clock := &fakeClock{now: time.Date(2024, time.December, 25, 21, 30, 0, 0, time.Local)}
	prober := &scriptProber{
		// Three offline cycles, live on the fourth, then the test ends
		// the session.
		results: []bool{false, false, false, true},
		onCall: func(n int) {
			if n == 5 {
				cancel()
			}
		},
	}
	capturer := &fakeCapturer{result: streamlink.Result{Status: streamlink.StatusCompleted, BytesWritten: 1024}}
	pipeline := &fakePipeline{}

	ch, err := target.NewChannel("teststreamer")
	require.NoError(t, err)

	s := New(testSettings(5), outDir, prober, capturer, pipeline,
		WithClock(clock), WithNotify(plainNotify))
	require.NoError(t, s.Record(ctx, ch))

	// Each of the three offline checks sleeps the configured interval
	// before the next probe.
	sleeps := clock.recorded()
	require.GreaterOrEqual(t, len(sleeps), 3)
	for _, d := range sleeps[:3] {
		assert.Equal(t, 5*time.Second, d)
	}

	require.Len(t, capturer.calls, 1, "exactly one capture for one live transition")
	wantPath := ch.CapturePath(outDir, clock.now)
	assert.Equal(t, wantPath, capturer.calls[0].outPath)
	assert.Equal(t, streamlink.BuildCaptureArgs(ch.URL(), wantPath), capturer.calls[0].args)

	require.Len(t, pipeline.calls, 1)
	assert.Equal(t, wantPath, pipeline.calls[0].path)
	assert.DirExists(t, filepath.Join(outDir, "teststreamer", "vods"))
}

func TestRecordIdleInterruptExitsWithoutPostProcessing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	prober := &scriptProber{}
	pipeline := &fakePipeline{}
	ch, err := target.NewChannel("someone")
	require.NoError(t, err)

	s := New(testSettings(5), t.TempDir(), prober, &fakeCapturer{}, pipeline,
		WithClock(&fakeClock{}), WithNotify(plainNotify))
	require.NoError(t, s.Record(ctx, ch))

	assert.Zero(t, prober.calls, "no probe after cancellation")
	assert.Empty(t, pipeline.calls)
}

func TestRecordInterruptedCaptureStillPostProcesses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prober := &scriptProber{results: []bool{true}}
	capturer := &fakeCapturer{
		run: func(_ context.Context, _ string) streamlink.Result {
			// Simulate the interrupt arriving mid-capture.
			cancel()
			return streamlink.Result{Status: streamlink.StatusInterrupted, BytesWritten: 42}
		},
	}
	pipeline := &fakePipeline{}
	ch, err := target.NewChannel("someone")
	require.NoError(t, err)

	s := New(testSettings(5), t.TempDir(), prober, capturer, pipeline,
		WithClock(&fakeClock{}), WithNotify(plainNotify))
	require.NoError(t, s.Record(ctx, ch))

	assert.Equal(t, 1, prober.calls, "session ends after the interrupted capture")
	require.Len(t, pipeline.calls, 1)
	assert.NoError(t, pipeline.calls[0].ctxErr,
		"post-processing must run under a context the interrupt did not cancel")
}

func TestRecordFailedEmptyCaptureSkipsPostProcessing(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prober := &scriptProber{
		results: []bool{true, false},
		onCall: func(n int) {
			if n == 2 {
				cancel()
			}
		},
	}
	capturer := &fakeCapturer{result: streamlink.Result{
		Status: streamlink.StatusFailed,
		Err:    errors.New("no playable streams"),
	}}
	pipeline := &fakePipeline{}
	ch, err := target.NewChannel("someone")
	require.NoError(t, err)

	s := New(testSettings(5), t.TempDir(), prober, capturer, pipeline,
		WithClock(&fakeClock{}), WithNotify(plainNotify))
	require.NoError(t, s.Record(ctx, ch))

	assert.Len(t, capturer.calls, 1)
	assert.Empty(t, pipeline.calls, "nothing captured, nothing to process")
	assert.Equal(t, 2, prober.calls, "a failed capture leaves the loop polling")
}

func TestRecordFailedCaptureWithPartialBytesStillPostProcesses(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prober := &scriptProber{
		results: []bool{true},
		onCall: func(n int) {
			if n == 2 {
				cancel()
			}
		},
	}
	capturer := &fakeCapturer{result: streamlink.Result{
		Status:       streamlink.StatusFailed,
		BytesWritten: 512,
		Err:          errors.New("stream dropped"),
	}}
	pipeline := &fakePipeline{}
	ch, err := target.NewChannel("someone")
	require.NoError(t, err)

	s := New(testSettings(5), t.TempDir(), prober, capturer, pipeline,
		WithClock(&fakeClock{}), WithNotify(plainNotify))
	require.NoError(t, s.Record(ctx, ch))

	// Captured bytes are never discarded, even after a failed exit.
	require.Len(t, pipeline.calls, 1)
}

func TestRecordProbeErrorCountsAsOffline(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	prober := &scriptProber{
		results: []bool{false, false},
		errs:    []error{errors.New("streamlink not startable"), nil},
		onCall: func(n int) {
			if n == 2 {
				cancel()
			}
		},
	}
	pipeline := &fakePipeline{}
	ch, err := target.NewChannel("someone")
	require.NoError(t, err)

	s := New(testSettings(5), t.TempDir(), prober, &fakeCapturer{}, pipeline,
		WithClock(&fakeClock{}), WithNotify(plainNotify))
	require.NoError(t, s.Record(ctx, ch))

	assert.Equal(t, 2, prober.calls, "probe failure is retried, not fatal")
	assert.Empty(t, pipeline.calls)
}

func TestDownloadClip(t *testing.T) {
	outDir := t.TempDir()
	v, err := target.ParseVideoURL("https://clips.twitch.tv/SomeSlug")
	require.NoError(t, err)

	prober := &scriptProber{}
	capturer := &fakeCapturer{result: streamlink.Result{Status: streamlink.StatusCompleted, BytesWritten: 2048}}
	pipeline := &fakePipeline{}

	s := New(testSettings(5), outDir, prober, capturer, pipeline,
		WithClock(&fakeClock{}), WithNotify(plainNotify))
	require.NoError(t, s.Download(context.Background(), v))

	assert.Zero(t, prober.calls, "download mode never polls")
	require.Len(t, capturer.calls, 1)
	wantPath := filepath.Join(outDir, "clips", "SomeSlug.ts")
	assert.Equal(t, wantPath, capturer.calls[0].outPath)
	assert.Equal(t, streamlink.BuildDownloadArgs(v, wantPath), capturer.calls[0].args)
	require.Len(t, pipeline.calls, 1)
	assert.Equal(t, wantPath, pipeline.calls[0].path)
	assert.DirExists(t, filepath.Join(outDir, "clips"))
}

func TestDownloadFailedEmptyIsAnError(t *testing.T) {
	v, err := target.ParseVideoURL("https://www.twitch.tv/videos/123")
	require.NoError(t, err)

	capturer := &fakeCapturer{result: streamlink.Result{
		Status: streamlink.StatusFailed,
		Err:    errors.New("unable to open URL"),
	}}
	pipeline := &fakePipeline{}

	s := New(testSettings(5), t.TempDir(), &scriptProber{}, capturer, pipeline,
		WithClock(&fakeClock{}), WithNotify(plainNotify))
	err = s.Download(context.Background(), v)

	require.Error(t, err)
	assert.Empty(t, pipeline.calls)
}

func TestDownloadFailedPartialPostProcessesAndReportsError(t *testing.T) {
	v, err := target.ParseVideoURL("https://www.twitch.tv/videos/123")
	require.NoError(t, err)

	capturer := &fakeCapturer{result: streamlink.Result{
		Status:       streamlink.StatusFailed,
		BytesWritten: 4096,
		Err:          errors.New("connection reset"),
	}}
	pipeline := &fakePipeline{}

	s := New(testSettings(5), t.TempDir(), &scriptProber{}, capturer, pipeline,
		WithClock(&fakeClock{}), WithNotify(plainNotify))
	err = s.Download(context.Background(), v)

	require.Error(t, err, "the failed download is still reported")
	require.Len(t, pipeline.calls, 1, "partial bytes are still processed")
}
