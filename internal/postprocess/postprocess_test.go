package postprocess

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cats-rs/twitch-scrapurr/internal/config"
	"github.com/cats-rs/twitch-scrapurr/internal/fsutil"
)

type fakeConverter struct {
	calls    []string
	reencode bool
	err      error
}

func (f *fakeConverter) Convert(_ context.Context, inPath, outPath string, reencode bool) error {
	f.calls = append(f.calls, inPath)
	f.reencode = reencode
	if f.err != nil {
		return f.err
	}
	return os.WriteFile(outPath, []byte("mp4"), 0o644)
}

type fakeSheets struct {
	calls []string
	err   error
}

func (f *fakeSheets) Generate(_ context.Context, videoPath string) (string, error) {
	f.calls = append(f.calls, videoPath)
	if f.err != nil {
		return "", f.err
	}
	sheet := fsutil.WithExt(videoPath, ".jpg")
	return sheet, os.WriteFile(sheet, []byte("jpg"), 0o644)
}

func settings(convert, reencode, sheet bool) config.Settings {
	return config.Settings{
		OutputDirectory:      "/unused",
		ConvertToMP4:         convert,
		UseFFmpegConvert:     reencode,
		GenerateContactSheet: sheet,
		CheckIntervalSeconds: 60,
	}
}

func writeCapture(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "cap.ts")
	require.NoError(t, os.WriteFile(path, []byte("raw bytes"), 0o644))
	return path
}

func TestRunSkipsEmptyArtifact(t *testing.T) {
	conv := &fakeConverter{}
	sheets := &fakeSheets{}
	p := New(settings(true, false, true), conv, sheets)

	res := p.Run(context.Background(), filepath.Join(t.TempDir(), "missing.ts"))

	assert.True(t, res.Skipped)
	assert.Empty(t, conv.calls, "converter must not run on a missing artifact")
	assert.Empty(t, sheets.calls, "sheet maker must not run on a missing artifact")
}

func TestRunSkipsZeroByteArtifact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cap.ts")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	conv := &fakeConverter{}
	sheets := &fakeSheets{}
	res := New(settings(true, true, true), conv, sheets).Run(context.Background(), path)

	assert.True(t, res.Skipped)
	assert.Empty(t, conv.calls)
	assert.Empty(t, sheets.calls)
}

func TestRunConvertThenSheetFromMP4(t *testing.T) {
	path := writeCapture(t)
	conv := &fakeConverter{}
	sheets := &fakeSheets{}

	res := New(settings(true, true, true), conv, sheets).Run(context.Background(), path)

	require.False(t, res.Skipped)
	assert.Equal(t, fsutil.WithExt(path, ".mp4"), res.MP4Path)
	assert.True(t, conv.reencode, "use_ffmpeg_convert selects the re-encode pass")
	require.Len(t, sheets.calls, 1)
	assert.Equal(t, res.MP4Path, sheets.calls[0], "sheet samples the converted file")
	assert.Equal(t, fsutil.WithExt(path, ".jpg"), res.SheetPath)
	assert.FileExists(t, path, "raw capture is retained")
}

func TestRunRemuxByDefault(t *testing.T) {
	path := writeCapture(t)
	conv := &fakeConverter{}

	res := New(settings(true, false, false), conv, &fakeSheets{}).Run(context.Background(), path)

	assert.False(t, conv.reencode, "conversion defaults to a stream-copy remux")
	assert.NotEmpty(t, res.MP4Path)
	assert.Empty(t, res.SheetPath)
}

func TestRunSheetFallsBackToRawOnConvertFailure(t *testing.T) {
	path := writeCapture(t)
	conv := &fakeConverter{err: errors.New("muxer rejected stream")}
	sheets := &fakeSheets{}

	res := New(settings(true, false, true), conv, sheets).Run(context.Background(), path)

	assert.Error(t, res.ConvertErr)
	assert.Empty(t, res.MP4Path)
	require.Len(t, sheets.calls, 1)
	assert.Equal(t, path, sheets.calls[0], "sheet falls back to the raw capture")
	assert.NotEmpty(t, res.SheetPath)
	assert.FileExists(t, path)
}

func TestRunStepFailuresAreIndependent(t *testing.T) {
	path := writeCapture(t)
	conv := &fakeConverter{}
	sheets := &fakeSheets{err: errors.New("probe failed")}

	res := New(settings(true, false, true), conv, sheets).Run(context.Background(), path)

	assert.NoError(t, res.ConvertErr)
	assert.NotEmpty(t, res.MP4Path)
	assert.Error(t, res.SheetErr)
	assert.Empty(t, res.SheetPath)
	assert.FileExists(t, path)
}

func TestRunSheetOnlyUsesRawCapture(t *testing.T) {
	path := writeCapture(t)
	conv := &fakeConverter{}
	sheets := &fakeSheets{}

	res := New(settings(false, false, true), conv, sheets).Run(context.Background(), path)

	assert.Empty(t, conv.calls, "conversion disabled")
	require.Len(t, sheets.calls, 1)
	assert.Equal(t, path, sheets.calls[0])
	assert.NotEmpty(t, res.SheetPath)
}
