package cmd_test

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dashindex/cmd/dashindex/cmd"
	"dashindex/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const twoPeriodMPD = `<?xml version="1.0" encoding="UTF-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" type="static" mediaPresentationDuration="PT10S" minBufferTime="PT2S" profiles="urn:mpeg:dash:profile:isoff-live:2011">
  <BaseURL>https://cdn.example.com/vod/</BaseURL>
  <Period id="intro" duration="PT4S">
    <AdaptationSet contentType="video" mimeType="video/mp4">
      <SegmentTemplate timescale="1" duration="2" media="intro/$RepresentationID$-$Number$.m4s" initialization="intro/$RepresentationID$.mp4"/>
      <Representation id="intro-lo" bandwidth="500000" codecs="avc1.4d401e" width="640" height="360"/>
      <Representation id="intro-hi" bandwidth="2000000" codecs="avc1.640028" width="1920" height="1080"/>
    </AdaptationSet>
  </Period>
  <Period id="main">
    <AdaptationSet contentType="video" mimeType="video/mp4">
      <SegmentTemplate timescale="1" duration="3" media="main/$RepresentationID$-$Number$.m4s"/>
      <Representation id="main-lo" bandwidth="500000" codecs="avc1.4d401e"/>
    </AdaptationSet>
    <AdaptationSet contentType="audio" mimeType="audio/mp4">
      <SegmentTemplate timescale="1" duration="3" media="main/$RepresentationID$-$Number$.m4s"/>
      <Representation id="main-aac" bandwidth="96000" codecs="mp4a.40.2"/>
    </AdaptationSet>
  </Period>
</MPD>`

const liveMPD = `<?xml version="1.0" encoding="UTF-8"?>
<MPD xmlns="urn:mpeg:dash:schema:mpd:2011" type="dynamic" availabilityStartTime="2024-05-01T12:00:00Z" timeShiftBufferDepth="PT6S" minimumUpdatePeriod="PT2S" minBufferTime="PT2S" profiles="urn:mpeg:dash:profile:isoff-live:2011">
  <BaseURL>https://cdn.example.com/live/</BaseURL>
  <Period id="live" start="PT0S">
    <AdaptationSet contentType="video" mimeType="video/mp4">
      <SegmentTemplate timescale="1" duration="2" startNumber="1" media="$Number$.m4s"/>
      <Representation id="v" bandwidth="1000000"/>
    </AdaptationSet>
  </Period>
</MPD>`

func writeMPD(t *testing.T, doc string) string {
	t.Helper()
	dir := t.TempDir()
	chdir(t, dir)
	path := filepath.Join(dir, "manifest.mpd")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	root := cmd.NewRootCommand()
	var stdout, stderr bytes.Buffer
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), err
}

func TestInfo(t *testing.T) {
	path := writeMPD(t, twoPeriodMPD)
	out, err := run(t, "info", path, "-o", "json")
	require.NoError(t, err)

	var summary models.ManifestSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	require.Len(t, summary.Periods, 2)
	assert.Equal(t, int64(4_000), summary.Periods[0].DurationMs)
	assert.Equal(t, int64(6_000), summary.Periods[1].DurationMs)
	require.Len(t, summary.Periods[1].Representations, 2)
	aac := summary.Periods[1].Representations[1]
	assert.Equal(t, "1/1/0", aac.Key)
	assert.Equal(t, "audio", aac.Type)
	assert.Equal(t, int64(2), aac.Segments)
}

func TestSegments(t *testing.T) {
	path := writeMPD(t, twoPeriodMPD)

	t.Run("text", func(t *testing.T) {
		out, err := run(t, "segments", path, "--rep", "intro-hi")
		require.NoError(t, err)
		lines := strings.Split(strings.TrimSpace(out), "\n")
		require.Len(t, lines, 4)
		assert.Contains(t, lines[1], "https://cdn.example.com/vod/intro/intro-hi.mp4")
		assert.Contains(t, lines[3], "https://cdn.example.com/vod/intro/intro-hi-2.m4s")
	})

	t.Run("yaml", func(t *testing.T) {
		out, err := run(t, "segments", path, "--rep", "main-lo", "-o", "yaml")
		require.NoError(t, err)
		assert.Contains(t, out, "url: https://cdn.example.com/vod/main/main-lo-2.m4s")
		assert.Contains(t, out, "period_index: 1")
	})

	t.Run("unknown representation", func(t *testing.T) {
		_, err := run(t, "segments", path, "--rep", "nope")
		assert.ErrorContains(t, err, `representation "nope" not found`)
	})
}

func TestSegments_Live(t *testing.T) {
	path := writeMPD(t, liveMPD)
	out, err := run(t, "segments", path, "--now", "2024-05-01T12:01:01Z", "-o", "json")
	require.NoError(t, err)

	var report models.SegmentReport
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.True(t, report.Dynamic)
	require.Len(t, report.Representations, 1)
	segments := report.Representations[0].Segments
	require.Len(t, segments, 3)
	assert.Equal(t, int64(28), segments[0].Number)
	assert.Equal(t, "https://cdn.example.com/live/30.m4s", segments[2].URL)
}

func TestPrune(t *testing.T) {
	path := writeMPD(t, twoPeriodMPD)
	out, err := run(t, "prune", path, "--key", "1/1/0", "--key", "7/0/0", "-o", "json")
	require.NoError(t, err)

	var summary models.ManifestSummary
	require.NoError(t, json.Unmarshal([]byte(out), &summary))
	assert.Equal(t, int64(6_000), summary.DurationMs)
	require.Len(t, summary.Periods, 1)
	assert.Equal(t, int64(0), summary.Periods[0].StartMs)
	require.Len(t, summary.Periods[0].Representations, 1)
	assert.Equal(t, "main-aac", summary.Periods[0].Representations[0].ID)

	_, err = run(t, "prune", path)
	assert.ErrorContains(t, err, "--key")
	_, err = run(t, "prune", path, "--key", "1/x/0")
	assert.Error(t, err)
}

func TestPlaylist(t *testing.T) {
	path := writeMPD(t, twoPeriodMPD)

	out, err := run(t, "playlist", path, "--rep", "intro-lo")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "#EXTM3U"))
	assert.Contains(t, out, "https://cdn.example.com/vod/intro/intro-lo-2.m4s")
	assert.Contains(t, out, "#EXT-X-ENDLIST")

	out, err = run(t, "playlist", path, "--master")
	require.NoError(t, err)
	assert.Contains(t, out, "intro-hi.m3u8")
	assert.Contains(t, out, "RESOLUTION=1920x1080")

	_, err = run(t, "playlist", path)
	assert.Error(t, err)
	_, err = run(t, "playlist", path, "--rep", "intro-lo", "--master")
	assert.Error(t, err)
}

func TestConfigPrecedence(t *testing.T) {
	path := writeMPD(t, twoPeriodMPD)
	cfg := filepath.Join(filepath.Dir(path), "dashindex.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("output:\n  format: yaml\n"), 0o644))

	out, err := run(t, "info", path)
	require.NoError(t, err)
	assert.Contains(t, out, "periods:")

	out, err = run(t, "info", path, "-o", "json")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "{"))

	_, err = run(t, "info", path, "--log-level", "loud")
	assert.ErrorContains(t, err, "logging.level")
}

// chdir changes the working directory for the duration of the test,
// restoring it on cleanup (equivalent to testing.T.Chdir in Go 1.24+).
func chdir(t *testing.T, dir string) {
	t.Helper()
	old, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() {
		if err := os.Chdir(old); err != nil {
			t.Fatal(err)
		}
	})
}
