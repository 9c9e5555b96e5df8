package observability

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func feedLogger(feed *Feed) *zap.Logger {
	return zap.New(feed)
}

func TestFeedDeliversFormattedLines(t *testing.T) {
	feed := NewFeed(8, zapcore.InfoLevel)
	logger := feedLogger(feed)

	logger.Info("answered question")

	select {
	case line := <-feed.Lines():
		assert.Regexp(t, `^\[\d{2}:\d{2}:\d{2}\] answered question$`, line)
	default:
		t.Fatal("expected a line on the feed")
	}
}

func TestFeedRespectsLevel(t *testing.T) {
	feed := NewFeed(8, zapcore.InfoLevel)
	logger := feedLogger(feed)

	logger.Debug("too quiet to surface")

	select {
	case line := <-feed.Lines():
		t.Fatalf("debug line leaked to the feed: %q", line)
	default:
	}
}

func TestFeedEvictsOldestWhenFull(t *testing.T) {
	feed := NewFeed(2, zapcore.InfoLevel)
	logger := feedLogger(feed)

	logger.Info("first")
	logger.Info("second")
	logger.Info("third")

	var lines []string
	for i := 0; i < 2; i++ {
		select {
		case line := <-feed.Lines():
			lines = append(lines, line)
		default:
			t.Fatal("expected two buffered lines")
		}
	}
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "second")
	assert.Contains(t, lines[1], "third")
}
