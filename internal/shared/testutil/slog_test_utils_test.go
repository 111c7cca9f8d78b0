package testutil

import (
	"log/slog"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBufferedSlogHandler(t *testing.T) {
	t.Run("captures log records", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.Info("test message", slog.String("key", "value"))
		logger.Error("error message", slog.Int("code", 500))

		assert.Len(t, handler.GetRecords(), 2)
		assert.True(t, handler.ContainsMessage("test message"))
		assert.True(t, handler.ContainsAttr("key", "value"))
		assert.Len(t, handler.GetRecordsByLevel(slog.LevelError), 1)
	})

	t.Run("derived loggers share records and keep attrs", func(t *testing.T) {
		logger, handler := NewTestLogger(t)

		logger.With(slog.String("component", "calculator")).Info("loaded")
		logger.WithGroup("panel").Info("computed", slog.Int("results", 11))

		require.Equal(t, 2, handler.Count())
		assert.True(t, handler.ContainsAttr("component", "calculator"))
		assert.True(t, handler.ContainsAttr("panel.results", int64(11)))
	})

	t.Run("clear", func(t *testing.T) {
		logger, handler := NewTestLogger(t)
		logger.Info("message 1")
		logger.Info("message 2")
		require.Equal(t, 2, handler.Count())

		handler.Clear()
		assert.Zero(t, handler.Count())
	})

	t.Run("assertion helpers", func(t *testing.T) {
		logger, handler := NewTestLogger(t)
		logger.Info("important message", slog.String("component", "test"))

		AssertLogContains(t, handler, slog.LevelInfo, "important")
		AssertLogAttr(t, handler, "component", "test")
		AssertNoErrors(t, handler)
	})

	t.Run("thread safety", func(t *testing.T) {
		logger, handler := NewTestLogger(nil)

		var wg sync.WaitGroup
		for i := 0; i < 10; i++ {
			wg.Add(1)
			go func(n int) {
				defer wg.Done()
				logger.Info("concurrent log", slog.Int("goroutine", n))
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 10, handler.Count())
	})
}

func TestObservationFixtures(t *testing.T) {
	assert.Equal(t, `2010;"IT";h1;A;1;0.5`, Row(2010, "IT", "h1", "A", true, 0.5))
	assert.Equal(t, `2011;"FR";h2;B;0;0`, Row(2011, "FR", "h2", "B", false, 0))

	content := ThreeYearPanel()
	assert.Contains(t, content, ObservationsHeader+"\n")

	path := WriteObservations(t, content)
	assert.FileExists(t, path)
}
