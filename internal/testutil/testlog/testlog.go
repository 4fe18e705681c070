package testlog

import (
	"testing"

	"github.com/danmuck/kmodctl/internal/logging"
	"github.com/rs/zerolog/log"
)

// Start applies the test logging profile and marks the test in the log.
func Start(t *testing.T) {
	t.Helper()
	logging.ConfigureTests()
	log.Debug().Str("test", t.Name()).Msg("start")
}
