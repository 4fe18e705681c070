package main

import (
	"os"

	"github.com/danmuck/kmodctl/internal/cli"
	"github.com/danmuck/kmodctl/internal/observability"
	"github.com/rs/zerolog/log"
)

func main() {
	observability.InitLogger("kmodctl")
	if err := cli.NewRootCommand().Execute(); err != nil {
		log.Error().Err(err).Msg("kmodctl failed")
		os.Exit(cli.GetExitCode(err))
	}
}
