package main

import (
	"context"
	"fmt"

	"github.com/warmspace/signaler/pkg/config"
	"github.com/warmspace/signaler/pkg/logger"
	"github.com/warmspace/signaler/pkg/os"
	"github.com/warmspace/signaler/pkg/signaler"
)

var Version = "?"

func main() {
	conf := config.NewConfig()
	conf.ParseFlags()
	if conf.Version {
		fmt.Printf("signaler version %s\n", Version)
		return
	}

	log := logger.NewConsole(conf.Signaler.Debug, "sig", false)
	log.Info().Msgf("version %s", Version)
	if log.GetLevel() < logger.InfoLevel {
		log.Debug().Msgf("config: %+v", conf)
	}

	s := signaler.New(conf, log)
	s.Start()

	ctx, cancel := context.WithCancel(context.Background())
	defer func() {
		if err := s.Shutdown(ctx); err != nil {
			log.Error().Err(err).Msg("service shutdown errors")
		}
	}()
	<-os.ExpectTermination()
	cancel()
}
