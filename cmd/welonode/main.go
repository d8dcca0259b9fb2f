package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hldb/welo-sub001/app"
	"github.com/hldb/welo-sub001/app/logger"
	"github.com/hldb/welo-sub001/blockstore"
	"github.com/hldb/welo-sub001/config"
	"github.com/hldb/welo-sub001/metric"
	"github.com/hldb/welo-sub001/replica"
	"github.com/hldb/welo-sub001/replica/record"
	"github.com/hldb/welo-sub001/replicator/pubsub"
)

var log = logger.NewNamed("main")

var (
	flagConfigFile = flag.String("c", "etc/config.yml", "path to config file")
	flagVersion    = flag.Bool("v", false, "show version and exit")
	flagHelp       = flag.Bool("h", false, "show help and exit")
)

func main() {
	flag.Parse()

	if *flagVersion {
		fmt.Println(app.VersionDescription())
		return
	}
	if *flagHelp {
		flag.PrintDefaults()
		return
	}

	ctx := context.Background()
	a := new(app.App)

	conf, err := config.NewFromFile(*flagConfigFile)
	if err != nil {
		log.Fatal("can't open config file", zap.Error(err))
	}
	if err = conf.Log.ApplyGlobal(); err != nil {
		log.Fatal("can't apply log config", zap.Error(err))
	}

	Bootstrap(a, conf, pubsub.NewHub())
	if err = a.Start(ctx); err != nil {
		log.Fatal("can't start app", zap.Error(err))
	}
	log.Info("app started", zap.String("version", app.VersionDescription()))

	exit := make(chan os.Signal, 1)
	signal.Notify(exit, os.Interrupt, syscall.SIGTERM, syscall.SIGQUIT)
	sig := <-exit
	log.Info("received exit signal, stop app", zap.String("signal", fmt.Sprint(sig)))

	ctx, cancel := context.WithTimeout(ctx, time.Minute)
	defer cancel()
	if err = a.Close(ctx); err != nil {
		log.Fatal("close error", zap.Error(err))
	}
}

func Bootstrap(a *app.App, conf *config.Config, hub *pubsub.Hub) {
	a.Register(conf).
		Register(metric.New()).
		Register(blockstore.New()).
		Register(replica.NewService(logMaterializer{})).
		Register(pubsub.NewService(hub))
}

// logMaterializer reports the materialized log instead of building a view of it
type logMaterializer struct{}

func (logMaterializer) Append(ctx context.Context, records []*record.Record) error {
	for _, rec := range records {
		log.InfoCtx(ctx, "append", zap.String("id", rec.Id), zap.Uint64("clock", rec.Clock()), zap.Int("payload", len(rec.Data.Payload)))
	}
	return nil
}

func (logMaterializer) Rebuild(ctx context.Context, records []*record.Record) error {
	log.InfoCtx(ctx, "rebuild", zap.Int("records", len(records)))
	return nil
}
