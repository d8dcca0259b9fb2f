package blockstore

import (
	"context"

	"go.uber.org/zap"

	"github.com/hldb/welo-sub001/app"
	"github.com/hldb/welo-sub001/app/logger"
)

const CName = "welo.blockstore"

var log = logger.NewNamed(CName)

type Config struct {
	// Path of the any-store database, an empty path keeps blocks in memory
	Path string `yaml:"path"`
}

type configGetter interface {
	GetStorage() Config
}

// Service is the Store registered as an app component
type Service interface {
	Store
	app.ComponentRunnable
}

func New() Service {
	return &service{}
}

type service struct {
	Store
	conf    Config
	closeFn func() error
}

func (s *service) Init(a *app.App) (err error) {
	s.conf = a.MustComponent("config").(configGetter).GetStorage()
	return nil
}

func (s *service) Name() (name string) {
	return CName
}

func (s *service) Run(ctx context.Context) (err error) {
	if s.conf.Path == "" {
		s.Store = NewInMemory()
		log.Info("using in-memory block store")
		return nil
	}
	st, err := NewAnyStore(ctx, s.conf.Path)
	if err != nil {
		return err
	}
	s.Store = st
	s.closeFn = st.Close
	log.Info("block store opened", zap.String("path", s.conf.Path))
	return nil
}

func (s *service) Close(ctx context.Context) (err error) {
	if s.closeFn != nil {
		return s.closeFn()
	}
	return nil
}
