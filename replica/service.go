package replica

import (
	"context"

	"go.uber.org/zap"

	"github.com/hldb/welo-sub001/app"
	"github.com/hldb/welo-sub001/blockstore"
	"github.com/hldb/welo-sub001/identity"
	"github.com/hldb/welo-sub001/metric"
	"github.com/hldb/welo-sub001/replica/access"
	"github.com/hldb/welo-sub001/replica/record"
)

const CName = "welo.replica"

// ServiceConfig describes the replica served by a node
type ServiceConfig struct {
	// Name is the genesis payload, replicas with equal name and access share the genesis
	Name     string   `yaml:"name"`
	Protocol string   `yaml:"protocol"`
	Writers  []string `yaml:"writers"`
	Config   `yaml:",inline"`
}

type configGetter interface {
	GetReplica() ServiceConfig
}

// Service runs a single replica as an app component
type Service interface {
	Replica() *Replica
	app.ComponentRunnable
}

// NewService returns the component, materializer may be nil
func NewService(materializer Materializer) Service {
	return &service{materializer: materializer}
}

type service struct {
	materializer Materializer
	replica      *Replica
}

func (s *service) Init(a *app.App) (err error) {
	conf := a.MustComponent("config").(configGetter).GetReplica()
	protocol := conf.Protocol
	if protocol == "" {
		protocol = access.StaticProtocol
	}
	ctrl, err := access.New(protocol)
	if err != nil {
		return err
	}
	genesis, err := record.BuildGenesis(record.AccessSnapshot{Protocol: protocol, Write: conf.Writers}, []byte(conf.Name))
	if err != nil {
		return err
	}
	opts := []Option{WithConfig(conf.Config)}
	if m, ok := a.Component(metric.CName).(metric.Metric); ok {
		opts = append(opts, WithPrometheus(m.Registry(), "welo"))
	}
	s.replica, err = New(genesis, Deps{
		Access:       ctrl,
		Identity:     identity.NewEd25519(),
		Store:        a.MustComponent(blockstore.CName).(blockstore.Store),
		Materializer: s.materializer,
	}, opts...)
	return err
}

func (s *service) Name() (name string) {
	return CName
}

func (s *service) Run(ctx context.Context) (err error) {
	if err = s.replica.Start(ctx); err != nil {
		return err
	}
	log.Info("serving replica", zap.String("id", s.replica.Id()))
	return nil
}

func (s *service) Close(ctx context.Context) (err error) {
	if s.replica == nil {
		return nil
	}
	return s.replica.Close(ctx)
}

func (s *service) Replica() *Replica {
	return s.replica
}
