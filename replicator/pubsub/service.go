package pubsub

import (
	"context"

	"github.com/hldb/welo-sub001/app"
	"github.com/hldb/welo-sub001/replica"
)

const CName = "welo.replicator"

type configGetter interface {
	GetReplicator() Config
}

type Service interface {
	Replicator() *Replicator
	app.ComponentRunnable
}

// NewService returns a component replicating the node replica over hub
func NewService(hub *Hub) Service {
	return &service{hub: hub}
}

type service struct {
	hub        *Hub
	replicator *Replicator
}

func (s *service) Init(a *app.App) (err error) {
	conf := a.MustComponent("config").(configGetter).GetReplicator()
	r := app.MustComponent[replica.Service](a).Replica()
	s.replicator = NewReplicator(s.hub, r, conf)
	return nil
}

func (s *service) Name() (name string) {
	return CName
}

func (s *service) Run(ctx context.Context) (err error) {
	return s.replicator.Start(ctx)
}

func (s *service) Close(ctx context.Context) (err error) {
	return s.replicator.Stop(ctx)
}

func (s *service) Replicator() *Replicator {
	return s.replicator
}
