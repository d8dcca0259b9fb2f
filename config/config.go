package config

import (
	"os"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/hldb/welo-sub001/app"
	"github.com/hldb/welo-sub001/app/logger"
	"github.com/hldb/welo-sub001/blockstore"
	"github.com/hldb/welo-sub001/metric"
	"github.com/hldb/welo-sub001/replica"
	"github.com/hldb/welo-sub001/replicator/pubsub"
)

const CName = "config"

var log = logger.NewNamed(CName)

func NewFromFile(path string) (c *Config, err error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse reads a yaml config on top of the defaults
func Parse(data []byte) (c *Config, err error) {
	c = Default()
	if err = yaml.Unmarshal(data, c); err != nil {
		return nil, err
	}
	return c, nil
}

func Default() *Config {
	return &Config{
		Replica: replica.ServiceConfig{
			Config: replica.Config{FetchWorkers: replica.DefaultFetchWorkers},
		},
	}
}

type Config struct {
	Log        logger.Config         `yaml:"log"`
	Replica    replica.ServiceConfig `yaml:"replica"`
	Storage    blockstore.Config     `yaml:"storage"`
	Metric     metric.Config         `yaml:"metric"`
	Replicator pubsub.Config         `yaml:"replicator"`
}

func (c *Config) Init(a *app.App) (err error) {
	log.Debug("config loaded", zap.String("replica", c.Replica.Name), zap.Strings("writers", c.Replica.Writers))
	return
}

func (c *Config) Name() (name string) {
	return CName
}

func (c *Config) GetReplica() replica.ServiceConfig {
	return c.Replica
}

func (c *Config) GetStorage() blockstore.Config {
	return c.Storage
}

func (c *Config) GetMetric() metric.Config {
	return c.Metric
}

func (c *Config) GetReplicator() pubsub.Config {
	return c.Replicator
}
