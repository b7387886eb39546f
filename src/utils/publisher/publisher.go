package publisher

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rif-marketplace/placements/src/utils/config"
	"github.com/rif-marketplace/placements/src/utils/monitoring"
	"github.com/rif-marketplace/placements/src/utils/task"
)

// Forwards messages to Redis
type Publisher[In encoding.BinaryMarshaler] struct {
	*task.Task

	monitor monitoring.Monitor

	client      *redis.Client
	channelName string
	input       chan In
}

func NewPublisher[In encoding.BinaryMarshaler](config *config.Config, name string) (self *Publisher[In]) {
	self = new(Publisher[In])

	self.channelName = config.Redis.ChannelName

	self.Task = task.NewTask(config, name).
		WithSubtaskFunc(self.run).
		WithOnBeforeStart(self.connect).
		WithOnAfterStop(self.disconnect).
		WithWorkerPool(config.Redis.MaxWorkers, config.Redis.MaxQueueSize)

	return
}

func (self *Publisher[In]) WithInputChannel(v chan In) *Publisher[In] {
	self.input = v
	return self
}

func (self *Publisher[In]) WithChannelName(v string) *Publisher[In] {
	self.channelName = v
	return self
}

func (self *Publisher[In]) WithMonitor(monitor monitoring.Monitor) *Publisher[In] {
	self.monitor = monitor
	return self
}

func (self *Publisher[In]) disconnect() {
	err := self.client.Close()
	if err != nil {
		self.Log.WithError(err).Error("Failed to close connection")
	}
}

func (self *Publisher[In]) connect() (err error) {
	opts := redis.Options{
		ClientName:      fmt.Sprintf("placements/%s", self.Name),
		Addr:            fmt.Sprintf("%s:%d", self.Config.Redis.Host, self.Config.Redis.Port),
		Password:        self.Config.Redis.Password,
		Username:        self.Config.Redis.User,
		DB:              self.Config.Redis.DB,
		MinIdleConns:    self.Config.Redis.MinIdleConns,
		MaxIdleConns:    self.Config.Redis.MaxIdleConns,
		ConnMaxIdleTime: self.Config.Redis.ConnMaxIdleTime,
		PoolSize:        self.Config.Redis.MaxOpenConns,
		ConnMaxLifetime: self.Config.Redis.ConnMaxLifetime,
	}

	if self.Config.Redis.ClientCert != "" && self.Config.Redis.ClientKey != "" && self.Config.Redis.CaCert != "" {
		cert, err := tls.X509KeyPair([]byte(self.Config.Redis.ClientCert), []byte(self.Config.Redis.ClientKey))
		if err != nil {
			return err
		}

		caCertPool := x509.NewCertPool()
		if !caCertPool.AppendCertsFromPEM([]byte(self.Config.Redis.CaCert)) {
			return errors.New("failed to append CA cert to pool")
		}

		opts.TLSConfig = &tls.Config{
			InsecureSkipVerify: false,
			RootCAs:            caCertPool,
			ClientCAs:          caCertPool,
			Certificates:       []tls.Certificate{cert},
		}
	}

	self.client = redis.NewClient(&opts)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	err = self.client.Ping(ctx).Err()
	if err != nil {
		self.Log.WithError(err).Error("Failed to ping Redis")
		return
	}

	return
}

func (self *Publisher[In]) run() (err error) {
	for payload := range self.input {
		payload := payload
		self.SubmitToWorker(func() {
			err := task.NewRetry().
				WithContext(self.Ctx).
				WithMaxElapsedTime(self.Config.Redis.MaxElapsedTime).
				WithMaxInterval(self.Config.Redis.MaxInterval).
				WithOnError(func(err error) {
					self.Log.WithError(err).Error("Failed to publish message, retrying")
					if self.monitor != nil {
						self.monitor.GetReport().Publisher.Errors.Publish.Inc()
					}
				}).
				Run(func() (err error) {
					return self.client.Publish(self.Ctx, self.channelName, payload).Err()
				})
			if err != nil {
				self.Log.WithError(err).Error("Failed to publish message, giving up")
				if self.monitor != nil {
					self.monitor.GetReport().Publisher.Errors.PersistentFailure.Inc()
				}
				return
			}
			if self.monitor != nil {
				self.monitor.GetReport().Publisher.State.MessagesPublished.Inc()
			}
		})
	}
	return nil
}
