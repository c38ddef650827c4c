// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package mqtt

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sync"
	"time"

	"github.com/cobaltcore-dev/propscout/internal/conf"
	mqtt "github.com/eclipse/paho.mqtt.golang"
)

var errNotConfigured = errors.New("mqtt: no broker url configured")

type Client interface {
	Connect() error
	Publish(topic string, obj any)
	Disconnect()
}

type client struct {
	conf    conf.MQTTConfig
	monitor Monitor
	// MQTT client to publish mqtt data.
	client mqtt.Client
	// Lock to prevent concurrent writes to the MQTT client.
	lock *sync.Mutex
}

func NewClient(config conf.MQTTConfig, monitor Monitor) Client {
	return &client{conf: config, monitor: monitor, lock: &sync.Mutex{}}
}

// Called when the connection to the mqtt broker is lost.
// The next publish reconnects.
func (t *client) onConnectionLost(_ mqtt.Client, err error) {
	slog.Error("lost connection to mqtt broker", "error", err)
	t.lock.Lock()
	defer t.lock.Unlock()
	t.client = nil
}

// Connect to the mqtt broker.
func (t *client) Connect() error {
	t.lock.Lock()
	defer t.lock.Unlock()
	return t.connect()
}

func (t *client) connect() error {
	if t.client != nil {
		return nil
	}
	if t.conf.URL == "" {
		return errNotConfigured
	}
	if t.monitor.connectionAttempts != nil {
		t.monitor.connectionAttempts.Inc()
	}
	slog.Info("connecting to mqtt broker", "url", t.conf.URL)
	opts := mqtt.NewClientOptions()
	opts.AddBroker(t.conf.URL)
	opts.SetConnectTimeout(10 * time.Second)
	opts.SetConnectRetry(false)
	opts.SetKeepAlive(60 * time.Second)
	opts.SetPingTimeout(10 * time.Second)
	opts.SetCleanSession(true)
	opts.SetConnectionLostHandler(t.onConnectionLost)
	//nolint:gosec // We don't care if the client id is cryptographically secure.
	opts.SetClientID(fmt.Sprintf("propscout-%d", rand.Intn(1_000_000)))
	opts.SetOrderMatters(false)
	opts.SetProtocolVersion(4)
	opts.SetUsername(t.conf.Username)
	opts.SetPassword(t.conf.Password)

	c := mqtt.NewClient(opts)
	if conn := c.Connect(); conn.Wait() && conn.Error() != nil {
		return conn.Error()
	}
	t.client = c
	slog.Info("connected to mqtt broker")
	return nil
}

// Publish mqtt data to the mqtt broker.
// In case of errors, log them out and return.
func (t *client) Publish(topic string, obj any) {
	if err := t.publish(topic, obj); err != nil {
		if t.monitor.publishFailures != nil {
			t.monitor.publishFailures.Inc()
		}
		slog.Error("failed to publish mqtt data", "topic", topic, "error", err)
		return
	}
	slog.Debug("published mqtt data", "topic", topic)
}

func (t *client) publish(topic string, obj any) error {
	data, err := json.Marshal(obj)
	if err != nil {
		return err
	}
	t.lock.Lock()
	defer t.lock.Unlock()
	if err := t.connect(); err != nil {
		return err
	}
	pub := t.client.Publish(topic, 1, false, data)
	if pub.Wait() && pub.Error() != nil {
		return pub.Error()
	}
	return nil
}

// Disconnect from the mqtt broker.
func (t *client) Disconnect() {
	t.lock.Lock()
	defer t.lock.Unlock()
	if t.client == nil {
		return
	}
	t.client.Disconnect(1000)
	t.client = nil
	slog.Info("disconnected from mqtt broker")
}
