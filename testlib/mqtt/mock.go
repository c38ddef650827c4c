// Copyright 2025 SAP SE
// SPDX-License-Identifier: Apache-2.0

package mqtt

import "sync"

// A published message as recorded by the mock client.
type Message struct {
	Topic   string
	Payload any
}

// Mock mqtt client that records what would have been published.
type MockClient struct {
	mu        sync.Mutex
	published []Message
}

func (m *MockClient) Publish(topic string, payload any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.published = append(m.published, Message{Topic: topic, Payload: payload})
}

func (m *MockClient) Connect() error {
	return nil
}

func (m *MockClient) Disconnect() {}

// All messages published so far, in order.
func (m *MockClient) Published() []Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Message, len(m.published))
	copy(out, m.published)
	return out
}
