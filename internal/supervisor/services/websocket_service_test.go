// Roomclerk - Meeting Activity Tracking and Real-time Dashboard
// Copyright 2026 The Roomclerk Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/roomclerk/roomclerk

package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/roomclerk/roomclerk/internal/websocket"
)

type fakeHub struct {
	served chan struct{}
}

func (f *fakeHub) RunWithContext(ctx context.Context) error {
	close(f.served)
	<-ctx.Done()
	return ctx.Err()
}

func TestWebSocketHubService_DelegatesToHub(t *testing.T) {
	hub := &fakeHub{served: make(chan struct{})}
	svc := NewWebSocketHubService(hub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	<-hub.served
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("service did not stop after context cancellation")
	}
}

func TestWebSocketHubService_RealHub(t *testing.T) {
	hub := websocket.NewHub()
	svc := NewWebSocketHubService(hub)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- svc.Serve(ctx) }()

	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("hub did not stop after context cancellation")
	}
}

func TestWebSocketHubService_String(t *testing.T) {
	svc := NewWebSocketHubService(&fakeHub{served: make(chan struct{})})
	assert.Equal(t, "websocket-hub", svc.String())
}
