package redis

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/MrSnakeDoc/pulse/internal/logger"
)

func validOptions(addr string) Options {
	return Options{
		Addr:           addr,
		ConnectTimeout: 300 * time.Millisecond,
		RetryInterval:  20 * time.Millisecond,
		MaxWait:        50 * time.Millisecond,
		PingTimeout:    50 * time.Millisecond,
		DialTimeout:    50 * time.Millisecond,
	}
}

func TestConnectDisabled(t *testing.T) {
	_, err := Connect(context.Background(), Options{}, logger.NewNop())
	if !errors.Is(err, ErrDisabled) {
		t.Errorf("Connect() error = %v, want ErrDisabled", err)
	}
}

func TestConnectValidatesOptions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Options)
	}{
		{"connect timeout", func(o *Options) { o.ConnectTimeout = 0 }},
		{"retry interval", func(o *Options) { o.RetryInterval = 0 }},
		{"max wait", func(o *Options) { o.MaxWait = -time.Second }},
		{"ping timeout", func(o *Options) { o.PingTimeout = 0 }},
		{"warn threshold", func(o *Options) { o.WarnThreshold = -1 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := validOptions("127.0.0.1:6379")
			tt.mutate(&opts)
			if _, err := Connect(context.Background(), opts, logger.NewNop()); err == nil {
				t.Error("Connect() expected validation error")
			}
		})
	}
}

func TestConnectGivesUpAfterTimeout(t *testing.T) {
	// a listener that accepts and immediately closes never answers PING
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer func() { _ = ln.Close() }()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	start := time.Now()
	_, err = Connect(context.Background(), validOptions(ln.Addr().String()), logger.NewNop())
	if err == nil {
		t.Fatal("Connect() expected error")
	}
	if elapsed := time.Since(start); elapsed > 2*time.Second {
		t.Errorf("Connect() took %v, want bounded by ConnectTimeout", elapsed)
	}
}

func TestConnectHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	opts := validOptions("127.0.0.1:1")
	opts.ConnectTimeout = time.Minute
	start := time.Now()
	if _, err := Connect(ctx, opts, logger.NewNop()); err == nil {
		t.Fatal("Connect() expected error")
	}
	if time.Since(start) > time.Second {
		t.Error("Connect() ignored the canceled context")
	}
}
