// Package server 用电预测 HTTP 服务，可在测试中直接启动/关闭
package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"usageforecast/infra/observe/log/staticLog"
)

type Config struct {
	Addr         string        // 监听地址，":0" 为随机端口
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig 测试用，随机端口
func DefaultConfig() Config {
	return Config{
		Addr:         ":0",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

type Server struct {
	httpServer *http.Server
	listener   net.Listener
	addr       string
	mu         sync.Mutex
	running    bool
}

// NewServer Start 之前不监听
func NewServer(cfg Config, h *Handler) (*Server, error) {
	if h == nil {
		return nil, errors.New("nil handler")
	}
	httpServer := &http.Server{
		Addr:         cfg.Addr,
		Handler:      h.Routes(),
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return &Server{httpServer: httpServer}, nil
}

// Start 非阻塞，返回实际监听地址
func (s *Server) Start() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return s.addr, nil
	}

	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return "", fmt.Errorf("failed to listen: %w", err)
	}

	s.listener = ln
	s.addr = ln.Addr().String()
	s.running = true

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && err != http.ErrServerClosed {
			staticLog.Log.Errorf("http serve: %v", err)
		}
	}()

	return s.addr, nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	s.running = false
	return s.httpServer.Shutdown(ctx)
}

// Addr 未运行时返回空串
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addr
}
