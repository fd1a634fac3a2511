package live

import (
	"bufio"
	"errors"
	"fmt"
	"net"
	"sync"

	"go.uber.org/zap"
)

// FeedServer streams hub events to plain TCP clients, one JSON object per
// line, for scripts that want change notifications without a browser.
type FeedServer struct {
	Addr string
	Hub  *Hub

	mu     sync.Mutex
	ln     net.Listener
	closed bool
	wg     sync.WaitGroup
}

func NewFeedServer(addr string, hub *Hub) *FeedServer {
	return &FeedServer{Addr: addr, Hub: hub}
}

// Listen binds the address. Call before Serve so bind errors surface early.
func (s *FeedServer) Listen() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return fmt.Errorf("feed listen %s: %w", s.Addr, err)
	}
	s.mu.Lock()
	s.ln = ln
	s.mu.Unlock()
	s.Hub.log.Info("feed listening", zap.String("addr", ln.Addr().String()))
	return nil
}

// ListenAddr is the bound address, useful when Addr had port 0.
func (s *FeedServer) ListenAddr() net.Addr {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.ln == nil {
		return nil
	}
	return s.ln.Addr()
}

// Serve accepts clients until Close. It returns nil after Close.
func (s *FeedServer) Serve() error {
	s.mu.Lock()
	ln := s.ln
	s.mu.Unlock()
	if ln == nil {
		return errors.New("feed: Serve called before Listen")
	}

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.Hub.log.Warn("feed accept", zap.Error(err))
			continue
		}

		// registering under s.mu guarantees Close either sees this conn in
		// the hub or we see closed
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			_ = conn.Close()
			return nil
		}
		if !s.Hub.Add(conn) {
			s.mu.Unlock()
			s.Hub.log.Debug("feed client gone before welcome", zap.String("remote", conn.RemoteAddr().String()))
			continue
		}
		s.wg.Add(1)
		s.mu.Unlock()
		s.Hub.log.Debug("feed client connected", zap.String("remote", conn.RemoteAddr().String()))

		go func(c net.Conn) {
			defer s.wg.Done()
			defer func() {
				s.Hub.Remove(c)
				s.Hub.log.Debug("feed client disconnected", zap.String("remote", c.RemoteAddr().String()))
			}()

			sc := bufio.NewScanner(c)
			for sc.Scan() {
				// ignore incoming lines
			}
		}(conn)
	}
}

// Close stops accepting, drops connected clients and waits for their
// goroutines.
func (s *FeedServer) Close() error {
	s.mu.Lock()
	ln := s.ln
	s.closed = true
	s.mu.Unlock()
	var err error
	if ln != nil {
		err = ln.Close()
	}
	s.Hub.CloseAll()
	s.wg.Wait()
	return err
}
