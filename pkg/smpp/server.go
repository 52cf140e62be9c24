package smpp

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"net"
	"slices"
	"strconv"
	"sync"
	"syscall"
	"time"

	"github.com/oarkflow/smsc-simulator/internal/errorrecovery"
)

// DefaultSystemID is the system_id returned in bind responses.
const DefaultSystemID = "SMSCSIM"

// acceptBackoff paces Accept retries after transient failures such as
// running out of file descriptors.
var acceptBackoff = errorrecovery.RetryConfig{
	InitialDelay:  5 * time.Millisecond,
	MaxDelay:      time.Second,
	BackoffFactor: 2,
}

// ServerConfig represents server configuration
type ServerConfig struct {
	Host               string
	Port               int
	AdminPort          int // negative disables the admin listener
	MaxConnections     int // zero means unlimited
	WriteTimeout       time.Duration
	TickInterval       time.Duration
	IdleTimeout        time.Duration
	EnquireLinkTimeout time.Duration
	UnbindGrace        time.Duration
	SystemID           string
	DeliveryJitterMin  time.Duration
	DeliveryJitterMax  time.Duration
}

// DefaultServerConfig returns the stock simulator settings.
func DefaultServerConfig() *ServerConfig {
	return &ServerConfig{
		Host:               "0.0.0.0",
		Port:               2775,
		AdminPort:          8728,
		MaxConnections:     1000,
		WriteTimeout:       10 * time.Second,
		TickInterval:       time.Second,
		IdleTimeout:        2 * time.Minute,
		EnquireLinkTimeout: time.Minute,
		UnbindGrace:        5 * time.Second,
		SystemID:           DefaultSystemID,
		DeliveryJitterMin:  time.Second,
		DeliveryJitterMax:  5 * time.Second,
	}
}

// ServerDependencies holds all dependencies for the server
type ServerDependencies struct {
	Store   MessageStore
	Flags   FeatureFlags
	Limiter SubmitLimiter
	Logger  Logger
	Metrics MetricsCollector
	Clock   Clock
}

// Server is the connection multiplexer. A single control goroutine owns the
// session registry, the message store and every session's counters; listener
// and reader goroutines only hand it connections and bytes.
type Server struct {
	config *ServerConfig
	deps   *ServerDependencies
	logger Logger

	listener      net.Listener
	adminListener net.Listener

	sessions map[uint64]*Session
	admins   map[uint64]*adminConn
	events   chan readEvent

	done chan struct{}
	wg   sync.WaitGroup
}

// NewServer creates a new SMPP server
func NewServer(config *ServerConfig, deps ServerDependencies) (*Server, error) {
	if config == nil {
		config = DefaultServerConfig()
	}
	if deps.Store == nil {
		return nil, errors.New("message store is required")
	}
	if config.TickInterval <= 0 {
		return nil, fmt.Errorf("tick interval must be positive, got %s", config.TickInterval)
	}
	if config.SystemID == "" {
		config.SystemID = DefaultSystemID
	}
	if deps.Flags == nil {
		deps.Flags = noFlags{}
	}
	if deps.Logger == nil {
		deps.Logger = nopLogger{}
	}
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	if deps.Clock == nil {
		deps.Clock = time.Now
	}

	return &Server{
		config:   config,
		deps:     &deps,
		logger:   deps.Logger,
		sessions: make(map[uint64]*Session),
		admins:   make(map[uint64]*adminConn),
		events:   make(chan readEvent, 64),
		done:     make(chan struct{}),
	}, nil
}

// Listen opens the SMPP listener and, unless disabled, the admin listener.
func (s *Server) Listen() error {
	addr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.Port))
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("failed to listen on %s: %w", addr, err)
	}
	s.listener = listener

	if s.config.AdminPort >= 0 {
		adminAddr := net.JoinHostPort(s.config.Host, strconv.Itoa(s.config.AdminPort))
		adminListener, err := net.Listen("tcp", adminAddr)
		if err != nil {
			listener.Close()
			return fmt.Errorf("failed to listen on admin %s: %w", adminAddr, err)
		}
		s.adminListener = adminListener
	}
	return nil
}

// Addr returns the SMPP listener address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// AdminAddr returns the admin listener address, or nil when disabled.
func (s *Server) AdminAddr() net.Addr {
	if s.adminListener == nil {
		return nil
	}
	return s.adminListener.Addr()
}

// Serve runs the control loop until ctx is cancelled or a listener fails.
// It calls Listen first if needed. A Server can be served only once.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}

	conns := make(chan net.Conn)
	adminConns := make(chan net.Conn)
	acceptErrs := make(chan error, 2)

	s.wg.Add(1)
	go s.acceptLoop(s.listener, conns, acceptErrs)
	if s.adminListener != nil {
		s.wg.Add(1)
		go s.acceptLoop(s.adminListener, adminConns, acceptErrs)
	}

	ticker := time.NewTicker(s.config.TickInterval)
	defer ticker.Stop()
	defer s.shutdown()

	s.logger.Info("SMPP server started",
		"address", s.Addr().String(),
		"admin_address", addrString(s.AdminAddr()),
		"tick", s.config.TickInterval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("SMPP server stopping", "reason", ctx.Err())
			return nil
		case err := <-acceptErrs:
			s.logger.Error("Listener failed", "error", err)
			return err
		case conn := <-conns:
			s.addSession(conn)
		case conn := <-adminConns:
			s.addAdmin(conn)
		case ev := <-s.events:
			s.handleRead(ev)
		case <-ticker.C:
			s.tick()
		}
	}
}

// ListenAndServe opens the listeners and serves until ctx is cancelled.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if err := s.Listen(); err != nil {
		return err
	}
	return s.Serve(ctx)
}

func (s *Server) acceptLoop(l net.Listener, conns chan<- net.Conn, errs chan<- error) {
	defer s.wg.Done()

	failures := 0
	for {
		conn, err := l.Accept()
		if err != nil {
			select {
			case <-s.done:
				return
			default:
			}

			if isTransientAcceptError(err) {
				backoff := errorrecovery.Delay(acceptBackoff, failures)
				failures++
				s.logger.Warn("Accept failed, retrying", "address", l.Addr().String(), "error", err, "backoff", backoff)
				select {
				case <-time.After(backoff):
					continue
				case <-s.done:
					return
				}
			}

			select {
			case errs <- fmt.Errorf("accept on %s: %w", l.Addr(), err):
			case <-s.done:
			}
			return
		}

		failures = 0
		select {
		case conns <- conn:
		case <-s.done:
			conn.Close()
			return
		}
	}
}

func (s *Server) addSession(conn net.Conn) {
	remoteAddr := conn.RemoteAddr().String()

	if s.config.MaxConnections > 0 && len(s.sessions) >= s.config.MaxConnections {
		s.logger.Warn("Max connections reached, rejecting new connection", "remote_addr", remoteAddr)
		s.deps.Metrics.IncCounter("connections_rejected_total", nil)
		conn.Close()
		return
	}

	id := nextSessionID()
	sc := NewServerConnection(id, conn, s.config.WriteTimeout)
	session := newSession(id, sc, remoteAddr, s.config, s.deps)
	s.sessions[id] = session

	s.logger.Info("Session opened", "session_id", id, "remote_addr", remoteAddr)
	s.deps.Metrics.SetGauge("active_sessions", float64(len(s.sessions)), nil)

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		readLoop(id, conn, s.events, s.done)
	}()
	go func() {
		defer s.wg.Done()
		sc.writeLoop(s.events, s.done)
	}()
}

func (s *Server) addAdmin(conn net.Conn) {
	id := nextSessionID()
	s.admins[id] = &adminConn{id: id, netConn: conn}

	s.logger.Debug("Admin connection accepted", "conn_id", id, "remote_addr", conn.RemoteAddr().String())

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		readLoop(id, conn, s.events, s.done)
	}()
}

func (s *Server) handleRead(ev readEvent) {
	if session, ok := s.sessions[ev.id]; ok {
		if ev.err != nil {
			reason := "peer closed connection"
			if !errors.Is(ev.err, io.EOF) {
				reason = ev.err.Error()
			}
			s.closeSession(session, reason)
			return
		}

		session.Feed(ev.data)
		if err := session.Run(); err != nil {
			s.closeSession(session, err.Error())
		}
		return
	}

	if admin, ok := s.admins[ev.id]; ok && ev.err != nil {
		admin.Close()
		delete(s.admins, ev.id)
		s.logger.Debug("Admin connection closed", "conn_id", ev.id)
	}
}

// tick runs the liveness monitor and dispatcher on every session in
// ascending id order.
func (s *Server) tick() {
	start := time.Now()
	for _, id := range slices.Sorted(maps.Keys(s.sessions)) {
		session := s.sessions[id]
		if err := session.TimedCheck(); err != nil {
			s.closeSession(session, err.Error())
		}
	}
	s.deps.Metrics.RecordDuration("tick", time.Since(start), nil)
}

func (s *Server) closeSession(session *Session, reason string) {
	if err := session.Close(); err != nil {
		s.logger.Debug("Error closing connection", "session_id", session.ID, "error", err)
	}
	delete(s.sessions, session.ID)

	s.logger.Info("Session closed",
		"session_id", session.ID,
		"remote_addr", session.RemoteAddr,
		"system_id", session.SystemID(),
		"reason", reason)
	s.deps.Metrics.SetGauge("active_sessions", float64(len(s.sessions)), nil)
}

func (s *Server) shutdown() {
	close(s.done)

	s.listener.Close()
	if s.adminListener != nil {
		s.adminListener.Close()
	}

	for _, session := range s.sessions {
		s.closeSession(session, "server shutdown")
	}
	for id, admin := range s.admins {
		admin.Close()
		delete(s.admins, id)
	}

	s.wg.Wait()
	s.logger.Info("SMPP server stopped")
}

func isTransientAcceptError(err error) bool {
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	return errors.Is(err, syscall.EMFILE) ||
		errors.Is(err, syscall.ENFILE) ||
		errors.Is(err, syscall.ECONNABORTED) ||
		errors.Is(err, syscall.ENOBUFS) ||
		errors.Is(err, syscall.ENOMEM)
}

func addrString(addr net.Addr) string {
	if addr == nil {
		return "disabled"
	}
	return addr.String()
}
