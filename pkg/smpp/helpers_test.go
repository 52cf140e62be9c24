package smpp

import (
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

// recordingSink captures every frame a session writes.
type recordingSink struct {
	frames  []*PDU
	closed  bool
	sendErr error
}

func (r *recordingSink) Send(frame []byte) error {
	if r.sendErr != nil {
		return r.sendErr
	}
	var fr FrameReader
	fr.Feed(frame)
	pdu, err := fr.Next()
	if err != nil {
		return err
	}
	r.frames = append(r.frames, pdu)
	return nil
}

func (r *recordingSink) Close() error {
	r.closed = true
	return nil
}

// take returns and forgets the frames written so far.
func (r *recordingSink) take() []*PDU {
	out := r.frames
	r.frames = nil
	return out
}

var testEpoch = time.Date(2024, 3, 15, 12, 0, 0, 0, time.UTC)

type manualClock struct {
	now time.Time
}

func (c *manualClock) Now() time.Time          { return c.now }
func (c *manualClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

type queued struct {
	at  time.Time
	msg *Message
}

// listStore is a minimal MessageStore ordered by delivery time, then
// insertion order.
type listStore struct {
	queues map[string][]queued
}

func newListStore() *listStore {
	return &listStore{queues: make(map[string][]queued)}
}

func (s *listStore) Put(identity string, deliverAt time.Time, msg *Message) {
	q := append(s.queues[identity], queued{at: deliverAt, msg: msg})
	sort.SliceStable(q, func(i, j int) bool { return q[i].at.Before(q[j].at) })
	s.queues[identity] = q
}

func (s *listStore) TakeDue(identity string, now time.Time) *Message {
	q := s.queues[identity]
	if len(q) == 0 || q[0].at.After(now) {
		return nil
	}
	s.queues[identity] = q[1:]
	return q[0].msg
}

func (s *listStore) Len() int {
	n := 0
	for _, q := range s.queues {
		n += len(q)
	}
	return n
}

type flagTable map[string]bool

func (f flagTable) Enabled(identity, feature string) bool {
	return f[identity+"/"+feature]
}

// countingLimiter allows the first n submits per identity.
type countingLimiter struct {
	n    int
	seen map[string]int
}

func (l *countingLimiter) Allow(identity string, _ time.Time) bool {
	if l.seen == nil {
		l.seen = make(map[string]int)
	}
	l.seen[identity]++
	return l.seen[identity] <= l.n
}

type testEnv struct {
	session *Session
	sink    *recordingSink
	clock   *manualClock
	store   *listStore
	deps    *ServerDependencies
	config  *ServerConfig
	nextSeq uint32
}

func testConfig() *ServerConfig {
	cfg := DefaultServerConfig()
	cfg.DeliveryJitterMin = 0
	cfg.DeliveryJitterMax = 0
	return cfg
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	clock := &manualClock{now: testEpoch}
	store := newListStore()
	deps := &ServerDependencies{
		Store:   store,
		Flags:   noFlags{},
		Logger:  nopLogger{},
		Metrics: nopMetrics{},
		Clock:   clock.Now,
	}
	env := &testEnv{
		sink:   &recordingSink{},
		clock:  clock,
		store:  store,
		deps:   deps,
		config: testConfig(),
	}
	env.session = newSession(nextSessionID(), env.sink, "127.0.0.1:40000", env.config, deps)
	return env
}

// attach opens another session sharing the environment's store and clock.
func (e *testEnv) attach() (*Session, *recordingSink) {
	sink := &recordingSink{}
	return newSession(nextSessionID(), sink, "127.0.0.1:40001", e.config, e.deps), sink
}

// request feeds one PDU to the session and returns its sequence number.
func (e *testEnv) request(t *testing.T, commandID uint32, body []byte) uint32 {
	t.Helper()
	e.nextSeq++
	e.session.Feed(EncodeFrame(e.nextSeq, commandID, StatusOK, body))
	require.NoError(t, e.session.Run())
	return e.nextSeq
}

// expectOne asserts exactly one frame was written and returns it.
func (e *testEnv) expectOne(t *testing.T) *PDU {
	t.Helper()
	frames := e.sink.take()
	require.Len(t, frames, 1)
	return frames[0]
}

func (e *testEnv) bind(t *testing.T, commandID uint32, systemID string, version uint8) *PDU {
	t.Helper()
	e.request(t, commandID, bindBody(systemID, version))
	return e.expectOne(t)
}

func bindBody(systemID string, version uint8) []byte {
	req := &BindRequest{
		SystemID:         systemID,
		Password:         "secret",
		InterfaceVersion: version,
	}
	return req.Marshal()
}

func submitBody(dest, schedule string, registeredDelivery uint8) []byte {
	req := &SubmitSM{
		SourceAddr:           Address{TON: TONInternational, NPI: NPIISDN, Addr: "12345"},
		DestAddr:             Address{TON: TONInternational, NPI: NPIISDN, Addr: dest},
		ScheduleDeliveryTime: schedule,
		RegisteredDelivery:   registeredDelivery,
		ShortMessage:         []byte("hello world"),
	}
	return req.Marshal()
}
