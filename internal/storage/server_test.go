package storage

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oarkflow/smsc-simulator/pkg/smpp"
)

type esme struct {
	t      *testing.T
	conn   net.Conn
	frames smpp.FrameReader
	seq    uint32
}

func (e *esme) send(commandID uint32, body []byte) {
	e.t.Helper()
	e.seq++
	_, err := e.conn.Write(smpp.EncodeFrame(e.seq, commandID, smpp.StatusOK, body))
	require.NoError(e.t, err)
}

func (e *esme) read() *smpp.PDU {
	e.t.Helper()
	buf := make([]byte, 1024)
	require.NoError(e.t, e.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		pdu, err := e.frames.Next()
		if err == nil {
			return pdu
		}
		require.True(e.t, errors.Is(err, smpp.ErrNeedMoreData), "%v", err)
		n, err := e.conn.Read(buf)
		require.NoError(e.t, err)
		e.frames.Feed(buf[:n])
	}
}

func (e *esme) submit(dest, schedule string, registeredDelivery uint8, tlvs []smpp.TLV) {
	e.t.Helper()
	req := &smpp.SubmitSM{
		SourceAddr:           smpp.Address{Addr: "12345"},
		DestAddr:             smpp.Address{Addr: dest},
		ScheduleDeliveryTime: schedule,
		RegisteredDelivery:   registeredDelivery,
		TLVs:                 tlvs,
	}
	if tlvs == nil {
		req.ShortMessage = []byte("hello world")
	}
	e.send(smpp.CommandSubmitSM, req.Marshal())
}

func TestServerDeliversThroughInMemoryStore(t *testing.T) {
	store := NewInMemoryMessageStore(nil)

	cfg := smpp.DefaultServerConfig()
	cfg.Host = "127.0.0.1"
	cfg.Port = 0
	cfg.AdminPort = -1
	cfg.TickInterval = 10 * time.Millisecond
	cfg.DeliveryJitterMin = 0
	cfg.DeliveryJitterMax = 0

	srv, err := smpp.NewServer(cfg, smpp.ServerDependencies{Store: store})
	require.NoError(t, err)
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	served := make(chan error, 1)
	go func() { served <- srv.Serve(ctx) }()
	stopped := false
	stop := func() {
		if stopped {
			return
		}
		stopped = true
		cancel()
		select {
		case err := <-served:
			assert.NoError(t, err)
		case <-time.After(5 * time.Second):
			t.Fatal("server did not stop")
		}
	}
	defer stop()

	conn, err := net.DialTimeout("tcp", srv.Addr().String(), time.Second)
	require.NoError(t, err)
	defer conn.Close()
	e := &esme{t: t, conn: conn}

	bind := &smpp.BindRequest{SystemID: "esme", Password: "secret", InterfaceVersion: smpp.InterfaceVersion34}
	e.send(smpp.CommandBindTransceiver, bind.Marshal())
	require.Equal(t, smpp.StatusOK, e.read().Header.CommandStatus)

	e.submit("15551234567", smpp.FormatRelativeTime(time.Hour), smpp.RegisteredDeliverySuccessFailure, nil)
	e.submit("15551234567", "", smpp.RegisteredDeliverySuccessFailure, nil)
	e.submit("1555esme999", "", smpp.RegisteredDeliveryNone,
		[]smpp.TLV{{Tag: smpp.TagMessagePayload, Value: []byte("via payload")}})

	// Deliveries may interleave with the later submit responses.
	var accepted, receipts, echoes int
	for range 5 {
		pdu := e.read()
		if pdu.Header.CommandID == smpp.CommandSubmitSMResp {
			assert.Equal(t, smpp.StatusOK, pdu.Header.CommandStatus)
			accepted++
			continue
		}
		require.Equal(t, smpp.CommandDeliverSM, pdu.Header.CommandID)
		var d smpp.DeliverSM
		require.NoError(t, d.Unmarshal(pdu.Body))
		if d.IsReceipt() {
			receipts++
			assert.Contains(t, string(d.ShortMessage), "text:hello world")
			continue
		}
		echoes++
		payload, ok := smpp.FindTLV(d.TLVs, smpp.TagMessagePayload)
		require.True(t, ok)
		assert.Equal(t, "via payload", string(payload))
	}
	assert.Equal(t, 3, accepted)
	assert.Equal(t, 1, receipts)
	assert.Equal(t, 1, echoes)

	stop()
	assert.Equal(t, 1, store.Len(), "the hour-later message stays queued")
	assert.Equal(t, 1, store.Pending("esme"))
	assert.Equal(t, 1, store.Identities())
}
