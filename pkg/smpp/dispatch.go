package smpp

import (
	"time"
)

// dispatch drains every due message for the bound identity and sends the
// receipts and mobile-originated echoes they call for.
func (s *Session) dispatch(now time.Time) error {
	if s.systemID == "" || !s.state.canReceive() {
		return nil
	}

	delivered := 0
	defer func() {
		if delivered > 0 {
			s.deps.Metrics.SetGauge("queued_messages", float64(s.deps.Store.Len()), nil)
		}
	}()

	for {
		msg := s.deps.Store.TakeDue(s.systemID, now)
		if msg == nil {
			return nil
		}
		delivered++

		if msg.WantsReceipt() {
			receipt := newReceipt(msg, now, s.state == TransceiverBound)
			if err := s.send(CommandDeliverSM, receipt.Marshal()); err != nil {
				return err
			}
			s.logger.Info("Delivery receipt sent",
				"message_id", msg.ID,
				"destination", receipt.DestAddr.Addr)
			s.deps.Metrics.IncCounter("deliveries_total", map[string]string{"kind": "receipt"})
		}

		if msg.LoopsBackTo(s.systemID) {
			mo := newMobileOriginated(msg)
			if err := s.send(CommandDeliverSM, mo.Marshal()); err != nil {
				return err
			}
			s.logger.Info("Mobile-originated message sent",
				"message_id", msg.ID,
				"source", mo.SourceAddr.Addr)
			s.deps.Metrics.IncCounter("deliveries_total", map[string]string{"kind": "mo"})
		}
	}
}
