package progress

import (
	"testing"
	"time"

	"github.com/padhq/launchpad/core/project"
)

func recv(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case evt := <-ch:
		return evt
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func Test_Broker_publishReachesProjectSubscribersOnly(t *testing.T) {
	b := NewBroker()

	ch1, cancel1 := b.Subscribe("p1")
	defer cancel1()
	ch2, cancel2 := b.Subscribe("p2")
	defer cancel2()

	b.SectionSaved("p1", project.SectionFAQs)

	evt := recv(t, ch1)
	if evt.ProjectID != "p1" || evt.Kind != EventSectionSaved || evt.Section != project.SectionFAQs {
		t.Errorf("unexpected event: %+v", evt)
	}
	if evt.At.IsZero() {
		t.Error("event must be stamped")
	}

	select {
	case evt := <-ch2:
		t.Errorf("p2 subscriber received p1 event: %+v", evt)
	default:
	}
}

func Test_Broker_cancelStopsDelivery(t *testing.T) {
	b := NewBroker()

	ch, cancel := b.Subscribe("p1")
	cancel()
	cancel() // idempotent

	b.ManualRefresh("p1")

	// channel is closed on cancel; no event may arrive after disposal
	if evt, ok := <-ch; ok {
		t.Errorf("received event after cancel: %+v", evt)
	}
}

func Test_Broker_slowSubscriberDoesNotBlockPublish(t *testing.T) {
	b := NewBroker()

	_, cancel := b.Subscribe("p1")
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < subscriberBuffer*2; i++ {
			b.FieldConfirmed("p1", project.SectionIDOMetrics, "ido_date")
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish() blocked on a full subscriber")
	}
}
