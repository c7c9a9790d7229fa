package eventbus

import "testing"

func TestPublishFanout(t *testing.T) {
	b := New()
	a, unsubA := b.Subscribe(1)
	c, unsubC := b.Subscribe(1)
	defer unsubC()

	b.Publish(Event{Type: DatasetLoaded, Data: 3})
	for _, ch := range []<-chan Event{a, c} {
		e := <-ch
		if e.Type != DatasetLoaded || e.Data.(int) != 3 || e.Time.IsZero() {
			t.Fatalf("event=%+v", e)
		}
	}

	unsubA()
	unsubA()
	if _, ok := <-a; ok {
		t.Fatalf("channel should be closed after unsubscribe")
	}
	b.Publish(Event{Type: DatasetFailed})
	if e := <-c; e.Type != DatasetFailed {
		t.Fatalf("event=%+v", e)
	}
}

func TestPublishDropsWhenFull(t *testing.T) {
	b := New()
	ch, unsub := b.Subscribe(1)
	defer unsub()
	b.Publish(Event{Type: "one"})
	b.Publish(Event{Type: "two"})
	if e := <-ch; e.Type != "one" {
		t.Fatalf("first=%s", e.Type)
	}
	select {
	case e := <-ch:
		t.Fatalf("unexpected %s", e.Type)
	default:
	}
}
