package services

import (
	"sync"
	"testing"
	"time"

	"go.uber.org/goleak"

	"soukBack/internal/models"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestNotifierDeliversToSubscribers(t *testing.T) {
	n := NewNotifier()
	a, unsubA := n.Subscribe("u1")
	b, unsubB := n.Subscribe("u1")
	other, unsubOther := n.Subscribe("u2")
	defer unsubOther()

	n.Publish(models.AuthEvent{Type: models.AuthSignedIn, UserID: "u1", At: time.Now()})
	for _, ch := range []<-chan models.AuthEvent{a, b} {
		select {
		case ev := <-ch:
			if ev.Type != models.AuthSignedIn {
				t.Fatalf("got %v", ev.Type)
			}
		default:
			t.Fatal("event not delivered")
		}
	}
	select {
	case ev := <-other:
		t.Fatalf("u2 received %v", ev)
	default:
	}

	unsubA()
	unsubA()
	if _, ok := <-a; ok {
		t.Fatal("channel open after unsubscribe")
	}
	if got := n.Subscribers("u1"); got != 1 {
		t.Fatalf("Subscribers = %d, want 1", got)
	}
	unsubB()
	if got := n.Subscribers("u1"); got != 0 {
		t.Fatalf("Subscribers = %d, want 0", got)
	}
}

func TestNotifierDropsWhenFull(t *testing.T) {
	n := NewNotifier()
	ch, unsub := n.Subscribe("u1")
	defer unsub()
	for i := 0; i < subscriberBuffer*2; i++ {
		n.Publish(models.AuthEvent{Type: models.AuthTokenRefreshed, UserID: "u1"})
	}
	if len(ch) != subscriberBuffer {
		t.Fatalf("buffered %d events, want %d", len(ch), subscriberBuffer)
	}
}

func TestNotifierConcurrentPublishAndUnsubscribe(t *testing.T) {
	n := NewNotifier()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		ch, unsub := n.Subscribe("u1")
		wg.Add(2)
		go func() {
			defer wg.Done()
			for range ch {
			}
		}()
		go func() {
			defer wg.Done()
			n.Publish(models.AuthEvent{Type: models.AuthSignedIn, UserID: "u1"})
			unsub()
		}()
	}
	wg.Wait()
	if got := n.Subscribers("u1"); got != 0 {
		t.Fatalf("Subscribers = %d after all unsubscribed", got)
	}
}

func TestNilNotifierPublish(t *testing.T) {
	var n *Notifier
	n.Publish(models.AuthEvent{UserID: "u1"})
}
