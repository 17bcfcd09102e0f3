package verify

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatchSubscribeSeesCurrentValue(t *testing.T) {
	w := NewWatch(3)
	ch := w.Subscribe()
	select {
	case v := <-ch:
		require.Equal(t, 3, v)
	default:
		t.Fatal("subscribe channel should be pre-loaded with the current value")
	}
}

func TestWatchSendDeliversToExistingSubscriber(t *testing.T) {
	w := NewWatch(0)
	ch := w.Subscribe()
	<-ch // drain the initial value

	w.Send(1)
	select {
	case v := <-ch:
		require.Equal(t, 1, v)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Send to deliver")
	}
}

func TestWatchSendOverwritesStaleBufferedValue(t *testing.T) {
	w := NewWatch(0)
	ch := w.Subscribe()
	<-ch

	// Two sends with nobody reading between them: the slow subscriber must
	// observe only the latest value, never the first.
	w.Send(1)
	w.Send(2)

	select {
	case v := <-ch:
		require.Equal(t, 2, v)
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for Send to deliver")
	}
	select {
	case v := <-ch:
		t.Fatalf("unexpected second value delivered: %v", v)
	default:
	}
}

func TestWatchValueReflectsLatestSend(t *testing.T) {
	w := NewWatch("a")
	require.Equal(t, "a", w.Value())
	w.Send("b")
	require.Equal(t, "b", w.Value())
}

func TestWatchMultipleSubscribersAllReceive(t *testing.T) {
	w := NewWatch(0)
	ch1 := w.Subscribe()
	ch2 := w.Subscribe()
	<-ch1
	<-ch2

	w.Send(42)
	for _, ch := range []<-chan int{ch1, ch2} {
		select {
		case v := <-ch:
			require.Equal(t, 42, v)
		case <-time.After(time.Second):
			t.Fatal("timed out waiting for Send to deliver")
		}
	}
}
