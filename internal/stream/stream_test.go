package stream

import (
	"context"
	"sync"
	"testing"
	"time"

	pb "github.com/lonelybeanz/solanaswap-go/yellowstone-grpc"
)

// no Geyser listens here; dialing is lazy so construction succeeds
// and the failure surfaces through the subscription
const unreachableEndpoint = "127.0.0.1:1"

func waitClosed(t *testing.T, recv chan interface{}) {
	t.Helper()
	deadline := time.After(10 * time.Second)
	for {
		select {
		case _, ok := <-recv:
			if !ok {
				return
			}
		case <-deadline:
			t.Fatal("subscription channel never closed")
		}
	}
}

func TestSubscribeAbortsOnCancel(t *testing.T) {
	gs, err := NewGrpcStream(unreachableEndpoint, "", true)
	if err != nil {
		t.Fatal(err)
	}
	defer gs.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	recv := make(chan interface{})
	var once sync.Once
	gs.Subscribe(ctx, &pb.SubscribeRequest{}, &once, recv)

	// the subscribe goroutine must exit and close the channel rather
	// than linger on a dead context
	waitClosed(t, recv)
}

func TestSubscribeSurfacesConnectError(t *testing.T) {
	gs, err := NewGrpcStream(unreachableEndpoint, "", true)
	if err != nil {
		t.Fatal(err)
	}
	defer gs.Close()

	recv := make(chan interface{})
	var once sync.Once
	gs.Subscribe(context.Background(), &pb.SubscribeRequest{}, &once, recv)

	waitClosed(t, recv)
	if gs.Err() == nil {
		t.Fatal("a dead subscription must report why it died")
	}
}

func TestSafeSendAbortsWhenReaderGone(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	ch := make(chan interface{}) // nobody ever reads

	done := make(chan bool, 1)
	go func() {
		done <- safeSend(ctx, ch, &StreamMessage{Source: "test"})
	}()
	cancel()

	select {
	case ok := <-done:
		if ok {
			t.Fatal("send without a reader must not report success")
		}
	case <-time.After(5 * time.Second):
		t.Fatal("send blocked forever with no reader")
	}
}

func TestSafeSendSurvivesClosedChannel(t *testing.T) {
	ch := make(chan interface{})
	close(ch)

	if safeSend(context.Background(), ch, &StreamMessage{Source: "test"}) {
		t.Fatal("send on a closed channel must report failure, not panic")
	}
}
