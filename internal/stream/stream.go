package stream

import (
	"context"
	"crypto/x509"
	"encoding/json"
	"io"
	"sync"
	"time"

	pb "github.com/lonelybeanz/solanaswap-go/yellowstone-grpc"

	"github.com/pkg/errors"
	"github.com/zeromicro/go-zero/core/logx"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/keepalive"
	"google.golang.org/grpc/metadata"
)

// StreamMessage wraps a raw update with the connection it came from.
type StreamMessage struct {
	Source string
	Data   interface{}
}

// GrpcStream is one or more Geyser connections sharing an x-token.
type GrpcStream struct {
	Conns  []*grpc.ClientConn
	Xtoken string

	mu      sync.Mutex
	lastErr error
}

// NewGrpcStream dials a single Geyser endpoint.
func NewGrpcStream(address, xtoken string, plaintext bool) (*GrpcStream, error) {
	conn, err := Dial(address, plaintext)
	if err != nil {
		return nil, err
	}
	return &GrpcStream{
		Conns:  []*grpc.ClientConn{conn},
		Xtoken: xtoken,
	}, nil
}

// Subscribe opens the subscription on every connection. The recv
// channel is closed (through once) when the last of them dies;
// cancelling ctx aborts the underlying streams.
func (b *GrpcStream) Subscribe(ctx context.Context, subscription *pb.SubscribeRequest, once *sync.Once, recv chan interface{}) {
	for _, conn := range b.Conns {
		go b.subscribeOnce(ctx, conn, subscription, once, recv)
	}
}

func (b *GrpcStream) Close() {
	for _, conn := range b.Conns {
		conn.Close()
	}
}

// Err reports why the subscription died, if it did.
func (b *GrpcStream) Err() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.lastErr
}

func (b *GrpcStream) setErr(err error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lastErr = err
}

var kacp = keepalive.ClientParameters{
	Time:                10 * time.Second,
	Timeout:             time.Second,
	PermitWithoutStream: true,
}

func Dial(address string, plaintext bool) (*grpc.ClientConn, error) {
	var opts []grpc.DialOption
	if plaintext {
		opts = append(opts, grpc.WithTransportCredentials(insecure.NewCredentials()))
	} else {
		pool, _ := x509.SystemCertPool()
		creds := credentials.NewClientTLSFromCert(pool, "")
		opts = append(opts, grpc.WithTransportCredentials(creds))
	}

	opts = append(opts, grpc.WithKeepaliveParams(kacp))

	logx.Infof("starting grpc client, connecting to %s", address)
	conn, err := grpc.NewClient(address, opts...)
	if err != nil {
		return nil, errors.Wrapf(err, "dial %s", address)
	}

	return conn, nil
}

func (b *GrpcStream) subscribeOnce(ctx context.Context, conn *grpc.ClientConn, subscription *pb.SubscribeRequest, once *sync.Once, recv chan interface{}) {
	client := pb.NewGeyserClient(conn)

	subscriptionJson, err := json.Marshal(&subscription)
	if err != nil {
		logx.Errorf("[%s]: failed to marshal subscription request: %v", conn.CanonicalTarget(), err)
		b.setErr(err)
		once.Do(func() { close(recv) })
		return
	}
	logx.Infof("[%s]: subscription request: %s", conn.CanonicalTarget(), string(subscriptionJson))

	// the stream lives and dies with the caller's ctx
	relayCtx := ctx
	if b.Xtoken != "" {
		md := metadata.New(map[string]string{"x-token": b.Xtoken})
		relayCtx = metadata.NewOutgoingContext(ctx, md)
	}
	stream, err := client.Subscribe(relayCtx)
	if err != nil {
		logx.Errorf("[%s]: subscribe error: %v", conn.CanonicalTarget(), err)
		b.setErr(err)
		once.Do(func() { close(recv) })
		return
	}
	if err := stream.Send(subscription); err != nil {
		logx.Errorf("[%s]: subscribe send error: %v", conn.CanonicalTarget(), err)
		b.setErr(err)
		once.Do(func() { close(recv) })
		return
	}

	logx.Infof("[%s]: start recv ...", conn.CanonicalTarget())
	for {
		resp, err := stream.Recv()
		if err == io.EOF {
			logx.Infof("[%s]: stream closed", conn.CanonicalTarget())
			b.setErr(errors.New("stream closed by server"))
			once.Do(func() { close(recv) })
			return
		}
		if err != nil {
			if ctx.Err() == nil {
				logx.Errorf("[%s]: error receiving update: %v", conn.CanonicalTarget(), err)
				b.setErr(err)
			}
			once.Do(func() { close(recv) })
			return
		}

		wrapped := &StreamMessage{
			Source: conn.CanonicalTarget(),
			Data:   resp,
		}
		if !safeSend(ctx, recv, wrapped) {
			logx.Infof("[%s]: reader gone, stopping subscription", conn.CanonicalTarget())
			once.Do(func() { close(recv) })
			return
		}
	}
}

// safeSend delivers v unless the reader is gone: ctx cancelled, or
// the channel already closed under us.
func safeSend(ctx context.Context, ch chan interface{}, v *StreamMessage) (ok bool) {
	defer func() {
		if r := recover(); r != nil {
			ok = false
		}
	}()
	select {
	case <-ctx.Done():
		return false
	case ch <- v:
		return true
	}
}
