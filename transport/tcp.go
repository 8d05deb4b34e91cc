package transport

import (
	"context"
	"encoding/json"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

const (
	dialTimeout   = 5 * time.Second
	sendQueueSize = 256
)

// tcpTransport implements Transport over persistent TCP links carrying
// JSON-encoded frames.
type tcpTransport struct {
	listenAddr string
	listener   net.Listener
	handler    FrameHandler

	// Outbound links keyed by remote listen address
	links  map[string]*tcpLink
	linkMu sync.Mutex

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	started int32 // atomic
}

// tcpLink is one outbound connection with its send pump.
type tcpLink struct {
	addr     string
	conn     net.Conn
	sendChan chan *Frame

	closeOnce sync.Once
	closed    chan struct{}
}

// NewTCP creates a TCP transport listening on listenAddr.
func NewTCP(listenAddr string) Transport {
	return &tcpTransport{
		listenAddr: listenAddr,
		links:      make(map[string]*tcpLink),
	}
}

func (t *tcpTransport) SetHandler(handler FrameHandler) {
	t.handler = handler
}

func (t *tcpTransport) LocalAddr() string {
	if t.listener != nil {
		return t.listener.Addr().String()
	}
	return t.listenAddr
}

func (t *tcpTransport) Start(ctx context.Context) error {
	if !atomic.CompareAndSwapInt32(&t.started, 0, 1) {
		return errors.New("transport already started")
	}

	t.ctx, t.cancel = context.WithCancel(ctx)

	listener, err := net.Listen("tcp", t.listenAddr)
	if err != nil {
		atomic.StoreInt32(&t.started, 0)
		return errors.Wrapf(err, "failed to listen on %s", t.listenAddr)
	}
	t.listener = listener

	t.wg.Add(1)
	go t.acceptLoop()

	return nil
}

func (t *tcpTransport) Stop() error {
	if !atomic.CompareAndSwapInt32(&t.started, 1, 0) {
		return nil // already stopped
	}

	if t.listener != nil {
		t.listener.Close()
	}

	t.linkMu.Lock()
	for _, link := range t.links {
		link.close()
	}
	t.links = make(map[string]*tcpLink)
	t.linkMu.Unlock()

	t.cancel()
	t.wg.Wait()

	return nil
}

// Send delivers frame to the node listening on addr, dialing a link on
// first use.
func (t *tcpTransport) Send(addr string, frame *Frame) error {
	if atomic.LoadInt32(&t.started) == 0 {
		return errors.New("transport not started")
	}

	link, err := t.linkTo(addr)
	if err != nil {
		return err
	}

	select {
	case link.sendChan <- frame:
		return nil
	case <-link.closed:
		return errors.Errorf("link to %s closed", addr)
	case <-t.ctx.Done():
		return errors.New("transport stopped")
	}
}

func (t *tcpTransport) linkTo(addr string) (*tcpLink, error) {
	t.linkMu.Lock()
	defer t.linkMu.Unlock()

	if link, ok := t.links[addr]; ok {
		select {
		case <-link.closed:
			delete(t.links, addr)
		default:
			return link, nil
		}
	}

	conn, err := net.DialTimeout("tcp", addr, dialTimeout)
	if err != nil {
		return nil, errors.Wrapf(err, "failed to dial %s", addr)
	}

	link := &tcpLink{
		addr:     addr,
		conn:     conn,
		sendChan: make(chan *Frame, sendQueueSize),
		closed:   make(chan struct{}),
	}
	t.links[addr] = link

	t.wg.Add(1)
	go t.sendPump(link)

	return link, nil
}

// sendPump serializes outbound frames on one link.
func (t *tcpTransport) sendPump(link *tcpLink) {
	defer t.wg.Done()
	defer link.close()

	encoder := json.NewEncoder(link.conn)

	for {
		select {
		case frame := <-link.sendChan:
			if err := encoder.Encode(frame); err != nil {
				logrus.WithError(err).Errorf("send to %s failed, dropping link", link.addr)
				t.dropLink(link)
				return
			}
		case <-link.closed:
			return
		case <-t.ctx.Done():
			return
		}
	}
}

func (t *tcpTransport) dropLink(link *tcpLink) {
	t.linkMu.Lock()
	if t.links[link.addr] == link {
		delete(t.links, link.addr)
	}
	t.linkMu.Unlock()
}

func (t *tcpTransport) acceptLoop() {
	defer t.wg.Done()

	for {
		conn, err := t.listener.Accept()
		if err != nil {
			select {
			case <-t.ctx.Done():
				return
			default:
			}
			if atomic.LoadInt32(&t.started) == 0 {
				return
			}
			logrus.WithError(err).Debugf("accept failed on %s", t.listenAddr)
			continue
		}

		t.wg.Add(1)
		go t.readLoop(conn)
	}
}

// readLoop decodes inbound frames from one accepted connection and hands
// them to the frame handler.
func (t *tcpTransport) readLoop(conn net.Conn) {
	defer t.wg.Done()
	defer conn.Close()

	go func() {
		<-t.ctx.Done()
		conn.Close()
	}()

	decoder := json.NewDecoder(conn)
	for {
		var frame Frame
		if err := decoder.Decode(&frame); err != nil {
			select {
			case <-t.ctx.Done():
			default:
				logrus.WithError(err).Debugf("link from %s closed", conn.RemoteAddr())
			}
			return
		}

		if t.handler != nil {
			t.handler(&frame)
		}
	}
}

func (l *tcpLink) close() {
	l.closeOnce.Do(func() {
		close(l.closed)
		l.conn.Close()
	})
}
