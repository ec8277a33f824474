package service

import (
	"net/http"
	"sync"
	"time"

	"checkout/api/internal/logger"
	"checkout/pkg/nats/natsdomain"
	"checkout/pkg/utils"

	"github.com/gorilla/websocket"
)

const (
	pushWriteWait  = 10 * time.Second
	pushPongWait   = 60 * time.Second
	pushPingPeriod = pushPongWait * 9 / 10
	pushBuffer     = 8
)

type subscriber struct {
	send chan []byte
}

// StatusHubService fans status changes out to the checkout pages that are
// subscribed to an invoice over websocket.
type StatusHubService struct {
	upgrader websocket.Upgrader
	mu       sync.Mutex
	subs     map[string]map[*subscriber]struct{}
	l        logger.Logger
}

func NewStatusHubService(l logger.Logger) *StatusHubService {
	return &StatusHubService{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// pages are embedded on merchant sites
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		subs: make(map[string]map[*subscriber]struct{}),
		l:    l,
	}
}

func (s *StatusHubService) add(invoiceId string, sub *subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.subs[invoiceId] == nil {
		s.subs[invoiceId] = make(map[*subscriber]struct{})
	}
	s.subs[invoiceId][sub] = struct{}{}
}

func (s *StatusHubService) remove(invoiceId string, sub *subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.subs[invoiceId], sub)
	if len(s.subs[invoiceId]) == 0 {
		delete(s.subs, invoiceId)
	}
}

func (s *StatusHubService) Subscribers(invoiceId string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs[invoiceId])
}

// Broadcast never blocks, a subscriber with a full buffer misses the message
// and catches up on its next status request.
func (s *StatusHubService) Broadcast(event *natsdomain.StatusChanged) {
	msg := utils.MustMarshal(map[string]string{"status": event.Status})

	s.mu.Lock()
	defer s.mu.Unlock()

	for sub := range s.subs[event.InvoiceID] {
		select {
		case sub.send <- msg:
		default:
		}
	}
}

func (s *StatusHubService) Serve(w http.ResponseWriter, r *http.Request, invoiceId string) error {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader already replied
		return err
	}

	sub := &subscriber{send: make(chan []byte, pushBuffer)}
	s.add(invoiceId, sub)
	s.l.Debug("push subscriber connected", "invoice_id", invoiceId, "remote", r.RemoteAddr)

	closed := make(chan struct{})
	go s.readLoop(conn, closed)
	s.writeLoop(conn, sub, closed)

	s.remove(invoiceId, sub)
	return nil
}

// pages never send anything, reads only detect the close
func (s *StatusHubService) readLoop(conn *websocket.Conn, closed chan struct{}) {
	defer close(closed)

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pushPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pushPongWait))
	})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (s *StatusHubService) writeLoop(conn *websocket.Conn, sub *subscriber, closed chan struct{}) {
	ticker := time.NewTicker(pushPingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case <-closed:
			return
		case msg := <-sub.send:
			conn.SetWriteDeadline(time.Now().Add(pushWriteWait))
			if err := conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(pushWriteWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
