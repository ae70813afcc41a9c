package broadcast

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/jonboulle/clockwork"

	"github.com/cijokb/friendlypix-web-react/internal/metrics"
	"github.com/cijokb/friendlypix-web-react/internal/store"
)

const (
	commandTimeout = 5 * time.Second
	stopTimeout    = 10 * time.Second
)

type pageClients map[*websocket.Conn]*clientWriter

// broadcasterCmd is the command interface for the Broadcaster actor.
type broadcasterCmd interface{ isBroadcasterCmd() }

type baseBroadcasterCmd struct{}

func (baseBroadcasterCmd) isBroadcasterCmd() {}

type registerCmd struct {
	baseBroadcasterCmd
	pageUUID     uuid.UUID
	connection   *websocket.Conn
	errorChannel chan error
}

type unregisterCmd struct {
	baseBroadcasterCmd
	pageUUID   uuid.UUID
	connection *websocket.Conn
}

type stateChangedCmd struct {
	baseBroadcasterCmd
}

type getClientCountCmd struct {
	baseBroadcasterCmd
	pageUUID     uuid.UUID
	replyChannel chan int
}

type stopCmd struct {
	baseBroadcasterCmd
}

// Broadcaster pushes a JSON snapshot of the state container to every
// connected client whenever the store notifies. It subscribes to the
// store once at construction and detaches on Stop.
type Broadcaster struct {
	cmdCh             chan broadcasterCmd
	clock             clockwork.Clock
	st                *store.Store
	unsubscribe       func()
	activeClients     map[uuid.UUID]pageClients
	done              chan struct{}
	stopTimeout       time.Duration
	maxClientsPerPage int
}

// NewBroadcaster creates a broadcaster attached to st.
// maxClientsPerPage limits connections per page UUID.
func NewBroadcaster(st *store.Store, clock clockwork.Clock, maxClientsPerPage int) *Broadcaster {
	b := &Broadcaster{
		cmdCh:             make(chan broadcasterCmd, 256),
		clock:             clock,
		st:                st,
		activeClients:     make(map[uuid.UUID]pageClients),
		done:              make(chan struct{}),
		stopTimeout:       stopTimeout,
		maxClientsPerPage: maxClientsPerPage,
	}
	b.unsubscribe = st.Subscribe(func() {
		// Coalescing happens at the command channel: a full channel
		// means a snapshot push is already queued behind older work.
		select {
		case b.cmdCh <- stateChangedCmd{}:
		default:
		}
	})
	go b.run()
	return b
}

// Register adds a client connection under pageUUID. Returns an error
// when the page is at its connection limit.
func (b *Broadcaster) Register(pageUUID uuid.UUID, conn *websocket.Conn) error {
	errCh := make(chan error, 1)
	b.cmdCh <- registerCmd{pageUUID: pageUUID, connection: conn, errorChannel: errCh}

	timer := b.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case err := <-errCh:
		return err
	case <-timer.Chan():
		return fmt.Errorf("register command timed out after %v", commandTimeout)
	}
}

// Unregister removes a client connection.
func (b *Broadcaster) Unregister(pageUUID uuid.UUID, conn *websocket.Conn) {
	b.cmdCh <- unregisterCmd{pageUUID: pageUUID, connection: conn}
}

// GetClientCount returns the number of connected clients for a page,
// or -1 if the command times out.
func (b *Broadcaster) GetClientCount(pageUUID uuid.UUID) int {
	replyCh := make(chan int, 1)
	b.cmdCh <- getClientCountCmd{pageUUID: pageUUID, replyChannel: replyCh}

	timer := b.clock.NewTimer(commandTimeout)
	defer timer.Stop()

	select {
	case count := <-replyCh:
		return count
	case <-timer.Chan():
		slog.Warn("GetClientCount timed out", "timeout", commandTimeout)
		return -1
	}
}

// Stop detaches from the store and closes all client connections.
// Blocks until the actor goroutine has exited or the timeout passes.
func (b *Broadcaster) Stop() {
	b.unsubscribe()
	b.cmdCh <- stopCmd{}

	timeout := b.clock.NewTimer(b.stopTimeout)
	defer timeout.Stop()

	select {
	case <-b.done:
		slog.Info("Broadcaster stopped gracefully")
	case <-timeout.Chan():
		slog.Warn("Broadcaster stop timeout exceeded, forcing exit", "timeout", b.stopTimeout)
		metrics.BroadcastStopTimeoutsTotal.Inc()
		close(b.done)
	}
}

func (b *Broadcaster) run() {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Broadcaster panic recovered", "panic", r)
			b.closeAllClients("broadcaster panic")
		}
	}()
	defer close(b.done)

	for cmd := range b.cmdCh {
		switch c := cmd.(type) {
		case registerCmd:
			b.handleRegister(c)
		case unregisterCmd:
			b.handleUnregister(c)
		case stateChangedCmd:
			b.handleStateChanged()
		case getClientCountCmd:
			c.replyChannel <- len(b.activeClients[c.pageUUID])
		case stopCmd:
			b.handleStop()
			return
		default:
			slog.Warn("Broadcaster received unknown command type", "command_type", fmt.Sprintf("%T", cmd))
		}
	}
}

func (b *Broadcaster) handleRegister(c registerCmd) {
	clients, exists := b.activeClients[c.pageUUID]
	if !exists {
		clients = make(pageClients)
		b.activeClients[c.pageUUID] = clients
	}

	if len(clients) >= b.maxClientsPerPage {
		slog.Warn("Rejecting client: max clients reached", "page_uuid", c.pageUUID.String(), "max_clients", b.maxClientsPerPage)
		_ = c.connection.Close()
		c.errorChannel <- fmt.Errorf("max clients per page (%d) reached", b.maxClientsPerPage)
		return
	}

	cw := newClientWriter(c.connection, b.clock)
	clients[c.connection] = cw

	// New clients get the current snapshot right away rather than
	// waiting for the next dispatch.
	if data, err := b.snapshot(); err == nil {
		cw.sendChannel <- data
	}

	metrics.BroadcastActivePages.Set(float64(len(b.activeClients)))
	metrics.BroadcastConnectedClients.Inc()

	slog.Debug("Client registered", "page_uuid", c.pageUUID.String(), "total_clients", len(clients))
	c.errorChannel <- nil
}

func (b *Broadcaster) handleUnregister(c unregisterCmd) {
	clients, exists := b.activeClients[c.pageUUID]
	if !exists {
		return
	}

	cw, exists := clients[c.connection]
	if !exists {
		return
	}

	cw.stop()
	delete(clients, c.connection)
	metrics.BroadcastConnectedClients.Dec()

	if len(clients) == 0 {
		delete(b.activeClients, c.pageUUID)
		metrics.BroadcastActivePages.Set(float64(len(b.activeClients)))
		slog.Debug("Last client disconnected", "page_uuid", c.pageUUID.String())
	}
}

func (b *Broadcaster) handleStateChanged() {
	if len(b.activeClients) == 0 {
		return
	}

	data, err := b.snapshot()
	if err != nil {
		slog.Error("Failed to marshal state snapshot", "error", err)
		return
	}

	for pageUUID, clients := range b.activeClients {
		var slow []*websocket.Conn
		for conn, writer := range clients {
			select {
			case writer.sendChannel <- data:
			default:
				slow = append(slow, conn)
			}
		}

		for _, conn := range slow {
			slog.Warn("Disconnecting slow client", "page_uuid", pageUUID.String())
			metrics.BroadcastSlowClientsEvicted.Inc()
			b.handleUnregister(unregisterCmd{pageUUID: pageUUID, connection: conn})
		}
	}
}

func (b *Broadcaster) snapshot() ([]byte, error) {
	return json.Marshal(b.st.GetState())
}

func (b *Broadcaster) handleStop() {
	totalClients := 0
	for _, clients := range b.activeClients {
		totalClients += len(clients)
	}

	slog.Info("Broadcaster shutting down", "pages", len(b.activeClients), "total_clients", totalClients)
	b.closeAllClients("Server shutting down")
}

func (b *Broadcaster) closeAllClients(reason string) {
	for pageUUID, clients := range b.activeClients {
		for _, cw := range clients {
			cw.stopGraceful(reason)
		}
		delete(b.activeClients, pageUUID)
	}
	metrics.BroadcastActivePages.Set(0)
}
