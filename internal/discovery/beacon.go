// internal/discovery/beacon.go
package discovery

import (
	"context"
	"fmt"
	"net"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mfranchi/imposter/internal/game"
)

// DefaultInterval is how often active lobbies are announced.
const DefaultInterval = 2 * time.Second

// Announcer supplies the lobbies to advertise. Satisfied by
// *game.Registry.
type Announcer interface {
	Announcements() []game.Announcement
}

// Beacon periodically broadcasts one UDP datagram per active lobby so
// clients on the same network can discover join codes without typing
// them. The datagrams are unauthenticated and purely advisory; lobby
// membership is never derived from them.
type Beacon struct {
	announcer Announcer
	addr      string
	interval  time.Duration
	logger    *logrus.Logger
}

// New builds a beacon that advertises to addr (a UDP broadcast
// address:port) every interval.
func New(announcer Announcer, addr string, interval time.Duration, logger *logrus.Logger) *Beacon {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Beacon{
		announcer: announcer,
		addr:      addr,
		interval:  interval,
		logger:    logger,
	}
}

// Datagram renders the discovery payload for one lobby.
func Datagram(a game.Announcement) []byte {
	return []byte(fmt.Sprintf("IMPOSTOR_GAME:%s:%s", a.Code, a.Host))
}

// Run broadcasts until the context is cancelled. Send failures are
// logged and the next tick tries again; the beacon never takes the
// server down.
func (b *Beacon) Run(ctx context.Context) error {
	dst, err := net.ResolveUDPAddr("udp4", b.addr)
	if err != nil {
		return fmt.Errorf("resolve beacon address %q: %w", b.addr, err)
	}
	conn, err := net.ListenUDP("udp4", nil)
	if err != nil {
		return fmt.Errorf("open beacon socket: %w", err)
	}
	defer conn.Close()

	b.logger.Infof("discovery beacon broadcasting to %s every %s", b.addr, b.interval)

	ticker := time.NewTicker(b.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			for _, a := range b.announcer.Announcements() {
				if _, err := conn.WriteToUDP(Datagram(a), dst); err != nil {
					b.logger.Warnf("beacon send failed for lobby %s: %v", a.Code, err)
				}
			}
		}
	}
}
