// internal/game/lobby.go
package game

import (
	"fmt"
	"math/rand"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/mfranchi/imposter/internal/protocol"
)

// State is the lobby's position in the game cycle.
type State string

const (
	StateWaiting  State = "WAITING"
	StatePlaying  State = "PLAYING"
	StateVoting   State = "VOTING"
	StateGameOver State = "GAME_OVER"
)

// Settings is a lobby's resolved configuration snapshot, immutable after
// creation.
type Settings struct {
	MaxPlayers       int
	MinPlayers       int
	RoundsBeforeVote int
}

// apply merges a client-supplied override over the defaults.
func (s Settings) apply(o *protocol.SettingsOverride) Settings {
	if o == nil {
		return s
	}
	if o.MaxPlayers != nil && *o.MaxPlayers > 0 {
		s.MaxPlayers = *o.MaxPlayers
	}
	if o.MinPlayers != nil && *o.MinPlayers > 0 {
		s.MinPlayers = *o.MinPlayers
	}
	if o.RoundsBeforeVote != nil && *o.RoundsBeforeVote > 0 {
		s.RoundsBeforeVote = *o.RoundsBeforeVote
	}
	return s
}

// PlayerConn is a player's outbound message queue. The connection handler
// owning the socket drains OutChan from its write pump; the lobby only
// ever pushes into it.
type PlayerConn struct {
	OutChan chan protocol.Message
	Cancel  func()
}

// NewPlayerConn returns a conn with a buffered outbound queue.
func NewPlayerConn(cancel func()) *PlayerConn {
	return &PlayerConn{
		OutChan: make(chan protocol.Message, 16),
		Cancel:  cancel,
	}
}

// Write pushes a message without blocking. A full queue means the peer is
// stuck or gone; the message is dropped so a dead recipient can never
// stall a broadcast or re-enter the lobby lock.
func (c *PlayerConn) Write(msg protocol.Message) bool {
	select {
	case c.OutChan <- msg:
		return true
	default:
		return false
	}
}

// Player is one roster entry. Roster order is join order; index 0 is the
// host.
type Player struct {
	Nickname string
	Conn     *PlayerConn
}

// Lobby is one game session. All mutation happens under mu; methods with
// the Unsafe suffix assume the caller holds it.
type Lobby struct {
	mu sync.Mutex

	code     string
	settings Settings
	words    []string

	players    []*Player
	state      State
	secretWord string
	imposter   string
	turnOrder  []string
	turnIndex  int
	rounds     int
	votes      map[string]string

	rng    *rand.Rand
	logger *logrus.Entry

	// OnEmpty fires (outside the lock) when the last player leaves.
	// Assigned by the Registry so the lobby removes itself from the
	// directory.
	OnEmpty func(code string)
}

// NewLobby builds a lobby in WAITING with the given resolved settings and
// word list.
func NewLobby(code string, settings Settings, words []string, logger *logrus.Logger) *Lobby {
	return &Lobby{
		code:     code,
		settings: settings,
		words:    words,
		state:    StateWaiting,
		votes:    make(map[string]string),
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		logger:   logger.WithField("lobby", code),
	}
}

// Code returns the lobby's immutable join code.
func (l *Lobby) Code() string {
	return l.code
}

// State returns the current phase.
func (l *Lobby) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// HostName returns the current host, the longest-surviving roster entry.
func (l *Lobby) HostName() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.hostNameUnsafe()
}

// Roster returns the nicknames in join order.
func (l *Lobby) Roster() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.rosterUnsafe()
}

func (l *Lobby) hostNameUnsafe() string {
	if len(l.players) == 0 {
		return ""
	}
	return l.players[0].Nickname
}

func (l *Lobby) rosterUnsafe() []string {
	names := make([]string, len(l.players))
	for i, p := range l.players {
		names[i] = p.Nickname
	}
	return names
}

func (l *Lobby) findUnsafe(nickname string) int {
	for i, p := range l.players {
		if p.Nickname == nickname {
			return i
		}
	}
	return -1
}

// AddPlayer admits a player while the lobby is WAITING. Colliding
// nicknames get the smallest unused numeric suffix ("Name", "Name 1",
// "Name 2", ...). Returns the nickname actually stored.
func (l *Lobby) AddPlayer(nickname string, conn *PlayerConn) (string, error) {
	l.mu.Lock()

	if l.state != StateWaiting {
		l.mu.Unlock()
		return "", ErrGameInProgress
	}
	if len(l.players) >= l.settings.MaxPlayers {
		l.mu.Unlock()
		return "", ErrLobbyFull
	}

	assigned := nickname
	for n := 1; l.findUnsafe(assigned) != -1; n++ {
		assigned = fmt.Sprintf("%s %d", nickname, n)
	}

	l.players = append(l.players, &Player{Nickname: assigned, Conn: conn})
	l.logger.Infof("player %q joined (%d/%d)", assigned, len(l.players), l.settings.MaxPlayers)
	l.broadcastLobbyUnsafe("")

	l.mu.Unlock()
	return assigned, nil
}

// RemovePlayer drops a player from the roster. Leaving mid-game resets
// the lobby to WAITING, since turn order and the imposter role may
// reference the departed player. When the roster empties, OnEmpty fires
// after the lock is released.
func (l *Lobby) RemovePlayer(nickname string) {
	l.mu.Lock()

	idx := l.findUnsafe(nickname)
	if idx == -1 {
		l.mu.Unlock()
		return
	}
	wasHost := idx == 0
	l.players = append(l.players[:idx], l.players[idx+1:]...)
	l.logger.Infof("player %q left", nickname)

	if len(l.players) == 0 {
		onEmpty := l.OnEmpty
		l.mu.Unlock()
		if onEmpty != nil {
			onEmpty(l.code)
		}
		return
	}

	if l.state == StatePlaying || l.state == StateVoting {
		l.resetUnsafe("Player disconnected. Game Reset.")
	} else {
		info := fmt.Sprintf("Player %s has left the game.", nickname)
		if wasHost {
			info = fmt.Sprintf("Host %s left. %s is the new Host.", nickname, l.hostNameUnsafe())
		}
		l.broadcastLobbyUnsafe(info)
	}

	l.mu.Unlock()
}

// Start deals roles and begins the clue phase. Only the host may start,
// and only with enough players.
func (l *Lobby) Start(requester string) error {
	l.mu.Lock()

	if l.state != StateWaiting {
		l.mu.Unlock()
		return ErrGameInProgress
	}
	if requester != l.hostNameUnsafe() {
		l.mu.Unlock()
		return ErrNotHost
	}
	if len(l.players) < l.settings.MinPlayers {
		need := l.settings.MinPlayers
		l.mu.Unlock()
		return fmt.Errorf("%w (min %d)", ErrNotEnoughPlayers, need)
	}

	l.state = StatePlaying
	l.secretWord = l.words[l.rng.Intn(len(l.words))]
	l.imposter = l.players[l.rng.Intn(len(l.players))].Nickname
	l.turnOrder = l.rosterUnsafe()
	l.rng.Shuffle(len(l.turnOrder), func(i, j int) {
		l.turnOrder[i], l.turnOrder[j] = l.turnOrder[j], l.turnOrder[i]
	})
	l.turnIndex = 0
	l.rounds = 0
	l.votes = make(map[string]string)

	l.logger.WithFields(logrus.Fields{
		"imposter": l.imposter,
		"players":  len(l.players),
	}).Info("game started")

	// Each player learns their role privately; the imposter never sees
	// the real word.
	for _, p := range l.players {
		role, word := protocol.RoleCitizen, l.secretWord
		if p.Nickname == l.imposter {
			role, word = protocol.RoleImposter, protocol.PlaceholderWord
		}
		l.sendUnsafe(p, protocol.Message{
			Type:      protocol.MsgGameStart,
			Role:      role,
			Word:      word,
			TurnOrder: l.turnOrder,
		})
	}
	l.broadcastTurnUnsafe()

	l.mu.Unlock()
	return nil
}

// HandleClue relays a clue from the current turn holder and advances the
// turn. Clues out of phase or out of turn are desync noise and are
// silently ignored.
func (l *Lobby) HandleClue(nickname, clue string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StatePlaying {
		return
	}
	if l.turnOrder[l.turnIndex] != nickname {
		return
	}

	l.broadcastUnsafe(protocol.Message{
		Type:   protocol.MsgClue,
		Sender: nickname,
		Clue:   clue,
	})

	l.turnIndex++
	if l.turnIndex >= len(l.turnOrder) {
		l.turnIndex = 0
		l.rounds++
		if l.rounds >= l.settings.RoundsBeforeVote {
			l.startVotingUnsafe()
			return
		}
	}
	l.broadcastTurnUnsafe()
}

// HandleVote records one accusation per voter. When every player has
// voted, the result is computed. Duplicate or out-of-phase votes are
// silently ignored.
func (l *Lobby) HandleVote(voter, suspect string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateVoting {
		return
	}
	if _, voted := l.votes[voter]; voted {
		return
	}

	l.votes[voter] = suspect
	l.logger.Infof("vote from %q (%d/%d)", voter, len(l.votes), len(l.players))
	if len(l.votes) >= len(l.players) {
		l.finishVotingUnsafe()
	}
}

func (l *Lobby) startVotingUnsafe() {
	l.state = StateVoting
	l.votes = make(map[string]string)
	l.broadcastUnsafe(protocol.Message{
		Type:       protocol.MsgStateUpdate,
		Phase:      protocol.PhaseVoting,
		Candidates: l.rosterUnsafe(),
	})
}

// finishVotingUnsafe tallies the votes and determines the winner. Ties
// (and the guarded no-votes case) favor the imposter: with no unambiguous
// ejection, nobody is ejected and the imposter survives.
func (l *Lobby) finishVotingUnsafe() {
	counts := make(map[string]int)
	for _, suspect := range l.votes {
		counts[suspect]++
	}

	top := 0
	var leaders []string
	for suspect, n := range counts {
		switch {
		case n > top:
			top = n
			leaders = []string{suspect}
		case n == top:
			leaders = append(leaders, suspect)
		}
	}
	sort.Strings(leaders)

	var winner, reason string
	switch {
	case len(leaders) == 0:
		winner = protocol.RoleImposter
		reason = "No votes cast. Imposter wins by default."
	case len(leaders) > 1:
		winner = protocol.RoleImposter
		reason = fmt.Sprintf("Tie between %s. No one ejected. Imposter wins!", strings.Join(leaders, ", "))
	case leaders[0] == l.imposter:
		winner = "CITIZENS"
		reason = fmt.Sprintf("Imposter %s caught! Citizens Win!", leaders[0])
	default:
		winner = protocol.RoleImposter
		reason = fmt.Sprintf("%s was NOT the Imposter. %s wins!", leaders[0], l.imposter)
	}

	l.logger.WithFields(logrus.Fields{"winner": winner, "reason": reason}).Info("game over")

	l.state = StateGameOver
	l.broadcastUnsafe(protocol.Message{
		Type:     protocol.MsgGameOver,
		Winner:   winner,
		Reason:   reason,
		Imposter: l.imposter,
		Word:     l.secretWord,
	})

	// GAME_OVER is a broadcast instant, not a resting state: the lobby
	// returns straight to WAITING so the same roster can go again.
	l.secretWord = ""
	l.imposter = ""
	l.turnOrder = nil
	l.votes = make(map[string]string)
	l.state = StateWaiting
	l.broadcastLobbyUnsafe("")
}

// resetUnsafe abandons an in-progress game and returns to WAITING.
func (l *Lobby) resetUnsafe(reason string) {
	l.state = StateWaiting
	l.secretWord = ""
	l.imposter = ""
	l.turnOrder = nil
	l.votes = make(map[string]string)
	l.broadcastLobbyUnsafe(reason)
}

func (l *Lobby) broadcastTurnUnsafe() {
	l.broadcastUnsafe(protocol.Message{
		Type:        protocol.MsgStateUpdate,
		Phase:       protocol.PhaseClue,
		CurrentTurn: l.turnOrder[l.turnIndex],
	})
}

func (l *Lobby) broadcastLobbyUnsafe(info string) {
	l.broadcastUnsafe(protocol.Message{
		Type:    protocol.MsgStateUpdate,
		Phase:   protocol.PhaseLobby,
		Players: l.rosterUnsafe(),
		Host:    l.hostNameUnsafe(),
		Info:    info,
	})
}

func (l *Lobby) broadcastUnsafe(msg protocol.Message) {
	for _, p := range l.players {
		l.sendUnsafe(p, msg)
	}
}

// sendUnsafe delivers to one player's queue. Per-recipient failure is
// logged and skipped; it never aborts delivery to the others.
func (l *Lobby) sendUnsafe(p *Player, msg protocol.Message) {
	if !p.Conn.Write(msg) {
		l.logger.Warnf("outbound queue full for %q, dropped %s", p.Nickname, msg.Type)
	}
}
