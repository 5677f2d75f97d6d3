package services

import (
	"strconv"
	"sync"
	"time"

	"github.com/lotgo/lotgo-backend/game"
)

const (
	// MaxPlayersPerRoom caps joins; further joins get ErrRoomFull.
	MaxPlayersPerRoom = 10

	// AutoRevealInterval is the cadence of auto-mode reveals.
	AutoRevealInterval = 2 * time.Second
	// TurnDuration is how long the current player has to reveal in manual mode.
	TurnDuration = 5 * time.Second
	// TurnTickInterval is the granularity of the turn-deadline check.
	TurnTickInterval = time.Second
	// RoomResetDelay is the cooldown between game over and the room going
	// back to waiting.
	RoomResetDelay = 5 * time.Second
)

const (
	RoomWaiting = "waiting"
	RoomPlaying = "playing"
)

// Player is the room-scoped view of a user.
type Player struct {
	UserID   uint
	ConnID   string
	Username string
	Ready    bool
	Numbers  []int // declared selection; nil until submitted
}

// GameSession is one active round inside a room. All fields are guarded by
// the owning room's mutex.
type GameSession struct {
	Deck          []game.Card
	RevealedCount int
	TurnIndex     int
	TurnDeadline  time.Time
	Pot           float64
	Finished      bool
	RoundID       uint

	// cancel stops the scheduler goroutine for this session. It is closed
	// exactly once: either when the session finishes or when the room is
	// deleted mid-game. The scheduler compares its own channel against the
	// session's before acting, so a tick racing cancellation is a no-op.
	cancel chan struct{}
}

// Room is a lobby plus at most one running session. Every mutation of a room
// happens under mu; rooms never share state, so distinct rooms run fully in
// parallel.
type Room struct {
	mu sync.Mutex

	ID         string
	HostID     uint
	Players    []*Player
	Mode       game.Mode
	RevealMode game.RevealMode
	Status     string
	Session    *GameSession

	// deleted marks a room removed from the registry; any operation that
	// still holds a stale pointer sees it and backs off.
	deleted bool
}

// playerIndex returns the position of a user in the ordered player list, or
// -1 when absent.
func (r *Room) playerIndex(userID uint) int {
	for i, p := range r.Players {
		if p.UserID == userID {
			return i
		}
	}
	return -1
}

// removePlayerLocked drops a player and repairs host ownership and the turn
// pointer. Host succession is always "first remaining player", recomputed on
// every removal rather than left to array order accidents.
func (r *Room) removePlayerLocked(userID uint) bool {
	idx := r.playerIndex(userID)
	if idx < 0 {
		return false
	}
	r.Players = append(r.Players[:idx], r.Players[idx+1:]...)

	if len(r.Players) == 0 {
		return true
	}
	if r.HostID == userID {
		r.HostID = r.Players[0].UserID
	}
	if s := r.Session; s != nil && !s.Finished {
		if idx < s.TurnIndex {
			s.TurnIndex--
		}
		if s.TurnIndex >= len(r.Players) {
			s.TurnIndex = 0
		}
	}
	return true
}

// picksLocked snapshots the declared numbers of current players for win
// evaluation. Players who left mid-round take their eligibility with them.
func (r *Room) picksLocked() []game.Pick {
	picks := make([]game.Pick, 0, len(r.Players))
	for _, p := range r.Players {
		if len(p.Numbers) == 0 {
			continue
		}
		picks = append(picks, game.Pick{
			PlayerID: strconv.FormatUint(uint64(p.UserID), 10),
			Numbers:  p.Numbers,
		})
	}
	return picks
}

// allReadyLocked reports whether the start gate is open.
func (r *Room) allReadyLocked() bool {
	if len(r.Players) == 0 {
		return false
	}
	for _, p := range r.Players {
		if !p.Ready {
			return false
		}
	}
	return true
}

// viewLocked builds the full snapshot broadcast to room members.
func (r *Room) viewLocked() RoomView {
	players := make([]PlayerView, len(r.Players))
	for i, p := range r.Players {
		players[i] = PlayerView{
			UserID:       p.UserID,
			Username:     p.Username,
			Ready:        p.Ready,
			Numbers:      append([]int(nil), p.Numbers...),
			HasSelection: len(p.Numbers) > 0,
		}
	}

	view := RoomView{
		ID:         r.ID,
		HostID:     r.HostID,
		Status:     r.Status,
		Mode:       r.Mode.Name,
		RevealMode: string(r.RevealMode),
		Stake:      r.Mode.Stake,
		Players:    players,
	}

	if s := r.Session; s != nil {
		gv := &GameView{
			DeckSize:      len(s.Deck),
			RevealedCount: s.RevealedCount,
			Revealed:      game.RevealedValues(s.Deck),
			Pot:           s.Pot,
		}
		if r.RevealMode == game.RevealManual && !s.Finished && s.TurnIndex < len(r.Players) {
			gv.TurnUserID = r.Players[s.TurnIndex].UserID
			gv.TurnDeadline = s.TurnDeadline.UnixMilli()
		}
		view.Game = gv
	}
	return view
}

// digestLocked builds the room-list entry broadcast to all connections.
func (r *Room) digestLocked(hostName string) RoomDigest {
	return RoomDigest{
		ID:          r.ID,
		Host:        hostName,
		PlayerCount: len(r.Players),
		MaxPlayers:  MaxPlayersPerRoom,
		Mode:        r.Mode.Name,
		RevealMode:  string(r.RevealMode),
		Stake:       r.Mode.Stake,
		InProgress:  r.Status == RoomPlaying,
	}
}
