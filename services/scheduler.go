package services

import (
	"time"
)

// Schedulers are the only spontaneous source of room mutation. Each session
// gets exactly one scheduler goroutine, bound to the session's cancel
// channel. Every tick re-locks the room and verifies the session it was
// started for is still the live one before touching anything, so a tick that
// races cancellation or room deletion does nothing.

// runAutoScheduler reveals one card per interval until the session ends.
func (c *Coordinator) runAutoScheduler(roomID string, cancel chan struct{}) {
	ticker := time.NewTicker(AutoRevealInterval)
	defer ticker.Stop()

	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
			if !c.autoTick(roomID, cancel) {
				return
			}
		}
	}
}

func (c *Coordinator) autoTick(roomID string, cancel chan struct{}) bool {
	room, s := c.liveSession(roomID, cancel)
	if room == nil {
		return false
	}
	defer room.mu.Unlock()

	c.revealNextLocked(room)
	return !s.Finished
}

// runTurnScheduler watches the manual-mode turn deadline at coarse
// granularity and forfeits the turn on expiry. No card is revealed on a
// forfeit.
func (c *Coordinator) runTurnScheduler(roomID string, cancel chan struct{}) {
	ticker := time.NewTicker(TurnTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
			if !c.turnTick(roomID, cancel) {
				return
			}
		}
	}
}

func (c *Coordinator) turnTick(roomID string, cancel chan struct{}) bool {
	room, s := c.liveSession(roomID, cancel)
	if room == nil {
		return false
	}
	defer room.mu.Unlock()

	if time.Now().After(s.TurnDeadline) {
		c.advanceTurnLocked(room)
	}
	return !s.Finished
}

// liveSession locks the room and returns it with its session iff the session
// this scheduler was started for is still running. On success the room is
// returned locked; the caller must unlock. Any mismatch (room gone, session
// replaced, session finished) returns nil and the scheduler stops.
func (c *Coordinator) liveSession(roomID string, cancel chan struct{}) (*Room, *GameSession) {
	room := c.roomByID(roomID)
	if room == nil {
		return nil, nil
	}
	room.mu.Lock()
	s := room.Session
	if room.deleted || s == nil || s.cancel != cancel || s.Finished {
		room.mu.Unlock()
		return nil, nil
	}
	return room, s
}
