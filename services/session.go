package services

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/lotgo/lotgo-backend/game"
	"github.com/lotgo/lotgo-backend/models"

	"gorm.io/datatypes"
)

// SetReady toggles the caller's ready flag. Readying up requires a valid
// number selection for the room's mode; a bad selection is rejected with the
// player left exactly as before.
func (c *Coordinator) SetReady(client *Client, numbers []int) error {
	userID, _, ok := client.identity()
	if !ok {
		return ErrNotIdentified
	}
	roomID := client.room()
	if roomID == "" {
		return ErrNotInRoom
	}
	room := c.roomByID(roomID)
	if room == nil {
		return ErrNotInRoom
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.deleted {
		return ErrNotInRoom
	}
	if room.Status != RoomWaiting {
		return ErrGameInProgress
	}
	idx := room.playerIndex(userID)
	if idx < 0 {
		return ErrNotInRoom
	}

	player := room.Players[idx]
	if player.Ready {
		player.Ready = false
	} else {
		if err := game.ValidatePicks(numbers, room.Mode); err != nil {
			return invalidSelection(err)
		}
		player.Numbers = append([]int(nil), numbers...)
		player.Ready = true
	}

	c.broadcastRoomLocked(room, newRoomEvent("room_update", room.viewLocked()))
	return nil
}

// StartGame is the host-only transition from waiting to playing: debit every
// stake, deal a shuffled deck, and hand the session to a scheduler.
func (c *Coordinator) StartGame(client *Client) error {
	userID, _, ok := client.identity()
	if !ok {
		return ErrNotIdentified
	}
	roomID := client.room()
	if roomID == "" {
		return ErrNotInRoom
	}
	room := c.roomByID(roomID)
	if room == nil {
		return ErrNotInRoom
	}

	room.mu.Lock()
	if room.deleted {
		room.mu.Unlock()
		return ErrNotInRoom
	}
	if room.HostID != userID {
		room.mu.Unlock()
		return ErrNotHost
	}
	if room.Status != RoomWaiting {
		room.mu.Unlock()
		return ErrGameInProgress
	}
	if !room.allReadyLocked() {
		room.mu.Unlock()
		return ErrNotAllReady
	}

	// Collect the stakes before anything becomes visible. A player whose
	// ledger debit fails drops out of the round; the start aborts if nobody
	// can pay.
	var staked []*Player
	var dropped []*Player
	for _, p := range room.Players {
		balance, err := c.ledger.Debit(p.UserID, room.Mode.Stake, models.StakeTransaction)
		if err != nil {
			c.log.Infow("stake debit failed, dropping player", "room", room.ID, "user", p.UserID, "err", err)
			dropped = append(dropped, p)
			continue
		}
		staked = append(staked, p)
		if cl := c.clientByConnID(p.ConnID); cl != nil {
			cl.setBalance(balance)
			c.send(cl, newBalanceUpdate(balance))
		}
	}

	for _, p := range dropped {
		if cl := c.clientByConnID(p.ConnID); cl != nil {
			cl.setRoom("")
			c.send(cl, newNotification("Insufficient balance for this round. You were removed from the room."))
		}
		room.removePlayerLocked(p.UserID)
	}

	if len(staked) == 0 {
		roomEmpty := len(room.Players) == 0
		if roomEmpty {
			room.deleted = true
		}
		room.mu.Unlock()
		if roomEmpty {
			c.roomsMu.Lock()
			delete(c.rooms, room.ID)
			c.roomsMu.Unlock()
		}
		c.broadcastRoomList()
		return ErrStartFailed
	}

	session := &GameSession{
		Deck:   game.NewDeck(room.Mode.DeckSize),
		Pot:    room.Mode.Stake * float64(len(staked)),
		cancel: make(chan struct{}),
	}
	room.Session = session
	room.Status = RoomPlaying

	round := &models.Round{
		RoomID:     room.ID,
		Mode:       room.Mode.Name,
		RevealMode: string(room.RevealMode),
		Stake:      room.Mode.Stake,
		Pot:        session.Pot,
		Status:     "in_progress",
		StartedAt:  time.Now(),
	}
	if deckJSON, err := json.Marshal(game.Values(session.Deck)); err == nil {
		round.DeckJSON = datatypes.JSON(deckJSON)
	}
	if err := c.rounds.Create(round); err != nil {
		c.log.Errorw("round create failed", "room", room.ID, "err", err)
	} else {
		session.RoundID = round.ID
	}

	c.broadcastRoomLocked(room, newRoomEvent("game_started", room.viewLocked()))

	if room.RevealMode == game.RevealManual {
		session.TurnIndex = 0
		session.TurnDeadline = time.Now().Add(TurnDuration)
		c.broadcastRoomLocked(room, newTurnChanged(room.Players[0].UserID, session.TurnDeadline.UnixMilli()))
		go c.runTurnScheduler(room.ID, session.cancel)
	} else {
		go c.runAutoScheduler(room.ID, session.cancel)
	}
	room.mu.Unlock()

	c.log.Infow("game started", "room", room.ID, "players", len(staked), "pot", session.Pot, "reveal", room.RevealMode)
	c.broadcastRoomList()
	return nil
}

// Reveal is the manual-mode client action. Only the current-turn player may
// reveal; requests against a finished or missing session are silent no-ops.
func (c *Coordinator) Reveal(client *Client) error {
	userID, _, ok := client.identity()
	if !ok {
		return ErrNotIdentified
	}
	roomID := client.room()
	if roomID == "" {
		return nil
	}
	room := c.roomByID(roomID)
	if room == nil {
		return nil
	}

	room.mu.Lock()
	defer room.mu.Unlock()
	if room.deleted {
		return nil
	}
	if room.RevealMode != game.RevealManual {
		return ErrNotManualMode
	}
	s := room.Session
	if s == nil || s.Finished {
		return nil
	}
	if s.TurnIndex >= len(room.Players) || room.Players[s.TurnIndex].UserID != userID {
		return ErrNotYourTurn
	}

	c.revealNextLocked(room)
	return nil
}

// revealNextLocked opens the next card of the pre-shuffled deck. The engine,
// not the client, picks the position. Caller holds room.mu with a live
// session.
func (c *Coordinator) revealNextLocked(room *Room) {
	s := room.Session
	if s == nil || s.Finished || s.RevealedCount >= len(s.Deck) {
		return
	}

	card := &s.Deck[s.RevealedCount]
	card.Revealed = true
	s.RevealedCount++

	c.broadcastRoomLocked(room, newCardRevealed(card.Value, s.RevealedCount))

	winners := c.resolveWinnersLocked(room)
	switch {
	case len(winners) > 0:
		c.finishLocked(room, winners)
	case s.RevealedCount == len(s.Deck):
		c.finishLocked(room, nil)
	case room.RevealMode == game.RevealManual:
		c.advanceTurnLocked(room)
	}
}

// resolveWinnersLocked maps the evaluator's pick ids back to players still
// in the room.
func (c *Coordinator) resolveWinnersLocked(room *Room) []*Player {
	s := room.Session
	ids := game.Winners(game.RevealedValues(s.Deck), room.picksLocked())
	if len(ids) == 0 {
		return nil
	}
	winners := make([]*Player, 0, len(ids))
	for _, id := range ids {
		userID, err := strconv.ParseUint(id, 10, 64)
		if err != nil {
			continue
		}
		if idx := room.playerIndex(uint(userID)); idx >= 0 {
			winners = append(winners, room.Players[idx])
		}
	}
	return winners
}

// advanceTurnLocked passes the turn to the next player and re-arms the
// deadline. Used both after a manual reveal and on deadline forfeit.
func (c *Coordinator) advanceTurnLocked(room *Room) {
	s := room.Session
	if s == nil || s.Finished || len(room.Players) == 0 {
		return
	}
	s.TurnIndex = (s.TurnIndex + 1) % len(room.Players)
	s.TurnDeadline = time.Now().Add(TurnDuration)
	c.broadcastRoomLocked(room, newTurnChanged(room.Players[s.TurnIndex].UserID, s.TurnDeadline.UnixMilli()))
}

// finishLocked ends the session: cancel the scheduler, split the pot, credit
// winners through the ledger, persist the round, and schedule the cooldown
// reset. Caller holds room.mu.
func (c *Coordinator) finishLocked(room *Room, winners []*Player) {
	s := room.Session
	if s == nil || s.Finished {
		return
	}
	s.Finished = true
	close(s.cancel)

	share := game.SplitPrize(s.Pot, len(winners))
	views := make([]winnerView, len(winners))
	winnerIDs := make([]uint, len(winners))
	for i, w := range winners {
		views[i] = winnerView{UserID: w.UserID, Username: w.Username}
		winnerIDs[i] = w.UserID
		go c.creditWinner(w.UserID, w.ConnID, share)
	}

	c.persistRound(room, s, "finished", winnerIDs)
	c.broadcastRoomLocked(room, newGameOver(views, share))
	c.log.Infow("game over", "room", room.ID, "winners", len(winners), "share", share, "revealed", s.RevealedCount)

	roomID := room.ID
	time.AfterFunc(RoomResetDelay, func() {
		c.resetRoom(roomID, s)
	})
}

// persistRound records the final shape of a session. Best effort; history
// never blocks gameplay.
func (c *Coordinator) persistRound(room *Room, s *GameSession, status string, winnerIDs []uint) {
	if s.RoundID == 0 {
		return
	}
	round := &models.Round{
		ID:         s.RoundID,
		RoomID:     room.ID,
		Mode:       room.Mode.Name,
		RevealMode: string(room.RevealMode),
		Stake:      room.Mode.Stake,
		Pot:        s.Pot,
		Status:     status,
		Revealed:   s.RevealedCount,
		EndedAt:    time.Now(),
	}
	if deckJSON, err := json.Marshal(game.Values(s.Deck)); err == nil {
		round.DeckJSON = datatypes.JSON(deckJSON)
	}
	if winnersJSON, err := json.Marshal(winnerIDs); err == nil {
		round.WinnersJSON = datatypes.JSON(winnersJSON)
	}
	go func() {
		if err := c.rounds.Update(round); err != nil {
			c.log.Errorw("round update failed", "round", round.ID, "err", err)
		}
	}()
}

// resetRoom returns a room to the waiting state after the post-game
// cooldown. The session pointer guards against resetting a newer round in a
// reused room.
func (c *Coordinator) resetRoom(roomID string, finished *GameSession) {
	room := c.roomByID(roomID)
	if room == nil {
		return
	}

	room.mu.Lock()
	if room.deleted || room.Session != finished {
		room.mu.Unlock()
		return
	}
	room.Session = nil
	room.Status = RoomWaiting
	for _, p := range room.Players {
		p.Ready = false
		p.Numbers = nil
	}
	c.broadcastRoomLocked(room, newRoomEvent("room_reset", room.viewLocked()))
	room.mu.Unlock()

	c.broadcastRoomList()
}
