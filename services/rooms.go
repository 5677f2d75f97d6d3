package services

import (
	"strconv"

	"github.com/google/uuid"
	"github.com/lotgo/lotgo-backend/game"
)

func formatGold(amount float64) string {
	return strconv.FormatFloat(amount, 'f', -1, 64)
}

func (r *Room) hostNameLocked() string {
	for _, p := range r.Players {
		if p.UserID == r.HostID {
			return p.Username
		}
	}
	return "unknown"
}

// CreateRoom opens a new room with the caller as host. The host is not
// auto-readied; they submit a selection like everyone else.
func (c *Coordinator) CreateRoom(client *Client, modeName, revealMode string) error {
	userID, username, ok := client.identity()
	if !ok {
		return ErrNotIdentified
	}
	if client.room() != "" {
		return ErrAlreadyInRoom
	}

	mode, err := game.ModeByName(modeName)
	if err != nil {
		return &OpError{Code: "INVALID_MODE", Message: err.Error()}
	}
	rm := game.RevealMode(revealMode)
	if revealMode == "" {
		rm = game.RevealAuto
	}
	if !rm.Valid() {
		return &OpError{Code: "INVALID_MODE", Message: "reveal_mode must be auto or manual"}
	}

	room := &Room{
		ID:         uuid.NewString(),
		HostID:     userID,
		Mode:       mode,
		RevealMode: rm,
		Status:     RoomWaiting,
		Players: []*Player{{
			UserID:   userID,
			ConnID:   client.id,
			Username: username,
		}},
	}

	c.roomsMu.Lock()
	c.rooms[room.ID] = room
	c.roomsMu.Unlock()

	client.setRoom(room.ID)
	c.log.Infow("room created", "room", room.ID, "host", userID, "mode", mode.Name, "reveal", rm)

	room.mu.Lock()
	view := room.viewLocked()
	room.mu.Unlock()

	c.send(client, newRoomEvent("room_joined", view))
	c.broadcastRoomList()
	c.broadcastUserList()
	return nil
}

// JoinRoom adds the caller to an existing waiting room.
func (c *Coordinator) JoinRoom(client *Client, roomID string) error {
	userID, username, ok := client.identity()
	if !ok {
		return ErrNotIdentified
	}
	if client.room() != "" {
		return ErrAlreadyInRoom
	}

	room := c.roomByID(roomID)
	if room == nil {
		return ErrRoomNotFound
	}

	room.mu.Lock()
	if room.deleted {
		room.mu.Unlock()
		return ErrRoomNotFound
	}
	if room.Status == RoomPlaying {
		room.mu.Unlock()
		return ErrGameInProgress
	}
	if len(room.Players) >= MaxPlayersPerRoom {
		room.mu.Unlock()
		return ErrRoomFull
	}

	room.Players = append(room.Players, &Player{
		UserID:   userID,
		ConnID:   client.id,
		Username: username,
	})
	client.setRoom(room.ID)
	view := room.viewLocked()
	c.broadcastRoomLocked(room, newRoomEvent("room_update", view))
	room.mu.Unlock()

	c.send(client, newRoomEvent("room_joined", view))
	c.log.Infow("player joined room", "room", roomID, "user", userID)
	c.broadcastRoomList()
	c.broadcastUserList()
	return nil
}

// LeaveRoom removes the caller from their room. Calling it without being in
// a room, or twice, is a no-op.
func (c *Coordinator) LeaveRoom(client *Client) error {
	userID, _, ok := client.identity()
	if !ok {
		return nil
	}
	roomID := client.room()
	if roomID == "" {
		return nil
	}
	client.setRoom("")

	room := c.roomByID(roomID)
	if room == nil {
		return nil
	}
	c.removeFromRoom(room, userID)
	return nil
}

// KickPlayer is the host removing another member. The target is told it was
// kicked; otherwise this is the leave path.
func (c *Coordinator) KickPlayer(client *Client, targetUserID uint) error {
	userID, _, ok := client.identity()
	if !ok {
		return ErrNotIdentified
	}
	roomID := client.room()
	if roomID == "" {
		return ErrNotInRoom
	}
	if targetUserID == userID {
		return &OpError{Code: "CANNOT_KICK_SELF", Message: "cannot kick yourself"}
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
	idx := room.playerIndex(targetUserID)
	if idx < 0 {
		room.mu.Unlock()
		return &OpError{Code: "PLAYER_NOT_FOUND", Message: "player not in this room"}
	}
	targetConnID := room.Players[idx].ConnID
	room.mu.Unlock()

	if target := c.clientByConnID(targetConnID); target != nil {
		target.setRoom("")
		c.send(target, newKicked())
	}
	c.removeFromRoom(room, targetUserID)
	c.log.Infow("player kicked", "room", roomID, "host", userID, "target", targetUserID)
	return nil
}

// removeFromRoom applies a departure: player removal, host succession, turn
// pointer repair, and room deletion once empty. Shared by leave, kick, and
// disconnect.
func (c *Coordinator) removeFromRoom(room *Room, userID uint) {
	room.mu.Lock()
	if room.deleted || !room.removePlayerLocked(userID) {
		room.mu.Unlock()
		return
	}

	if len(room.Players) == 0 {
		room.deleted = true
		if s := room.Session; s != nil && !s.Finished {
			s.Finished = true
			close(s.cancel)
			c.persistRound(room, s, "abandoned", nil)
		}
		room.mu.Unlock()

		c.roomsMu.Lock()
		delete(c.rooms, room.ID)
		c.roomsMu.Unlock()

		c.log.Infow("room deleted", "room", room.ID)
	} else {
		c.broadcastRoomLocked(room, newRoomEvent("room_update", room.viewLocked()))
		room.mu.Unlock()
	}

	c.broadcastRoomList()
	c.broadcastUserList()
}

// WaitingRooms snapshots rooms still accepting players, for the REST lobby
// view.
func (c *Coordinator) WaitingRooms() []RoomDigest {
	all := c.roomDigests()
	waiting := all[:0]
	for _, d := range all {
		if !d.InProgress {
			waiting = append(waiting, d)
		}
	}
	return waiting
}
