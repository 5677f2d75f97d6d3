package services

import (
	"encoding/json"
	"errors"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/lotgo/lotgo-backend/models"
	"github.com/lotgo/lotgo-backend/utils/logger"

	"go.uber.org/zap"
)

// Coordinator owns every live connection and room. Connection and room maps
// are keyed by opaque ids; nothing outside this package holds a live Room or
// Client reference.
//
// Lock order, where multiple locks are held: roomsMu -> Room.mu -> connMu.
type Coordinator struct {
	ledger Ledger
	rounds RoundStore
	log    *zap.SugaredLogger

	connMu sync.RWMutex
	conns  map[string]*Client

	roomsMu sync.RWMutex
	rooms   map[string]*Room
}

func NewCoordinator(ledger Ledger, rounds RoundStore) *Coordinator {
	return &Coordinator{
		ledger: ledger,
		rounds: rounds,
		log:    logger.Named("coordinator"),
		conns:  make(map[string]*Client),
		rooms:  make(map[string]*Room),
	}
}

// register adds a fresh connection and starts its pumps.
func (c *Coordinator) register(client *Client) {
	c.connMu.Lock()
	c.conns[client.id] = client
	c.connMu.Unlock()

	go client.writePump()
	go client.readPump()

	c.log.Debugw("connection registered", "conn", client.id)
}

// Disconnect tears a connection down: implicit leave from its room, removal
// from the registry, then a user-list refresh. Safe to call twice.
func (c *Coordinator) Disconnect(client *Client) {
	if client.room() != "" {
		_ = c.LeaveRoom(client)
	}

	c.connMu.Lock()
	_, present := c.conns[client.id]
	delete(c.conns, client.id)
	c.connMu.Unlock()

	client.Close()
	if present {
		c.log.Infow("connection closed", "conn", client.id)
		c.broadcastUserList()
	}
}

// Dispatch routes one decoded envelope to its operation. Any *OpError the
// operation returns goes back to the requester as an error event; benign
// no-ops return nil and produce no traffic.
func (c *Coordinator) Dispatch(client *Client, msg ClientMessage) {
	var err error
	switch msg.Type {
	case MsgIdentify:
		var p IdentifyPayload
		if err = decodePayload(msg, &p); err == nil {
			err = c.Identify(client, p.Username)
		}
	case MsgListRooms:
		c.send(client, newRoomList(c.roomDigests()))
	case MsgCreateRoom:
		var p CreateRoomPayload
		if err = decodePayload(msg, &p); err == nil {
			err = c.CreateRoom(client, p.Mode, p.RevealMode)
		}
	case MsgJoinRoom:
		var p JoinRoomPayload
		if err = decodePayload(msg, &p); err == nil {
			err = c.JoinRoom(client, p.RoomID)
		}
	case MsgLeaveRoom:
		err = c.LeaveRoom(client)
	case MsgKickPlayer:
		var p KickPlayerPayload
		if err = decodePayload(msg, &p); err == nil {
			err = c.KickPlayer(client, p.UserID)
		}
	case MsgSetReady:
		var p SetReadyPayload
		if err = decodePayload(msg, &p); err == nil {
			err = c.SetReady(client, p.Numbers)
		}
	case MsgStartGame:
		err = c.StartGame(client)
	case MsgReveal:
		err = c.Reveal(client)
	case MsgGiftGold:
		var p GiftGoldPayload
		if err = decodePayload(msg, &p); err == nil {
			err = c.GiftGold(client, p.To, p.Amount)
		}
	default:
		err = &OpError{Code: "UNKNOWN_TYPE", Message: "unknown message type " + msg.Type}
	}

	if err != nil {
		var op *OpError
		if errors.As(err, &op) {
			c.send(client, newErrorEvent(op.Code, op.Message))
		} else {
			c.send(client, newErrorEvent("BAD_MESSAGE", err.Error()))
		}
	}
}

// Identify attaches a user identity to the connection via the ledger. First
// identify wins; re-identifying an already bound connection is rejected.
func (c *Coordinator) Identify(client *Client, username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return &OpError{Code: "INVALID_USERNAME", Message: "username must not be empty"}
	}
	if _, _, ok := client.identity(); ok {
		return &OpError{Code: "ALREADY_IDENTIFIED", Message: "connection already identified"}
	}

	user, err := c.ledger.Identify(username)
	if err != nil {
		c.log.Errorw("identify failed", "username", username, "err", err)
		return &OpError{Code: "IDENTIFY_FAILED", Message: "could not resolve identity"}
	}

	client.setIdentity(user.ID, user.Username, user.Balance)
	c.log.Infow("client identified", "conn", client.id, "user", user.ID, "username", user.Username)

	c.send(client, newIdentitySet(UserView{ID: user.ID, Username: user.Username, Balance: user.Balance}))
	c.broadcastUserList()
	return nil
}

// GiftGold transfers balance between two online users through the ledger.
func (c *Coordinator) GiftGold(client *Client, to string, amount float64) error {
	if amount <= 0 || math.IsNaN(amount) || amount != math.Trunc(amount) {
		return ErrInvalidAmount
	}
	senderID, senderName, ok := client.identity()
	if !ok {
		return ErrNotIdentified
	}
	if client.cachedBalance() < amount {
		return ErrNotEnoughGold
	}

	if to == senderName {
		return ErrCannotGiftSelf
	}
	target := c.clientByUsername(to)
	if target == nil {
		return ErrUserOffline
	}
	targetID, targetName, ok := target.identity()
	if !ok {
		return ErrUserOffline
	}

	if err := c.ledger.Transfer(senderID, targetID, amount); err != nil {
		if errors.Is(err, ErrInsufficientFunds) {
			return ErrNotEnoughGold
		}
		c.log.Errorw("gift transfer failed", "from", senderID, "to", targetID, "err", err)
		return &OpError{Code: "TRANSFER_FAILED", Message: "transfer failed"}
	}

	c.send(client, newBalanceUpdate(client.adjustBalance(-amount)))
	c.send(target, newBalanceUpdate(target.adjustBalance(amount)))
	c.send(target, newNotification("You received "+formatGold(amount)+" gold from "+senderName))
	c.send(client, newNotification("Sent "+formatGold(amount)+" gold to "+targetName))
	return nil
}

func (c *Coordinator) clientByUsername(username string) *Client {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	for _, cl := range c.conns {
		if _, name, ok := cl.identity(); ok && name == username {
			return cl
		}
	}
	return nil
}

func (c *Coordinator) clientByConnID(connID string) *Client {
	c.connMu.RLock()
	defer c.connMu.RUnlock()
	return c.conns[connID]
}

// creditWinner pays one prize share. Runs off the room lock; the cached
// balance catches up when the ledger answers.
func (c *Coordinator) creditWinner(userID uint, connID string, share float64) {
	balance, err := c.ledger.Credit(userID, share, models.PrizeTransaction)
	if err != nil {
		c.log.Errorw("prize credit failed", "user", userID, "amount", share, "err", err)
		return
	}
	if cl := c.clientByConnID(connID); cl != nil {
		cl.setBalance(balance)
		c.send(cl, newBalanceUpdate(balance))
		c.send(cl, newNotification("You won! Prize: "+formatGold(share)))
	}
}

// -------------------- Broadcast --------------------

func (c *Coordinator) send(client *Client, v any) {
	client.trySendEvent(v)
}

func (c *Coordinator) broadcastAll(v any) {
	b, err := json.Marshal(v)
	if err != nil {
		c.log.Errorw("marshal broadcast", "err", err)
		return
	}
	c.connMu.RLock()
	clients := make([]*Client, 0, len(c.conns))
	for _, cl := range c.conns {
		clients = append(clients, cl)
	}
	c.connMu.RUnlock()

	for _, cl := range clients {
		cl.trySend(b)
	}
}

// broadcastRoomLocked fans an event out to the members of a room. The
// caller holds room.mu; conn lookups take connMu afterwards, which respects
// the lock order.
func (c *Coordinator) broadcastRoomLocked(room *Room, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		c.log.Errorw("marshal room broadcast", "room", room.ID, "err", err)
		return
	}
	connIDs := make([]string, len(room.Players))
	for i, p := range room.Players {
		connIDs[i] = p.ConnID
	}

	c.connMu.RLock()
	defer c.connMu.RUnlock()
	for _, id := range connIDs {
		if cl, ok := c.conns[id]; ok {
			cl.trySend(b)
		}
	}
}

func (c *Coordinator) broadcastUserList() {
	c.connMu.RLock()
	users := make([]UserDigest, 0, len(c.conns))
	for _, cl := range c.conns {
		if _, name, ok := cl.identity(); ok {
			users = append(users, UserDigest{Username: name, InRoom: cl.room() != ""})
		}
	}
	c.connMu.RUnlock()

	sort.Slice(users, func(i, j int) bool { return users[i].Username < users[j].Username })
	c.broadcastAll(newUserList(users))
}

func (c *Coordinator) broadcastRoomList() {
	c.broadcastAll(newRoomList(c.roomDigests()))
}

// roomDigests snapshots the waiting/playing room directory for the lobby
// screen.
func (c *Coordinator) roomDigests() []RoomDigest {
	c.roomsMu.RLock()
	rooms := make([]*Room, 0, len(c.rooms))
	for _, r := range c.rooms {
		rooms = append(rooms, r)
	}
	c.roomsMu.RUnlock()

	digests := make([]RoomDigest, 0, len(rooms))
	for _, r := range rooms {
		r.mu.Lock()
		if !r.deleted {
			digests = append(digests, r.digestLocked(r.hostNameLocked()))
		}
		r.mu.Unlock()
	}
	sort.Slice(digests, func(i, j int) bool { return digests[i].ID < digests[j].ID })
	return digests
}

func (c *Coordinator) roomByID(roomID string) *Room {
	c.roomsMu.RLock()
	defer c.roomsMu.RUnlock()
	return c.rooms[roomID]
}
