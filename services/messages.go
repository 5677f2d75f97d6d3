package services

import (
	"encoding/json"
	"fmt"
)

// Client -> server messages. Everything arriving on the socket is a
// ClientMessage envelope; Payload is decoded per Type into one of the
// payload structs below before any state is touched.
type ClientMessage struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

const (
	MsgIdentify   = "identify"
	MsgListRooms  = "list_rooms"
	MsgCreateRoom = "create_room"
	MsgJoinRoom   = "join_room"
	MsgLeaveRoom  = "leave_room"
	MsgKickPlayer = "kick_player"
	MsgSetReady   = "set_ready"
	MsgStartGame  = "start_game"
	MsgReveal     = "reveal"
	MsgGiftGold   = "gift_gold"
)

type IdentifyPayload struct {
	Username string `json:"username"`
}

type CreateRoomPayload struct {
	Mode       string `json:"mode"`        // preset name, e.g. "6/40"
	RevealMode string `json:"reveal_mode"` // "auto" | "manual"
}

type JoinRoomPayload struct {
	RoomID string `json:"room_id"`
}

type KickPlayerPayload struct {
	UserID uint `json:"user_id"`
}

type SetReadyPayload struct {
	Numbers []int `json:"numbers"`
}

type GiftGoldPayload struct {
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

func decodePayload(msg ClientMessage, dst any) error {
	if len(msg.Payload) == 0 {
		return fmt.Errorf("%s requires a payload", msg.Type)
	}
	return json.Unmarshal(msg.Payload, dst)
}

// Server -> client events. One struct per event type; Type is fixed by the
// constructor so clients always get a closed, tagged set.

type UserView struct {
	ID       uint    `json:"id"`
	Username string  `json:"username"`
	Balance  float64 `json:"balance"`
}

type PlayerView struct {
	UserID       uint   `json:"user_id"`
	Username     string `json:"username"`
	Ready        bool   `json:"ready"`
	Numbers      []int  `json:"numbers,omitempty"`
	HasSelection bool   `json:"has_selection"`
}

type GameView struct {
	DeckSize      int     `json:"deck_size"`
	RevealedCount int     `json:"revealed_count"`
	Revealed      []int   `json:"revealed"`
	TurnUserID    uint    `json:"turn_user_id,omitempty"`
	TurnDeadline  int64   `json:"turn_deadline,omitempty"` // unix millis
	Pot           float64 `json:"pot"`
}

type RoomView struct {
	ID         string       `json:"id"`
	HostID     uint         `json:"host_id"`
	Status     string       `json:"status"`
	Mode       string       `json:"mode"`
	RevealMode string       `json:"reveal_mode"`
	Stake      float64      `json:"stake"`
	Players    []PlayerView `json:"players"`
	Game       *GameView    `json:"game,omitempty"`
}

// RoomDigest is the room-list entry broadcast to every connection.
type RoomDigest struct {
	ID          string  `json:"id"`
	Host        string  `json:"host"`
	PlayerCount int     `json:"player_count"`
	MaxPlayers  int     `json:"max_players"`
	Mode        string  `json:"mode"`
	RevealMode  string  `json:"reveal_mode"`
	Stake       float64 `json:"stake"`
	InProgress  bool    `json:"in_progress"`
}

// UserDigest is the user-list entry broadcast to every connection.
type UserDigest struct {
	Username string `json:"username"`
	InRoom   bool   `json:"in_room"`
}

type identitySetEvent struct {
	Type string   `json:"type"`
	User UserView `json:"user"`
}

type balanceUpdateEvent struct {
	Type    string  `json:"type"`
	Balance float64 `json:"balance"`
}

type userListEvent struct {
	Type  string       `json:"type"`
	Users []UserDigest `json:"users"`
}

type roomListEvent struct {
	Type  string       `json:"type"`
	Rooms []RoomDigest `json:"rooms"`
}

type roomEvent struct {
	Type string   `json:"type"` // room_joined | room_update | room_reset | game_started
	Room RoomView `json:"room"`
}

type cardRevealedEvent struct {
	Type          string `json:"type"`
	Value         int    `json:"value"`
	RevealedCount int    `json:"revealed_count"`
}

type turnChangedEvent struct {
	Type     string `json:"type"`
	UserID   uint   `json:"user_id"`
	Deadline int64  `json:"deadline"` // unix millis
}

type winnerView struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
}

type gameOverEvent struct {
	Type           string       `json:"type"`
	Winners        []winnerView `json:"winners"`
	PrizePerWinner float64      `json:"prize_per_winner"`
}

type kickedEvent struct {
	Type string `json:"type"`
}

type notificationEvent struct {
	Type    string `json:"type"`
	Message string `json:"message"`
}

type errorEvent struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func newIdentitySet(u UserView) identitySetEvent {
	return identitySetEvent{Type: "identity_set", User: u}
}

func newBalanceUpdate(balance float64) balanceUpdateEvent {
	return balanceUpdateEvent{Type: "balance_update", Balance: balance}
}

func newUserList(users []UserDigest) userListEvent {
	return userListEvent{Type: "user_list", Users: users}
}

func newRoomList(rooms []RoomDigest) roomListEvent {
	return roomListEvent{Type: "room_list", Rooms: rooms}
}

func newRoomEvent(kind string, room RoomView) roomEvent {
	return roomEvent{Type: kind, Room: room}
}

func newCardRevealed(value, revealedCount int) cardRevealedEvent {
	return cardRevealedEvent{Type: "card_revealed", Value: value, RevealedCount: revealedCount}
}

func newTurnChanged(userID uint, deadline int64) turnChangedEvent {
	return turnChangedEvent{Type: "turn_changed", UserID: userID, Deadline: deadline}
}

func newGameOver(winners []winnerView, prize float64) gameOverEvent {
	return gameOverEvent{Type: "game_over", Winners: winners, PrizePerWinner: prize}
}

func newKicked() kickedEvent {
	return kickedEvent{Type: "kicked"}
}

func newNotification(message string) notificationEvent {
	return notificationEvent{Type: "notification", Message: message}
}

func newErrorEvent(code, message string) errorEvent {
	return errorEvent{Type: "error", Code: code, Message: message}
}
