package server

import "github.com/norkator/poker-pocket-backend/internal/game"

// Inbound message keys. Unknown keys are logged and dropped.
const (
	KeyGetRooms         = "getRooms"
	KeyGetRoomParams    = "getRoomParams"
	KeySelectRoom       = "selectRoom"
	KeyGetSpectateRooms = "getSpectateRooms"
	KeySpectateRoom     = "selectSpectateRoom"
	KeyLeaveRoom        = "leaveRoom"
	KeySetFold          = "setFold"
	KeySetCheck         = "setCheck"
	KeySetRaise         = "setRaise"
	KeyCreateAccount    = "createAccount"
	KeyLogin            = "userLogin"
	KeyUserParams       = "loggedInUserParams"
	KeyStatistics       = "loggedInUserStatistics"
	KeyGetRankings      = "getRankings"
	KeyRewardingAdShown = "rewardingAdShown"
	KeyDisconnect       = "disconnect"
)

// Outbound message keys owned by the server layer. The game layer has its
// own set for table traffic.
const (
	KeyConnectionParams = "connectionParams"
	KeyGetRoomsResult   = "getRooms"
	KeyAccountCreated   = "accountCreated"
	KeyLoginResult      = "loginResult"
	KeyUserParamsResult = "userParams"
	KeyStatisticsResult = "userStatistics"
	KeyRankingsResult   = "rankings"
	KeyOnXPGained       = "onXPGained"
	KeyErrorMessage     = "errorMessage"
)

// GetRoomsData filters the lobby listing by bet tier; empty matches all.
type GetRoomsData struct {
	Tier string `json:"tier"`
}

// RoomIDData addresses a single room.
type RoomIDData struct {
	RoomID int `json:"roomId"`
}

// RaiseData is the payload of a raise intent.
type RaiseData struct {
	RoomID int `json:"roomId"`
	Amount int `json:"amount"`
}

// CredentialsData carries account credentials.
type CredentialsData struct {
	Name     string `json:"name"`
	Password string `json:"password"`
	Email    string `json:"email,omitempty"`
}

// ConnectionParamsData greets a fresh connection with its identity.
type ConnectionParamsData struct {
	PlayerID  int    `json:"playerId"`
	SocketKey string `json:"socketKey"`
}

// RoomListData is the lobby listing.
type RoomListData struct {
	Rooms []game.RoomInfo `json:"rooms"`
}

// UserParamsData is the logged-in user's own view.
type UserParamsData struct {
	Name      string `json:"name"`
	Money     int    `json:"money"`
	WinCount  int    `json:"winCount"`
	LoseCount int    `json:"loseCount"`
	XP        int    `json:"xp"`
}

// StatisticsSnapshot is one point of bankroll history on the wire.
type StatisticsSnapshot struct {
	Money     int    `json:"money"`
	WinCount  int    `json:"winCount"`
	LoseCount int    `json:"loseCount"`
	Recorded  string `json:"recorded"`
}

// StatisticsData is the user's bankroll history.
type StatisticsData struct {
	History []StatisticsSnapshot `json:"history"`
}

// XPGainedData notifies a player of earned experience.
type XPGainedData struct {
	Amount  int    `json:"amount"`
	Message string `json:"message"`
}

// ErrorMessageData reports a failed request to the client.
type ErrorMessageData struct {
	Message string `json:"message"`
}

// ResultData is a generic success flag with optional detail.
type ResultData struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}
