package game

import (
	"encoding/json"

	"github.com/norkator/poker-pocket-backend/internal/deck"
)

// Envelope is the framing of every message on the wire, inbound and
// outbound alike.
type Envelope struct {
	Key  string          `json:"key"`
	Data json.RawMessage `json:"data"`
}

// Outbound message keys.
const (
	KeyRoomParams        = "roomParams"
	KeyHoleCards         = "holeCards"
	KeyStatusUpdate      = "statusUpdate"
	KeyTheFlop           = "theFlop"
	KeyTheTurn           = "theTurn"
	KeyTheRiver          = "theRiver"
	KeyLastUserAction    = "lastUserAction"
	KeyAudioCommand      = "audioCommand"
	KeyCollectChipsToPot = "collectChipsToPot"
	KeyAllPlayersCards   = "allPlayersCards"
	KeyClientMessage     = "clientMessage"
)

// Encode wraps a payload into the {key, data} envelope.
func Encode(key string, payload any) ([]byte, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(Envelope{Key: key, Data: data})
}

// RoomParamsData describes the static table parameters plus current seating.
type RoomParamsData struct {
	RoomID      int          `json:"roomId"`
	RoomName    string       `json:"roomName"`
	RoomMinBet  int          `json:"roomMinBet"`
	MaxSeats    int          `json:"maxSeats"`
	PlayerCount int          `json:"playerCount"`
	MiddleCards []string     `json:"middleCards"`
	PlayersData []PlayerInfo `json:"playersData"`
}

// PlayerInfo is the public view of one seat.
type PlayerInfo struct {
	PlayerID     int    `json:"playerId"`
	PlayerName   string `json:"playerName"`
	PlayerMoney  int    `json:"playerMoney"`
	TotalBet     int    `json:"totalBet"`
	IsDealer     bool   `json:"isDealer"`
	IsPlayerTurn bool   `json:"isPlayerTurn"`
	IsFold       bool   `json:"isFold"`
	IsAllIn      bool   `json:"isAllIn"`
	TimeLeft     int    `json:"timeLeft"`
}

// HoleCardsData carries a seat its own two cards.
type HoleCardsData struct {
	PlayerID int      `json:"playerId"`
	Cards    []string `json:"cards"`
}

// StatusUpdateData is the periodic table state snapshot.
type StatusUpdateData struct {
	TotalPot             int          `json:"totalPot"`
	TableMinBet          int          `json:"tableMinBet"`
	CurrentStatus        string       `json:"currentStatus"`
	CurrentTurnPlayerID  int          `json:"currentTurnPlayerId"`
	MiddleCards          []string     `json:"middleCards"`
	PlayersData          []PlayerInfo `json:"playersData"`
	IsResultsCall        bool         `json:"isResultsCall"`
	RoundWinnerPlayerIDs []int        `json:"roundWinnerPlayerIds"`
	WinnerHandName       string       `json:"winnerHandName,omitempty"`
	WinnerCards          []string     `json:"winnerCards,omitempty"`
}

// LastUserActionData reports the most recent seat action for the UI.
type LastUserActionData struct {
	PlayerID   int    `json:"playerId"`
	ActionText string `json:"actionText"`
}

// AudioCommandData asks clients to play a sound effect.
type AudioCommandData struct {
	Command string `json:"command"`
}

// MiddleCardsData carries newly revealed community cards.
type MiddleCardsData struct {
	MiddleCards []string `json:"middleCards"`
}

// RevealedCards is one seat's cards shown at the reveal stage.
type RevealedCards struct {
	PlayerID int      `json:"playerId"`
	Cards    []string `json:"cards"`
	HandName string   `json:"handName"`
}

// AllPlayersCardsData shows every contending seat's hole cards.
type AllPlayersCardsData struct {
	Players []RevealedCards `json:"players"`
}

// ClientMessageData is a plain notice shown to one client.
type ClientMessageData struct {
	Message string `json:"message"`
}

// cardCodes renders cards as their two-character wire codes.
func cardCodes(cards []deck.Card) []string {
	codes := make([]string, len(cards))
	for i, c := range cards {
		codes[i] = c.Code()
	}
	return codes
}
