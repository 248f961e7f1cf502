package game

import "sync"

// NeedNewBot asks the outer layer to seat a replacement bot at a room.
type NeedNewBot struct {
	RoomID int
}

// XPGained reports experience earned by a registered player.
type XPGained struct {
	PlayerID int
	Amount   int
	Message  string
}

// EventBus fans typed engine events out to subscribers. Handlers run on
// the caller's goroutine, so they must not call back into the room.
type EventBus struct {
	mu         sync.RWMutex
	needNewBot []func(NeedNewBot)
	xpGained   []func(XPGained)
}

func NewEventBus() *EventBus {
	return &EventBus{}
}

// OnNeedNewBot registers a handler for bot replacement requests.
func (b *EventBus) OnNeedNewBot(fn func(NeedNewBot)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.needNewBot = append(b.needNewBot, fn)
}

// OnXPGained registers a handler for experience events.
func (b *EventBus) OnXPGained(fn func(XPGained)) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.xpGained = append(b.xpGained, fn)
}

// PublishNeedNewBot notifies all bot replacement handlers.
func (b *EventBus) PublishNeedNewBot(ev NeedNewBot) {
	b.mu.RLock()
	handlers := b.needNewBot
	b.mu.RUnlock()
	for _, fn := range handlers {
		fn(ev)
	}
}

// PublishXPGained notifies all experience handlers.
func (b *EventBus) PublishXPGained(ev XPGained) {
	b.mu.RLock()
	handlers := b.xpGained
	b.mu.RUnlock()
	for _, fn := range handlers {
		fn(ev)
	}
}
