package game

import (
	"fmt"
	"sort"
	"sync"
)

// Registry owns all rooms, keyed by id. Ids are assigned once and never
// reused within a process.
type Registry struct {
	mu     sync.RWMutex
	rooms  map[int]*Room
	nextID int
}

func NewRegistry() *Registry {
	return &Registry{rooms: make(map[int]*Room)}
}

// NextID reserves a fresh room id.
func (g *Registry) NextID() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nextID++
	return g.nextID
}

// Add registers a room under its id.
func (g *Registry) Add(room *Room) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if _, ok := g.rooms[room.ID()]; ok {
		return fmt.Errorf("room %d already registered", room.ID())
	}
	g.rooms[room.ID()] = room
	return nil
}

// Get returns the room with the given id, or nil.
func (g *Registry) Get(id int) *Room {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.rooms[id]
}

// Remove closes and unregisters a room.
func (g *Registry) Remove(id int) {
	g.mu.Lock()
	room := g.rooms[id]
	delete(g.rooms, id)
	g.mu.Unlock()
	if room != nil {
		room.Close()
	}
}

// List returns lobby info for every room, ordered by id. An empty tier
// matches all tiers.
func (g *Registry) List(tier string) []RoomInfo {
	g.mu.RLock()
	rooms := make([]*Room, 0, len(g.rooms))
	for _, room := range g.rooms {
		if tier == "" || room.Tier() == tier {
			rooms = append(rooms, room)
		}
	}
	g.mu.RUnlock()

	sort.Slice(rooms, func(i, j int) bool { return rooms[i].ID() < rooms[j].ID() })
	infos := make([]RoomInfo, len(rooms))
	for i, room := range rooms {
		infos[i] = room.Info()
	}
	return infos
}

// Len returns the number of registered rooms.
func (g *Registry) Len() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.rooms)
}
