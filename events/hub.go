// server/events/hub.go
package events

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vinizap/notesync/server/domain"
)

const (
	NoteCreated   = "note_created"
	NoteUpdated   = "note_updated"
	NoteDeleted   = "note_deleted"
	FolderCreated = "folder_created"
	FolderUpdated = "folder_updated"
	FolderDeleted = "folder_deleted"
)

type Message struct {
	Type   string         `json:"type"`
	ID     string         `json:"id,omitempty"`
	Note   *domain.Note   `json:"note,omitempty"`
	Folder *domain.Folder `json:"folder,omitempty"`

	owner string
}

// Subscriber receives the change messages of one owner.
type Subscriber struct {
	owner string
	ch    chan Message
}

func (s *Subscriber) C() <-chan Message {
	return s.ch
}

// Hub fans change messages out to the subscribers of the owner they belong to.
// Slow subscribers miss messages rather than stall the hub.
type Hub struct {
	clients    map[*Subscriber]bool
	broadcast  chan Message
	register   chan *Subscriber
	unregister chan *Subscriber
	done       chan struct{}
	mu         sync.RWMutex
	log        zerolog.Logger
}

func NewHub(log zerolog.Logger) *Hub {
	return &Hub{
		clients:    make(map[*Subscriber]bool),
		broadcast:  make(chan Message, 256),
		register:   make(chan *Subscriber),
		unregister: make(chan *Subscriber),
		done:       make(chan struct{}),
		log:        log.With().Str("component", "events").Logger(),
	}
}

// Run delivers messages until ctx is cancelled, then closes every subscriber.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.mu.Lock()
		for sub := range h.clients {
			delete(h.clients, sub)
			close(sub.ch)
		}
		h.mu.Unlock()
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case sub := <-h.register:
			h.mu.Lock()
			h.clients[sub] = true
			h.mu.Unlock()

		case sub := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[sub]; ok {
				delete(h.clients, sub)
				close(sub.ch)
			}
			h.mu.Unlock()

		case msg := <-h.broadcast:
			h.mu.RLock()
			for sub := range h.clients {
				if sub.owner != msg.owner {
					continue
				}
				select {
				case sub.ch <- msg:
				default:
					h.log.Warn().Str("type", msg.Type).Msg("subscriber too slow, message dropped")
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Subscribe returns nil once the hub has stopped.
func (h *Hub) Subscribe(owner string) *Subscriber {
	sub := &Subscriber{owner: owner, ch: make(chan Message, 16)}
	select {
	case h.register <- sub:
		return sub
	case <-h.done:
		return nil
	}
}

func (h *Hub) Unsubscribe(sub *Subscriber) {
	if sub == nil {
		return
	}
	select {
	case h.unregister <- sub:
	case <-h.done:
	}
}

func (h *Hub) publish(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		h.log.Warn().Str("type", msg.Type).Msg("event queue full, message dropped")
	}
}

func (h *Hub) BroadcastNote(owner, msgType string, note *domain.Note) {
	h.publish(Message{Type: msgType, ID: note.ID, Note: note, owner: owner})
}

func (h *Hub) BroadcastFolder(owner, msgType string, folder *domain.Folder) {
	h.publish(Message{Type: msgType, ID: folder.ID, Folder: folder, owner: owner})
}

// BroadcastDeleted announces a removal by id only.
func (h *Hub) BroadcastDeleted(owner, msgType, id string) {
	h.publish(Message{Type: msgType, ID: id, owner: owner})
}
