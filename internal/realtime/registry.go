package realtime

import (
	"hash/fnv"
	"sync"
)

const DefaultShards = 32

// ConnRegistry indexa conexiones por usuario. Cada shard tiene su propio lock,
// así un envío a un usuario no bloquea a los de otros shards.
type ConnRegistry struct {
	shards []*registryShard
}

type registryShard struct {
	mu     sync.RWMutex
	byUser map[string]map[*Conn]struct{}
}

func NewConnRegistry(shards int) *ConnRegistry {
	if shards <= 0 {
		shards = DefaultShards
	}
	r := &ConnRegistry{shards: make([]*registryShard, shards)}
	for i := range r.shards {
		r.shards[i] = &registryShard{byUser: make(map[string]map[*Conn]struct{})}
	}
	return r
}

func (r *ConnRegistry) shardFor(userID string) *registryShard {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return r.shards[h.Sum32()%uint32(len(r.shards))]
}

// Register admite varias conexiones por usuario (pestañas, dispositivos).
func (r *ConnRegistry) Register(userID string, c *Conn) {
	s := r.shardFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.byUser[userID]
	if !ok {
		set = make(map[*Conn]struct{})
		s.byUser[userID] = set
	}
	set[c] = struct{}{}
}

func (r *ConnRegistry) Unregister(userID string, c *Conn) {
	s := r.shardFor(userID)
	s.mu.Lock()
	defer s.mu.Unlock()

	set, ok := s.byUser[userID]
	if !ok {
		return
	}
	delete(set, c)
	if len(set) == 0 {
		delete(s.byUser, userID)
	}
}

// SendTo encola msg en cada conexión del usuario y devuelve cuántas lo aceptaron.
// Buffer lleno o conexión cerrada cuentan como fallo; no se reintenta.
func (r *ConnRegistry) SendTo(userID string, msg []byte) int {
	s := r.shardFor(userID)
	s.mu.RLock()
	defer s.mu.RUnlock()

	sent := 0
	for c := range s.byUser[userID] {
		if c.trySend(msg) {
			sent++
		}
	}
	return sent
}

func (r *ConnRegistry) Has(userID string) bool {
	s := r.shardFor(userID)
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byUser[userID]) > 0
}

// Count: total de conexiones autenticadas.
func (r *ConnRegistry) Count() int {
	n := 0
	for _, s := range r.shards {
		s.mu.RLock()
		for _, set := range s.byUser {
			n += len(set)
		}
		s.mu.RUnlock()
	}
	return n
}
