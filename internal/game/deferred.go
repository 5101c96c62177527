package game

import (
	"fmt"
	"log"
	"time"
)

type taskKind uint8

const (
	taskRespawn taskKind = iota + 1
	taskNextRound
	taskAutoRematch
)

func (k taskKind) String() string {
	switch k {
	case taskRespawn:
		return "respawn"
	case taskNextRound:
		return "next_round"
	case taskAutoRematch:
		return "auto_rematch"
	default:
		return "unknown"
	}
}

// deferredTask is a one-shot action scheduled for later. It carries only
// identifiers; the target is looked up again when the task fires.
//
// generation pins the task to one life of the match: a reset bumps the
// match generation and every older task turns into a no-op.
type deferredTask struct {
	kind       taskKind
	matchID    string
	playerID   string
	generation uint64
	round      int
}

func (t deferredTask) String() string {
	return fmt.Sprintf("%s(match=%s player=%s gen=%d round=%d)", t.kind, t.matchID, t.playerID, t.generation, t.round)
}

// schedule arms a task on the match clock.
// Must be called with m.mu held.
func (m *Match) schedule(kind taskKind, playerID string, after time.Duration) {
	task := deferredTask{
		kind:       kind,
		matchID:    m.id,
		playerID:   playerID,
		generation: m.generation,
		round:      m.round,
	}
	m.pendingTasks++
	resolve := m.resolve
	self := m
	m.clock.AfterFunc(after, func() {
		target := self
		if resolve != nil {
			if target = resolve(task.matchID); target == nil {
				log.Printf("⏭️ Dropping %s: match no longer registered", task)
				return
			}
		}
		target.runDeferred(task)
	})
}

// runDeferred executes a fired task if its preconditions still hold.
func (m *Match) runDeferred(task deferredTask) {
	m.mu.Lock()
	if m.pendingTasks > 0 {
		m.pendingTasks--
	}
	m.applyDeferred(task)
	m.mu.Unlock()
}

func (m *Match) applyDeferred(task deferredTask) {
	if m.closed || task.matchID != m.id || task.generation != m.generation {
		log.Printf("⏭️ Dropping stale %s", task)
		return
	}

	switch task.kind {
	case taskRespawn:
		// A death from an earlier round is already undone by startRound.
		p, ok := m.players[task.playerID]
		if !ok || !p.IsDead || m.status != StatusInProgress || task.round != m.round {
			return
		}
		m.respawn(p)
		ev := PlayerRespawnEvent{PlayerID: p.ID, Position: p.Position, Rotation: p.Rotation}
		m.journal(EventTypeRespawn, p.ID, ev)
		m.emit(EventPlayerRespawn, ev)

	case taskNextRound:
		if m.status != StatusRoundEnd || task.round != m.round {
			return
		}
		m.round++
		m.status = StatusInProgress
		m.startRound()

	case taskAutoRematch:
		if m.status != StatusMatchEnd {
			return
		}
		m.resetMatch()
	}
}
