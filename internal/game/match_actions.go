package game

import (
	"log"
	"time"

	"sniper-duel/internal/telemetry"
)

// MovementInput is a client-proposed transform.
type MovementInput struct {
	Position  Vec3
	Rotation  Rotation
	Velocity  Vec3
	Grounded  bool
	Crouching bool
}

// UpdateMovement overwrites the player's transform wholesale if the proposed
// position clears the static geometry. Colliding proposals are dropped with
// no correction. Returns whether the update was stored.
func (m *Match) UpdateMovement(playerID string, in MovementInput) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[playerID]
	if !ok || p.IsDead || m.closed {
		return false
	}
	if !in.Velocity.IsFinite() || !isFinite(in.Rotation.Pitch) || !isFinite(in.Rotation.Yaw) {
		return false
	}
	if !m.validator.Accept(in.Position) {
		telemetry.MovementRejected.Inc()
		return false
	}

	p.Position = in.Position
	p.Rotation = in.Rotation
	p.Velocity = in.Velocity
	p.Grounded = in.Grounded
	p.Crouching = in.Crouching
	return true
}

// HandleShoot resolves one shot. Shots from unknown or dead players, with an
// empty magazine, or outside IN_PROGRESS are ignored. Returns the hit result
// and whether the shot was accepted.
//
// ROUND_END and MATCH_END shots are dropped: scores are frozen there and a
// kill could not be credited.
func (m *Match) HandleShoot(shot Shot) (HitResult, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	shooter, ok := m.players[shot.ShooterID]
	if !ok || shooter.IsDead || m.closed || m.status != StatusInProgress {
		return HitResult{}, false
	}
	if !shooter.Ammo.CanFire() {
		return HitResult{}, false
	}
	now := m.clock.Now()
	if m.rules.EnforceBoltTime && !shooter.LastShot.IsZero() && now.Sub(shooter.LastShot) < m.rules.BoltActionTime {
		return HitResult{}, false
	}

	shooter.Ammo.Consume()
	shooter.LastShot = now
	shooter.Stats.Shots++
	telemetry.ShotsTotal.Inc()

	m.emit(EventPlayerFired, PlayerFiredEvent{ShooterID: shooter.ID})

	result := m.detector.Resolve(shot, m.players, m.history)
	m.journal(EventTypeShot, shooter.ID, ShotPayload{
		ShooterID:   shooter.ID,
		Origin:      shot.Origin,
		Direction:   shot.Direction,
		ClientTime:  shot.ClientTime.UnixMilli(),
		Hit:         result.Hit,
		VictimID:    result.VictimID,
		Region:      result.Region,
		Distance:    result.Distance,
		Compensated: result.Compensated,
	})

	if !result.Hit {
		telemetry.RecordMiss(result.Compensated)
		return result, true
	}
	telemetry.RecordHit(string(result.Region), result.Compensated)

	victim := m.players[result.VictimID]
	damage := DamageFor(result.Region)
	fatal := victim.applyDamage(damage)

	shooter.Stats.Hits++
	if result.Region == RegionHead {
		shooter.Stats.Headshots++
	}

	hit := HitConfirmedEvent{
		ShooterID:       shooter.ID,
		VictimID:        victim.ID,
		ShooterNickname: shooter.Nickname,
		VictimNickname:  victim.Nickname,
		Hitbox:          result.Region,
		Damage:          damage,
		Fatal:           fatal,
		ImpactPoint:     result.ImpactPoint,
	}

	if !fatal {
		m.journal(EventTypeHit, shooter.ID, hit)
		m.emit(EventHitConfirmed, hit)
		return result, true
	}

	m.scores[shooter.ID]++
	shooter.Stats.Kills++
	telemetry.KillsTotal.Inc()

	died := PlayerDiedEvent{
		VictimID:       victim.ID,
		KillerID:       shooter.ID,
		VictimNickname: victim.Nickname,
		KillerNickname: shooter.Nickname,
		Hitbox:         result.Region,
	}
	m.journal(EventTypeKill, shooter.ID, died)
	m.emit(EventPlayerDied, died)
	m.emit(EventHitConfirmed, hit)

	if m.scores[shooter.ID] >= m.settings.RoundsToWin {
		m.endMatch(shooter.ID)
		return result, true
	}
	m.schedule(taskRespawn, victim.ID, m.rules.RespawnDelay)
	return result, true
}

// HandleReload moves rounds from reserve into the magazine.
func (m *Match) HandleReload(playerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[playerID]
	if !ok || p.IsDead || m.closed {
		return false
	}
	return p.Ammo.Reload(m.rules.MagazineSize) > 0
}

// HandleScopeToggle records the scope flag. It has no effect on hits.
func (m *Match) HandleScopeToggle(playerID string, scoped bool) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[playerID]
	if !ok || m.closed {
		return false
	}
	p.IsScoped = scoped
	return true
}

// HandleRematchRequest marks the player as ready for a rematch and restarts
// the match once every connected player is ready.
func (m *Match) HandleRematchRequest(playerID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[playerID]
	if !ok || m.closed || m.status != StatusMatchEnd {
		return false
	}
	p.WantsRematch = true
	m.maybeRematch()
	return true
}

// maybeRematch resets the match if every current player opted in.
// Must be called with m.mu held.
func (m *Match) maybeRematch() {
	if m.status != StatusMatchEnd || len(m.players) == 0 {
		return
	}
	for _, p := range m.players {
		if !p.WantsRematch {
			return
		}
	}
	m.resetMatch()
}

// HandleDisconnect removes the player and their score. Returns the number of
// players left.
func (m *Match) HandleDisconnect(playerID string) int {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.players[playerID]
	if !ok {
		return len(m.players)
	}
	delete(m.players, playerID)
	delete(m.scores, playerID)

	m.journal(EventTypePlayerLeave, playerID, PlayerLeavePayload{PlayerID: playerID, Remaining: len(m.players)})
	log.Printf("👋 %s left match %s (%d remaining)", p.Nickname, m.id, len(m.players))

	switch m.status {
	case StatusInProgress, StatusRoundEnd:
		if len(m.players) < 1 {
			m.disarmTicker()
		}
	case StatusMatchEnd:
		// A departing holdout must not block the others.
		m.maybeRematch()
	}
	return len(m.players)
}

// UpdateSettings merges the patch and broadcasts the full result.
// Enabling infinite ammo switches every player to unlimited immediately;
// disabling it refills counters to capacity.
func (m *Match) UpdateSettings(patch SettingsPatch) Settings {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return m.settings
	}

	prev := m.settings
	m.settings = m.settings.Apply(patch)

	if m.settings.InfiniteAmmo != prev.InfiniteAmmo {
		for _, p := range m.players {
			m.refillAmmo(p)
		}
	}

	ev := SettingsUpdatedEvent{Settings: m.settings}
	m.journal(EventTypeSettings, "", ev)
	m.emit(EventSettingsUpdated, ev)
	return m.settings
}

// Settings returns the current settings.
func (m *Match) Settings() Settings {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.settings
}

// TimeRemaining returns the round clock.
func (m *Match) TimeRemaining() time.Duration {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.timeRemaining
}
