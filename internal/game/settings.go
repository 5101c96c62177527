package game

// Settings are the host-configurable match options.
type Settings struct {
	RoundsToWin   int     `json:"rounds"`
	AutoRematch   bool    `json:"autoRematch"`
	InfiniteAmmo  bool    `json:"infiniteAmmo"`
	MovementSpeed float64 `json:"movementSpeed"`
	JumpLevel     float64 `json:"jumpLevel"`
}

// SettingsPatch is a partial update; nil fields are left untouched.
type SettingsPatch struct {
	RoundsToWin   *int     `json:"rounds,omitempty"`
	AutoRematch   *bool    `json:"autoRematch,omitempty"`
	InfiniteAmmo  *bool    `json:"infiniteAmmo,omitempty"`
	MovementSpeed *float64 `json:"movementSpeed,omitempty"`
	JumpLevel     *float64 `json:"jumpLevel,omitempty"`
}

// Apply merges the patch into s. Non-positive numeric values are ignored so
// a patch can never produce an unwinnable match or frozen movement.
func (s Settings) Apply(p SettingsPatch) Settings {
	if p.RoundsToWin != nil && *p.RoundsToWin > 0 {
		s.RoundsToWin = *p.RoundsToWin
	}
	if p.AutoRematch != nil {
		s.AutoRematch = *p.AutoRematch
	}
	if p.InfiniteAmmo != nil {
		s.InfiniteAmmo = *p.InfiniteAmmo
	}
	if p.MovementSpeed != nil && *p.MovementSpeed > 0 && isFinite(*p.MovementSpeed) {
		s.MovementSpeed = *p.MovementSpeed
	}
	if p.JumpLevel != nil && *p.JumpLevel > 0 && isFinite(*p.JumpLevel) {
		s.JumpLevel = *p.JumpLevel
	}
	return s
}

// normalize fills zero values with defaults.
func (s Settings) normalize(defaultRounds int) Settings {
	if s.RoundsToWin <= 0 {
		s.RoundsToWin = defaultRounds
	}
	if s.MovementSpeed <= 0 {
		s.MovementSpeed = 1.0
	}
	if s.JumpLevel <= 0 {
		s.JumpLevel = 1.0
	}
	return s
}
