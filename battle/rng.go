package battle

// RandomSource is the uniform generator behind weighted draws and proc
// rolls. Every battle receives its own instance so a fixed seed replays an
// identical fight; gacha.NewSeededSource satisfies it.
type RandomSource interface {
	Float64() float64
}
