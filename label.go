package scitrack

// Label is assigned at most once to a track, at the frame it is first
// promoted to current. ID is monotonically increasing across the whole
// World (never reused, even across scenes).
type Label struct {
	ID        uint64
	SpawnTime uint64
}
