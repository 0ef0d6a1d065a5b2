package random

import "math/bits"

// Source is a pure random generator: Intn returns a uniform integer in
// [0, n) together with the source for the next draw. n must be positive.
type Source interface {
	Intn(n int) (int, Source)
}

// Roll draws a die face in [1, sides].
func Roll(src Source, sides int) (int, Source) {
	value, next := src.Intn(sides)
	return value + 1, next
}

// Percent draws a value in [1, 100].
func Percent(src Source) (int, Source) {
	return Roll(src, 100)
}

// golden is the SplitMix64 increment.
const golden = 0x9E3779B97F4A7C15

// Seed is a SplitMix64 state. Each draw advances the state by a fixed odd
// increment, so no two draws of one sequence share a state value.
type Seed uint64

// NewSource returns a Source seeded with seed.
func NewSource(seed int64) Seed {
	return Seed(uint64(seed))
}

// Intn implements Source.
func (s Seed) Intn(n int) (int, Source) {
	if n <= 0 {
		panic("random: invalid argument to Intn")
	}
	next := s + golden
	z := uint64(next)
	z = (z ^ (z >> 30)) * 0xBF58476D1CE4E5B9
	z = (z ^ (z >> 27)) * 0x94D049BB133111EB
	z ^= z >> 31
	hi, _ := bits.Mul64(z, uint64(n))
	return int(hi), next
}

// Script replays predetermined die faces, then continues from Fallback.
// Faces are 1-based, as if each draw were a Roll; a face is folded into range
// when the next draw has fewer sides.
type Script struct {
	Faces    []int
	Fallback Seed
}

// NewScript returns a Script that replays faces and then falls back to seed 0.
func NewScript(faces ...int) Script {
	return Script{Faces: faces}
}

// Intn implements Source.
func (s Script) Intn(n int) (int, Source) {
	if n <= 0 {
		panic("random: invalid argument to Intn")
	}
	if len(s.Faces) == 0 {
		return s.Fallback.Intn(n)
	}
	value := ((s.Faces[0]-1)%n + n) % n
	return value, Script{Faces: s.Faces[1:], Fallback: s.Fallback}
}

// Remaining reports how many scripted faces have not been drawn yet.
func (s Script) Remaining() int {
	return len(s.Faces)
}
