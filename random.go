package generaxcore

import (
	"math/rand"
)

// process-wide RNG service for the single-threaded searches
var rng = rand.New(rand.NewSource(42))

//SeedRNG will reseed the process-wide random number generator, making
//randomized searches reproducible
func SeedRNG(seed int64) {
	rng = rand.New(rand.NewSource(seed))
}

//RandBool will draw a uniformly random boolean
func RandBool() bool {
	return rng.Intn(2) == 1
}

//RandIntn will draw a uniformly random integer in [0, n)
func RandIntn(n int) int {
	return rng.Intn(n)
}

//RandFloat64 will draw a uniformly random float64 in [0, 1)
func RandFloat64() float64 {
	return rng.Float64()
}
