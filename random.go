package main

import (
	"fmt"
	"math/rand/v2"
)

// stockImageCount is the number of stock artworks available to the default theme.
const stockImageCount = 151

const stockImageURL = "https://raw.githubusercontent.com/PokeAPI/sprites/master/sprites/pokemon/other/official-artwork/%d.png"

// randIntN draws from rng, or from the global source when rng is nil.
func randIntN(rng *rand.Rand, n int) int {
	if rng == nil {
		return rand.IntN(n)
	}
	return rng.IntN(n)
}

// randomColor picks a card colour uniformly.
func randomColor(rng *rand.Rand) ColorTag {
	return cardColors[randIntN(rng, len(cardColors))]
}

// randomStockImageID picks an artwork id in [1, stockImageCount].
func randomStockImageID(rng *rand.Rand) int {
	return randIntN(rng, stockImageCount) + 1
}

// stockImage maps an artwork id to its URL.
func stockImage(id int) string {
	return fmt.Sprintf(stockImageURL, id)
}

// shuffle returns a uniformly shuffled copy of items (Fisher-Yates).
func shuffle[T any](rng *rand.Rand, items []T) []T {
	out := make([]T, len(items))
	copy(out, items)
	for i := len(out) - 1; i > 0; i-- {
		j := randIntN(rng, i+1)
		out[i], out[j] = out[j], out[i]
	}
	return out
}
