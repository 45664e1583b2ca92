package authority

import "math/rand"

var words = []string{
	"elephant", "bicycle", "pizza", "guitar", "castle",
	"rainbow", "volcano", "penguin", "lighthouse", "umbrella",
	"dragon", "sandwich", "telescope", "waterfall", "robot",
}

func pickWord() string {
	return words[rand.Intn(len(words))]
}
