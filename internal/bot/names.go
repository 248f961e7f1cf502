package bot

import (
	"math/rand/v2"

	"github.com/norkator/poker-pocket-backend/internal/randutil"
)

var botNames = []string{
	"Antti", "Arnold", "Bertha", "Carl", "Dolly", "Edna", "Frank",
	"Gertrude", "Hank", "Ida", "Jasper", "Kitty", "Lester", "Mabel",
	"Norman", "Opal", "Pekka", "Quincy", "Ruth", "Seppo", "Tuula",
	"Urho", "Vera", "Wilbur", "Yrjo", "Zelda",
}

// RandomName picks a display name for a freshly seated bot.
func RandomName(rng *rand.Rand) string {
	return randutil.Pick(rng, botNames)
}
