/*
Package randx generates the random fallbacks used when neither a URL parameter
nor a persisted setting supplies a value: anonymous display names, collaborator
colors and UUID room names.
*/
package randx

import (
	"crypto/rand"
	"math/big"

	"github.com/google/uuid"
)

// Source produces fallback identity and room values.
type Source interface {
	Name() string
	Color() string
	UUID() string
}

// moons are the moons of Jupiter, used to build anonymous names.
var moons = []string{
	"Adrastea", "Aitne", "Amalthea", "Ananke", "Aoede", "Arche", "Autonoe",
	"Callirrhoe", "Callisto", "Carme", "Carpo", "Chaldene", "Cyllene", "Dia",
	"Elara", "Erinome", "Euanthe", "Eukelade", "Euporie", "Europa", "Eurydome",
	"Ganymede", "Harpalyke", "Hegemone", "Helike", "Hermippe", "Herse",
	"Himalia", "Io", "Iocaste", "Isonoe", "Kale", "Kallichore", "Kalyke",
	"Kore", "Leda", "Lysithea", "Megaclite", "Metis", "Mneme", "Orthosie",
	"Pasiphae", "Pasithee", "Praxidike", "Sinope", "Sponde", "Taygete",
	"Thebe", "Thelxinoe", "Themisto", "Thyone",
}

// palette is the collaborator color set. Every entry stays readable on both
// light and dark terminals.
var palette = []string{
	"#ffad8e", "#dac83d", "#72dd76", "#00e4d0",
	"#45d4ff", "#e2b1ff", "#ff9de6", "#22d3ee",
}

// Default draws from crypto/rand.
var Default Source = cryptoSource{}

type cryptoSource struct{}

func (cryptoSource) Name() string  { return AnonymousName() }
func (cryptoSource) Color() string { return Color() }
func (cryptoSource) UUID() string  { return UUID() }

// AnonymousName returns a display name such as "Anonymous Europa".
func AnonymousName() string {
	return "Anonymous " + moons[Index(len(moons))]
}

// Color returns a collaborator color as a #rrggbb string.
func Color() string {
	return palette[Index(len(palette))]
}

// UUID returns a random version 4 UUID in its canonical textual form.
func UUID() string {
	return uuid.NewString()
}

// Index returns a uniformly distributed index in [0, n). It falls back to 0
// if the system random source fails, which keeps every caller total.
func Index(n int) int {
	if n <= 1 {
		return 0
	}
	v, err := rand.Int(rand.Reader, big.NewInt(int64(n)))
	if err != nil {
		return 0
	}
	return int(v.Int64())
}

// Fixed is a Source that always returns the same values. Tests use it to make
// fallbacks predictable.
type Fixed struct {
	NameValue  string
	ColorValue string
	UUIDValue  string
}

func (f Fixed) Name() string  { return f.NameValue }
func (f Fixed) Color() string { return f.ColorValue }
func (f Fixed) UUID() string  { return f.UUIDValue }
