package color

// Source is the random draw injected into scene loading. *rand.Rand from
// math/rand/v2 satisfies it.
type Source interface {
	IntN(n int) int
}

// RandomHue returns a fully bright Hue+Value color with a hue drawn from src.
func RandomHue(src Source) Color {
	return NewHV(uint8(src.IntN(256)), MaxValue)
}

// Resolve replaces an unset color with a random fully bright hue.
func Resolve(c Color, src Source) Color {
	if c.Unset() {
		return RandomHue(src)
	}
	return c
}
