package scene

import (
	"strings"

	"github.com/coreman2200/ledstrip/internal/color"
)

// MorseTiming holds the element lengths in ms. Zero fields take their
// standard ratio to Dit.
type MorseTiming struct {
	Dit, Dah uint16
	Symbol   uint16 // gap between dits and dahs of one letter
	Letter   uint16 // gap between letters of one word
	Word     uint16 // gap after a word
}

// DefaultDitMs is the dit length used when MorseTiming.Dit is zero.
const DefaultDitMs = 200

func (t MorseTiming) withDefaults() MorseTiming {
	if t.Dit == 0 {
		t.Dit = DefaultDitMs
	}
	// 7 * dit must still fit the two byte duration field.
	t.Dit = min(t.Dit, 0xFFFF/7)
	if t.Dah == 0 {
		t.Dah = 3 * t.Dit
	}
	if t.Symbol == 0 {
		t.Symbol = t.Dit
	}
	if t.Letter == 0 {
		t.Letter = 3 * t.Dit
	}
	if t.Word == 0 {
		t.Word = 7 * t.Dit
	}
	return t
}

var morseCode = map[rune]string{
	'a': ".-", 'b': "-...", 'c': "-.-.", 'd': "-..", 'e': ".", 'f': "..-.",
	'g': "--.", 'h': "....", 'i': "..", 'j': ".---", 'k': "-.-", 'l': ".-..",
	'm': "--", 'n': "-.", 'o': "---", 'p': ".--.", 'q': "--.-", 'r': ".-.",
	's': "...", 't': "-", 'u': "..-", 'v': "...-", 'w': ".--", 'x': "-..-",
	'y': "-.--", 'z': "--..",
	'0': "-----", '1': ".----", '2': "..---", '3': "...--", '4': "....-",
	'5': ".....", '6': "-....", '7': "--...", '8': "---..", '9': "----.",
	'.': ".-.-.-", ',': "--..--", '?': "..--..", '/': "-..-.", '=': "-...-",
}

// Morse builds a SWAP scene that spells text with on/off colors. Characters
// without a code are dropped; the scene repeats after the final word gap.
func Morse(text string, on, off color.Color, timing MorseTiming) Swap {
	t := timing.withDefaults()
	var steps []Timed
	for _, word := range strings.Fields(strings.ToLower(text)) {
		letters := make([]string, 0, len(word))
		for _, r := range word {
			if code, ok := morseCode[r]; ok {
				letters = append(letters, code)
			}
		}
		for i, code := range letters {
			for j, sym := range code {
				n := t.Dit
				if sym == '-' {
					n = t.Dah
				}
				steps = append(steps, Timed{Color: on, N: n})
				switch {
				case j+1 < len(code):
					steps = append(steps, Timed{Color: off, N: t.Symbol})
				case i+1 < len(letters):
					steps = append(steps, Timed{Color: off, N: t.Letter})
				default:
					steps = append(steps, Timed{Color: off, N: t.Word})
				}
			}
		}
	}
	return Swap{Steps: steps}
}
