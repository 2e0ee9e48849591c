package post

import (
	"encoding/json"
	"math"
	"strings"
)

// WordsPerMinute is the reading speed used by ReadingTime.
const WordsPerMinute = 200

// ReadingTime estimates minutes to read a post from its title, description
// and body. A structured body is counted through its JSON encoding.
func ReadingTime(p Post) int {
	words := len(strings.Fields(p.Title)) + len(strings.Fields(p.Description))
	switch b := p.Body.(type) {
	case nil:
	case string:
		words += len(strings.Fields(b))
	case []byte:
		words += len(strings.Fields(string(b)))
	default:
		if enc, err := json.Marshal(b); err == nil {
			words += len(strings.Fields(string(enc)))
		}
	}
	minutes := int(math.Ceil(float64(words) / WordsPerMinute))
	if minutes < 1 {
		return 1
	}
	return minutes
}
