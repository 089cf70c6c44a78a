package implementation

import (
	"strings"
	"sync"
	"unicode/utf8"

	protocol "github.com/tliron/glsp/protocol_3_16"
)

var documents sync.Map // protocol.DocumentUri to string

func setDocument(uri protocol.DocumentUri, content string) {
	documents.Store(uri, content)
}

func getDocument(uri protocol.DocumentUri) (string, bool) {
	if content, ok := documents.Load(uri); ok {
		return content.(string), true
	}
	return "", false
}

func deleteDocument(uri protocol.DocumentUri) {
	documents.Delete(uri)
}

// rangeToIndex converts a range into byte offsets of content. Characters are
// counted in runes, like the positions hover works with.
func rangeToIndex(content string, range_ *protocol.Range) (int, int) {
	start := positionToIndex(content, range_.Start)
	end := positionToIndex(content, range_.End)
	if end < start {
		end = start
	}
	return start, end
}

func positionToIndex(content string, position protocol.Position) int {
	index := 0
	for line := protocol.UInteger(0); line < position.Line; line++ {
		next := strings.IndexByte(content[index:], '\n')
		if next < 0 {
			return len(content)
		}
		index += next + 1
	}

	for character := protocol.UInteger(0); character < position.Character && index < len(content); character++ {
		rune_, size := utf8.DecodeRuneInString(content[index:])
		if rune_ == '\n' || rune_ == '\r' {
			break
		}
		index += size
	}
	return index
}
