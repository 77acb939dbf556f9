package llm

import (
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/voxflow/voxflow/types"
)

// ResponseStream wraps a single already-computed response value into the
// streaming protocol expected by the voice pipeline: it emits exactly one
// assistant chunk and then signals end-of-stream. It never performs
// incremental token-level streaming; it simulates a streaming interface over
// a batch result.
type ResponseStream struct {
	ch        chan StreamChunk
	closeOnce sync.Once
}

// NewResponseStream builds the single-chunk stream for a response value:
//   - a string is used as-is;
//   - a slice of parts is joined with single spaces;
//   - anything else is coerced to its display string.
func NewResponseStream(v any) *ResponseStream {
	ch := make(chan StreamChunk, 1)
	ch <- StreamChunk{
		ID: uuid.NewString(),
		Delta: Message{
			Role:    types.RoleAssistant,
			Content: coerceText(v),
		},
	}
	close(ch)

	return &ResponseStream{ch: ch}
}

// Chunks returns the chunk channel. The channel carries exactly one chunk and
// is already closed once that chunk is consumed.
func (s *ResponseStream) Chunks() <-chan StreamChunk {
	return s.ch
}

// Close releases the stream. The chunk is fully buffered at construction, so
// Close never has a producer to interrupt; it is idempotent and safe to call
// any number of times, before or after the chunk has been consumed.
func (s *ResponseStream) Close() error {
	s.closeOnce.Do(func() {})
	return nil
}

func coerceText(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case []string:
		return strings.Join(t, " ")
	}

	// Any other sequence joins element-wise, not via fmt's bracketed form.
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array {
		parts := make([]string, rv.Len())
		for i := range parts {
			parts[i] = fmt.Sprint(rv.Index(i).Interface())
		}
		return strings.Join(parts, " ")
	}

	return fmt.Sprint(v)
}
