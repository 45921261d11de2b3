package history

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ultrapress/ultrapress/pkg/chats/message"
	"github.com/ultrapress/ultrapress/pkg/chats/role"
)

func turns(n int) []message.Message {
	out := make([]message.Message, n)
	for i := range out {
		if i%2 == 0 {
			out[i] = message.User(fmt.Sprintf("question %d", i))
		} else {
			out[i] = message.Assistant(fmt.Sprintf("answer %d", i))
		}
	}
	return out
}

func TestCompress_IdentityWithinBudget(t *testing.T) {
	for n := 0; n <= 10; n++ {
		h := turns(n)
		assert.Equal(t, h, Compress(h), "length %d", n)
	}
}

func TestCompress_BookendsLongHistory(t *testing.T) {
	for n := 11; n <= 40; n++ {
		h := turns(n)
		got := Compress(h)

		require.Len(t, got, 11, "length %d", n)
		assert.Equal(t, h[:2], got[:2])
		assert.Equal(t, h[n-8:], got[3:])
		assert.Equal(t, role.System, got[2].Role)
		assert.Equal(t, OmittedMarker, got[2].Content)
	}
}

func TestCompress_Idempotent(t *testing.T) {
	once := Compress(turns(25))
	twice := Compress(once)

	assert.Equal(t, once, twice)
}

func TestCompress_DoesNotAliasInput(t *testing.T) {
	h := turns(12)
	got := Compress(h)

	got[0] = message.User("changed")
	assert.Equal(t, "question 0", h[0].Content)
}

func TestPolicy_Custom(t *testing.T) {
	p := Policy{Head: 1, Tail: 2}
	h := turns(5)

	got := p.Compress(h)

	require.Len(t, got, p.MaxLen())
	assert.Equal(t, h[0], got[0])
	assert.Equal(t, OmittedMarker, got[1].Content)
	assert.Equal(t, h[3:], got[2:])
	assert.Equal(t, 3, p.Budget())
}

func TestPolicy_ZeroHead(t *testing.T) {
	p := Policy{Head: 0, Tail: 1}

	got := p.Compress(turns(3))

	require.Len(t, got, 2)
	assert.Equal(t, OmittedMarker, got[0].Content)
	assert.Equal(t, "question 2", got[1].Content)
}
