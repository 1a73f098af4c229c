package orm

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/iov-one/vault/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSequence(t *testing.T) {
	db := store.MemStore()

	cases := []struct {
		bucket     string
		init       int64
		increments int64
	}{
		0: {"settings", 0, 22},
		1: {"buffers", 0, 11},
		2: {"settings", 22, 18},
		3: {"votes", 0, 77},
		4: {"buffers", 11, 248},
	}

	for i, tc := range cases {
		t.Run(fmt.Sprintf("case-%d", i), func(t *testing.T) {
			s := NewSequence(tc.bucket, "id")
			init, orig, err := s.Latest(db)
			require.NoError(t, err)
			assert.Equal(t, tc.init, init)

			var val int64
			for i := int64(0); i < tc.increments; i++ {
				val, err = s.NextInt(db)
				require.NoError(t, err)
			}
			assert.Equal(t, tc.init+tc.increments, val)

			// raw bytes keep the ordering
			_, last, err := s.Latest(db)
			require.NoError(t, err)
			assert.Equal(t, 1, bytes.Compare(last, orig))
		})
	}
}
