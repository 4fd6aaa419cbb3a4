package hybridcache

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCodecs(t *testing.T) {
	record := Record[homepage]{
		Value:     homepage{Page: 2, Titles: []string{"vinland-saga"}},
		FetchedAt: epoch.Add(1500 * time.Millisecond),
	}

	for name, codec := range map[string]Codec{"json": JSONCodec{}, "msgpack": MsgpackCodec{}} {
		t.Run(name, func(t *testing.T) {
			data, err := codec.Encode(record)
			require.NoError(t, err)

			var got Record[homepage]
			require.NoError(t, codec.Decode(data, &got))
			assert.Equal(t, record.Value, got.Value)
			assert.True(t, record.FetchedAt.Equal(got.FetchedAt))
		})
	}
}

func TestMsgpackCodec_RejectsGarbage(t *testing.T) {
	var got Record[homepage]
	assert.Error(t, MsgpackCodec{}.Decode("%%%", &got))
}
