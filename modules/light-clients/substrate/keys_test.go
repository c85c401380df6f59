package substrate_test

import (
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ComposableFi/light-clients/modules/light-clients/substrate"
)

func TestStorageKeys(t *testing.T) {
	require.Equal(t, "26aa394eea5630e07c48ae0c9558cef7", hex.EncodeToString(substrate.Twox128([]byte("System"))))
	require.Equal(t,
		"cd710b30bd2eab0352ddcc26417aa1941b3c252fcb29d88eff4f3de5de4476c3",
		hex.EncodeToString(substrate.StoragePrefix(substrate.ParasPallet, substrate.HeadsStorageItem)),
	)

	key := substrate.ParachainHeadsKey(2000)
	require.Len(t, key, 32+8+4)
	require.Equal(t, []byte{0xd0, 0x07, 0x00, 0x00}, key[40:])
	require.NotEqual(t, key, substrate.ParachainHeadsKey(2001))

	concat := substrate.Twox64Concat([]byte{1, 2})
	require.Len(t, concat, 10)
	require.Equal(t, []byte{1, 2}, concat[8:])
}
