package endian

import (
	"encoding/binary"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCheckEndianness(t *testing.T) {
	order := CheckEndianness()
	require.True(t, order == binary.LittleEndian || order == binary.BigEndian)
	require.Equal(t, order, CheckEndianness(), "result is stable")
	require.Equal(t, order, binary.ByteOrder(GetNativeEngine()))
}

func TestGetEngine(t *testing.T) {
	tests := []struct {
		name string
		big  bool
		want []byte
	}{
		{name: "little", big: false, want: []byte{0x04, 0x03, 0x02, 0x01}},
		{name: "big", big: true, want: []byte{0x01, 0x02, 0x03, 0x04}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := GetEngine(tt.big)
			require.Equal(t, tt.big, IsBigEndian(engine))

			buf := engine.AppendUint32(nil, 0x01020304)
			require.Equal(t, tt.want, buf)
			require.Equal(t, uint32(0x01020304), engine.Uint32(buf))
		})
	}
}

func TestNamedEngines(t *testing.T) {
	require.False(t, IsBigEndian(GetLittleEndianEngine()))
	require.True(t, IsBigEndian(GetBigEndianEngine()))

	buf := GetBigEndianEngine().AppendUint64(nil, 1)
	require.Equal(t, byte(1), buf[7])
	require.Equal(t, uint64(1), GetBigEndianEngine().Uint64(buf))
}
