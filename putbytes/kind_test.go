package putbytes

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEncodeKind_AppScopeBit(t *testing.T) {
	for k := KindFirmware; k <= KindWorker; k++ {
		for _, appScoped := range []bool{false, true} {
			t.Run(fmt.Sprintf("%s/app=%v", k, appScoped), func(t *testing.T) {
				require := require.New(t)

				b, err := EncodeKind(k, appScoped)
				require.NoError(err)
				require.Equal(appScoped, b&0x80 != 0)
				require.Equal(byte(k), b&0x7F)

				kind, scoped := DecodeKind(b)
				require.Equal(k, kind)
				require.Equal(appScoped, scoped)
			})
		}
	}
}

func TestEncodeKind_Invalid(t *testing.T) {
	for _, k := range []ObjectKind{0, 0x80, 0x85, 0xFF} {
		_, err := EncodeKind(k, false)
		require.ErrorIs(t, err, ErrInvalidKind, "kind %d", k)
	}

	b, err := EncodeKind(KindBinary, true)
	require.NoError(t, err)
	require.Equal(t, byte(0x85), b)
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		name string
		want ObjectKind
	}{
		{"firmware", KindFirmware},
		{"Recovery", KindRecovery},
		{"system_resources", KindSystemResources},
		{"system-resources", KindSystemResources},
		{" resources ", KindResources},
		{"binary", KindBinary},
		{"file", KindFile},
		{"worker", KindWorker},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k, err := ParseKind(tt.name)
			require.NoError(t, err)
			require.Equal(t, tt.want, k)
			require.True(t, k.Valid())
		})
	}

	_, err := ParseKind("bootloader")
	require.ErrorIs(t, err, ErrInvalidKind)
	require.Equal(t, "kind(9)", ObjectKind(9).String())
	require.False(t, ObjectKind(9).Valid())
}
