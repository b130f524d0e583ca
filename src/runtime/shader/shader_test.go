package shader

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWords(t *testing.T) {
	raw := binary.LittleEndian.AppendUint32(nil, spirvMagic)
	raw = binary.LittleEndian.AppendUint32(raw, 0x00010300)

	words, err := Words(raw)
	require.NoError(t, err)
	assert.Equal(t, []uint32{spirvMagic, 0x00010300}, words)
}

func TestWordsRejectsGarbage(t *testing.T) {
	for name, raw := range map[string][]byte{
		"empty":     nil,
		"unaligned": {0x03, 0x02, 0x23},
		"magic":     {0, 0, 0, 0},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Words(raw)
			assert.ErrorIs(t, err, ErrNotSPIRV)
		})
	}
}

func TestCreateShaderModuleMissingFile(t *testing.T) {
	_, err := CreateShaderModule(filepath.Join(t.TempDir(), "missing.spv"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}
