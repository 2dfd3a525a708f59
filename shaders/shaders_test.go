package shaders

import (
	"encoding/binary"
	"testing"
	"testing/fstest"

	"github.com/cockroachdb/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func module(order binary.AppendByteOrder, words ...uint32) []byte {
	out := make([]byte, 0, 4*(len(words)+1))
	out = order.AppendUint32(out, spirvMagic)
	for _, w := range words {
		out = order.AppendUint32(out, w)
	}
	return out
}

func TestDecodeLittleEndian(t *testing.T) {
	words, err := Decode(module(binary.LittleEndian, 0x00010000, 42))
	require.NoError(t, err)
	assert.Equal(t, []uint32{spirvMagic, 0x00010000, 42}, words)
}

func TestDecodeBigEndian(t *testing.T) {
	words, err := Decode(module(binary.BigEndian, 7))
	require.NoError(t, err)
	assert.Equal(t, []uint32{spirvMagic, 7}, words)
}

func TestDecodeRejectsBadInput(t *testing.T) {
	for name, code := range map[string][]byte{
		"empty":       nil,
		"short":       {0x03, 0x02},
		"unaligned":   append(module(binary.LittleEndian), 0x01),
		"wrong magic": {0xde, 0xad, 0xbe, 0xef},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Decode(code)
			assert.True(t, errors.Is(err, ErrInvalidSPIRV), "got %v", err)
		})
	}
}

func TestLoadProgram(t *testing.T) {
	fsys := fstest.MapFS{
		VertexFile:   {Data: module(binary.LittleEndian, 1)},
		FragmentFile: {Data: module(binary.LittleEndian, 2, 3)},
	}

	prog, err := LoadProgram(fsys)
	require.NoError(t, err)
	assert.Len(t, prog.Vertex, 2)
	assert.Len(t, prog.Fragment, 3)
}

func TestLoadProgramMissingFragment(t *testing.T) {
	fsys := fstest.MapFS{
		VertexFile: {Data: module(binary.LittleEndian, 1)},
	}

	_, err := LoadProgram(fsys)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "fragment shader")
}

func TestLoadInvalidFile(t *testing.T) {
	fsys := fstest.MapFS{
		VertexFile: {Data: []byte("#version 450\n")},
	}

	_, err := Load(fsys, VertexFile)
	assert.True(t, errors.Is(err, ErrInvalidSPIRV))
}

func TestEmbeddedProgram(t *testing.T) {
	prog, err := LoadProgram(Dir(""))
	require.NoError(t, err)

	const (
		opEntryPoint = 15
		vertex       = 0
		fragment     = 4
	)

	for name, test := range map[string]struct {
		words []uint32
		model uint32
	}{
		"vertex":   {prog.Vertex, vertex},
		"fragment": {prog.Fragment, fragment},
	} {
		t.Run(name, func(t *testing.T) {
			words := test.words
			require.Greater(t, len(words), 5)
			assert.Equal(t, spirvMagic, words[0])
			assert.Equal(t, uint32(0x00010000), words[1], "SPIR-V 1.0")

			var models []uint32
			offset := 5
			for offset < len(words) {
				count := int(words[offset] >> 16)
				require.Positive(t, count, "instruction at word %d", offset)
				require.LessOrEqual(t, offset+count, len(words))

				if words[offset]&0xffff == opEntryPoint {
					models = append(models, words[offset+1])
				}
				offset += count
			}
			assert.Equal(t, len(words), offset, "instructions end with the module")
			assert.Equal(t, []uint32{test.model}, models)
		})
	}
}

func TestDirReadsFromDisk(t *testing.T) {
	_, err := LoadProgram(Dir(t.TempDir()))
	assert.Error(t, err, "an empty directory has no shaders")
}
