// Package shaders loads the compiled SPIR-V programs used by the triangle.
//
// The GLSL sources live next to this file. Run `go generate` with glslc from the
// Vulkan SDK on the PATH in order to compile them again.
package shaders

//go:generate glslc shader.vert -o vert.spv
//go:generate glslc shader.frag -o frag.spv

import (
	"embed"
	"encoding/binary"
	"io/fs"
	"os"

	"github.com/cockroachdb/errors"
)

const (
	// VertexFile is the file name of the compiled vertex shader.
	VertexFile = "vert.spv"

	// FragmentFile is the file name of the compiled fragment shader.
	FragmentFile = "frag.spv"

	// spirvMagic is the first word of every SPIR-V module.
	spirvMagic uint32 = 0x07230203
)

// ErrInvalidSPIRV is returned when a file does not look like SPIR-V bytecode.
var ErrInvalidSPIRV = errors.New("invalid SPIR-V bytecode")

// Program is a pair of compiled vertex and fragment shaders.
type Program struct {
	Vertex   []uint32
	Fragment []uint32
}

// FS embeds the compiled vertex and fragment shaders.
//
//go:embed vert.spv
//go:embed frag.spv
var FS embed.FS

// Dir returns a file system rooted at the directory with the .spv files. An
// empty path selects the shaders embedded in the binary.
func Dir(path string) fs.FS {
	if path == "" {
		return FS
	}
	return os.DirFS(path)
}

// LoadProgram reads both the vertex and the fragment shader from fsys.
func LoadProgram(fsys fs.FS) (Program, error) {
	vert, err := Load(fsys, VertexFile)
	if err != nil {
		return Program{}, errors.Wrap(err, "vertex shader")
	}

	frag, err := Load(fsys, FragmentFile)
	if err != nil {
		return Program{}, errors.Wrap(err, "fragment shader")
	}

	return Program{Vertex: vert, Fragment: frag}, nil
}

// Load reads the file name from fsys and returns its content as SPIR-V words.
func Load(fsys fs.FS, name string) ([]uint32, error) {
	code, err := fs.ReadFile(fsys, name)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %s", name)
	}

	words, err := Decode(code)
	if err != nil {
		return nil, errors.Wrapf(err, "decoding %s", name)
	}

	return words, nil
}

// Decode repacks SPIR-V bytecode into 32 bit words. The byte order is taken from
// the magic number so modules produced on machines with either endianness work.
func Decode(code []byte) ([]uint32, error) {
	if len(code) < 4 || len(code)%4 != 0 {
		return nil, errors.Wrapf(ErrInvalidSPIRV, "size %d is not a positive multiple of 4", len(code))
	}

	var order binary.ByteOrder
	switch {
	case binary.LittleEndian.Uint32(code) == spirvMagic:
		order = binary.LittleEndian
	case binary.BigEndian.Uint32(code) == spirvMagic:
		order = binary.BigEndian
	default:
		return nil, errors.Wrapf(ErrInvalidSPIRV, "bad magic number 0x%08x",
			binary.LittleEndian.Uint32(code))
	}

	words := make([]uint32, len(code)/4)
	for i := range words {
		words[i] = order.Uint32(code[i*4:])
	}

	return words, nil
}
