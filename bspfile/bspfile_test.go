package bspfile

import (
	"bytes"
	"encoding/binary"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// buildMinimalImage assembles a valid IBSP v46 image with every lump
// empty except entities (one entity block), planes (one plane) and
// visdata (an 8-byte header with zero vectors), so
// Load has something non-trivial to exercise without needing a real map
// file on disk.
func buildMinimalImage(t *testing.T) []byte {
	t.Helper()

	headerSize := int(unsafe.Sizeof(Header{}))
	entities := []byte(`{"classname" "info_player_deathmatch"}`)
	plane := Plane{Normal: [3]float32{0, 0, 1}, Dist: 0}

	planeBuf := &bytes.Buffer{}
	require.NoError(t, binary.Write(planeBuf, binary.LittleEndian, plane))

	visHeader := &bytes.Buffer{}
	require.NoError(t, binary.Write(visHeader, binary.LittleEndian, int32(0)))
	require.NoError(t, binary.Write(visHeader, binary.LittleEndian, int32(0)))

	offset := int32(headerSize)
	var dirents [numLumps]Dirent
	place := func(i int, data []byte) []byte {
		dirents[i] = Dirent{Offset: offset, Length: int32(len(data))}
		offset += int32(len(data))
		return data
	}

	body := &bytes.Buffer{}
	body.Write(place(lumpEntities, entities))
	body.Write(place(lumpTextures, nil))
	body.Write(place(lumpPlanes, planeBuf.Bytes()))
	body.Write(place(lumpNodes, nil))
	body.Write(place(lumpLeaves, nil))
	body.Write(place(lumpLeafFaces, nil))
	body.Write(place(lumpLeafBrushes, nil))
	body.Write(place(lumpModels, nil))
	body.Write(place(lumpBrushes, nil))
	body.Write(place(lumpBrushSides, nil))
	body.Write(place(lumpVertices, nil))
	body.Write(place(lumpMeshverts, nil))
	body.Write(place(lumpEffects, nil))
	body.Write(place(lumpFaces, nil))
	body.Write(place(lumpLightmaps, nil))
	body.Write(place(lumpLightvols, nil))
	body.Write(place(lumpVisdata, visHeader.Bytes()))

	header := Header{Version: version, Dirents: dirents}
	copy(header.Magic[:], magic)

	out := &bytes.Buffer{}
	require.NoError(t, binary.Write(out, binary.LittleEndian, header))
	out.Write(body.Bytes())
	return out.Bytes()
}

func TestLoadBytesValid(t *testing.T) {
	data := buildMinimalImage(t)

	m, err := LoadBytes("test.bsp", data)
	require.NoError(t, err)
	require.Len(t, m.Planes, 1)
	assert.InDelta(t, 1.0, float64(m.Planes[0].Normal[2]), 1e-6)
	assert.Contains(t, m.Entities, "info_player_deathmatch")
	assert.Len(t, m.Planeinfo, 1)
	assert.Equal(t, PlaneZ, m.Planeinfo[0].Type)
}

func TestLoadBytesBadMagic(t *testing.T) {
	data := buildMinimalImage(t)
	data[0] = 'X'

	_, err := LoadBytes("test.bsp", data)
	require.Error(t, err)
	var loadErr *LoadError
	require.ErrorAs(t, err, &loadErr)
}

func TestLoadBytesBadVersion(t *testing.T) {
	data := buildMinimalImage(t)
	binary.LittleEndian.PutUint32(data[4:8], 38)

	_, err := LoadBytes("test.bsp", data)
	require.Error(t, err)
}

func TestLoadBytesTruncated(t *testing.T) {
	_, err := LoadBytes("test.bsp", []byte{'I', 'B', 'S', 'P'})
	require.Error(t, err)
}

func TestLoadBytesLumpOutOfRange(t *testing.T) {
	data := buildMinimalImage(t)
	// Corrupt the planes dirent to point past the end of the file.
	// Dirents live right after the 8-byte magic+version header fields.
	direntOffset := 8 + lumpPlanes*8
	binary.LittleEndian.PutUint32(data[direntOffset:], uint32(len(data)+1000))

	_, err := LoadBytes("test.bsp", data)
	require.Error(t, err)
}

func TestLoadBytesMisalignedLump(t *testing.T) {
	data := buildMinimalImage(t)
	direntLenOffset := 8 + lumpPlanes*8 + 4
	// Plane records are 16 bytes; claim a length that isn't a multiple.
	binary.LittleEndian.PutUint32(data[direntLenOffset:], 15)

	_, err := LoadBytes("test.bsp", data)
	require.Error(t, err)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/to/map.bsp")
	require.Error(t, err)
}
