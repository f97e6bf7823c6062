// Package render is a thin vertex-lit renderer collaborator: it turns a
// loaded bspfile.Map into GPU buffers and draws the faces visible from
// the Movement Controller's current cluster. Texturing, lightmapping
// and patch tessellation are renderer non-goals; this package owns only
// enough GL state to show the world's shape and vertex coloring.
package render

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/mathgl/mgl32"

	"github.com/samuelyuan/q3playground/bspfile"
	"github.com/samuelyuan/q3playground/bspquery"
)

const (
	vertexShaderSource = `
		#version 410
		layout (location = 0) in vec3 position;
		layout (location = 1) in vec4 color;

		uniform mat4 view;
		uniform mat4 projection;

		out vec4 fragColor;

		void main() {
			gl_Position = projection * view * vec4(position, 1.0);
			fragColor = color;
		}
	` + "\x00"

	fragmentShaderSource = `
		#version 410
		in vec4 fragColor;
		out vec4 outColor;

		void main() {
			outColor = fragColor;
		}
	` + "\x00"
)

// faceRange is a contiguous run of vertices in the renderer's vertex
// buffer, one per polygon/mesh face, drawn as a list of triangles.
type faceRange struct {
	first, count int32
}

// Renderer owns the GL program and vertex buffers built from a single
// bspfile.Map. It does not own a window or GL context; the caller must
// make one current before calling New.
type Renderer struct {
	program uint32
	vao     uint32
	vbo     uint32

	leafFaces map[int][]faceRange
	tessLevel int
}

// New compiles the shader program and uploads one vertex buffer covering
// every polygon/mesh face in m. Patch and billboard faces are skipped
// (tessellation is a renderer non-goal for collision, and left
// unimplemented here too — SetTessellationLevel only records the flag).
func New(m *bspfile.Map) (*Renderer, error) {
	vertexShader, err := compileShader(vertexShaderSource, gl.VERTEX_SHADER)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}
	fragmentShader, err := compileShader(fragmentShaderSource, gl.FRAGMENT_SHADER)
	if err != nil {
		return nil, fmt.Errorf("render: %w", err)
	}

	program := gl.CreateProgram()
	gl.AttachShader(program, vertexShader)
	gl.AttachShader(program, fragmentShader)
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &logLength)
		infoLog := strings.Repeat("\x00", int(logLength+1))
		gl.GetProgramInfoLog(program, logLength, nil, gl.Str(infoLog))
		return nil, fmt.Errorf("render: link program: %s", infoLog)
	}

	verts, faceVertRange := buildVertexData(m)

	var vao, vbo uint32
	gl.GenVertexArrays(1, &vao)
	gl.BindVertexArray(vao)

	gl.GenBuffers(1, &vbo)
	gl.BindBuffer(gl.ARRAY_BUFFER, vbo)
	const floatSize = 4
	stride := int32(7 * floatSize)
	gl.BufferData(gl.ARRAY_BUFFER, len(verts)*floatSize, gl.Ptr(verts), gl.STATIC_DRAW)

	gl.VertexAttribPointer(0, 3, gl.FLOAT, false, stride, gl.PtrOffset(0))
	gl.EnableVertexAttribArray(0)
	gl.VertexAttribPointer(1, 4, gl.FLOAT, false, stride, gl.PtrOffset(3*floatSize))
	gl.EnableVertexAttribArray(1)

	leafFaces := make(map[int][]faceRange)
	for leafIdx, leaf := range m.Leaves {
		var ranges []faceRange
		for i := int32(0); i < leaf.NumLeafFaces; i++ {
			faceIdx := int(m.LeafFaces[leaf.LeafFace+i])
			if r, ok := faceVertRange[faceIdx]; ok {
				ranges = append(ranges, r)
			}
		}
		if len(ranges) > 0 {
			leafFaces[leafIdx] = ranges
		}
	}

	return &Renderer{
		program:   program,
		vao:       vao,
		vbo:       vbo,
		leafFaces: leafFaces,
		tessLevel: 5,
	}, nil
}

// buildVertexData flattens every polygon/mesh face into a triangle list
// of position+color vertices (polygons are split into a fan of triangles
// around their first vertex) and records where each face's vertices
// begin in the buffer.
func buildVertexData(m *bspfile.Map) ([]float32, map[int]faceRange) {
	var verts []float32
	ranges := make(map[int]faceRange)

	emit := func(v bspfile.Vertex) {
		verts = append(verts,
			v.Position[0], v.Position[1], v.Position[2],
			float32(v.Color[0])/255, float32(v.Color[1])/255, float32(v.Color[2])/255, float32(v.Color[3])/255,
		)
	}

	for fi, face := range m.Faces {
		first := int32(len(verts) / 7)
		switch face.Type {
		case bspfile.FaceTypePolygon:
			if face.NumVertices < 3 {
				continue
			}
			anchor := m.Vertices[face.Vertex]
			for i := int32(1); i < face.NumVertices-1; i++ {
				emit(anchor)
				emit(m.Vertices[face.Vertex+i])
				emit(m.Vertices[face.Vertex+i+1])
			}
		case bspfile.FaceTypeMesh:
			for i := int32(0); i+2 < face.NumMeshverts; i += 3 {
				emit(m.Vertices[face.Vertex+m.Meshverts[face.Meshvert+i]])
				emit(m.Vertices[face.Vertex+m.Meshverts[face.Meshvert+i+1]])
				emit(m.Vertices[face.Vertex+m.Meshverts[face.Meshvert+i+2]])
			}
		default:
			// Patches and billboards are not tessellated here; see
			// SetTessellationLevel.
			continue
		}
		count := int32(len(verts)/7) - first
		if count > 0 {
			ranges[fi] = faceRange{first: first, count: count}
		}
	}

	return verts, ranges
}

func compileShader(source string, shaderType uint32) (uint32, error) {
	shader := gl.CreateShader(shaderType)

	csources, free := gl.Strs(source)
	gl.ShaderSource(shader, 1, csources, nil)
	free()
	gl.CompileShader(shader)

	var status int32
	gl.GetShaderiv(shader, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var logLength int32
		gl.GetShaderiv(shader, gl.INFO_LOG_LENGTH, &logLength)
		infoLog := strings.Repeat("\x00", int(logLength+1))
		gl.GetShaderInfoLog(shader, logLength, nil, gl.Str(infoLog))
		return 0, fmt.Errorf("compile shader: %s", infoLog)
	}

	return shader, nil
}

// SetTessellationLevel records the requested patch subdivision level.
// It is set once from the CLI's -t flag; no runtime key changes it, and
// patch faces are never tessellated or drawn here (renderer non-goal),
// so the level has no effect on what is drawn.
func (r *Renderer) SetTessellationLevel(level int) {
	r.tessLevel = level
}

// Draw renders every polygon/mesh face of the leaves whose cluster is
// potentially visible from fromCluster.
func (r *Renderer) Draw(m *bspfile.Map, fromCluster int, view, projection mgl32.Mat4) {
	gl.UseProgram(r.program)

	viewLoc := gl.GetUniformLocation(r.program, gl.Str("view\x00"))
	gl.UniformMatrix4fv(viewLoc, 1, false, &view[0])
	projLoc := gl.GetUniformLocation(r.program, gl.Str("projection\x00"))
	gl.UniformMatrix4fv(projLoc, 1, false, &projection[0])

	gl.BindVertexArray(r.vao)

	for _, leafIdx := range bspquery.VisibleLeaves(m, fromCluster) {
		for _, fr := range r.leafFaces[leafIdx] {
			gl.DrawArrays(gl.TRIANGLES, fr.first, fr.count)
		}
	}
}

// Close releases the GL objects owned by the renderer.
func (r *Renderer) Close() {
	gl.DeleteVertexArrays(1, &r.vao)
	gl.DeleteBuffers(1, &r.vbo)
	gl.DeleteProgram(r.program)
}
