// Package spawn lexes a BSP entity lump into key/value entities and
// extracts the initial camera pose from the info_player_deathmatch
// entity. Malformed input is logged and degrades to defaults rather
// than failing load.
package spawn

import (
	"log"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl32"
)

type tokenKind int

const (
	tokenEOF tokenKind = iota
	tokenString
	tokenOther
)

// lexer is a tiny hand-rolled scanner for the quake 3 entity syntax:
//
//	{
//	"key1" "value1"
//	"key2" "value2"
//	}
//	{ ... }
type lexer struct {
	data  string
	pos   int
	kind  tokenKind
	str   string
	other byte
	line  int
}

func newLexer(data string) *lexer {
	return &lexer{data: data, line: 1}
}

func (l *lexer) peek() byte {
	if l.pos >= len(l.data) {
		return 0
	}
	return l.data[l.pos]
}

// next advances the lexer to the next token and returns its kind.
func (l *lexer) next() tokenKind {
	for {
		c := l.peek()
		switch c {
		case 0:
			l.kind = tokenEOF
			return l.kind
		case '\n':
			l.line++
			l.pos++
			continue
		case '\t', '\v', '\f', '\r', ' ':
			l.pos++
			continue
		case '"':
			l.pos++
			start := l.pos
			for l.peek() != '"' {
				if l.peek() == 0 {
					log.Printf("spawn: unterminated string %q at line %d", l.data[start:l.pos], l.line)
					break
				}
				l.pos++
			}
			l.str = l.data[start:l.pos]
			if l.peek() == '"' {
				l.pos++
			}
			l.kind = tokenString
			return l.kind
		default:
			l.other = c
			l.pos++
			l.kind = tokenOther
			return l.kind
		}
	}
}

// Field is a single key/value pair within an entity block.
type Field struct {
	Key, Value string
}

// Entity is an ordered list of fields, mirroring the source's vector of
// entity_field structs closely enough that Get's linear scan returns the
// same result for well-formed input.
type Entity []Field

// Get returns the value of the first field matching key.
func (e Entity) Get(key string) (string, bool) {
	for _, f := range e {
		if f.Key == key {
			return f.Value, true
		}
	}
	return "", false
}

func (l *lexer) expect(b byte) bool {
	if l.kind != tokenOther || l.other != b {
		log.Printf("spawn: unexpected token at line %d, expected '%c'", l.line, b)
		return false
	}
	l.next()
	return true
}

// Parse lexes the raw entity lump text into a list of entities.
// Malformed input (unterminated strings, missing braces) is logged and
// truncates parsing at the point of failure rather than panicking.
func Parse(data string) []Entity {
	var entities []Entity

	l := newLexer(data)
	l.next()

	for l.kind != tokenEOF {
		if !l.expect('{') {
			return entities
		}

		var fields Entity
		for l.kind == tokenString {
			key := l.str
			l.next()
			if l.kind != tokenString {
				return entities
			}
			fields = append(fields, Field{Key: key, Value: l.str})
			l.next()
		}
		entities = append(entities, fields)

		if !l.expect('}') {
			return entities
		}
	}

	return entities
}

// ByClassname returns the first entity whose "classname" field matches.
func ByClassname(entities []Entity, classname string) (Entity, bool) {
	for _, e := range entities {
		if cls, ok := e.Get("classname"); ok && cls == classname {
			return e, true
		}
	}
	return nil, false
}

// PlayerStart is the extracted initial camera pose.
type PlayerStart struct {
	Pos mgl32.Vec3
	Yaw float32
}

// FindPlayerStart locates the info_player_deathmatch entity and parses
// its origin/angle fields. A missing entity, or a missing/malformed
// field within it, falls through to the zero value (pos = origin,
// angle = 0) rather than failing.
func FindPlayerStart(entities []Entity) PlayerStart {
	var start PlayerStart

	ent, ok := ByClassname(entities, "info_player_deathmatch")
	if !ok {
		return start
	}

	if angle, ok := ent.Get("angle"); ok {
		if deg, err := strconv.Atoi(strings.TrimSpace(angle)); err == nil {
			start.Yaw = float32(deg) * (math.Pi / 180)
		} else {
			log.Printf("spawn: malformed angle field %q", angle)
		}
	}

	if origin, ok := ent.Get("origin"); ok {
		parts := strings.Fields(origin)
		for i := 0; i < 3 && i < len(parts); i++ {
			v, err := strconv.ParseFloat(parts[i], 32)
			if err != nil {
				log.Printf("spawn: malformed origin field %q", origin)
				break
			}
			start.Pos[i] = float32(v)
		}
	}

	return start
}
