package bspfile

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildPlaneIndexAxisTypes(t *testing.T) {
	planes := []Plane{
		{Normal: [3]float32{1, 0, 0}, Dist: 10},
		{Normal: [3]float32{-1, 0, 0}, Dist: 10},
		{Normal: [3]float32{0, 1, 0}, Dist: 10},
		{Normal: [3]float32{0, 0, -1}, Dist: 10},
		{Normal: [3]float32{0.7071, 0.7071, 0}, Dist: 5},
	}

	infos := BuildPlaneIndex(planes)

	assert.Equal(t, PlaneX, infos[0].Type)
	assert.Equal(t, PlaneX, infos[1].Type)
	assert.Equal(t, PlaneY, infos[2].Type)
	assert.Equal(t, PlaneZ, infos[3].Type)
	assert.Equal(t, PlaneNonAxial, infos[4].Type)
}

func TestBuildPlaneIndexSignBits(t *testing.T) {
	planes := []Plane{
		{Normal: [3]float32{1, 1, 1}},
		{Normal: [3]float32{-1, 1, 1}},
		{Normal: [3]float32{1, -1, 1}},
		{Normal: [3]float32{1, 1, -1}},
		{Normal: [3]float32{-1, -1, -1}},
	}

	infos := BuildPlaneIndex(planes)

	assert.Equal(t, uint8(0), infos[0].SignBits)
	assert.Equal(t, uint8(1), infos[1].SignBits)
	assert.Equal(t, uint8(2), infos[2].SignBits)
	assert.Equal(t, uint8(4), infos[3].SignBits)
	assert.Equal(t, uint8(7), infos[4].SignBits)
}
