package bspquery_test

import (
	"testing"

	"github.com/go-gl/mathgl/mgl32"
	"github.com/stretchr/testify/assert"

	"github.com/samuelyuan/q3playground/bspfile/bsptest"
	"github.com/samuelyuan/q3playground/bspquery"
)

func TestClusterVisibleScenario(t *testing.T) {
	m := bsptest.TwoClusterMap()

	assert.True(t, bspquery.ClusterVisible(m, 0, 0))
	assert.True(t, bspquery.ClusterVisible(m, 0, 1))
	assert.False(t, bspquery.ClusterVisible(m, 1, 0))
	assert.True(t, bspquery.ClusterVisible(m, 1, 1))
}

func TestClusterVisibleNegativeClusterIsVisible(t *testing.T) {
	m := bsptest.TwoClusterMap()

	assert.True(t, bspquery.ClusterVisible(m, -1, 0))
	assert.True(t, bspquery.ClusterVisible(m, 0, -1))
}

func TestClusterVisibleNoVisdataIsVisible(t *testing.T) {
	m := bsptest.EmptyMap()

	assert.True(t, bspquery.ClusterVisible(m, 0, 0))
	assert.True(t, bspquery.ClusterVisible(m, 0, 5))
}

func TestClusterVisibleSelfWhenPVSPresent(t *testing.T) {
	m := bsptest.TwoClusterMap()

	assert.True(t, bspquery.ClusterVisible(m, 0, 0))
	assert.True(t, bspquery.ClusterVisible(m, 1, 1))
}

func TestFindLeafEmptyMapAlwaysZero(t *testing.T) {
	m := bsptest.EmptyMap()

	assert.Equal(t, 0, bspquery.FindLeaf(m, mgl32.Vec3{0, 0, 0}))
	assert.Equal(t, 0, bspquery.FindLeaf(m, mgl32.Vec3{100, -50, 30}))
}

func TestFindLeafSingleBoxMapResolvesToTheOnlyLeaf(t *testing.T) {
	m := bsptest.SingleBoxMap([3]float32{-16, -16, -16}, [3]float32{16, 16, 16})

	assert.Equal(t, 0, bspquery.FindLeaf(m, mgl32.Vec3{0, 0, 0}))
	assert.Equal(t, 0, bspquery.FindLeaf(m, mgl32.Vec3{1000, 1000, 1000}))
}

func TestFindLeafResultInRange(t *testing.T) {
	m := bsptest.TwoClusterMap()

	leaf := bspquery.FindLeaf(m, mgl32.Vec3{0, 0, 0})
	assert.GreaterOrEqual(t, leaf, 0)
	assert.Less(t, leaf, len(m.Leaves))
}

func TestVisibleLeavesIncludesSelfCluster(t *testing.T) {
	m := bsptest.TwoClusterMap()

	leaves := bspquery.VisibleLeaves(m, 0)
	assert.ElementsMatch(t, []int{0, 1}, leaves)

	leaves = bspquery.VisibleLeaves(m, 1)
	assert.ElementsMatch(t, []int{1}, leaves)
}
