package world

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/organization-ai-projects/simcore/internal/canon"
	"github.com/organization-ai-projects/simcore/internal/core"
	"github.com/organization-ai-projects/simcore/internal/graph"
)

type counter struct {
	N int
}

func (c *counter) Snapshot() (canon.Value, error) {
	return canon.Obj(canon.P("n", canon.Int(c.N))), nil
}

type broken struct{}

func (broken) Snapshot() (canon.Value, error) {
	return nil, errors.New("boom")
}

func node(id string, reads, writes []core.ResourceTag) graph.Node {
	return graph.Node{ID: core.SystemID(id), Reads: reads, Writes: writes}
}

func TestView_EnforcesDeclaredAccess(t *testing.T) {
	w := New()
	require.NoError(t, w.Register("food", &counter{N: 3}))
	require.NoError(t, w.Register("pop", &counter{N: 1}))

	v := w.View(node("harvest", []core.ResourceTag{"pop"}, []core.ResourceTag{"food"}))

	food, err := WriteAs[*counter](v, "food")
	require.NoError(t, err)
	food.N++

	_, err = ReadAs[*counter](v, "food")
	require.NoError(t, err, "write implies read")

	_, err = v.Write("pop")
	require.Error(t, err)
	assert.True(t, IsAccessError(err))
	assert.Equal(t, `system "harvest" did not declare write access to "pop"`, err.Error())

	_, err = v.Read("weather")
	var ae *AccessError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, AccessRead, ae.Want)

	got, err := w.Get("food")
	require.NoError(t, err)
	assert.Equal(t, 4, got.(*counter).N)
	assert.Equal(t, core.SystemID("harvest"), v.System())
}

func TestView_MissingAndWrongType(t *testing.T) {
	w := New()
	require.NoError(t, w.Register("food", &counter{}))

	v := w.View(node("s", []core.ResourceTag{"ghost", "food"}, nil))
	_, err := v.Read("ghost")
	assert.True(t, IsMissingResource(err))

	_, err = ReadAs[string](v, "food")
	assert.ErrorContains(t, err, `resource "food" has type *world.counter`)
}

func TestWorld_RegisterRules(t *testing.T) {
	w := New()
	require.NoError(t, w.Register("a", &counter{}))
	assert.Error(t, w.Register("a", &counter{}), "duplicate")
	assert.Error(t, w.Register("", &counter{}), "empty tag")
	assert.Error(t, w.Register("b", nil), "nil resource")

	w.Seal()
	assert.True(t, w.Sealed())
	assert.ErrorIs(t, w.Register("c", &counter{}), ErrSealed)
	assert.Equal(t, []core.ResourceTag{"a"}, w.Tags())
}

func TestWorld_Require(t *testing.T) {
	w := New()
	require.NoError(t, w.Register("x", &counter{}))

	assert.NoError(t, w.Require(node("a", nil, []core.ResourceTag{"x"})))

	err := w.Require(
		node("a", nil, []core.ResourceTag{"x"}),
		node("b", []core.ResourceTag{"y"}, nil),
	)
	require.Error(t, err)
	assert.True(t, IsMissingResource(err))
	assert.Contains(t, err.Error(), `system "b"`)
}

func TestWorld_SnapshotSkipsScratchResources(t *testing.T) {
	w := New()
	require.NoError(t, w.Register("pop", &counter{N: 2}))
	require.NoError(t, w.Register("food", &counter{N: 10}))
	require.NoError(t, w.RegisterUnhashed("cache", map[string]int{"hits": 4}))
	require.NoError(t, w.RegisterUnhashed("scratch", &counter{N: 7}))

	snap, err := w.Snapshot()
	require.NoError(t, err)
	data, err := canon.Marshal(snap)
	require.NoError(t, err)
	assert.Equal(t, `{"food":{"n":10},"pop":{"n":2}}`, string(data))
}

func TestWorld_RegisterRequiresSnapshotter(t *testing.T) {
	w := New()
	err := w.Register("cache", map[string]int{"hits": 4})
	assert.ErrorContains(t, err, "RegisterUnhashed")
	assert.False(t, w.Has("cache"))

	require.NoError(t, w.RegisterUnhashed("cache", map[string]int{"hits": 4}))
	assert.Error(t, w.RegisterUnhashed("cache", map[string]int{}), "duplicate")
	assert.Equal(t, []core.ResourceTag{"cache"}, w.Unhashed())
}

func TestWorld_SnapshotError(t *testing.T) {
	w := New()
	require.NoError(t, w.Register("bad", broken{}))
	_, err := w.Snapshot()
	assert.ErrorContains(t, err, `snapshot "bad": boom`)
}
