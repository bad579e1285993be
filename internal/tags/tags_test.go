package tags

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rezmoss/simpletracker/internal/gateway/local"
	"github.com/rezmoss/simpletracker/internal/model"
	"github.com/rezmoss/simpletracker/internal/store"
)

func newController(t *testing.T) (*Controller, *local.Gateway, *store.Store[model.Task]) {
	t.Helper()
	gw := local.New()
	tasks := store.New[model.Task]()
	c := New(gw, store.New[model.Tag](), tasks, nil)
	c.NewColor = func() string { return "#123456" }
	return c, gw, tasks
}

func TestAdd_NormalizesAndColors(t *testing.T) {
	c, _, _ := newController(t)
	tag, err := c.Add(context.Background(), "  Deep Work ", "")
	require.NoError(t, err)
	assert.Equal(t, "deep work", tag.Name)
	assert.Equal(t, "#123456", tag.HexColor)

	got, ok := c.Get(tag.ID)
	require.True(t, ok)
	assert.Equal(t, tag, got)
}

func TestAdd_DuplicateSkipsBackend(t *testing.T) {
	c, gw, _ := newController(t)
	ctx := context.Background()
	_, err := c.Add(ctx, "work", "#000000")
	require.NoError(t, err)

	_, err = c.Add(ctx, " WORK", "")
	assert.ErrorIs(t, err, model.ErrDuplicate)
	assert.Equal(t, 1, gw.Calls(local.OpCreateTag))
	assert.Len(t, c.List(), 1)
}

func TestAdd_Failure(t *testing.T) {
	c, gw, _ := newController(t)
	gw.Fail(local.OpCreateTag, nil)
	_, err := c.Add(context.Background(), "work", "")
	assert.ErrorIs(t, err, model.ErrPersistenceFailed)
	assert.Empty(t, c.List())

	_, err = c.Add(context.Background(), " ", "")
	assert.ErrorIs(t, err, model.ErrInvalidArgument)
}

func TestUpdate_RevertsOnFailure(t *testing.T) {
	c, gw, _ := newController(t)
	ctx := context.Background()
	tag, err := c.Add(ctx, "work", "#000000")
	require.NoError(t, err)

	gw.Fail(local.OpUpdateTag, nil)
	changed := tag
	changed.HexColor = "#ffffff"
	assert.ErrorIs(t, c.Update(ctx, changed), model.ErrPersistenceFailed)
	got, _ := c.Get(tag.ID)
	assert.Equal(t, "#000000", got.HexColor)

	gw.Heal(local.OpUpdateTag)
	require.NoError(t, c.Update(ctx, changed))
	got, _ = c.Get(tag.ID)
	assert.Equal(t, "#ffffff", got.HexColor)

	assert.ErrorIs(t, c.Update(ctx, model.Tag{ID: "ghost", Name: "x"}), model.ErrNotFound)
}

func TestRemove_RevertsAndDetaches(t *testing.T) {
	c, gw, tasks := newController(t)
	ctx := context.Background()
	tag, err := c.Add(ctx, "work", "")
	require.NoError(t, err)
	require.NoError(t, tasks.Put(model.Task{ID: "t1", Name: "x", Tags: []model.Tag{tag}}))

	gw.Fail(local.OpDeleteTag, nil)
	assert.ErrorIs(t, c.Remove(ctx, tag.ID), model.ErrPersistenceFailed)
	_, ok := c.Get(tag.ID)
	assert.True(t, ok)

	gw.Heal(local.OpDeleteTag)
	require.NoError(t, c.Remove(ctx, tag.ID))
	_, ok = c.Get(tag.ID)
	assert.False(t, ok)
	task, _ := tasks.Get("t1")
	assert.False(t, task.HasTag(tag.ID))

	assert.ErrorIs(t, c.Remove(ctx, tag.ID), model.ErrNotFound)
}

func TestLoad(t *testing.T) {
	c, gw, _ := newController(t)
	ctx := context.Background()
	_, err := gw.CreateTag(ctx, "a", "")
	require.NoError(t, err)

	gw.Fail(local.OpListTags, nil)
	assert.Error(t, c.Load(ctx))
	assert.Empty(t, c.List())

	gw.Heal(local.OpListTags)
	require.NoError(t, c.Load(ctx))
	assert.Len(t, c.List(), 1)
}
