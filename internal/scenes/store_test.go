package scenes

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slidecast/config"
	"slidecast/internal/domain"
)

func sequentialIDs() func() string {
	n := 0
	return func() string {
		n++
		return fmt.Sprintf("scene-%d", n)
	}
}

func newTestStore() *Store {
	return NewStore(WithRand(rand.New(rand.NewSource(1))), WithIDFunc(sequentialIDs()))
}

func TestSeedProducesSixScenesFromTopic(t *testing.T) {
	s := newTestStore()

	seeded := s.Seed("  Test Topic ")

	require.Len(t, seeded, 6)
	for i, sc := range seeded {
		assert.Equal(t, 6, sc.Duration)
		assert.Equal(t, config.NarrativeRoles[i], sc.Emphasis)
		assert.Contains(t, sc.Narration, "Test Topic")
		assert.NotContains(t, sc.Narration, "  Test Topic ")
		assert.Contains(t, config.Palette, [2]string(sc.Gradient))
	}
	assert.Equal(t, 36, s.TotalRuntime())
}

func TestSeedBlankTopicFallsBackToDefault(t *testing.T) {
	s := newTestStore()

	seeded := s.Seed(" \t ")

	assert.Contains(t, seeded[0].Narration, config.DefaultTopic)
}

func TestSeedReplacesExistingScenes(t *testing.T) {
	s := newTestStore()
	_, err := s.Add(domain.Scene{Title: "manual", Duration: 5})
	require.NoError(t, err)

	s.Seed("x")

	assert.Equal(t, 6, s.Len())
}

func TestUpdateOnlyTouchesPatchedFieldsOfMatchingScene(t *testing.T) {
	s := newTestStore()
	seeded := s.Seed("topic")
	target := seeded[2]

	narration := "rewritten"
	updated, err := s.Update(target.ID, domain.ScenePatch{Narration: &narration})
	require.NoError(t, err)

	assert.Equal(t, "rewritten", updated.Narration)
	assert.Equal(t, target.Title, updated.Title)
	assert.Equal(t, target.Duration, updated.Duration)
	assert.Equal(t, target.Gradient, updated.Gradient)
	assert.Equal(t, target.Emphasis, updated.Emphasis)

	after := s.List()
	for i, sc := range after {
		if i == 2 {
			continue
		}
		assert.Equal(t, seeded[i], sc, "scene %d must not change", i)
	}
}

func TestUpdateUnknownIDFails(t *testing.T) {
	s := newTestStore()
	title := "x"

	_, err := s.Update("missing", domain.ScenePatch{Title: &title})

	assert.ErrorIs(t, err, domain.ErrSceneNotFound)
}

func TestUpdateRejectsMalformedGradient(t *testing.T) {
	s := newTestStore()
	seeded := s.Seed("topic")
	bad := domain.Gradient{"blue", "#fff"}

	_, err := s.Update(seeded[0].ID, domain.ScenePatch{Gradient: &bad})

	assert.ErrorIs(t, err, domain.ErrInvalidGradient)
	got, _ := s.Get(seeded[0].ID)
	assert.Equal(t, seeded[0].Gradient, got.Gradient)
}

func TestDuplicateClonesAfterSource(t *testing.T) {
	s := newTestStore()
	seeded := s.Seed("topic")

	clone, ok := s.Duplicate(seeded[1].ID)
	require.True(t, ok)

	list := s.List()
	require.Len(t, list, 7)
	assert.Equal(t, clone, list[2])
	assert.NotEqual(t, seeded[1].ID, clone.ID)
	assert.Equal(t, seeded[1].Title+" (copy)", clone.Title)
	assert.Equal(t, seeded[1].Narration, clone.Narration)
	assert.Equal(t, seeded[1].Gradient, clone.Gradient)
	assert.Equal(t, seeded[2], list[3])
}

func TestDuplicateMissingIDIsNoOp(t *testing.T) {
	s := newTestStore()
	s.Seed("topic")
	before := s.List()
	gen := s.Generation()

	_, ok := s.Duplicate("nope")

	assert.False(t, ok)
	assert.Equal(t, before, s.List())
	assert.Equal(t, gen, s.Generation())
}

func TestRemoveAndMove(t *testing.T) {
	s := newTestStore()
	seeded := s.Seed("topic")

	require.NoError(t, s.Remove(seeded[0].ID))
	assert.ErrorIs(t, s.Remove(seeded[0].ID), domain.ErrSceneNotFound)

	require.NoError(t, s.Move(seeded[5].ID, 0))
	list := s.List()
	assert.Equal(t, seeded[5].ID, list[0].ID)
	assert.Equal(t, seeded[1].ID, list[1].ID)

	require.NoError(t, s.Move(seeded[5].ID, 99))
	list = s.List()
	assert.Equal(t, seeded[5].ID, list[len(list)-1].ID)
}

func TestAddRejectsDuplicateIDs(t *testing.T) {
	s := newTestStore()
	first, err := s.Add(domain.Scene{Title: "a", Duration: 6})
	require.NoError(t, err)
	assert.True(t, first.Gradient.Valid(), "missing gradient is picked from the palette")

	_, err = s.Add(domain.Scene{ID: first.ID})
	assert.ErrorIs(t, err, domain.ErrDuplicateScene)
}

func TestTotalRuntimeFloorsShortScenes(t *testing.T) {
	scenes := []domain.Scene{{Duration: 4}, {Duration: 6}, {Duration: 20}, {Duration: 2}}

	assert.Equal(t, 34, TotalRuntime(scenes))
}

func TestClampDuration(t *testing.T) {
	assert.Equal(t, 4, ClampDuration(1))
	assert.Equal(t, 12, ClampDuration(12))
	assert.Equal(t, 20, ClampDuration(45))
}

func TestListReturnsCopy(t *testing.T) {
	s := newTestStore()
	s.Seed("topic")

	list := s.List()
	list[0].Title = "mutated"

	assert.NotEqual(t, "mutated", s.List()[0].Title)
}
