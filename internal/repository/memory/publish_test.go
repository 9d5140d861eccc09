package memory

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"slidecast/internal/domain"
)

func TestPublishRepository(t *testing.T) {
	repo := NewPublishRepository()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	first := &domain.PublishResult{Message: "first", CreatedAt: base}
	second := &domain.PublishResult{Message: "second", CreatedAt: base.Add(time.Minute), Success: true}
	require.NoError(t, repo.Save(first))
	require.NoError(t, repo.Save(second))
	require.NotEmpty(t, first.ID)

	all, err := repo.List(0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "second", all[0].Message)

	got, err := repo.GetByID(first.ID)
	require.NoError(t, err)
	assert.Equal(t, "first", got.Message)

	got.Message = "mutated"
	again, _ := repo.GetByID(first.ID)
	assert.Equal(t, "first", again.Message, "callers receive copies")

	missing, err := repo.GetByID("nope")
	require.NoError(t, err)
	assert.Nil(t, missing)

	limited, err := repo.List(1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)
}
