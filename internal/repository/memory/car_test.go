package memory

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cars/internal/domain"
	"cars/internal/repository"
	"cars/internal/repository/repositorytest"
)

func TestCarRepository_Contract(t *testing.T) {
	repositorytest.RunCarRepositoryContract(t, func(t *testing.T) repository.CarRepository {
		return NewCarRepository()
	})
}

func TestCarRepository_ReturnsCopies(t *testing.T) {
	repo := NewCarRepository()
	ctx := context.Background()

	saved, err := repo.Save(ctx, &domain.Car{Make: "Skoda", Model: "Octavia", Year: 2015, Color: "white"})
	require.NoError(t, err)

	saved.Color = "pink"

	found, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "white", found.Color)

	found.Make = "Mutated"
	again, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assert.Equal(t, "Skoda", again.Make)
}

func TestCarRepository_IDsNotReusedAfterDeleteAll(t *testing.T) {
	repo := NewCarRepository()
	ctx := context.Background()

	first, err := repo.Save(ctx, &domain.Car{Make: "Mini"})
	require.NoError(t, err)
	require.NoError(t, repo.DeleteAll(ctx))

	second, err := repo.Save(ctx, &domain.Car{Make: "Mini"})
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)
}

func TestCarRepository_ConcurrentSaves(t *testing.T) {
	repo := NewCarRepository()
	ctx := context.Background()

	const workers = 20
	var wg sync.WaitGroup
	idCh := make(chan int64, workers)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			saved, err := repo.Save(ctx, &domain.Car{Make: "Tesla", Model: "3"})
			if err == nil {
				idCh <- saved.ID
			}
		}()
	}
	wg.Wait()
	close(idCh)

	seen := make(map[int64]bool)
	for id := range idCh {
		assert.False(t, seen[id], "duplicate id %d", id)
		seen[id] = true
	}
	assert.Len(t, seen, workers)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(workers), count)
}
