// Package repositorytest holds a behavioural suite shared by every
// repository.CarRepository implementation.
package repositorytest

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"cars/internal/domain"
	"cars/internal/repository"
)

// Factory returns an empty repository whose identifier sequence starts at 1.
type Factory func(t *testing.T) repository.CarRepository

// RunCarRepositoryContract runs the shared suite against repositories built by newRepo.
func RunCarRepositoryContract(t *testing.T, newRepo Factory) {
	t.Helper()

	t.Run("SaveThenFind", func(t *testing.T) { testSaveThenFind(t, newRepo(t)) })
	t.Run("FindMissing", func(t *testing.T) { testFindMissing(t, newRepo(t)) })
	t.Run("Lifecycle", func(t *testing.T) { testLifecycle(t, newRepo(t)) })
	t.Run("SaveUpdates", func(t *testing.T) { testSaveUpdates(t, newRepo(t)) })
	t.Run("SaveUnknownIDInserts", func(t *testing.T) { testSaveUnknownIDInserts(t, newRepo(t)) })
	t.Run("SaveDoesNotMutateInput", func(t *testing.T) { testSaveDoesNotMutateInput(t, newRepo(t)) })
	t.Run("SaveNil", func(t *testing.T) { testSaveNil(t, newRepo(t)) })
	t.Run("SaveAll", func(t *testing.T) { testSaveAll(t, newRepo(t)) })
	t.Run("FindAllByID", func(t *testing.T) { testFindAllByID(t, newRepo(t)) })
	t.Run("CountMatchesFindAll", func(t *testing.T) { testCountMatchesFindAll(t, newRepo(t)) })
	t.Run("ExistsByID", func(t *testing.T) { testExistsByID(t, newRepo(t)) })
	t.Run("DeleteMissing", func(t *testing.T) { testDeleteMissing(t, newRepo(t)) })
	t.Run("DeleteEntity", func(t *testing.T) { testDeleteEntity(t, newRepo(t)) })
	t.Run("DeleteAll", func(t *testing.T) { testDeleteAll(t, newRepo(t)) })
	t.Run("FindPage", func(t *testing.T) { testFindPage(t, newRepo(t)) })
	t.Run("FindPageSorted", func(t *testing.T) { testFindPageSorted(t, newRepo(t)) })
	t.Run("FindPageTextByteOrder", func(t *testing.T) { testFindPageTextByteOrder(t, newRepo(t)) })
	t.Run("FindPageInvalid", func(t *testing.T) { testFindPageInvalid(t, newRepo(t)) })
}

func fixtures() []*domain.Car {
	return []*domain.Car{
		{Make: "Volvo", Model: "XC60", Year: 2021, Color: "black"},
		{Make: "Audi", Model: "A4", Year: 2018, Color: "white"},
		{Make: "Toyota", Model: "Corolla", Year: 2021, Color: "red"},
		{Make: "Fiat", Model: "Panda", Year: 2012, Color: "blue"},
		{Make: "BMW", Model: "i3", Year: 2016, Color: "white"},
	}
}

func seed(t *testing.T, repo repository.CarRepository) []*domain.Car {
	t.Helper()

	saved, err := repo.SaveAll(context.Background(), fixtures())
	require.NoError(t, err)
	require.Len(t, saved, len(fixtures()))
	return saved
}

// assertSameCar compares attributes and identifiers; timestamps are compared
// with millisecond tolerance because stores round them differently.
func assertSameCar(t *testing.T, want, got *domain.Car) {
	t.Helper()

	require.NotNil(t, got)
	assert.Equal(t, want.ID, got.ID)
	assert.Equal(t, want.Make, got.Make)
	assert.Equal(t, want.Model, got.Model)
	assert.Equal(t, want.Year, got.Year)
	assert.Equal(t, want.Color, got.Color)
	assert.WithinDuration(t, want.CreatedAt, got.CreatedAt, time.Millisecond)
	assert.WithinDuration(t, want.UpdatedAt, got.UpdatedAt, time.Millisecond)
}

func ids(cars []*domain.Car) []int64 {
	result := make([]int64, 0, len(cars))
	for _, c := range cars {
		result = append(result, c.ID)
	}
	return result
}

func testSaveThenFind(t *testing.T, repo repository.CarRepository) {
	ctx := context.Background()

	saved, err := repo.Save(ctx, &domain.Car{Make: "Volvo", Model: "V70", Year: 2004, Color: "silver"})
	require.NoError(t, err)
	require.NotNil(t, saved)
	assert.NotZero(t, saved.ID)
	assert.False(t, saved.CreatedAt.IsZero())
	assert.False(t, saved.UpdatedAt.Before(saved.CreatedAt))

	found, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assertSameCar(t, saved, found)
}

func testFindMissing(t *testing.T, repo repository.CarRepository) {
	ctx := context.Background()
	seed(t, repo)

	for _, id := range []int64{0, -1, 999999} {
		found, err := repo.FindByID(ctx, id)
		require.NoError(t, err)
		assert.Nil(t, found, "id=%d", id)
	}
}

func testLifecycle(t *testing.T, repo repository.CarRepository) {
	ctx := context.Background()

	saved, err := repo.Save(ctx, &domain.Car{Make: "Saab", Model: "900", Year: 1990, Color: "green"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), saved.ID)

	found, err := repo.FindByID(ctx, 1)
	require.NoError(t, err)
	assertSameCar(t, saved, found)

	require.NoError(t, repo.DeleteByID(ctx, 1))

	found, err = repo.FindByID(ctx, 1)
	require.NoError(t, err)
	assert.Nil(t, found)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func testSaveUpdates(t *testing.T, repo repository.CarRepository) {
	ctx := context.Background()

	first, err := repo.Save(ctx, &domain.Car{Make: "Ford", Model: "Focus", Year: 2010, Color: "grey"})
	require.NoError(t, err)

	changed := *first
	changed.Color = "orange"
	changed.Year = 2011

	second, err := repo.Save(ctx, &changed)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "orange", second.Color)
	assert.Equal(t, 2011, second.Year)
	assert.WithinDuration(t, first.CreatedAt, second.CreatedAt, time.Millisecond)
	assert.False(t, second.UpdatedAt.Before(first.UpdatedAt.Truncate(time.Millisecond)))

	found, err := repo.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assertSameCar(t, second, found)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func testSaveUnknownIDInserts(t *testing.T, repo repository.CarRepository) {
	ctx := context.Background()
	seed(t, repo)

	saved, err := repo.Save(ctx, &domain.Car{ID: 4242, Make: "Lada", Model: "Niva", Year: 1995, Color: "beige"})
	require.NoError(t, err)
	assert.NotEqual(t, int64(4242), saved.ID)
	assert.Equal(t, int64(len(fixtures())+1), saved.ID)

	missing, err := repo.FindByID(ctx, 4242)
	require.NoError(t, err)
	assert.Nil(t, missing)

	found, err := repo.FindByID(ctx, saved.ID)
	require.NoError(t, err)
	assertSameCar(t, saved, found)
}

func testSaveDoesNotMutateInput(t *testing.T, repo repository.CarRepository) {
	input := &domain.Car{Make: "Kia", Model: "Ceed", Year: 2019, Color: "red"}
	before := *input

	saved, err := repo.Save(context.Background(), input)
	require.NoError(t, err)
	assert.NotZero(t, saved.ID)
	assert.Equal(t, before, *input)
}

func testSaveNil(t *testing.T, repo repository.CarRepository) {
	ctx := context.Background()

	_, err := repo.Save(ctx, nil)
	assert.ErrorIs(t, err, repository.ErrNilEntity)

	_, err = repo.SaveAll(ctx, []*domain.Car{{Make: "Opel"}, nil})
	assert.ErrorIs(t, err, repository.ErrNilEntity)

	assert.ErrorIs(t, repo.Delete(ctx, nil), repository.ErrNilEntity)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func testSaveAll(t *testing.T, repo repository.CarRepository) {
	saved := seed(t, repo)

	for i, car := range saved {
		assert.Equal(t, int64(i+1), car.ID)
		assert.Equal(t, fixtures()[i].Make, car.Make)
	}

	empty, err := repo.SaveAll(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, empty)
}

func testFindAllByID(t *testing.T, repo repository.CarRepository) {
	ctx := context.Background()
	saved := seed(t, repo)

	found, err := repo.FindAllByID(ctx, []int64{saved[3].ID, 12345, saved[0].ID, saved[3].ID})
	require.NoError(t, err)
	require.Len(t, found, 2)
	assertSameCar(t, saved[0], found[0])
	assertSameCar(t, saved[3], found[1])

	none, err := repo.FindAllByID(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func testCountMatchesFindAll(t *testing.T, repo repository.CarRepository) {
	ctx := context.Background()

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)

	saved := seed(t, repo)

	all, err = repo.FindAll(ctx)
	require.NoError(t, err)
	count, err := repo.Count(ctx)
	require.NoError(t, err)

	assert.Equal(t, int64(len(all)), count)
	assert.Equal(t, ids(saved), ids(all))
}

func testExistsByID(t *testing.T, repo repository.CarRepository) {
	ctx := context.Background()
	saved := seed(t, repo)

	ok, err := repo.ExistsByID(ctx, saved[1].ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = repo.ExistsByID(ctx, 777)
	require.NoError(t, err)
	assert.False(t, ok)
}

func testDeleteMissing(t *testing.T, repo repository.CarRepository) {
	ctx := context.Background()
	seed(t, repo)

	require.NoError(t, repo.DeleteByID(ctx, 31337))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len(fixtures())), count)
}

func testDeleteEntity(t *testing.T, repo repository.CarRepository) {
	ctx := context.Background()
	saved := seed(t, repo)

	require.NoError(t, repo.Delete(ctx, saved[2]))
	require.NoError(t, repo.Delete(ctx, &domain.Car{Make: "never saved"}))

	found, err := repo.FindByID(ctx, saved[2].ID)
	require.NoError(t, err)
	assert.Nil(t, found)

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(len(fixtures())-1), count)
}

func testDeleteAll(t *testing.T, repo repository.CarRepository) {
	ctx := context.Background()
	seed(t, repo)

	require.NoError(t, repo.DeleteAll(ctx))

	count, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	all, err := repo.FindAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func testFindPage(t *testing.T, repo repository.CarRepository) {
	ctx := context.Background()
	saved := seed(t, repo)

	var collected []*domain.Car
	for n := 0; ; n++ {
		page, err := repo.FindPage(ctx, repository.Page{Number: n, Size: 2})
		require.NoError(t, err)
		assert.Equal(t, int64(len(saved)), page.Total)
		assert.Equal(t, 3, page.TotalPages())
		assert.LessOrEqual(t, len(page.Items), 2)
		collected = append(collected, page.Items...)
		if !page.HasNext() {
			break
		}
	}
	assert.Equal(t, ids(saved), ids(collected))

	beyond, err := repo.FindPage(ctx, repository.Page{Number: 10, Size: 2})
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)
	assert.Equal(t, int64(len(saved)), beyond.Total)

	last := repository.Page{Number: math.MaxInt / repository.MaxPageSize, Size: repository.MaxPageSize}
	far, err := repo.FindPage(ctx, last)
	require.NoError(t, err)
	assert.Empty(t, far.Items)
	assert.Equal(t, int64(len(saved)), far.Total)

	_, err = repo.FindPage(ctx, repository.Page{Number: math.MaxInt / 500, Size: repository.MaxPageSize})
	assert.ErrorIs(t, err, repository.ErrInvalidPage)
}

func testFindPageSorted(t *testing.T, repo repository.CarRepository) {
	ctx := context.Background()
	seed(t, repo)

	byMake, err := repo.FindPage(ctx, repository.Page{Size: 10, SortBy: repository.SortByMake})
	require.NoError(t, err)
	makes := make([]string, 0, len(byMake.Items))
	for _, c := range byMake.Items {
		makes = append(makes, c.Make)
	}
	assert.Equal(t, []string{"Audi", "BMW", "Fiat", "Toyota", "Volvo"}, makes)

	// Equal years fall back to ascending id.
	byYear, err := repo.FindPage(ctx, repository.Page{Size: 3, SortBy: repository.SortByYear, Descending: true})
	require.NoError(t, err)
	assert.Equal(t, []int64{1, 3, 2}, ids(byYear.Items))
}

func testFindPageTextByteOrder(t *testing.T, repo repository.CarRepository) {
	ctx := context.Background()

	_, err := repo.SaveAll(ctx, []*domain.Car{{Make: "audi"}, {Make: "BMW"}, {Make: "Alfa Romeo"}})
	require.NoError(t, err)

	page, err := repo.FindPage(ctx, repository.Page{Size: 10, SortBy: repository.SortByMake})
	require.NoError(t, err)
	makes := make([]string, 0, len(page.Items))
	for _, c := range page.Items {
		makes = append(makes, c.Make)
	}
	assert.Equal(t, []string{"Alfa Romeo", "BMW", "audi"}, makes)
}

func testFindPageInvalid(t *testing.T, repo repository.CarRepository) {
	ctx := context.Background()

	_, err := repo.FindPage(ctx, repository.Page{Number: -1, Size: 10})
	assert.ErrorIs(t, err, repository.ErrInvalidPage)

	_, err = repo.FindPage(ctx, repository.Page{Size: 10, SortBy: "vin"})
	assert.ErrorIs(t, err, repository.ErrInvalidSort)
}
