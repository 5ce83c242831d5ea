package repository_test

import (
	"context"
	"sync"
	"testing"

	"cajapos/internal/repository"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/sync/errgroup"
)

func TestSecuenciaRepo_Next(t *testing.T) {
	repo := repository.NewSecuenciaRepository(newTestDB(t))
	ctx := context.Background()

	actual, err := repo.Current(ctx, "ventas")
	require.NoError(t, err)
	assert.Zero(t, actual)

	for want := int64(1); want <= 3; want++ {
		got, err := repo.Next(ctx, "ventas")
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	// Counters are independent per name.
	got, err := repo.Next(ctx, "recibos")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got)

	actual, err = repo.Current(ctx, "ventas")
	require.NoError(t, err)
	assert.Equal(t, int64(3), actual)
}

func TestSecuenciaRepo_NextConcurrente(t *testing.T) {
	repo := repository.NewSecuenciaRepository(newTestDB(t))
	ctx := context.Background()

	const (
		workers   = 16
		porWorker = 10
	)
	var (
		mu     sync.Mutex
		vistos = make(map[int64]bool, workers*porWorker)
	)
	var g errgroup.Group
	for w := 0; w < workers; w++ {
		g.Go(func() error {
			for i := 0; i < porWorker; i++ {
				n, err := repo.Next(ctx, "ventas")
				if err != nil {
					return err
				}
				mu.Lock()
				vistos[n] = true
				mu.Unlock()
			}
			return nil
		})
	}
	require.NoError(t, g.Wait())

	total := int64(workers * porWorker)
	assert.Len(t, vistos, int(total))
	for n := int64(1); n <= total; n++ {
		assert.True(t, vistos[n], "missing %d", n)
	}
	actual, err := repo.Current(ctx, "ventas")
	require.NoError(t, err)
	assert.Equal(t, total, actual)
}
