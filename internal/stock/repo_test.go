package stock

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/stantonsupply/backoffice/pkg/db/models"
)

func TestRepositoryUpsertStock(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	product := uuid.New()
	warehouse := uuid.New()

	require.NoError(t, repo.UpsertStock(ctx, &models.WarehouseStock{
		ProductID: product, WarehouseID: warehouse, Quantity: 10,
	}))

	// Second upsert overwrites the quantity in place.
	require.NoError(t, repo.UpsertStock(ctx, &models.WarehouseStock{
		ProductID: product, WarehouseID: warehouse, Quantity: 4,
	}))

	row, err := repo.GetStock(ctx, product, warehouse)
	require.NoError(t, err)
	require.Equal(t, 4, row.Quantity)
}

func TestRepositoryListByProduct(t *testing.T) {
	t.Parallel()

	db := newTestDB(t)
	repo := NewRepository(db)
	ctx := context.Background()
	product := uuid.New()

	for _, qty := range []int{3, 7} {
		require.NoError(t, repo.UpsertStock(ctx, &models.WarehouseStock{
			ProductID: product, WarehouseID: uuid.New(), Quantity: qty,
		}))
	}
	require.NoError(t, repo.UpsertStock(ctx, &models.WarehouseStock{
		ProductID: uuid.New(), WarehouseID: uuid.New(), Quantity: 99,
	}))

	rows, err := repo.ListByProduct(ctx, product)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	total := 0
	for _, row := range rows {
		total += row.Quantity
	}
	require.Equal(t, 10, total)
}
