package repository

import (
	"context"
	"testing"
	"time"

	"storefront/internal/database"
	"storefront/internal/model"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// setupTestDB creates a PostgreSQL testcontainer, applies the migrations and
// returns a connection pool over an empty catalogue.
func setupTestDB(t *testing.T) (*pgxpool.Pool, func()) {
	ctx := context.Background()

	// Start PostgreSQL container
	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("postgres"),
		postgres.WithPassword("postgres"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second)),
	)
	require.NoError(t, err)

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	require.NoError(t, database.MigrateUp("file://../../migrations", connStr, zerolog.Nop()))

	pool, err := pgxpool.New(ctx, connStr)
	require.NoError(t, err)

	_, err = pool.Exec(ctx, "TRUNCATE products")
	require.NoError(t, err)

	cleanup := func() {
		pool.Close()
		_ = pgContainer.Terminate(ctx)
	}

	return pool, cleanup
}

// seedProducts inserts test products into the database.
func seedProducts(t *testing.T, pool *pgxpool.Pool, products []model.Product) {
	ctx := context.Background()

	query := `
		INSERT INTO products (id, name, price, category, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	for _, p := range products {
		_, err := pool.Exec(ctx, query, p.ID, p.Name, p.Price, p.Category, p.CreatedAt)
		require.NoError(t, err)
	}
}

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestProductRepository_GetAll(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(pool, zerolog.Nop())

	now := time.Now()
	seedProducts(t, pool, []model.Product{
		{ID: "P001", Name: "Product A", Price: price("10.00"), Category: "Cat1", CreatedAt: now},
		{ID: "P002", Name: "Product B", Price: price("20.00"), Category: "Cat2", CreatedAt: now},
		{ID: "P003", Name: "Product C", Price: price("30.00"), Category: "Cat1", CreatedAt: now},
		{ID: "P004", Name: "Product D", Price: price("40.00"), Category: "Cat3", CreatedAt: now},
		{ID: "P005", Name: "Product E", Price: price("50.00"), Category: "Cat2", CreatedAt: now},
	})

	tests := []struct {
		name     string
		limit    int
		offset   int
		expected int
	}{
		{name: "Get all products", limit: 10, offset: 0, expected: 5},
		{name: "Get first page", limit: 2, offset: 0, expected: 2},
		{name: "Get last page", limit: 2, offset: 4, expected: 1},
		{name: "Offset beyond results", limit: 10, offset: 10, expected: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			products, err := repo.GetAll(context.Background(), tt.limit, tt.offset)

			require.NoError(t, err)
			assert.Len(t, products, tt.expected)

			for i := 1; i < len(products); i++ {
				assert.LessOrEqual(t, products[i-1].Name, products[i].Name)
			}
		})
	}
}

func TestProductRepository_GetByID(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(pool, zerolog.Nop())

	testProduct := model.Product{
		ID:        "P001",
		Name:      "Test Product",
		Price:     price("1499.50"),
		Category:  "TestCat",
		CreatedAt: time.Now(),
	}
	seedProducts(t, pool, []model.Product{testProduct})

	tests := []struct {
		name      string
		id        string
		expectNil bool
	}{
		{name: "Product exists", id: "P001", expectNil: false},
		{name: "Product does not exist", id: "P999", expectNil: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product, err := repo.GetByID(context.Background(), tt.id)

			require.NoError(t, err)

			if tt.expectNil {
				assert.Nil(t, product)
				return
			}
			require.NotNil(t, product)
			assert.Equal(t, testProduct.ID, product.ID)
			assert.Equal(t, testProduct.Name, product.Name)
			assert.True(t, testProduct.Price.Equal(product.Price), "price %s", product.Price)
			assert.Equal(t, testProduct.Category, product.Category)
		})
	}
}

func TestProductRepository_CreateAndDelete(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(pool, zerolog.Nop())
	ctx := context.Background()

	product := &model.Product{
		ID:          "P100",
		Name:        "Brass Candle Holder",
		Description: "Hand polished",
		Price:       price("349.99"),
		Category:    "Home",
		Stock:       4,
		CreatedAt:   time.Now(),
	}

	require.NoError(t, repo.Create(ctx, product))

	err := repo.Create(ctx, product)
	assert.ErrorIs(t, err, ErrDuplicate)

	stored, err := repo.GetByID(ctx, "P100")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.True(t, stored.Price.Equal(price("349.99")))
	assert.Equal(t, "Hand polished", stored.Description)
	assert.Equal(t, 4, stored.Stock)

	deleted, err := repo.Delete(ctx, "P100")
	require.NoError(t, err)
	assert.True(t, deleted)

	deleted, err = repo.Delete(ctx, "P100")
	require.NoError(t, err)
	assert.False(t, deleted)
}

func TestProductRepository_Update(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(pool, zerolog.Nop())
	ctx := context.Background()

	created := time.Now().Add(-time.Hour).UTC().Truncate(time.Microsecond)
	seedProducts(t, pool, []model.Product{
		{ID: "P001", Name: "Desk Lamp", Price: price("250.00"), Category: "Home", CreatedAt: created},
	})

	edit := &model.Product{
		ID:          "P001",
		Name:        "Brass Desk Lamp",
		Description: "Adjustable arm, warm light",
		Price:       price("299.00"),
		Category:    "Lighting",
		Stock:       12,
	}

	updated, err := repo.Update(ctx, edit)
	require.NoError(t, err)
	assert.True(t, updated)
	assert.True(t, created.Equal(edit.CreatedAt), "created_at %s", edit.CreatedAt)

	stored, err := repo.GetByID(ctx, "P001")
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, "Brass Desk Lamp", stored.Name)
	assert.Equal(t, "Adjustable arm, warm light", stored.Description)
	assert.True(t, stored.Price.Equal(price("299.00")))
	assert.Equal(t, "Lighting", stored.Category)
	assert.Equal(t, 12, stored.Stock)

	missing, err := repo.Update(ctx, &model.Product{ID: "P999", Name: "Ghost", Price: price("1"), Category: "None"})
	require.NoError(t, err)
	assert.False(t, missing)

	_, err = repo.Update(ctx, &model.Product{ID: "P001", Name: "Lamp", Price: price("1"), Category: "Home", Stock: -1})
	assert.Error(t, err)
}

func TestProductRepository_ErrorPaths(t *testing.T) {
	pool, cleanup := setupTestDB(t)
	defer cleanup()

	repo := NewProductRepository(pool, zerolog.Nop())

	seedProducts(t, pool, []model.Product{
		{ID: "P001", Name: "Product A", Price: price("10.00"), Category: "Cat1", CreatedAt: time.Now()},
	})

	// Close the pool to simulate database errors
	pool.Close()

	ctx := context.Background()

	t.Run("GetAll with closed pool", func(t *testing.T) {
		products, err := repo.GetAll(ctx, 10, 0)

		require.Error(t, err)
		assert.Nil(t, products)
	})

	t.Run("GetByID with closed pool", func(t *testing.T) {
		product, err := repo.GetByID(ctx, "P001")

		require.Error(t, err)
		assert.Nil(t, product)
	})

	t.Run("Delete with closed pool", func(t *testing.T) {
		_, err := repo.Delete(ctx, "P001")
		require.Error(t, err)
	})
}
