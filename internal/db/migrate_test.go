package db

import (
	"fmt"
	"testing"

	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

func TestAutoMigrateEachModel(t *testing.T) {
	for _, m := range Models() {
		m := m
		t.Run(fmt.Sprintf("%T", m), func(t *testing.T) {
			testDB, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
				Logger: gormlogger.Default.LogMode(gormlogger.Silent),
			})
			require.NoError(t, err)
			sqlDB, err := testDB.DB()
			require.NoError(t, err)
			defer sqlDB.Close()

			require.NoError(t, testDB.AutoMigrate(m))
		})
	}
}

func TestProductFeaturesRoundTrip(t *testing.T) {
	testDB, err := SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		CleanupTestDB(testDB)
	})

	assert.True(t, testDB.Migrator().HasColumn(&model.Product{}, "features"))

	category := &model.Category{Name: "Kitchen", Slug: "kitchen"}
	require.NoError(t, testDB.Create(category).Error)
	product := &model.Product{
		Name:       "Kettle",
		Price:      decimal.RequireFromString("39.90"),
		CategoryID: category.ID,
		Stock:      3,
		IsActive:   true,
		Features:   model.StringList{"1.7 l", "auto off, boil dry"},
	}
	require.NoError(t, testDB.Omit("Category").Create(product).Error)

	var found model.Product
	require.NoError(t, testDB.First(&found, product.ID).Error)
	assert.Equal(t, model.StringList{"1.7 l", "auto off, boil dry"}, found.Features)
}

func TestSeedSampleData(t *testing.T) {
	testDB, err := SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		CleanupTestDB(testDB)
	})

	require.NoError(t, SeedSampleData(testDB))

	var products []model.Product
	require.NoError(t, testDB.Order("id").Find(&products).Error)
	require.Len(t, products, 3)

	assert.Equal(t, "5", products[0].Rating.String())
	assert.Equal(t, 1, products[0].ReviewCount)
	assert.Equal(t, "4", products[1].Rating.String())
	assert.Equal(t, 1, products[1].ReviewCount)
	assert.True(t, products[2].Rating.IsZero())
	assert.Equal(t, 0, products[2].ReviewCount)
	assert.Len(t, products[0].Features, 6)
	assert.Equal(t, "40mm", products[0].Specifications["Driver Size"])

	// second run is a no-op
	require.NoError(t, SeedSampleData(testDB))
	var count int64
	testDB.Model(&model.Product{}).Count(&count)
	assert.Equal(t, int64(3), count)
}

func TestTruncateAllTables(t *testing.T) {
	testDB, err := SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		CleanupTestDB(testDB)
	})

	require.NoError(t, SeedSampleData(testDB))
	require.NoError(t, TruncateAllTables(testDB))

	var count int64
	testDB.Model(&model.Review{}).Count(&count)
	assert.Zero(t, count)
}
