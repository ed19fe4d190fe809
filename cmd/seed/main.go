package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ikkim/storefront-backend/config"
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/internal/app/repository"
	"github.com/ikkim/storefront-backend/internal/db"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

func main() {
	filePath := flag.String("file", "", "path of the catalog XLSX workbook")
	batchSize := flag.Int("batch", 1000, "rows per insert batch")
	assumeYes := flag.Bool("yes", false, "import without asking for confirmation")
	flag.Parse()

	if *filePath == "" {
		log.Fatal("Usage: go run ./cmd/seed -file catalog.xlsx [-batch 1000] [-yes]")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	if err := db.Initialize(&cfg.Database); err != nil {
		log.Fatal("Failed to connect to database:", err)
	}
	defer db.Close()

	if err := db.Migrate(); err != nil {
		log.Fatal("Failed to run migrations:", err)
	}

	f, err := os.Open(*filePath)
	if err != nil {
		log.Fatal("Failed to open file:", err)
	}
	defer f.Close()

	fmt.Printf("Reading XLSX file: %s\n", *filePath)
	rows, skipped, err := readCatalog(f)
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}
	for _, s := range skipped {
		fmt.Printf("Skipped %s\n", s)
	}
	fmt.Printf("Total products to import: %d (skipped %d)\n", len(rows), len(skipped))

	if !*assumeYes {
		fmt.Print("Do you want to proceed with the import? (yes/no): ")
		var confirm string
		fmt.Scanln(&confirm)
		if confirm != "yes" && confirm != "y" {
			fmt.Println("Import cancelled.")
			return
		}
	}

	imported, err := importCatalog(context.Background(), db.GetDB(), rows, *batchSize)
	if err != nil {
		log.Fatal("Failed to import catalog:", err)
	}

	fmt.Println("Import completed successfully!")
	fmt.Printf("Total products imported: %d\n", imported)
}

// importCatalog resolves categories by name and inserts the products in batches
// inside one transaction.
func importCatalog(ctx context.Context, database *gorm.DB, rows []catalogRow, batchSize int) (int, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		categoryRepo := repository.NewCategoryRepository(tx)
		productRepo := repository.NewProductRepository(tx)

		categoryIDs := make(map[string]uint)
		products := make([]model.Product, 0, len(rows))
		for _, row := range rows {
			id, ok := categoryIDs[row.Category]
			if !ok {
				category, err := categoryRepo.FirstOrCreate(ctx, row.Category)
				if err != nil {
					return fmt.Errorf("category %q: %w", row.Category, err)
				}
				id = category.ID
				categoryIDs[row.Category] = id
			}

			product := model.Product{
				Name:        row.Name,
				Description: row.Description,
				ImageURL:    row.ImageURL,
				Price:       row.Price,
				CategoryID:  id,
				Features:    row.Features,
				Stock:       row.Stock,
				IsActive:    true,
			}
			if row.SalePrice != nil {
				product.SalePrice = decimal.NewNullDecimal(*row.SalePrice)
			}
			products = append(products, product)
		}

		return productRepo.BulkCreate(ctx, products, batchSize)
	})
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}
