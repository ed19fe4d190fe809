package db

import (
	"github.com/ikkim/storefront-backend/internal/app/model"
	"github.com/ikkim/storefront-backend/pkg/logger"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Models lists every persisted type in dependency order.
func Models() []interface{} {
	return []interface{}{
		&model.Category{},
		&model.Product{},
		&model.Customer{},
		&model.CartItem{},
		&model.Order{},
		&model.OrderItem{},
		&model.Review{},
		&model.NewsletterSubscriber{},
	}
}

// AutoMigrate creates or updates the schema on db.
func AutoMigrate(db *gorm.DB) error {
	return db.AutoMigrate(Models()...)
}

// Migrate runs database migrations
func Migrate() error {
	logger.Info("Running database migrations...")

	if err := AutoMigrate(DB); err != nil {
		logger.Error("Failed to run migrations", err)
		return err
	}

	logger.Info("Database migrations completed successfully", map[string]interface{}{
		"models_count": len(Models()),
	})
	return nil
}

// Seed adds the sample catalog when the products table is empty
func Seed() error {
	return SeedSampleData(DB)
}

func SeedSampleData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&model.Product{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		logger.Info("Catalog already seeded, skipping...", map[string]interface{}{
			"existing_count": count,
		})
		return nil
	}

	logger.Info("Seeding sample catalog...")

	return db.Transaction(func(tx *gorm.DB) error {
		categories := map[string]*model.Category{}
		for _, name := range []string{"Electronics", "Wearables", "Furniture"} {
			c := &model.Category{Name: name, Slug: model.Slugify(name)}
			if err := tx.Create(c).Error; err != nil {
				logger.Error("Failed to seed category", err, map[string]interface{}{
					"name": name,
				})
				return err
			}
			categories[name] = c
		}

		products := []*model.Product{
			{
				Name:        "Premium Wireless Headphones",
				Description: "Experience crystal-clear audio with our premium wireless headphones featuring active noise cancellation and 30-hour battery life.",
				Price:       decimal.RequireFromString("299.99"),
				ImageURL:    "https://images.unsplash.com/photo-1505740420928-5e560c06d30e?w=600&h=400&fit=crop",
				CategoryID:  categories["Electronics"].ID,
				Stock:       25,
				IsActive:    true,
				Features: model.StringList{
					"Active Noise Cancellation",
					"30-Hour Battery Life",
					"Bluetooth 5.0",
					"Quick Charge Technology",
					"Comfortable Over-Ear Design",
					"Built-in Microphone",
				},
				Specifications: datatypes.JSONMap{
					"Driver Size":        "40mm",
					"Frequency Response": "20Hz - 20kHz",
					"Weight":             "280g",
					"Connectivity":       "Bluetooth 5.0, 3.5mm Jack",
					"Battery":            "1200mAh Lithium-ion",
					"Charging Time":      "2 hours",
					"Warranty":           "2 years",
				},
			},
			{
				Name:        "Smart Fitness Watch",
				Description: "Track your health and fitness goals with this advanced smartwatch featuring heart rate monitoring, GPS, and sleep tracking.",
				Price:       decimal.RequireFromString("199.99"),
				ImageURL:    "https://images.unsplash.com/photo-1523275335684-37898b6baf30?w=600&h=400&fit=crop",
				CategoryID:  categories["Wearables"].ID,
				Stock:       18,
				IsActive:    true,
				Features: model.StringList{
					"Heart Rate Monitor",
					"Built-in GPS",
					"Sleep Tracking",
					"Water Resistant (50m)",
					"7-Day Battery Life",
					"Multiple Sport Modes",
				},
				Specifications: datatypes.JSONMap{
					"Display":          "1.4-inch AMOLED",
					"Battery Life":     "7 days",
					"Water Resistance": "5ATM",
					"Connectivity":     "Bluetooth 5.0, Wi-Fi",
					"Sensors":          "Heart Rate, GPS, Accelerometer, Gyroscope",
					"Compatibility":    "iOS 12.0+, Android 6.0+",
				},
			},
			{
				Name:        "Ergonomic Office Chair",
				Description: "Enhance your workspace comfort with this premium ergonomic office chair featuring lumbar support and adjustable height.",
				Price:       decimal.RequireFromString("449.99"),
				ImageURL:    "https://images.unsplash.com/photo-1586023492125-27b2c045efd7?w=600&h=400&fit=crop",
				CategoryID:  categories["Furniture"].ID,
				Stock:       12,
				IsActive:    true,
				Features: model.StringList{
					"Lumbar Support",
					"Adjustable Height",
					"360° Swivel",
					"Breathable Mesh Back",
					"Memory Foam Seat",
					"Armrest Adjustment",
				},
				Specifications: datatypes.JSONMap{
					"Material":        "Mesh and Memory Foam",
					"Weight Capacity": "300 lbs",
					"Seat Height":     "17-21 inches",
					"Dimensions":      "26 x 26 x 40-44 inches",
					"Assembly":        "Required",
					"Warranty":        "5 years",
				},
			},
		}
		for _, p := range products {
			if err := tx.Omit("Category").Create(p).Error; err != nil {
				logger.Error("Failed to seed product", err, map[string]interface{}{
					"name": p.Name,
				})
				return err
			}
		}

		customer := &model.Customer{
			Name:  "John Smith",
			Email: "john.smith@example.com",
			Phone: "+1-555-0123",
			Address: model.Address{
				Street:  "123 Main Street",
				City:    "New York",
				State:   "NY",
				ZipCode: "10001",
				Country: "USA",
			},
		}
		if err := tx.Create(customer).Error; err != nil {
			logger.Error("Failed to seed customer", err)
			return err
		}

		reviews := []model.Review{
			{
				ProductID:  products[0].ID,
				CustomerID: customer.ID,
				Rating:     5,
				Title:      "Amazing sound quality!",
				Comment:    "These headphones exceeded my expectations. The noise cancellation is fantastic and the battery life is exactly as advertised.",
				IsVerified: true,
			},
			{
				ProductID:  products[1].ID,
				CustomerID: customer.ID,
				Rating:     4,
				Title:      "Great fitness companion",
				Comment:    "Love the GPS tracking and heart rate monitor. Battery life is impressive. Only wish the screen was a bit larger.",
				IsVerified: true,
			},
		}
		if err := tx.Create(&reviews).Error; err != nil {
			logger.Error("Failed to seed reviews", err)
			return err
		}

		// keep the derived columns consistent with what was just inserted
		for _, p := range products {
			var agg struct {
				Total int64
				Count int64
			}
			if err := tx.Model(&model.Review{}).
				Select("COALESCE(SUM(rating), 0) AS total, COUNT(*) AS count").
				Where("product_id = ?", p.ID).
				Scan(&agg).Error; err != nil {
				return err
			}
			if err := tx.Model(&model.Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
				"rating":       model.AverageRating(agg.Total, agg.Count),
				"review_count": agg.Count,
			}).Error; err != nil {
				return err
			}
		}

		logger.Info("Sample catalog seeded successfully", map[string]interface{}{
			"categories": len(categories),
			"products":   len(products),
			"reviews":    len(reviews),
		})
		return nil
	})
}
