package cmd

import (
	"encoding/json"
	"fmt"
	"log"

	"github.com/kitenge/shop-backend/internal/core/datamodel/order"
	orderservice "github.com/kitenge/shop-backend/internal/order"
	"github.com/spf13/cobra"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Seed the database with sample data",
	Long:  `Seed the database with sample orders for development and testing purposes.`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := loadConfig(".")
		if err != nil {
			log.Fatalf("failed to load config: %v", err)
		}

		sqlxDB, err := initDB(cfg.Database)
		if err != nil {
			log.Fatalf("failed to init db: %v", err)
		}
		defer sqlxDB.Close()

		db, err := initGorm(sqlxDB)
		if err != nil {
			log.Fatalf("failed to init gorm: %v", err)
		}

		if clearData {
			if err := db.Exec("DELETE FROM mpesa_requests").Error; err != nil {
				log.Fatalf("failed to clear mpesa_requests: %v", err)
			}
			if err := db.Exec("DELETE FROM orders").Error; err != nil {
				log.Fatalf("failed to clear orders: %v", err)
			}
			fmt.Println("Cleared existing orders and payment requests")
		}

		samples := []struct {
			Customer string
			Email    string
			Lines    []order.Line
			Total    int64
		}{
			{
				Customer: "Wanjiku Kamau",
				Email:    "wanjiku@mail.com",
				Lines: []order.Line{
					{ProductID: "kitenge-dress-01", Name: "Ankara Print Dress", Quantity: 1, UnitPrice: 3500},
					{ProductID: "headwrap-02", Name: "Matching Headwrap", Quantity: 2, UnitPrice: 450},
				},
				Total: 4400,
			},
			{
				Customer: "Brian Otieno",
				Email:    "brian@mail.com",
				Lines: []order.Line{
					{ProductID: "kitenge-shirt-07", Name: "Kitenge Shirt", Quantity: 1, UnitPrice: 2200},
				},
				Total: 2200,
			},
			{
				Customer: "Amina Hassan",
				Email:    "amina@mail.com",
				Lines: []order.Line{
					{ProductID: "tote-bag-03", Name: "Kitenge Tote Bag", Quantity: 3, UnitPrice: 900},
				},
				Total: 2700,
			},
		}

		for _, s := range samples {
			var exists int
			row := db.Raw("SELECT 1 FROM orders WHERE email = ?", s.Email).Row()
			if err := row.Scan(&exists); err == nil {
				fmt.Printf("order for %s already exists, skipping\n", s.Email)
				continue
			}

			products, err := json.Marshal(s.Lines)
			if err != nil {
				log.Fatalf("failed to marshal products: %v", err)
			}

			orderNumber := orderservice.GenerateOrderNumber()
			if err := db.Exec(
				"INSERT INTO orders (order_number, customer_name, email, products, total_price, currency, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, 'KES', 'pending', now(), now())",
				orderNumber, s.Customer, s.Email, products, s.Total,
			).Error; err != nil {
				log.Fatalf("failed to insert order for %s: %v", s.Email, err)
			}

			fmt.Printf("Seeded order %s for %s (%d KES)\n", orderNumber, s.Customer, s.Total)
		}

		fmt.Println("Sample orders seeded successfully")
	},
}
