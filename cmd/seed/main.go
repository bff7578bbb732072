package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/ikkim/shopsphere-storefront/config"
	"github.com/ikkim/shopsphere-storefront/internal/report"
	"github.com/ikkim/shopsphere-storefront/pkg/shopapi"
)

// Imports reviews from an XLSX sheet with the columns
// product_id, user_id, rating, review_text.
func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run cmd/seed/main.go <xlsx_file_path>")
	}

	filePath := os.Args[1]

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("Failed to load config:", err)
	}

	client, err := shopapi.NewClient(shopapi.Config{
		BaseURL:   cfg.API.BaseURL,
		Timeout:   cfg.API.Timeout,
		UserAgent: "shopsphere-seed",
	})
	if err != nil {
		log.Fatal("Failed to create API client:", err)
	}

	fmt.Printf("Reading XLSX file: %s\n", filePath)
	f, err := os.Open(filePath)
	if err != nil {
		log.Fatal("Failed to open XLSX:", err)
	}
	result, err := report.ReadReviews(f)
	f.Close()
	if err != nil {
		log.Fatal("Failed to read XLSX:", err)
	}

	fmt.Printf("Total reviews to import: %d (skipped rows: %d)\n", len(result.Reviews), result.Skipped)
	if len(result.Reviews) == 0 {
		return
	}

	fmt.Print("Do you want to proceed with the import? (yes/no): ")
	var confirm string
	fmt.Scanln(&confirm)
	if confirm != "yes" && confirm != "y" {
		fmt.Println("Import cancelled.")
		return
	}

	created, failed := 0, 0
	for i, review := range result.Reviews {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		_, err := client.CreateReview(ctx, review)
		cancel()
		if err != nil {
			failed++
			fmt.Printf("Review %d (product %s): %v\n", i+1, review.ProductID, err)
			continue
		}
		created++
		if created%100 == 0 {
			fmt.Printf("Imported %d reviews...\n", created)
		}
	}

	fmt.Printf("\nSummary:\n")
	fmt.Printf("  Imported: %d\n", created)
	fmt.Printf("  Failed: %d\n", failed)
	fmt.Printf("  Skipped rows: %d\n", result.Skipped)
}
