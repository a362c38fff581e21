package store

import (
	"context"
	"fmt"

	"inventory-service/internal/models"

	"github.com/jmoiron/sqlx"
)

// ListProducts retrieves all products ordered by name
func (s *Store) ListProducts(ctx context.Context) ([]models.Product, error) {
	var rows []productRow
	err := sqlx.SelectContext(ctx, s.q, &rows,
		"SELECT "+productColumns+" FROM products ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("failed to list products: %w", err)
	}

	products := make([]models.Product, 0, len(rows))
	for _, r := range rows {
		products = append(products, r.toModel())
	}
	return products, nil
}

// CountProducts returns the size of the product collection
func (s *Store) CountProducts(ctx context.Context) (int, error) {
	var n int
	if err := sqlx.GetContext(ctx, s.q, &n, "SELECT COUNT(*) FROM products"); err != nil {
		return 0, fmt.Errorf("failed to count products: %w", err)
	}
	return n, nil
}

// SeedProductsIfEmpty inserts the catalog only when no product exists yet
func (s *Store) SeedProductsIfEmpty(ctx context.Context, catalog []models.Product) error {
	return s.WithTx(ctx, func(tx Gateway) error {
		n, err := tx.CountProducts(ctx)
		if err != nil {
			return err
		}
		if n > 0 {
			return nil
		}

		for i := range catalog {
			p := catalog[i]
			if err := tx.InsertProduct(ctx, &p); err != nil {
				return fmt.Errorf("failed to seed product %s: %w", p.SKU, err)
			}
		}
		return nil
	})
}

// InsertProduct creates a product; the id is assigned by the database
func (s *Store) InsertProduct(ctx context.Context, product *models.Product) error {
	query := `
		INSERT INTO products (sku, name, category, stock, min_stock, price, amazon_stock, amazon_enabled)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id`

	err := sqlx.GetContext(ctx, s.q, &product.ID, query,
		product.SKU, product.Name, product.Category, product.Stock, product.MinStock,
		product.Price, product.AmazonStock, product.AmazonEnabled)
	if err != nil {
		return fmt.Errorf("failed to insert product: %w", err)
	}
	return nil
}

// UpdateProductStock sets the physical stock of a product
func (s *Store) UpdateProductStock(ctx context.Context, id string, stock int) error {
	if err := s.exec(ctx, "UPDATE products SET stock = $1 WHERE id = $2", stock, id); err != nil {
		return fmt.Errorf("failed to update stock of product %s: %w", id, err)
	}
	return nil
}

// UpdateProductStocks sets both stock pools in a single row update
func (s *Store) UpdateProductStocks(ctx context.Context, id string, stock, amazonStock int) error {
	err := s.exec(ctx, "UPDATE products SET stock = $1, amazon_stock = $2 WHERE id = $3",
		stock, amazonStock, id)
	if err != nil {
		return fmt.Errorf("failed to update stocks of product %s: %w", id, err)
	}
	return nil
}

// UpdateAmazonStock sets the Amazon stock of a product
func (s *Store) UpdateAmazonStock(ctx context.Context, id string, amazonStock int) error {
	if err := s.exec(ctx, "UPDATE products SET amazon_stock = $1 WHERE id = $2", amazonStock, id); err != nil {
		return fmt.Errorf("failed to update amazon stock of product %s: %w", id, err)
	}
	return nil
}

// SetAmazonEnabled toggles the Amazon channel gate
func (s *Store) SetAmazonEnabled(ctx context.Context, id string, enabled bool) error {
	if err := s.exec(ctx, "UPDATE products SET amazon_enabled = $1 WHERE id = $2", enabled, id); err != nil {
		return fmt.Errorf("failed to set amazon flag of product %s: %w", id, err)
	}
	return nil
}

// DeleteProduct removes a product
func (s *Store) DeleteProduct(ctx context.Context, id string) error {
	if err := s.exec(ctx, "DELETE FROM products WHERE id = $1", id); err != nil {
		return fmt.Errorf("failed to delete product %s: %w", id, err)
	}
	return nil
}
