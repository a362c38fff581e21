package service

import (
	"time"

	"inventory-service/internal/models"
)

// Dashboard summarizes what needs attention today
type Dashboard struct {
	ProductCount    int              `json:"product_count"`
	LowStock        []models.Product `json:"low_stock"`
	LowAmazonStock  []models.Product `json:"low_amazon_stock"`
	PendingOrders   []models.Order   `json:"pending_orders"`
	CompletedToday  []models.Order   `json:"completed_today"`
	AmazonThreshold int              `json:"amazon_threshold"`
}

// Dashboard builds the summary from the mirror; "today" is the calendar day of now
func (s *InventoryService) Dashboard(now time.Time) Dashboard {
	products := s.state.Products()
	orders := s.state.Orders()

	d := Dashboard{
		ProductCount:    len(products),
		LowStock:        []models.Product{},
		LowAmazonStock:  []models.Product{},
		PendingOrders:   []models.Order{},
		CompletedToday:  []models.Order{},
		AmazonThreshold: s.amazonLowStock,
	}

	for _, p := range products {
		if p.LowStock() {
			d.LowStock = append(d.LowStock, p)
		}
		if p.AmazonEnabled && p.AmazonStock <= s.amazonLowStock {
			d.LowAmazonStock = append(d.LowAmazonStock, p)
		}
	}

	y, m, day := now.Date()
	for _, o := range orders {
		if o.Status == models.OrderStatusPending {
			d.PendingOrders = append(d.PendingOrders, o)
			continue
		}
		at := o.CreatedAt
		if o.DeliveredAt != nil {
			at = *o.DeliveredAt
		}
		at = at.In(now.Location())
		if ay, am, ad := at.Date(); ay == y && am == m && ad == day {
			d.CompletedToday = append(d.CompletedToday, o)
		}
	}
	return d
}
