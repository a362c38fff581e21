package report

import (
	"bytes"
	"testing"
	"time"

	"inventory-service/internal/models"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func at(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 12, 0, 0, 0, time.UTC)
}

func TestMonthKey(t *testing.T) {
	assert.Equal(t, "2024-05", MonthKey(at(2024, 5, 3), time.UTC))

	mexico := time.FixedZone("CST", -6*3600)
	assert.Equal(t, "2024-04", MonthKey(time.Date(2024, 5, 1, 3, 0, 0, 0, time.UTC), mexico))
}

func TestMonthsDescendingWithFallback(t *testing.T) {
	logs := []models.InventoryLog{
		{Type: models.LogTypeExit, Timestamp: at(2024, 3, 1)},
		{Type: models.LogTypeAmazonSale, Timestamp: at(2024, 5, 1)},
		{Type: models.LogTypeEntry, Timestamp: at(2024, 6, 1)},
		{Type: models.LogTypeExit, Timestamp: at(2024, 5, 20)},
	}
	assert.Equal(t, []string{"2024-05", "2024-03"}, Months(logs, at(2024, 7, 1), time.UTC))

	assert.Equal(t, []string{"2024-07"}, Months(nil, at(2024, 7, 1), time.UTC))
}

func TestMonthly(t *testing.T) {
	products := []models.Product{
		{ID: "p1", Name: "Libro", Price: decimal.NewFromInt(10)},
		{ID: "p2", Name: "Taza", Price: decimal.NewFromInt(4)},
	}
	logs := []models.InventoryLog{
		{Type: models.LogTypeExit, ProductID: "p1", ProductName: "Libro (Salida)", Quantity: 3, Timestamp: at(2024, 5, 2)},
		{Type: models.LogTypeAmazonSale, ProductID: "p1", ProductName: "Libro", Quantity: 2, Timestamp: at(2024, 5, 9)},
		{Type: models.LogTypeExit, ProductID: "p2", ProductName: "Taza", Quantity: 20, Timestamp: at(2024, 5, 9),
			UnitPrice: decimal.NewNullDecimal(decimal.NewFromInt(3))},
		{Type: models.LogTypeEntry, ProductID: "p1", Quantity: 100, Timestamp: at(2024, 5, 9)},
		{Type: models.LogTypeAmazonTransfer, ProductID: "p1", Quantity: 7, Timestamp: at(2024, 5, 9)},
		{Type: models.LogTypeExit, ProductID: "p1", Quantity: 9, Timestamp: at(2024, 4, 30)},
	}

	r := Monthly(logs, products, "2024-05", time.UTC)
	require.Len(t, r.Rows, 2)

	assert.Equal(t, "p2", r.Rows[0].ProductID)
	assert.Equal(t, 20, r.Rows[0].Units)
	assert.True(t, decimal.NewFromInt(60).Equal(r.Rows[0].Sales))

	assert.Equal(t, "Libro", r.Rows[1].ProductName)
	assert.Equal(t, 5, r.Rows[1].Units)
	assert.True(t, decimal.NewFromInt(50).Equal(r.Rows[1].Sales))

	assert.Equal(t, 25, r.TotalUnits)
	assert.True(t, decimal.NewFromInt(110).Equal(r.TotalSales))
}

func TestMonthlyUnknownProductHasNoPrice(t *testing.T) {
	logs := []models.InventoryLog{
		{Type: models.LogTypeExit, ProductID: "gone", ProductName: "Viejo", Quantity: 2, Timestamp: at(2024, 5, 2)},
	}
	r := Monthly(logs, nil, "2024-05", time.UTC)
	require.Len(t, r.Rows, 1)
	assert.Equal(t, "Viejo", r.Rows[0].ProductName)
	assert.True(t, r.Rows[0].Sales.IsZero())
}

func TestWriteCSV(t *testing.T) {
	r := Report{
		Month: "2024-05",
		Rows: []Row{
			{ProductName: `Libro "Edición" 2`, Units: 5, Sales: decimal.NewFromInt(50)},
			{ProductName: "Taza, negra", Units: 1, Sales: decimal.RequireFromString("4.5")},
		},
		TotalUnits: 6,
		TotalSales: decimal.RequireFromString("54.5"),
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, r))

	expected := `"Producto","Unidades","Ventas"` + "\n" +
		`"Libro ""Edición"" 2","5","50.00"` + "\n" +
		`"Taza, negra","1","4.50"` + "\n" +
		`"Total","6","54.50"`
	assert.Equal(t, expected, buf.String())
	assert.Equal(t, "reporte-2024-05.csv", FileName(r.Month))
}

func TestWriteCSVEmpty(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, WriteCSV(&buf, Report{Month: "2024-05"}), ErrEmptyReport)
}

func TestParseMonth(t *testing.T) {
	m, err := ParseMonth("2024-05")
	require.NoError(t, err)
	assert.Equal(t, "2024-05", m)

	_, err = ParseMonth("2024-13")
	assert.Error(t, err)
	_, err = ParseMonth("May 2024")
	assert.Error(t, err)
}
