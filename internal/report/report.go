// Package report aggregates sales movements of the ledger into monthly per-product totals.
package report

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"inventory-service/internal/models"

	"github.com/shopspring/decimal"
)

const monthLayout = "2006-01"

// ErrEmptyReport is returned when exporting a month without sales movements
var ErrEmptyReport = errors.New("no movements for this month")

// Row is the total of one product in a month
type Row struct {
	ProductID   string          `json:"product_id"`
	ProductName string          `json:"product_name"`
	Units       int             `json:"units"`
	Sales       decimal.Decimal `json:"sales"`
}

// Report is the monthly sales summary
type Report struct {
	Month      string          `json:"month"`
	Rows       []Row           `json:"rows"`
	TotalUnits int             `json:"total_units"`
	TotalSales decimal.Decimal `json:"total_sales"`
}

// MonthKey formats t as YYYY-MM in loc
func MonthKey(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(monthLayout)
}

// ParseMonth validates a YYYY-MM key
func ParseMonth(month string) (string, error) {
	t, err := time.Parse(monthLayout, month)
	if err != nil {
		return "", fmt.Errorf("invalid month %q, expected YYYY-MM", month)
	}
	return t.Format(monthLayout), nil
}

// FileName is the download name of a month's CSV export
func FileName(month string) string {
	return "reporte-" + month + ".csv"
}

// Months lists the months that have sales movements, newest first.
// Without any, the current month is the only choice.
func Months(logs []models.InventoryLog, now time.Time, loc *time.Location) []string {
	seen := map[string]bool{}
	var months []string
	for _, l := range logs {
		if !l.Type.IsSale() {
			continue
		}
		key := MonthKey(l.Timestamp, loc)
		if !seen[key] {
			seen[key] = true
			months = append(months, key)
		}
	}
	if len(months) == 0 {
		return []string{MonthKey(now, loc)}
	}
	sort.Sort(sort.Reverse(sort.StringSlice(months)))
	return months
}

// Monthly totals units and sales per product for EXIT and AMAZON_SALE logs of month.
// Sales use the price recorded on the log, falling back to the product's current price.
func Monthly(logs []models.InventoryLog, products []models.Product, month string, loc *time.Location) Report {
	catalog := make(map[string]models.Product, len(products))
	for _, p := range products {
		catalog[p.ID] = p
	}

	totals := map[string]*Row{}
	var order []string
	for _, l := range logs {
		if !l.Type.IsSale() || MonthKey(l.Timestamp, loc) != month {
			continue
		}

		row, ok := totals[l.ProductID]
		if !ok {
			row = &Row{ProductID: l.ProductID, ProductName: l.ProductName, Sales: decimal.Zero}
			if p, known := catalog[l.ProductID]; known {
				row.ProductName = p.Name
			}
			totals[l.ProductID] = row
			order = append(order, l.ProductID)
		}

		price := decimal.Zero
		if l.UnitPrice.Valid {
			price = l.UnitPrice.Decimal
		} else if p, known := catalog[l.ProductID]; known {
			price = p.Price
		}

		row.Units += l.Quantity
		row.Sales = row.Sales.Add(price.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}

	r := Report{Month: month, Rows: make([]Row, 0, len(order)), TotalSales: decimal.Zero}
	for _, id := range order {
		row := *totals[id]
		r.Rows = append(r.Rows, row)
		r.TotalUnits += row.Units
		r.TotalSales = r.TotalSales.Add(row.Sales)
	}
	sort.SliceStable(r.Rows, func(i, j int) bool {
		if c := r.Rows[i].Sales.Cmp(r.Rows[j].Sales); c != 0 {
			return c > 0
		}
		return r.Rows[i].ProductName < r.Rows[j].ProductName
	})
	return r
}

// WriteCSV writes the report with every cell quoted and a closing Total line.
// encoding/csv only quotes cells that need it, so the lines are built here.
func WriteCSV(w io.Writer, r Report) error {
	if len(r.Rows) == 0 {
		return ErrEmptyReport
	}

	lines := make([]string, 0, len(r.Rows)+2)
	lines = append(lines, csvLine("Producto", "Unidades", "Ventas"))
	for _, row := range r.Rows {
		lines = append(lines, csvLine(row.ProductName, strconv.Itoa(row.Units), row.Sales.StringFixed(2)))
	}
	lines = append(lines, csvLine("Total", strconv.Itoa(r.TotalUnits), r.TotalSales.StringFixed(2)))

	_, err := io.WriteString(w, strings.Join(lines, "\n"))
	return err
}

func csvLine(cells ...string) string {
	quoted := make([]string, len(cells))
	for i, c := range cells {
		quoted[i] = `"` + strings.ReplaceAll(c, `"`, `""`) + `"`
	}
	return strings.Join(quoted, ",")
}
