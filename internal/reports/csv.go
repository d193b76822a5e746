package reports

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strconv"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

var esCO = message.NewPrinter(language.MustParse("es-CO"))

// formatAmount renders a peso amount with es-CO digit grouping, the
// way the back office reads figures.
func formatAmount(v float64) string {
	return esCO.Sprintf("%.2f", v)
}

// SellerSalesCSV renders the sales-by-seller report as CSV.
func SellerSalesCSV(rows []SellerSales) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"seller_id", "seller", "invoices", "total"}); err != nil {
		return nil, fmt.Errorf("reports: write csv header: %w", err)
	}
	for _, r := range rows {
		record := []string{
			strconv.FormatInt(r.SellerID, 10),
			r.SellerName,
			strconv.FormatInt(r.InvoiceCount, 10),
			formatAmount(r.Total),
		}
		if err := w.Write(record); err != nil {
			return nil, fmt.Errorf("reports: write csv row: %w", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("reports: flush csv: %w", err)
	}
	return buf.Bytes(), nil
}
