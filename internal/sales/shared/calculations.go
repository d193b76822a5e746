package shared

// CalculateLineTotals applies discount then tax to a single line.
// Unit prices are tax-exclusive everywhere; this is the one formula used
// by the POS checkout, normal invoices and sales-order execution.
func CalculateLineTotals(quantity, unitPrice, discountPercent, taxPercent float64) (discountAmount, taxAmount, lineTotal float64) {
	grossAmount := quantity * unitPrice
	discountAmount = grossAmount * (discountPercent / 100)
	netAmount := grossAmount - discountAmount
	taxAmount = netAmount * (taxPercent / 100)
	lineTotal = netAmount + taxAmount
	return
}
