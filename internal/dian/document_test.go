package dian

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func testCompany() CompanyInfo {
	return CompanyInfo{
		Name:             "KONTA SAS",
		NIT:              "900000000-1",
		ResolutionNumber: "18760000001",
		InvoicePrefix:    "SETT",
	}
}

func testInput() DocumentInput {
	return DocumentInput{
		InvoiceNumber: "INV-000042",
		IssuedAt:      time.Date(2026, 8, 30, 14, 5, 0, 0, time.UTC),
		CustomerName:  "Andres Gomez",
		CustomerNIT:   "1020304050",
		Subtotal:      3500,
		Tax:           380,
		Total:         3730,
		Lines: []DocumentLine{
			{ProductName: "Cafe 500g", Quantity: 2, UnitPrice: 1000, TaxRate: 19, LineTotal: 2380},
			{ProductName: "Panela", Quantity: 3, UnitPrice: 500, TaxRate: 0, LineTotal: 1350},
		},
	}
}

func TestCUFEDeterministic(t *testing.T) {
	g := NewGenerator(testCompany())
	in := testInput()

	first := g.CUFE(in)
	second := g.CUFE(in)
	require.Equal(t, first, second)
	// SHA-384 hex digest.
	require.Len(t, first, 96)

	in.Total = 9999
	require.NotEqual(t, first, g.CUFE(in))
}

func TestGenerateDocument(t *testing.T) {
	g := NewGenerator(testCompany())

	payload, cufe, err := g.Generate(testInput())
	require.NoError(t, err)
	require.Len(t, cufe, 96)

	doc := string(payload)
	require.True(t, strings.HasPrefix(doc, "<?xml"))
	require.Contains(t, doc, "<cbc:ID>INV-000042</cbc:ID>")
	require.Contains(t, doc, cufe)
	require.Contains(t, doc, "<sts:InvoiceAuthorization>18760000001</sts:InvoiceAuthorization>")
	require.Contains(t, doc, "<sts:Prefix>SETT</sts:Prefix>")
	require.Contains(t, doc, `schemeID="31"`)
	require.Contains(t, doc, `schemeID="13"`)
	require.Contains(t, doc, `currencyID="COP"`)
	require.Contains(t, doc, "<cbc:PayableAmount currencyID=\"COP\">3730.00</cbc:PayableAmount>")
	require.Contains(t, doc, "Cafe 500g")
	require.Equal(t, 2, strings.Count(doc, "<cac:InvoiceLine>"))
}

func TestUnsignedSignerPassthrough(t *testing.T) {
	s := NewUnsignedSigner()
	payload := []byte("<Invoice/>")
	signed, err := s.Sign(payload)
	require.NoError(t, err)
	require.Equal(t, payload, signed)
}
