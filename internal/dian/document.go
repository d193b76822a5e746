// Package dian builds the electronic invoicing documents required by
// the Colombian tax authority (DIAN): UBL 2.1 invoice XML plus the
// CUFE digest that uniquely identifies each document.
package dian

import (
	"crypto/sha512"
	"encoding/hex"
	"encoding/xml"
	"fmt"
	"strconv"
	"time"
)

// CompanyInfo identifies the issuing company on every document.
type CompanyInfo struct {
	Name             string
	NIT              string
	ResolutionNumber string
	InvoicePrefix    string
}

// DocumentInput is everything needed to render one invoice document.
type DocumentInput struct {
	InvoiceNumber string
	IssuedAt      time.Time
	CustomerName  string
	CustomerNIT   string
	Subtotal      float64
	Tax           float64
	Total         float64
	Lines         []DocumentLine
}

// DocumentLine is one invoice line on the document.
type DocumentLine struct {
	ProductName string
	Quantity    int64
	UnitPrice   float64
	TaxRate     float64
	LineTotal   float64
}

// UBL 2.1 structures, restricted to the fields DIAN validates.

type ublInvoice struct {
	XMLName         xml.Name         `xml:"Invoice"`
	UBLVersionID    string           `xml:"cbc:UBLVersionID"`
	CustomizationID string           `xml:"cbc:CustomizationID"`
	ID              string           `xml:"cbc:ID"`
	UUID            ublUUID          `xml:"cbc:UUID"`
	IssueDate       string           `xml:"cbc:IssueDate"`
	IssueTime       string           `xml:"cbc:IssueTime"`
	InvoiceTypeCode string           `xml:"cbc:InvoiceTypeCode"`
	Extensions      ublExtensions    `xml:"ext:UBLExtensions"`
	Supplier        ublSupplierParty `xml:"cac:AccountingSupplierParty"`
	Customer        ublCustomerParty `xml:"cac:AccountingCustomerParty"`
	TaxTotal        ublTaxTotal      `xml:"cac:TaxTotal"`
	MonetaryTotal   ublMonetaryTotal `xml:"cac:LegalMonetaryTotal"`
	Lines           []ublInvoiceLine `xml:"cac:InvoiceLine"`
}

type ublUUID struct {
	SchemeName string `xml:"schemeName,attr"`
	Value      string `xml:",chardata"`
}

type ublExtensions struct {
	Extension ublExtension `xml:"ext:UBLExtension"`
}

type ublExtension struct {
	DianExtensions dianExtensions `xml:"ext:ExtensionContent>sts:DianExtensions"`
}

type dianExtensions struct {
	InvoiceControl invoiceControl `xml:"sts:InvoiceControl"`
}

type invoiceControl struct {
	InvoiceAuthorization string `xml:"sts:InvoiceAuthorization"`
	Prefix               string `xml:"sts:AuthorizedInvoices>sts:Prefix"`
}

type ublSupplierParty struct {
	Party ublParty `xml:"cac:Party"`
}

type ublCustomerParty struct {
	Party ublParty `xml:"cac:Party"`
}

type ublParty struct {
	Name      string          `xml:"cac:PartyName>cbc:Name"`
	TaxScheme ublPartyTaxInfo `xml:"cac:PartyTaxScheme"`
}

type ublPartyTaxInfo struct {
	RegistrationName string     `xml:"cbc:RegistrationName"`
	CompanyID        ublSchemed `xml:"cbc:CompanyID"`
}

// SchemeID 31 is NIT, 13 is cédula de ciudadanía.
type ublSchemed struct {
	SchemeID string `xml:"schemeID,attr"`
	Value    string `xml:",chardata"`
}

type ublTaxTotal struct {
	TaxAmount ublAmount `xml:"cbc:TaxAmount"`
}

type ublMonetaryTotal struct {
	LineExtensionAmount ublAmount `xml:"cbc:LineExtensionAmount"`
	TaxInclusiveAmount  ublAmount `xml:"cbc:TaxInclusiveAmount"`
	PayableAmount       ublAmount `xml:"cbc:PayableAmount"`
}

type ublAmount struct {
	CurrencyID string `xml:"currencyID,attr"`
	Value      string `xml:",chardata"`
}

type ublInvoiceLine struct {
	ID                  string     `xml:"cbc:ID"`
	InvoicedQuantity    string     `xml:"cbc:InvoicedQuantity"`
	LineExtensionAmount ublAmount  `xml:"cbc:LineExtensionAmount"`
	ItemDescription     string     `xml:"cac:Item>cbc:Description"`
	PriceAmount         ublAmount  `xml:"cac:Price>cbc:PriceAmount"`
}

// Generator renders UBL invoice documents for one company.
type Generator struct {
	company CompanyInfo
}

// NewGenerator constructs a Generator.
func NewGenerator(company CompanyInfo) *Generator {
	return &Generator{company: company}
}

// CUFE computes the document's unique identifier: the SHA-384 hex
// digest over the DIAN field concatenation.
func (g *Generator) CUFE(in DocumentInput) string {
	payload := in.InvoiceNumber +
		in.IssuedAt.Format("2006-01-02") +
		in.IssuedAt.Format("15:04:05") +
		amount(in.Subtotal) +
		amount(in.Tax) +
		amount(in.Total) +
		g.company.NIT +
		in.CustomerNIT +
		g.company.ResolutionNumber
	sum := sha512.Sum384([]byte(payload))
	return hex.EncodeToString(sum[:])
}

// Generate renders the invoice as DIAN UBL 2.1 XML and returns the
// document plus its CUFE.
func (g *Generator) Generate(in DocumentInput) ([]byte, string, error) {
	cufe := g.CUFE(in)

	doc := ublInvoice{
		UBLVersionID:    "UBL 2.1",
		CustomizationID: "10",
		ID:              in.InvoiceNumber,
		UUID:            ublUUID{SchemeName: "CUFE-SHA384", Value: cufe},
		IssueDate:       in.IssuedAt.Format("2006-01-02"),
		IssueTime:       in.IssuedAt.Format("15:04:05-07:00"),
		InvoiceTypeCode: "01",
		Extensions: ublExtensions{Extension: ublExtension{
			DianExtensions: dianExtensions{InvoiceControl: invoiceControl{
				InvoiceAuthorization: g.company.ResolutionNumber,
				Prefix:               g.company.InvoicePrefix,
			}},
		}},
		Supplier: ublSupplierParty{Party: ublParty{
			Name: g.company.Name,
			TaxScheme: ublPartyTaxInfo{
				RegistrationName: g.company.Name,
				CompanyID:        ublSchemed{SchemeID: "31", Value: g.company.NIT},
			},
		}},
		Customer: ublCustomerParty{Party: ublParty{
			Name: in.CustomerName,
			TaxScheme: ublPartyTaxInfo{
				RegistrationName: in.CustomerName,
				CompanyID:        ublSchemed{SchemeID: "13", Value: in.CustomerNIT},
			},
		}},
		TaxTotal: ublTaxTotal{TaxAmount: cop(in.Tax)},
		MonetaryTotal: ublMonetaryTotal{
			LineExtensionAmount: cop(in.Subtotal),
			TaxInclusiveAmount:  cop(in.Total),
			PayableAmount:       cop(in.Total),
		},
	}

	for i, line := range in.Lines {
		doc.Lines = append(doc.Lines, ublInvoiceLine{
			ID:                  strconv.Itoa(i + 1),
			InvoicedQuantity:    strconv.FormatInt(line.Quantity, 10),
			LineExtensionAmount: cop(line.LineTotal),
			ItemDescription:     line.ProductName,
			PriceAmount:         cop(line.UnitPrice),
		})
	}

	payload, err := xml.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("dian: marshal invoice: %w", err)
	}
	return append([]byte(xml.Header), payload...), cufe, nil
}

func cop(v float64) ublAmount {
	return ublAmount{CurrencyID: "COP", Value: amount(v)}
}

func amount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
