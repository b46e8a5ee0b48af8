// Package camt reads ISO 20022 camt.053 bank-to-customer statements.
package camt

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Dan9191/finix/internal/models"
	"github.com/beevik/etree"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// Entry is one booked statement line
type Entry struct {
	Reference   string
	Type        models.TransactionType
	Amount      decimal.Decimal
	Currency    string
	BookingDate time.Time
	Description string
}

// Parser turns camt.053 documents into statement entries
type Parser struct {
	log *logrus.Logger
}

// NewParser initializes a new camt.053 parser
func NewParser(log *logrus.Logger) *Parser {
	return &Parser{log: log}
}

// Parse reads a camt.053 document and returns its booked entries in document order.
// Pending entries are skipped.
func (p *Parser) Parse(r io.Reader) ([]Entry, error) {
	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("failed to parse XML: %w", err)
	}
	if doc.FindElement("//BkToCstmrStmt") == nil {
		return nil, fmt.Errorf("not a camt.053 statement")
	}

	var entries []Entry
	for i, ntry := range doc.FindElements("//Stmt/Ntry") {
		if !booked(ntry) {
			p.log.Debugf("Skipping pending statement entry %d", i+1)
			continue
		}
		entry, err := parseEntry(ntry)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i+1, err)
		}
		entries = append(entries, entry)
	}

	p.log.Infof("Parsed camt.053 statement: %d booked entries", len(entries))
	return entries, nil
}

// booked reports whether the entry status is BOOK. Version 02 writes the
// code directly in Sts, later versions nest it in Sts/Cd.
func booked(ntry *etree.Element) bool {
	sts := ntry.FindElement("./Sts")
	if sts == nil {
		return true
	}
	code := strings.TrimSpace(sts.Text())
	if cd := sts.FindElement("./Cd"); cd != nil {
		code = strings.TrimSpace(cd.Text())
	}
	return code == "" || code == "BOOK"
}

func parseEntry(ntry *etree.Element) (Entry, error) {
	var entry Entry

	amt := ntry.FindElement("./Amt")
	if amt == nil {
		return entry, fmt.Errorf("amount element not found")
	}
	amount, err := decimal.NewFromString(strings.TrimSpace(amt.Text()))
	if err != nil {
		return entry, fmt.Errorf("failed to parse amount: %w", err)
	}
	if !amount.IsPositive() {
		return entry, fmt.Errorf("amount must be positive, got %s", amount)
	}
	entry.Amount = amount
	entry.Currency = amt.SelectAttrValue("Ccy", "")

	switch text(ntry, "./CdtDbtInd") {
	case "CRDT":
		entry.Type = models.TransactionTypeCredit
	case "DBIT":
		entry.Type = models.TransactionTypeDebit
	default:
		return entry, fmt.Errorf("unknown credit/debit indicator %q", text(ntry, "./CdtDbtInd"))
	}

	if entry.BookingDate, err = bookingDate(ntry); err != nil {
		return entry, err
	}

	entry.Reference = text(ntry, "./NtryRef")
	entry.Description = description(ntry)
	return entry, nil
}

func bookingDate(ntry *etree.Element) (time.Time, error) {
	if dt := text(ntry, "./BookgDt/Dt"); dt != "" {
		t, err := time.Parse("2006-01-02", dt)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse booking date: %w", err)
		}
		return t, nil
	}
	if dtTm := text(ntry, "./BookgDt/DtTm"); dtTm != "" {
		t, err := time.Parse(time.RFC3339, dtTm)
		if err != nil {
			return time.Time{}, fmt.Errorf("failed to parse booking time: %w", err)
		}
		return t, nil
	}
	return time.Time{}, fmt.Errorf("booking date not found")
}

// description joins the unstructured remittance lines, falling back to the
// additional entry information.
func description(ntry *etree.Element) string {
	var parts []string
	for _, ustrd := range ntry.FindElements("./NtryDtls/TxDtls/RmtInf/Ustrd") {
		if s := strings.TrimSpace(ustrd.Text()); s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) > 0 {
		return strings.Join(parts, " ")
	}
	return text(ntry, "./AddtlNtryInf")
}

func text(e *etree.Element, path string) string {
	if found := e.FindElement(path); found != nil {
		return strings.TrimSpace(found.Text())
	}
	return ""
}
