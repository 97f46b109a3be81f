// Package fields derives structured bill fields from extracted text.
//
// Every field has an ordered rule table; the first accepted rule wins and
// fields never depend on each other. Matching is case-insensitive, and
// captured strings keep the casing they had in the source text.
package fields

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kailas-cloud/billocr/internal/domain/textstat"
)

// VendorScanLines is how many leading non-empty lines are searched for a vendor.
const VendorScanLines = 5

// amount captures an optional-thousands, optional-cents number, e.g. 1,234.56.
const amount = `(\d+(?:,\d{3})*(?:\.\d{2})?)`

// titleKeywords mark a line as a document title.
var titleKeywords = []string{"INVOICE", "BILL", "RECEIPT", "STATEMENT"}

// Fields holds the optional structured attributes. nil means no rule matched.
type Fields struct {
	Total         *float64
	Title         *string
	Date          *string
	InvoiceNumber *string
	Vendor        *string
}

// IsEmpty reports whether no field was populated.
func (f Fields) IsEmpty() bool {
	return f.Total == nil && f.Title == nil && f.Date == nil && f.InvoiceNumber == nil && f.Vendor == nil
}

// TotalRules in priority order.
var TotalRules = []Rule[float64]{
	totalRule("total", `\bTOTAL[:\s]*\$?`+amount),
	totalRule("amount", `\bAMOUNT[:\s]*\$?`+amount),
	totalRule("sum", `\bSUM[:\s]*\$?`+amount),
	totalRule("balance", `\bBALANCE[:\s]*\$?`+amount),
	totalRule("usd_prefix", `\bUSD\s*`+amount),
	totalRule("usd_suffix", `\$?`+amount+`\s*USD`),
	totalRule("grand_total", `\bGRAND\s*TOTAL[:\s]*\$?`+amount),
	totalRule("subtotal", `\bSUBTOTAL[:\s]*\$?`+amount),
}

// DateRules in priority order. Month names are three-letter abbreviations.
// Numeric dates may follow a label with no separator, as in "DATE01/15/2024".
var DateRules = []Rule[string]{
	stringRule("day_month_year", `(?:^|\D)(\d{1,2}[/-]\d{1,2}[/-]\d{2,4})`, nil),
	stringRule("year_month_day", `(?:^|\D)(\d{4}[/-]\d{1,2}[/-]\d{1,2})`, nil),
	stringRule("day_monthname_year", `\b(\d{1,2}\s+(?:JAN|FEB|MAR|APR|MAY|JUN|JUL|AUG|SEP|OCT|NOV|DEC)\s+\d{2,4})`, nil),
	stringRule("monthname_day_year", `\b((?:JAN|FEB|MAR|APR|MAY|JUN|JUL|AUG|SEP|OCT|NOV|DEC)\s+\d{1,2},?\s+\d{2,4})`, nil),
}

// InvoiceRules in priority order. Captures of two characters or fewer are rejected.
var InvoiceRules = []Rule[string]{
	stringRule("invoice", `\bINVOICE[:\s#]*`+invoiceToken, longerThan(2)),
	stringRule("bill", `\bBILL[:\s#]*`+invoiceToken, longerThan(2)),
	stringRule("receipt", `\bRECEIPT[:\s#]*`+invoiceToken, longerThan(2)),
	stringRule("order", `\bORDER[:\s#]*`+invoiceToken, longerThan(2)),
	stringRule("reference", `\bREF(?:ERENCE)?[:\s#]*`+invoiceToken, longerThan(2)),
	stringRule("account", `\bACC(?:OUNT)?[:\s#]*`+invoiceToken, longerThan(2)),
}

const invoiceToken = `(\w+(?:[-/]\w+)*)`

// VendorRules are tried on each candidate line, in priority order.
var VendorRules = []Rule[string]{
	vendorRule("company_suffix", `^(.+?)\s+(?:INC|LLC|CORP|CORPORATION|CO|COMPANY|LTD|LIMITED)\b`),
	vendorRule("from", `\bFROM:\s*(.+)`),
	vendorRule("vendor", `\bVENDOR:\s*(.+)`),
	vendorRule("supplier", `\bSUPPLIER:\s*(.+)`),
	vendorRule("merchant", `\bMERCHANT:\s*(.+)`),
}

// Extract runs every rule table against text.
func Extract(text string) Fields {
	var f Fields
	lines := textstat.NonEmptyLines(text)

	if v, ok := FirstMatch(TotalRules, text); ok {
		f.Total = &v
	}
	if v, ok := FirstMatch(DateRules, text); ok {
		f.Date = &v
	}
	if v, ok := FirstMatch(InvoiceRules, text); ok {
		f.InvoiceNumber = &v
	}
	if v, ok := vendor(lines); ok {
		f.Vendor = &v
	}
	if v, ok := title(lines); ok {
		f.Title = &v
	}
	return f
}

// vendor scans the leading lines top to bottom; for each line all vendor rules are tried.
func vendor(lines []string) (string, bool) {
	if len(lines) > VendorScanLines {
		lines = lines[:VendorScanLines]
	}
	for _, line := range lines {
		if v, ok := FirstMatch(VendorRules, line); ok {
			return v, true
		}
	}
	return "", false
}

// title picks the first or, failing that, the second non-empty line if it names a document type.
func title(lines []string) (string, bool) {
	for i := 0; i < len(lines) && i < 2; i++ {
		if containsKeyword(lines[i]) {
			return lines[i], true
		}
	}
	return "", false
}

func containsKeyword(line string) bool {
	upper := strings.ToUpper(line)
	for _, kw := range titleKeywords {
		if strings.Contains(upper, kw) {
			return true
		}
	}
	return false
}

func totalRule(name, pattern string) Rule[float64] {
	return Rule[float64]{
		Name:    name,
		Pattern: regexp.MustCompile(`(?i)` + pattern),
		Normalize: func(capture string) (float64, bool) {
			v, err := strconv.ParseFloat(strings.ReplaceAll(capture, ",", ""), 64)
			return v, err == nil
		},
	}
}

func stringRule(name, pattern string, accept func(string) bool) Rule[string] {
	return Rule[string]{
		Name:      name,
		Pattern:   regexp.MustCompile(`(?i)` + pattern),
		Accept:    accept,
		Normalize: verbatim,
	}
}

func vendorRule(name, pattern string) Rule[string] {
	return Rule[string]{
		Name:    name,
		Pattern: regexp.MustCompile(`(?i)` + pattern),
		Accept: func(capture string) bool {
			return longerThan(2)(strings.TrimSpace(capture))
		},
		Normalize: func(capture string) (string, bool) {
			return strings.TrimSpace(capture), true
		},
	}
}
