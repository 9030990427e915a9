// Package ofx reads bank statement exports in the SGML-flavoured OFX
// shape banks actually emit: tokens are opening tags with no closing
// tag, and a <STMTTRN> block may sit on one line or span several.
package ofx

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"
)

// FormatError reports statement text that does not carry an expected
// token.
type FormatError struct {
	Msg string
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("unexpected OFX format: %s", e.Msg)
}

// Transaction is one <STMTTRN> record. DtPosted keeps only the posting
// day; the time of day banks attach is dropped.
type Transaction struct {
	FitID    string
	DtPosted time.Time
	TrnAmt   float64
	TrnType  string
	Name     string
	Memo     string
}

// File is a parsed statement: the account header plus its transactions.
type File struct {
	BankID       string
	AcctID       string
	AcctType     string
	Transactions []Transaction
}

// matchTokens pulls each token's value out of raw. A token's value runs
// from its opening tag to the next tag. Every requested token must be
// present.
func matchTokens(raw string, tokens []string) (map[string]string, error) {
	matches := make(map[string]string, len(tokens))
	for _, token := range tokens {
		re := regexp.MustCompile(`<` + regexp.QuoteMeta(token) + `>(.*?)<`)
		m := re.FindStringSubmatch(raw)
		if m == nil {
			return nil, &FormatError{Msg: fmt.Sprintf("could not find <%s> token in %s", token, raw)}
		}
		matches[token] = m[1]
	}
	return matches, nil
}

var (
	dateLong  = regexp.MustCompile(`^\d{14}`)
	dateShort = regexp.MustCompile(`^\d{8}`)
)

// dateLayout picks the strptime layout for a DTPOSTED value. The long
// form is the default; a value that fits neither shape fails in
// time.Parse with a message that names the layout.
func dateLayout(datelike string) string {
	switch {
	case dateLong.MatchString(datelike):
		return "20060102150405"
	case dateShort.MatchString(datelike):
		return "20060102"
	default:
		return "20060102150405"
	}
}

var transactionTokens = []string{"FITID", "DTPOSTED", "TRNAMT", "TRNTYPE", "NAME", "MEMO"}

// parseRecord reads one raw <STMTTRN> block.
func parseRecord(raw string) (Transaction, error) {
	matches, err := matchTokens(raw, transactionTokens)
	if err != nil {
		return Transaction{}, err
	}
	layout := dateLayout(matches["DTPOSTED"])
	posted, err := time.Parse(layout, matches["DTPOSTED"])
	if err != nil {
		return Transaction{}, err
	}
	posted = posted.Truncate(24 * time.Hour)
	amt, err := strconv.ParseFloat(matches["TRNAMT"], 64)
	if err != nil {
		return Transaction{}, err
	}
	return Transaction{
		FitID:    matches["FITID"],
		DtPosted: posted,
		TrnAmt:   amt,
		TrnType:  matches["TRNTYPE"],
		Name:     matches["NAME"],
		Memo:     matches["MEMO"],
	}, nil
}

// Parse reads a statement. Lines outside <STMTTRN> blocks accumulate
// into the header; a block either sits whole on one line or accumulates
// from its start marker to its end marker.
func Parse(r io.Reader) (File, error) {
	var (
		header      strings.Builder
		rawRecords  []string
		accumulator strings.Builder
		accumulate  bool
	)

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case strings.Contains(line, "<STMTTRN>") && strings.Contains(line, "</STMTTRN>"):
			rawRecords = append(rawRecords, line)
		case line == "</STMTTRN>":
			accumulator.WriteString(line)
			rawRecords = append(rawRecords, accumulator.String())
			accumulator.Reset()
			accumulate = false
		case line == "<STMTTRN>":
			accumulate = true
			accumulator.WriteString(line)
		case accumulate:
			accumulator.WriteString(line)
		default:
			header.WriteString(line)
		}
	}
	if err := scanner.Err(); err != nil {
		return File{}, err
	}

	headerMatches, err := matchTokens(header.String(), []string{"BANKID", "ACCTID", "ACCTTYPE"})
	if err != nil {
		return File{}, err
	}

	file := File{
		BankID:   headerMatches["BANKID"],
		AcctID:   headerMatches["ACCTID"],
		AcctType: headerMatches["ACCTTYPE"],
	}
	for _, raw := range rawRecords {
		txn, err := parseRecord(raw)
		if err != nil {
			return File{}, err
		}
		file.Transactions = append(file.Transactions, txn)
	}
	return file, nil
}

// Render writes the statement back out in the multi-line shape, one tag
// per line. Parse(Render(f)) round-trips.
func Render(w io.Writer, f File) error {
	var b strings.Builder
	b.WriteString("<OFX>\n<BANKACCTFROM>\n")
	fmt.Fprintf(&b, "<BANKID>%s\n<ACCTID>%s\n<ACCTTYPE>%s\n", f.BankID, f.AcctID, f.AcctType)
	b.WriteString("</BANKACCTFROM>\n<BANKTRANLIST>\n")
	for _, txn := range f.Transactions {
		b.WriteString("<STMTTRN>\n")
		fmt.Fprintf(&b, "<TRNTYPE>%s\n", txn.TrnType)
		fmt.Fprintf(&b, "<DTPOSTED>%s\n", txn.DtPosted.Format("20060102150405"))
		fmt.Fprintf(&b, "<TRNAMT>%.2f\n", txn.TrnAmt)
		fmt.Fprintf(&b, "<FITID>%s\n", txn.FitID)
		fmt.Fprintf(&b, "<NAME>%s\n", txn.Name)
		fmt.Fprintf(&b, "<MEMO>%s\n", txn.Memo)
		b.WriteString("</STMTTRN>\n")
	}
	b.WriteString("</BANKTRANLIST>\n</OFX>\n")
	_, err := io.WriteString(w, b.String())
	return err
}

// ParseFile reads a statement from disk.
func ParseFile(path string) (File, error) {
	f, err := os.Open(path)
	if err != nil {
		return File{}, err
	}
	defer f.Close()
	return Parse(f)
}
