// =============================================================================
// YPBank Converter - XML Codec
// =============================================================================
//
// This module reads and writes transaction sequences as XML documents.
//
// XML STRUCTURE:
//
//   <?xml version="1.0" encoding="UTF-8"?>
//   <transactions>
//     <transaction n="1">                   <!-- n is the 1-based position -->
//       <id>1001</id>
//       <type>DEPOSIT</type>
//       <from_user>0</from_user>
//       <to_user>501</to_user>
//       <amount>50000</amount>
//       <timestamp>1672531200000</timestamp>
//       <status>SUCCESS</status>
//       <description>Initial account funding</description>
//     </transaction>
//   </transactions>
//
// NOTES:
//   - Child elements are matched by name; their order is free on decode.
//   - The n attribute is informational and ignored on decode.
//   - XML 1.0 cannot carry most control characters. A description holding
//     one is rejected on encode rather than silently replaced.
//
// =============================================================================

package xmlcodec

import (
	"bufio"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/ginjaninja78/ypbank-converter/internal/formats"
	"github.com/ginjaninja78/ypbank-converter/internal/types"
)

// Name is the registered format name.
const Name = "xml"

const (
	rootElement        = "transactions"
	transactionElement = "transaction"
)

// elementNames lists the child elements of <transaction> in field order.
var elementNames = []string{"id", "type", "from_user", "to_user", "amount", "timestamp", "status", "description"}

// elementFields maps child element names to transaction fields.
var elementFields = func() map[string]string {
	m := make(map[string]string, len(elementNames))
	for i, name := range elementNames {
		m[name] = types.FieldNames[i]
	}
	return m
}()

func init() {
	formats.Register(Codec{})
}

// Codec implements formats.Codec for XML.
type Codec struct{}

func (Codec) Name() string         { return Name }
func (Codec) Extensions() []string { return []string{".xml"} }

func (Codec) Decode(r io.Reader) ([]types.Transaction, error) { return Decode(r) }

func (Codec) Encode(w io.Writer, txs []types.Transaction) error { return Encode(w, txs) }

// =============================================================================
// XML DOCUMENT ELEMENTS
// =============================================================================

// record is the encoded form of one transaction.
type record struct {
	XMLName     xml.Name       `xml:"transaction"`
	N           int            `xml:"n,attr"`
	ID          uint64         `xml:"id"`
	Type        types.TxType   `xml:"type"`
	FromUser    uint64         `xml:"from_user"`
	ToUser      uint64         `xml:"to_user"`
	Amount      uint64         `xml:"amount"`
	Timestamp   uint64         `xml:"timestamp"`
	Status      types.TxStatus `xml:"status"`
	Description string         `xml:"description"`
}

// rawRecord captures every child element of a <transaction> so that unknown,
// duplicate and missing elements can be reported.
type rawRecord struct {
	Fields []rawField `xml:",any"`
}

type rawField struct {
	XMLName xml.Name
	Value   string `xml:",chardata"`
}

// =============================================================================
// DECODING
// =============================================================================

// Decode reads a <transactions> document.
//
// RETURNS:
//   - The transactions in document order (never nil on success).
//   - A *types.DecodeError carrying the 0-based index of the offending
//     <transaction> element.
func Decode(r io.Reader) ([]types.Transaction, error) {
	decoder := xml.NewDecoder(bufio.NewReader(r))

	if err := findRoot(decoder); err != nil {
		return nil, err
	}

	txs := []types.Transaction{}
	for {
		loc := types.AtRecord(len(txs))

		tok, err := decoder.Token()
		if err == io.EOF {
			return nil, types.NewDecodeError(Name, loc,
				fmt.Errorf("%w: document ends before </%s>", types.ErrTruncated, rootElement))
		}
		if err != nil {
			return nil, syntaxError(loc, err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if t.Name.Local != transactionElement {
				return nil, types.NewDecodeError(Name, loc,
					fmt.Errorf("%w: unexpected element <%s> in <%s>", types.ErrFormat, t.Name.Local, rootElement))
			}
			var raw rawRecord
			if err := decoder.DecodeElement(&raw, &t); err != nil {
				return nil, syntaxError(loc, err)
			}
			tx, err := raw.transaction()
			if err != nil {
				return nil, types.NewDecodeError(Name, loc, err)
			}
			txs = append(txs, tx)

		case xml.EndElement:
			return txs, nil

		case xml.CharData:
			if len(strings.TrimSpace(string(t))) > 0 {
				return nil, types.NewDecodeError(Name, loc,
					fmt.Errorf("%w: unexpected text in <%s>", types.ErrFormat, rootElement))
			}
		}
	}
}

// findRoot advances the decoder past the <transactions> start tag.
func findRoot(decoder *xml.Decoder) error {
	for {
		tok, err := decoder.Token()
		if err == io.EOF {
			return types.NewDecodeError(Name, types.Locator{},
				fmt.Errorf("%w: no <%s> element", types.ErrFormat, rootElement))
		}
		if err != nil {
			return syntaxError(types.Locator{}, err)
		}
		if start, ok := tok.(xml.StartElement); ok {
			if start.Name.Local != rootElement {
				return types.NewDecodeError(Name, types.Locator{},
					fmt.Errorf("%w: root element is <%s>, expected <%s>", types.ErrFormat, start.Name.Local, rootElement))
			}
			return nil
		}
	}
}

func (raw rawRecord) transaction() (types.Transaction, error) {
	var tx types.Transaction
	seen := make(map[string]bool, len(elementFields))

	for _, f := range raw.Fields {
		name := f.XMLName.Local
		field, ok := elementFields[name]
		if !ok {
			return tx, &types.FieldError{Field: name, Err: types.ErrUnknownKey}
		}
		if seen[name] {
			return tx, &types.FieldError{Field: field, Value: f.Value, Err: types.ErrDuplicateKey}
		}
		seen[name] = true

		if err := tx.SetField(field, f.Value); err != nil {
			return tx, err
		}
	}

	for i, name := range elementNames {
		if !seen[name] {
			return tx, &types.FieldError{Field: types.FieldNames[i], Err: fmt.Errorf("%w: <%s>", types.ErrMissingKey, name)}
		}
	}
	return tx, nil
}

// syntaxError classifies a decoder failure. Syntax errors are malformed
// input; anything else comes from the underlying reader.
func syntaxError(loc types.Locator, err error) error {
	var se *xml.SyntaxError
	if errors.As(err, &se) || errors.Is(err, io.ErrUnexpectedEOF) {
		return types.NewDecodeError(Name, loc, fmt.Errorf("%w: %v", types.ErrMalformed, err))
	}
	return types.NewDecodeError(Name, loc, err)
}

// =============================================================================
// ENCODING
// =============================================================================

// Encode writes an indented document with an XML declaration.
func Encode(w io.Writer, txs []types.Transaction) error {
	bw := bufio.NewWriter(w)
	bw.WriteString(xml.Header)

	encoder := xml.NewEncoder(bw)
	encoder.Indent("", "  ")

	root := xml.StartElement{Name: xml.Name{Local: rootElement}}
	if err := encoder.EncodeToken(root); err != nil {
		return types.NewEncodeError(Name, -1, err)
	}

	for i, tx := range txs {
		if err := tx.Validate(); err != nil {
			return types.NewEncodeError(Name, i, err)
		}
		if err := checkText(tx.Description); err != nil {
			return types.NewEncodeError(Name, i, &types.FieldError{Field: types.FieldDescription, Err: err})
		}
		if err := encoder.Encode(newRecord(i, tx)); err != nil {
			return types.NewEncodeError(Name, i, err)
		}
	}

	if err := encoder.EncodeToken(root.End()); err != nil {
		return types.NewEncodeError(Name, -1, err)
	}
	if err := encoder.Flush(); err != nil {
		return types.NewEncodeError(Name, -1, err)
	}
	bw.WriteString("\n")

	if err := bw.Flush(); err != nil {
		return types.NewEncodeError(Name, -1, err)
	}
	return nil
}

func newRecord(i int, tx types.Transaction) record {
	return record{
		N:           i + 1,
		ID:          tx.ID,
		Type:        tx.Type,
		FromUser:    tx.FromUser,
		ToUser:      tx.ToUser,
		Amount:      tx.Amount,
		Timestamp:   tx.Timestamp,
		Status:      tx.Status,
		Description: tx.Description,
	}
}

// checkText rejects text that XML 1.0 character data cannot represent.
func checkText(s string) error {
	if !utf8.ValidString(s) {
		return errors.New("not valid UTF-8")
	}
	for i, r := range s {
		if !isXMLChar(r) {
			return fmt.Errorf("character %U at byte %d is not allowed in XML", r, i)
		}
	}
	return nil
}

func isXMLChar(r rune) bool {
	return r == 0x09 || r == 0x0A || r == 0x0D ||
		r >= 0x20 && r <= 0xD7FF ||
		r >= 0xE000 && r <= 0xFFFD ||
		r >= 0x10000 && r <= 0x10FFFF
}
