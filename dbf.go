package shpwrite

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

const (
	dbfVersion        = 0x03
	dbfHeaderLen      = 32
	dbfFieldLen       = 32
	dbfFieldEnd       = 0x0D
	dbfEOF            = 0x1A
	maxFieldNameLen   = 10
	maxCharLength     = 254
	intFieldLength    = 20
	floatFieldLength  = 24
	floatFieldDecimal = 15

	// fidField is written when a layer has no properties at all, since many
	// readers reject tables without columns.
	fidField = "FID"
)

// dbfField is one field descriptor of the table.
type dbfField struct {
	name     string
	key      string
	kind     columnKind
	typ      byte
	length   int
	decimals int
}

// stringEncoder converts text to the table's code page.
type stringEncoder func(string) []byte

func newStringEncoder(name string) (stringEncoder, error) {
	var enc encoding.Encoding
	switch strings.ToUpper(name) {
	case "", EncodingUTF8, "UTF8":
		return func(s string) []byte { return []byte(s) }, nil
	case EncodingLatin1, "LATIN1":
		enc = charmap.ISO8859_1
	case "WINDOWS-1252", "1252", "CP1252":
		enc = charmap.Windows1252
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedEncoding, name)
	}
	e := encoding.ReplaceUnsupported(enc.NewEncoder())
	return func(s string) []byte {
		out, err := e.String(s)
		if err != nil {
			return []byte(s)
		}
		return []byte(out)
	}, nil
}

// cpgName returns the code page identifier written to the .cpg file.
func cpgName(name string) string {
	switch strings.ToUpper(name) {
	case EncodingLatin1, "LATIN1":
		return EncodingLatin1
	case "WINDOWS-1252", "1252", "CP1252":
		return "1252"
	default:
		return EncodingUTF8
	}
}

// writeDBF builds a dBASE III table with one row per property map.
func writeDBF(rows []map[string]interface{}, encodingName string, modTime time.Time) ([]byte, error) {
	encode, err := newStringEncoder(encodingName)
	if err != nil {
		return nil, err
	}
	utf8Text := cpgName(encodingName) == EncodingUTF8

	fields := buildFields(rows, encode, utf8Text)

	recordLength := 1
	for _, f := range fields {
		recordLength += f.length
	}
	headerLength := dbfHeaderLen + dbfFieldLen*len(fields) + 1
	if recordLength > math.MaxUint16 || headerLength > math.MaxUint16 {
		return nil, fmt.Errorf("%w: %d dbf fields do not fit a record", ErrInvalidData, len(fields))
	}

	var buf bytes.Buffer
	buf.Grow(headerLength + recordLength*len(rows) + 1)

	header := make([]byte, dbfHeaderLen)
	header[0] = dbfVersion
	header[1] = byte(modTime.Year() - 1900)
	header[2] = byte(modTime.Month())
	header[3] = byte(modTime.Day())
	binary.LittleEndian.PutUint32(header[4:], uint32(len(rows)))
	binary.LittleEndian.PutUint16(header[8:], uint16(headerLength))
	binary.LittleEndian.PutUint16(header[10:], uint16(recordLength))
	buf.Write(header)

	for _, f := range fields {
		desc := make([]byte, dbfFieldLen)
		copy(desc[:11], f.name)
		desc[11] = f.typ
		desc[16] = byte(f.length)
		desc[17] = byte(f.decimals)
		buf.Write(desc)
	}
	buf.WriteByte(dbfFieldEnd)

	for i, props := range rows {
		buf.WriteByte(' ') // not deleted
		for _, f := range fields {
			if f.key == "" {
				buf.Write(padLeft([]byte(strconv.Itoa(i)), f.length))
				continue
			}
			cell, err := formatValue(f, props[f.key], encode, utf8Text)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", i, err)
			}
			buf.Write(cell)
		}
	}
	buf.WriteByte(dbfEOF)

	return buf.Bytes(), nil
}

// buildFields turns the inferred columns into sized field descriptors.
func buildFields(rows []map[string]interface{}, encode stringEncoder, utf8Text bool) []*dbfField {
	columns := inferColumns(rows)
	if len(columns) == 0 {
		return []*dbfField{{name: fidField, kind: kindInt, typ: 'N', length: intFieldLength}}
	}

	used := make(map[string]bool, len(columns))
	fields := make([]*dbfField, 0, len(columns))
	for _, col := range columns {
		f := &dbfField{
			name: uniqueFieldName(col.key, encode, utf8Text, used),
			key:  col.key,
			kind: col.kind,
		}
		switch col.kind {
		case kindBool:
			f.typ, f.length = 'L', 1
		case kindInt:
			f.typ, f.length = 'N', intFieldLength
		case kindFloat:
			f.typ, f.length, f.decimals = 'N', floatFieldLength, floatFieldDecimal
		default:
			f.typ, f.length = 'C', 1
			for _, props := range rows {
				if n := len(truncate(encode(toString(props[col.key])), maxCharLength, utf8Text)); n > f.length {
					f.length = n
				}
			}
		}
		fields = append(fields, f)
	}
	return fields
}

// uniqueFieldName truncates name to the dBASE limit and appends a counter
// when the truncated name is taken. Readers match field names without
// regard to case, so used is keyed on the upper-cased name.
func uniqueFieldName(name string, encode stringEncoder, utf8Text bool, used map[string]bool) string {
	base := truncate(encode(name), maxFieldNameLen, utf8Text)
	if len(base) == 0 {
		base = []byte("FIELD")
	}
	candidate := string(base)
	for n := 1; used[strings.ToUpper(candidate)]; n++ {
		suffix := "_" + strconv.Itoa(n)
		candidate = string(truncate(base, maxFieldNameLen-len(suffix), utf8Text)) + suffix
	}
	used[strings.ToUpper(candidate)] = true
	return candidate
}

// truncate cuts b to at most n bytes without splitting a UTF-8 sequence when
// utf8Text is set.
func truncate(b []byte, n int, utf8Text bool) []byte {
	if len(b) <= n {
		return b
	}
	b = b[:n]
	if utf8Text {
		for len(b) > 0 && !utf8.Valid(b) {
			b = b[:len(b)-1]
		}
	}
	return b
}

// formatValue renders one cell padded to the field length. Numbers that do
// not fit the field are an error, strings are truncated.
func formatValue(f *dbfField, value interface{}, encode stringEncoder, utf8Text bool) ([]byte, error) {
	if value == nil {
		if f.typ == 'L' {
			return []byte{'?'}, nil
		}
		return bytes.Repeat([]byte{' '}, f.length), nil
	}

	switch f.typ {
	case 'L':
		if b, ok := value.(bool); ok && b {
			return []byte{'T'}, nil
		}
		return []byte{'F'}, nil

	case 'N':
		var s string
		if f.decimals == 0 {
			i, ok := toInt64(value)
			if !ok {
				return bytes.Repeat([]byte{' '}, f.length), nil
			}
			s = strconv.FormatInt(i, 10)
		} else {
			v, ok := toFloat64(value)
			if !ok {
				return bytes.Repeat([]byte{' '}, f.length), nil
			}
			s = formatFloat(v, f.length, f.decimals)
		}
		if len(s) > f.length {
			return nil, fmt.Errorf("%w: %s value %s exceeds %d characters", ErrInvalidData, f.name, s, f.length)
		}
		return padLeft([]byte(s), f.length), nil

	default:
		return padRight(truncate(encode(toString(value)), f.length, utf8Text), f.length), nil
	}
}

// formatFloat renders v with fixed decimals, falling back to exponent
// notation when the fixed form does not fit.
func formatFloat(v float64, width, decimals int) string {
	s := strconv.FormatFloat(v, 'f', decimals, 64)
	if len(s) <= width {
		return s
	}
	return strconv.FormatFloat(v, 'e', width-8, 64)
}

func padLeft(b []byte, n int) []byte {
	if len(b) >= n {
		return b
	}
	out := bytes.Repeat([]byte{' '}, n-len(b))
	return append(out, b...)
}

func padRight(b []byte, n int) []byte {
	if len(b) >= n {
		return b[:n]
	}
	out := make([]byte, n)
	copy(out, b)
	for i := len(b); i < n; i++ {
		out[i] = ' '
	}
	return out
}
