package shpwrite

import (
	"encoding/binary"
	"errors"
	"math"
	"strconv"
	"strings"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/cheekybits/is"
)

var testTime = time.Date(2024, time.March, 5, 0, 0, 0, 0, time.UTC)

// dbfFields parses the field descriptors of a table.
func dbfFields(data []byte) []dbfField {
	headerLength := int(binary.LittleEndian.Uint16(data[8:]))
	var fields []dbfField
	for off := 32; off+32 <= headerLength-1; off += 32 {
		fields = append(fields, dbfField{
			name:     strings.TrimRight(string(data[off:off+11]), "\x00"),
			typ:      data[off+11],
			length:   int(data[off+16]),
			decimals: int(data[off+17]),
		})
	}
	return fields
}

// dbfRow returns the cells of one record.
func dbfRow(data []byte, row int) []string {
	headerLength := int(binary.LittleEndian.Uint16(data[8:]))
	recordLength := int(binary.LittleEndian.Uint16(data[10:]))
	rec := data[headerLength+row*recordLength : headerLength+(row+1)*recordLength]

	var cells []string
	off := 1
	for _, f := range dbfFields(data) {
		cells = append(cells, string(rec[off:off+f.length]))
		off += f.length
	}
	return cells
}

func TestWriteDBF_Header(t *testing.T) {
	is := is.New(t)

	rows := []map[string]interface{}{
		{"name": "a", "value": 1.0},
		{"name": "bcd", "value": 2.0},
	}
	data, err := writeDBF(rows, EncodingUTF8, testTime)
	is.NoErr(err)

	is.Equal(data[0], byte(0x03))
	is.Equal(data[1], byte(124))
	is.Equal(data[2], byte(3))
	is.Equal(data[3], byte(5))
	is.Equal(binary.LittleEndian.Uint32(data[4:]), uint32(2))

	headerLength := int(binary.LittleEndian.Uint16(data[8:]))
	recordLength := int(binary.LittleEndian.Uint16(data[10:]))
	is.Equal(headerLength, 32+2*32+1)
	is.Equal(data[headerLength-1], byte(0x0D))
	is.Equal(recordLength, 1+3+intFieldLength)
	is.Equal(len(data), headerLength+2*recordLength+1)
	is.Equal(data[len(data)-1], byte(0x1A))
}

func TestWriteDBF_FieldTypes(t *testing.T) {
	is := is.New(t)

	rows := []map[string]interface{}{
		{"active": true, "count": 3.0, "score": 1.5, "label": "x", "tags": []interface{}{"a"}, "empty": nil},
		{"active": false, "count": 4.0, "score": 2.0, "label": "longer", "tags": nil, "empty": nil},
	}
	data, err := writeDBF(rows, EncodingUTF8, testTime)
	is.NoErr(err)

	byName := make(map[string]dbfField)
	for _, f := range dbfFields(data) {
		byName[f.name] = f
	}

	is.Equal(byName["active"].typ, byte('L'))
	is.Equal(byName["count"].typ, byte('N'))
	is.Equal(byName["count"].decimals, 0)
	is.Equal(byName["score"].typ, byte('N'))
	is.Equal(byName["score"].decimals, floatFieldDecimal)
	is.Equal(byName["label"].typ, byte('C'))
	is.Equal(byName["label"].length, 6)
	is.Equal(byName["tags"].typ, byte('C'))
	is.Equal(byName["tags"].length, len(`["a"]`))
	is.Equal(byName["empty"].typ, byte('C'))
	is.Equal(byName["empty"].length, 1)

	// Fields follow sorted key order within the first row.
	var names []string
	for _, f := range dbfFields(data) {
		names = append(names, f.name)
	}
	is.Equal(strings.Join(names, ","), "active,count,empty,label,score,tags")

	cells := dbfRow(data, 1)
	is.Equal(cells[0], "F")
	is.Equal(strings.TrimSpace(cells[1]), "4")
	is.Equal(strings.TrimSpace(cells[4]), "2.000000000000000")
	is.Equal(cells[3], "longer")
	is.Equal(strings.TrimSpace(cells[5]), "")
}

func TestWriteDBF_Promotion(t *testing.T) {
	is := is.New(t)

	rows := []map[string]interface{}{
		{"a": 1.0, "b": 1.0, "c": nil},
		{"a": 2.5, "b": "two", "c": true},
	}
	data, err := writeDBF(rows, EncodingUTF8, testTime)
	is.NoErr(err)

	fields := dbfFields(data)
	is.Equal(len(fields), 3)
	is.Equal(fields[0].decimals, floatFieldDecimal)
	is.Equal(fields[1].typ, byte('C'))
	is.Equal(fields[2].typ, byte('L'))

	cells := dbfRow(data, 0)
	is.Equal(strings.TrimSpace(cells[1]), "1")
	is.Equal(cells[2], "?")
}

func TestWriteDBF_WideNumbers(t *testing.T) {
	is := is.New(t)

	rows := []map[string]interface{}{
		{"id": int64(1234567890123456789), "big": uint64(math.MaxUint64)},
		{"id": int64(math.MinInt64), "big": uint64(1)},
	}
	data, err := writeDBF(rows, EncodingUTF8, testTime)
	is.NoErr(err)

	fields := dbfFields(data)
	is.Equal(fields[0].name, "big")
	is.Equal(fields[0].decimals, floatFieldDecimal)
	is.Equal(fields[1].length, intFieldLength)

	first, second := dbfRow(data, 0), dbfRow(data, 1)
	is.Equal(strings.TrimSpace(first[1]), "1234567890123456789")
	is.Equal(strings.TrimSpace(second[1]), "-9223372036854775808")

	big, err := strconv.ParseFloat(strings.TrimSpace(first[0]), 64)
	is.NoErr(err)
	is.Equal(big, float64(math.MaxUint64))
}

func TestWriteDBF_NoProperties(t *testing.T) {
	is := is.New(t)

	data, err := writeDBF([]map[string]interface{}{nil, {}}, EncodingUTF8, testTime)
	is.NoErr(err)

	fields := dbfFields(data)
	is.Equal(len(fields), 1)
	is.Equal(fields[0].name, fidField)
	is.Equal(strings.TrimSpace(dbfRow(data, 1)[0]), "1")
}

func TestWriteDBF_Latin1(t *testing.T) {
	is := is.New(t)

	rows := []map[string]interface{}{{"city": "Zürich"}}

	utf, err := writeDBF(rows, EncodingUTF8, testTime)
	is.NoErr(err)
	is.Equal(dbfFields(utf)[0].length, len("Zürich"))

	latin, err := writeDBF(rows, EncodingLatin1, testTime)
	is.NoErr(err)
	is.Equal(dbfFields(latin)[0].length, 6)
	is.Equal(dbfRow(latin, 0)[0], "Z\xfcrich")

	_, err = writeDBF(rows, "EBCDIC", testTime)
	is.True(errors.Is(err, ErrUnsupportedEncoding))
}

func TestUniqueFieldName(t *testing.T) {
	encode, err := newStringEncoder(EncodingUTF8)
	if err != nil {
		t.Fatal(err)
	}

	used := make(map[string]bool)
	tests := []struct {
		in       string
		expected string
	}{
		{"population", "population"},
		{"population_2020", "populati_1"},
		{"population_2021", "populati_2"},
		{"id", "id"},
		{"", "FIELD"},
		{"Name", "Name"},
		{"name", "name_1"},
		{"aéééééé", "aéééé"},
		{"aéééééé_x", "aééé_1"},
	}

	for _, tt := range tests {
		got := uniqueFieldName(tt.in, encode, true, used)
		if !utf8.ValidString(got) {
			t.Errorf("%q: invalid UTF-8 name %q", tt.in, got)
		}
		if got != tt.expected {
			t.Errorf("%q: expected %q, got %q", tt.in, tt.expected, got)
		}
	}
}

func TestTruncate_UTF8(t *testing.T) {
	s := []byte("aé") // 3 bytes
	if got := string(truncate(s, 2, true)); got != "a" {
		t.Errorf("expected %q, got %q", "a", got)
	}
	if got := truncate(s, 2, false); len(got) != 2 {
		t.Errorf("expected 2 bytes, got %d", len(got))
	}
}

func TestFormatFloat(t *testing.T) {
	if got := formatFloat(1.25, 24, 15); got != "1.250000000000000" {
		t.Errorf("unexpected %q", got)
	}
	if got := formatFloat(1e300, 24, 15); len(got) > 24 {
		t.Errorf("%q exceeds field width", got)
	}
}
