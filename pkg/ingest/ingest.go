/*
Package ingest reads monthly annotation exports into pipeline rows.

A month file is a CSV export of the coding spreadsheet, named with its
period in ROC calendar form, e.g. "死因資料(11203).csv" for March 2023.
The header row holds NO, 流水號, the twenty input columns 甲, 甲2 ... 其他4
and the twenty reference columns with a ".1" suffix. Title rows above the
header are skipped.
*/
package ingest

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/bastiangx/icdnorm/internal/utils"
	"github.com/bastiangx/icdnorm/pkg/record"
	"github.com/charmbracelet/log"
)

const (
	// ColumnNumber is the row number column.
	ColumnNumber = "NO"
	// ColumnSerial is the certificate serial column.
	ColumnSerial = "流水號"
	// TargetSuffix marks reference columns.
	TargetSuffix = ".1"

	// maxTitleRows bounds the search for the header row.
	maxTitleRows = 5
)

var (
	ErrFileName = errors.New("file name has no (YYYMM) period")
	ErrNoHeader = errors.New("no header row")
)

// FileMeta describes a month file.
type FileMeta struct {
	Path  string
	Name  string
	Year  int // ROC year
	Month int
}

// Period returns the YYYMM label of the file.
func (m FileMeta) Period() string {
	return fmt.Sprintf("%03d%02d", m.Year, m.Month)
}

// ParseFileName extracts the period from a name like "xxx(11203)xxx.csv".
func ParseFileName(path string) (FileMeta, error) {
	base := filepath.Base(path)
	meta := FileMeta{Path: path, Name: strings.TrimSuffix(base, filepath.Ext(base))}

	open := strings.Index(base, "(")
	if open < 0 {
		return meta, fmt.Errorf("%s: %w", base, ErrFileName)
	}
	period, _, ok := strings.Cut(base[open+1:], ")")
	if !ok || len(period) < 4 || !utils.IsOnlyNumbers(period) {
		return meta, fmt.Errorf("%s: %w", base, ErrFileName)
	}
	meta.Year, _ = strconv.Atoi(period[:3])
	meta.Month, _ = strconv.Atoi(period[3:])
	if meta.Month < 1 || meta.Month > 12 {
		return meta, fmt.Errorf("%s: month %d out of range: %w", base, meta.Month, ErrFileName)
	}
	return meta, nil
}

// ListFiles returns the month files of dir in name order. Spreadsheet lock
// files (~$) and the (00000) template are skipped.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var files []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.EqualFold(filepath.Ext(name), ".csv") {
			continue
		}
		if strings.HasPrefix(name, "~$") || strings.Contains(name, "(00000)") {
			log.Debugf("Skipping %s", name)
			continue
		}
		files = append(files, filepath.Join(dir, name))
	}
	return files, nil
}

// Reader reads month files in one text encoding.
type Reader struct {
	encoding string
}

// NewReader creates a Reader. enc is a WHATWG label such as "big5"; empty means UTF-8.
func NewReader(enc string) *Reader {
	return &Reader{encoding: enc}
}

// ReadFile reads every data row of a month file. Inputs and targets are NFKC
// normalized; absent columns read as empty slots.
func (r *Reader) ReadFile(path string) (FileMeta, []record.Row, error) {
	meta, err := ParseFileName(path)
	if err != nil {
		return meta, nil, err
	}

	src, closer, err := utils.OpenText(path, r.encoding)
	if err != nil {
		return meta, nil, err
	}
	defer closer.Close()

	cr := csv.NewReader(src)
	cr.LazyQuotes = true
	cr.FieldsPerRecord = -1

	cols, err := readHeader(cr)
	if err != nil {
		return meta, nil, fmt.Errorf("%s: %w", meta.Name, err)
	}
	if missing := cols.missing(); len(missing) > 0 {
		log.Warnf("%s: missing columns %v", meta.Name, missing)
	}

	var rows []record.Row
	for line := 1; ; line++ {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return meta, nil, fmt.Errorf("%s: %w", meta.Name, err)
		}
		if blank(fields) {
			continue
		}
		row := cols.row(fields)
		row.Year, row.Month = meta.Year, meta.Month
		rows = append(rows, row)
	}
	log.Debugf("Read %d rows from %s", len(rows), meta.Name)
	return meta, rows, nil
}

// columns maps header names to field indexes; -1 means absent.
type columns struct {
	number, serial int
	inputs         map[record.Category][record.SlotWidth]int
	targets        map[record.Category][record.SlotWidth]int
}

func readHeader(cr *csv.Reader) (*columns, error) {
	for range maxTitleRows {
		fields, err := cr.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		positions := make(map[string][]int, len(fields))
		for i, name := range fields {
			name = utils.TrimBOM(strings.TrimSpace(name))
			positions[name] = append(positions[name], i)
		}
		if _, ok := positions[ColumnSerial]; ok {
			return newColumns(positions), nil
		}
	}
	return nil, ErrNoHeader
}

// newColumns resolves every column. A reference column is either named with
// the .1 suffix or is the second column carrying the input name.
func newColumns(positions map[string][]int) *columns {
	at := func(name string, n int) int {
		if p := positions[name]; len(p) > n {
			return p[n]
		}
		return -1
	}
	c := &columns{
		number:  at(ColumnNumber, 0),
		serial:  at(ColumnSerial, 0),
		inputs:  make(map[record.Category][record.SlotWidth]int, len(record.Categories)),
		targets: make(map[record.Category][record.SlotWidth]int, len(record.Categories)),
	}
	for _, cat := range record.Categories {
		var in, tg [record.SlotWidth]int
		for i := range record.SlotWidth {
			name := cat.Column(i)
			in[i] = at(name, 0)
			if tg[i] = at(name+TargetSuffix, 0); tg[i] < 0 {
				tg[i] = at(name, 1)
			}
		}
		c.inputs[cat], c.targets[cat] = in, tg
	}
	return c
}

func (c *columns) missing() []string {
	var out []string
	if c.number < 0 {
		out = append(out, ColumnNumber)
	}
	if c.serial < 0 {
		out = append(out, ColumnSerial)
	}
	for _, cat := range record.Categories {
		for i := range record.SlotWidth {
			if c.inputs[cat][i] < 0 {
				out = append(out, cat.Column(i))
			}
			if c.targets[cat][i] < 0 {
				out = append(out, cat.Column(i)+TargetSuffix)
			}
		}
	}
	return out
}

func (c *columns) row(fields []string) record.Row {
	row := record.NewRow()
	row.Number = parseInt(field(fields, c.number))
	row.Serial = parseInt(field(fields, c.serial))
	for _, cat := range record.Categories {
		var in, tg record.Slots
		for i := range record.SlotWidth {
			in[i] = utils.NormalizeNFKC(field(fields, c.inputs[cat][i]))
			tg[i] = utils.NormalizeNFKC(field(fields, c.targets[cat][i]))
		}
		row.Inputs[cat], row.Targets[cat] = in, tg
	}
	return row
}

func field(fields []string, i int) string {
	if i < 0 || i >= len(fields) {
		return ""
	}
	return fields[i]
}

// parseInt reads integer cells, including spreadsheet floats like "12.0". Blank or bad cells read as 0.
func parseInt(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return int(f)
	}
	log.Debugf("Unparsable integer cell %q", s)
	return 0
}

func blank(fields []string) bool {
	for _, f := range fields {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
