package inspect

import (
	"bytes"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/unicode"

	"github.com/kirillkom/procura/internal/core/domain"
)

var ErrMalformed = errors.New("malformed pdf")

// PageCount parses the document and returns its number of pages.
func PageCount(content []byte) (n int, err error) {
	defer recoverMalformed(&err)

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return r.NumPage(), nil
}

// Lines extracts the text of every page, top to bottom, one entry per visual line.
func Lines(content []byte) (lines []string, err error) {
	defer recoverMalformed(&err)

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		lines = append(lines, pageLines(pageRuns(page))...)
	}
	return lines, nil
}

// run is one shown string placed at the origin of its text object.
type run struct {
	x, y float64
	text string
}

type decoder func(raw string) string

// pageRuns walks the content stream and decodes every shown string with its
// font's encoding. Identity-H fonts carry UTF-16BE code points; simple fonts
// are WinAnsi.
func pageRuns(page pdf.Page) []run {
	contents := page.V.Key("Contents")
	if contents.IsNull() {
		return nil
	}

	var (
		runs []run
		x, y float64
		dec  decoder = decodeWinAnsi
	)
	fonts := make(map[string]decoder)
	show := func(v pdf.Value) {
		var b strings.Builder
		switch v.Kind() {
		case pdf.String:
			b.WriteString(dec(v.RawString()))
		case pdf.Array:
			for i := 0; i < v.Len(); i++ {
				if el := v.Index(i); el.Kind() == pdf.String {
					b.WriteString(dec(el.RawString()))
				}
			}
		}
		if b.Len() > 0 {
			runs = append(runs, run{x: x, y: y, text: b.String()})
		}
	}

	pdf.Interpret(contents, func(stk *pdf.Stack, op string) {
		args := make([]pdf.Value, stk.Len())
		for i := len(args) - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}
		switch op {
		case "BT":
			x, y = 0, 0
		case "Td", "TD":
			if len(args) == 2 {
				x += args[0].Float64()
				y += args[1].Float64()
			}
		case "Tm":
			if len(args) == 6 {
				x, y = args[4].Float64(), args[5].Float64()
			}
		case "Tf":
			if len(args) == 2 {
				dec = fontDecoder(page, args[0].Name(), fonts)
			}
		case "Tj", "TJ", "'", `"`:
			if len(args) > 0 {
				show(args[len(args)-1])
			}
		}
	})
	return runs
}

func fontDecoder(page pdf.Page, name string, cache map[string]decoder) decoder {
	if d, ok := cache[name]; ok {
		return d
	}
	d := decoder(decodeWinAnsi)
	if page.Font(name).V.Key("Encoding").Name() == "Identity-H" {
		d = decodeUTF16
	}
	cache[name] = d
	return d
}

func decodeWinAnsi(raw string) string {
	s, err := charmap.Windows1252.NewDecoder().String(raw)
	if err != nil {
		return raw
	}
	return s
}

func decodeUTF16(raw string) string {
	s, err := unicode.UTF16(unicode.BigEndian, unicode.IgnoreBOM).NewDecoder().String(raw)
	if err != nil {
		return raw
	}
	return s
}

func pageLines(runs []run) []string {
	rows := make(map[int][]run)
	for _, r := range runs {
		y := int(math.Round(r.y))
		rows[y] = append(rows[y], r)
	}

	ys := make([]int, 0, len(rows))
	for y := range rows {
		ys = append(ys, y)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(ys)))

	out := make([]string, 0, len(ys))
	for _, y := range ys {
		row := rows[y]
		sort.SliceStable(row, func(i, j int) bool { return row[i].x < row[j].x })
		var b strings.Builder
		for _, r := range row {
			b.WriteString(r.text)
		}
		if line := strings.Join(strings.Fields(b.String()), " "); line != "" {
			out = append(out, line)
		}
	}
	return out
}

func recoverMalformed(err *error) {
	if r := recover(); r != nil {
		*err = fmt.Errorf("%w: %v", ErrMalformed, r)
	}
}

// Verifier reads a rendered procura back and checks it is a single page carrying its title.
type Verifier struct{}

func NewVerifier() *Verifier {
	return &Verifier{}
}

func (v *Verifier) Verify(content []byte, doc domain.ProcuraDocument) error {
	lines, err := Lines(content)
	if err != nil {
		return err
	}
	pages, err := PageCount(content)
	if err != nil {
		return err
	}
	if pages != 1 {
		return fmt.Errorf("expected a single page, got %d", pages)
	}
	if doc.Title != "" && !containsLine(lines, doc.Title) {
		return fmt.Errorf("title %q not found in rendered text", doc.Title)
	}
	return nil
}

func containsLine(lines []string, want string) bool {
	want = strings.Join(strings.Fields(want), " ")
	for _, line := range lines {
		if strings.Contains(line, want) {
			return true
		}
	}
	return false
}
