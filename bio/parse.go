package bio

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/op/go-logging"
)

var log = logging.MustGetLogger("bio")

// ParseAlignment parses tab-separated read counts. The first line is
// a header: "locus" followed by cell names. Every other line contains
// a locus name followed by read counts for every cell. Lines
// starting with '#' are ignored.
func ParseAlignment(rd io.Reader) (*Alignment, error) {
	var cells, loci []string
	var counts [][]ReadCounts
	scanner := bufio.NewScanner(rd)
	scanner.Buffer(make([]byte, 0, 64*1024), 64*1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r\n ")
		if line == "" || line[0] == '#' {
			continue
		}
		fields := strings.Split(line, "\t")
		if cells == nil {
			if len(fields) < 2 {
				return nil, errors.New("header should contain at least one cell")
			}
			cells = fields[1:]
			continue
		}
		if len(fields) != len(cells)+1 {
			return nil, fmt.Errorf("line %d: expected %d fields, got %d", lineNo, len(cells)+1, len(fields))
		}
		col := make([]ReadCounts, len(cells))
		for i, f := range fields[1:] {
			rc, err := ParseReadCounts(f)
			if err != nil {
				return nil, fmt.Errorf("line %d, cell %s: %v", lineNo, cells[i], err)
			}
			col[i] = rc
		}
		loci = append(loci, fields[0])
		counts = append(counts, col)
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if cells == nil {
		return nil, errors.New("no header found")
	}
	return NewAlignment(cells, loci, counts)
}
