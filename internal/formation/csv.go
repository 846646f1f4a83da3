package formation

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"parcoursupstats/internal/components/assert"
	"parcoursupstats/internal/components/telemetry"
	"strconv"
)

const report_csv_write_row = "csv.write-row"

// Header is the column order of the CSV file.
var Header = []string{
	"etablissement",
	"ville",
	"academie",
	"url",
	"formation",
	"classes",
	"places",
	"places17",
	"voeux",
	"voeux17",
	"boursier",
}

// Row renders f in Header order, its link resolved against base.
func (f Formation) Row(base *url.URL) ([]string, error) {
	link, err := AbsoluteURL(base, f.Link)
	if err != nil {
		return nil, err
	}
	return []string{
		f.School,
		f.City,
		f.Academy,
		link,
		f.Program,
		strconv.Itoa(f.Figures.Classes),
		strconv.Itoa(f.Figures.Seats),
		strconv.Itoa(f.Figures.SeatsPriorYear),
		strconv.Itoa(f.Figures.Vows),
		strconv.Itoa(f.Figures.VowsPriorYear),
		f.Figures.ScholarshipQuota,
	}, nil
}

type WriteOptions struct {
	// BaseUrl is the portal base that detail links are relative to.
	BaseUrl *url.URL
	Tel     telemetry.API
	// Progress, if set, is called after every formation, written or skipped.
	Progress func(done, total int)
}

// WriteCSV writes the header then one row per formation. A formation that cannot be
// rendered is reported and skipped, only write errors abort. It returns the amount
// of rows written, the header excluded.
func WriteCSV(w io.Writer, formations []Formation, opts WriteOptions) (int, error) {
	assert.NotNilPtr(opts.BaseUrl, "base url")
	assert.NotNil(opts.Tel, "telemetry")

	writer := csv.NewWriter(w)
	err := writer.Write(Header)
	if err != nil {
		return 0, err
	}

	written := 0
	for i, f := range formations {
		row, err := f.Row(opts.BaseUrl)
		if err != nil {
			opts.Tel.ReportWarning(
				report_csv_write_row,
				fmt.Errorf("skip row %d: %w", i, err),
				f.School,
				f.Program,
			)
		} else {
			err = writer.Write(row)
			if err != nil {
				return written, err
			}
			written++
		}
		if opts.Progress != nil {
			opts.Progress(i+1, len(formations))
		}
	}

	writer.Flush()
	return written, writer.Error()
}

// WriteCSVFile creates or truncates path and writes the formations to it.
func WriteCSVFile(path string, formations []Formation, opts WriteOptions) (int, error) {
	file, err := os.Create(path)
	if err != nil {
		return 0, err
	}
	written, err := WriteCSV(file, formations, opts)
	return written, errors.Join(err, file.Close())
}

var ErrBadHeader = errors.New("csv header does not match the formation columns")

// ReadCSV parses a file produced by WriteCSV. Link holds the absolute url and
// Complete is always false since the file does not record it.
func ReadCSV(r io.Reader) ([]Formation, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = len(Header)

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, ErrBadHeader
	}
	if err != nil {
		return nil, err
	}
	for i, col := range Header {
		if header[i] != col {
			return nil, fmt.Errorf("%w: column %d is '%s', expected '%s'", ErrBadHeader, i, header[i], col)
		}
	}

	var out []Formation
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return nil, err
		}

		f := Formation{
			School:  record[0],
			City:    record[1],
			Academy: record[2],
			Link:    record[3],
			Program: record[4],
			Figures: Figures{ScholarshipQuota: record[10]},
		}
		numbers := []*int{
			&f.Figures.Classes,
			&f.Figures.Seats,
			&f.Figures.SeatsPriorYear,
			&f.Figures.Vows,
			&f.Figures.VowsPriorYear,
		}
		for i, target := range numbers {
			line, _ := reader.FieldPos(5 + i)
			*target, err = strconv.Atoi(record[5+i])
			if err != nil {
				return nil, fmt.Errorf("line %d, column %s: %w", line, Header[5+i], err)
			}
		}
		out = append(out, f)
	}
}
