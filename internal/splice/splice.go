package splice

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
)

const (
	StartMarker = "<!-- Insert Here -->"
	EndMarker   = "<!-- End Here -->"
)

// Markers delimit the generated region of a host document. A line belongs to
// a marker when it contains the marker text.
type Markers struct {
	Start string
	End   string
}

func DefaultMarkers() Markers {
	return Markers{Start: StartMarker, End: EndMarker}
}

func (m Markers) orDefault() Markers {
	d := DefaultMarkers()
	if strings.TrimSpace(m.Start) == "" {
		m.Start = d.Start
	}
	if strings.TrimSpace(m.End) == "" {
		m.End = d.End
	}
	return m
}

type state int

const (
	copying state = iota
	suppressing
)

// Result describes what a splice did to the host document.
type Result struct {
	SawStart  bool
	Inserted  bool // end marker seen, fragment written before it
	Discarded int  // lines dropped while suppressing
}

// Splice copies r to w line by line, replacing everything between the start
// and end marker lines with fragment. Both marker lines are kept. Without an
// end marker nothing is inserted; lines after an unmatched start marker are
// dropped.
func Splice(r io.Reader, w io.Writer, fragment string, m Markers) (Result, error) {
	m = m.orDefault()
	var res Result
	st := copying
	br := bufio.NewReader(r)
	for {
		line, err := br.ReadString('\n')
		if line != "" {
			if strings.Contains(line, m.End) {
				if _, werr := io.WriteString(w, fragment); werr != nil {
					return res, werr
				}
				res.Inserted = true
				st = copying
			}
			if st == copying {
				if _, werr := io.WriteString(w, line); werr != nil {
					return res, werr
				}
			} else {
				res.Discarded++
			}
			if strings.Contains(line, m.Start) {
				res.SawStart = true
				st = suppressing
			}
		}
		if err == io.EOF {
			return res, nil
		}
		if err != nil {
			return res, err
		}
	}
}

// File splices fragment into the host document at path. The file is read
// fully, rebuilt in memory and then truncated and rewritten in place.
func File(path, fragment string, m Markers) (Result, error) {
	info, err := os.Stat(path)
	if err != nil {
		return Result{}, err
	}
	src, err := os.ReadFile(path)
	if err != nil {
		return Result{}, err
	}
	var buf bytes.Buffer
	res, err := Splice(bytes.NewReader(src), &buf, fragment, m)
	if err != nil {
		return res, fmt.Errorf("rewrite %s: %w", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), info.Mode().Perm()); err != nil {
		return res, err
	}
	return res, nil
}

// Preview returns the rewritten document without touching the file.
func Preview(path, fragment string, m Markers) ([]byte, Result, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, Result{}, err
	}
	var buf bytes.Buffer
	res, err := Splice(bytes.NewReader(src), &buf, fragment, m)
	if err != nil {
		return nil, res, err
	}
	return buf.Bytes(), res, nil
}
