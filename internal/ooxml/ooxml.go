// Package ooxml reads Office Open XML containers directly, without an
// external engine. It covers the structural-parse needs of the conversion
// chains: slide text extraction for presentations and archive statistics
// for placeholder report pages.
package ooxml

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"
)

// ErrNotArchive indicates the file is not a readable zip container.
var ErrNotArchive = errors.New("ooxml: not a readable archive")

// Slide holds the text runs extracted from one presentation slide.
type Slide struct {
	Index int
	Texts []string
}

var slidePattern = regexp.MustCompile(`^ppt/slides/slide(\d+)\.xml$`)

// ExtractSlides parses a .pptx container and returns per-slide text, ordered
// by slide number.
func ExtractSlides(path string) ([]Slide, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotArchive, err)
	}
	defer func() { _ = r.Close() }()

	var slides []Slide
	for _, f := range r.File {
		m := slidePattern.FindStringSubmatch(f.Name)
		if m == nil {
			continue
		}
		idx, _ := strconv.Atoi(m[1])

		texts, err := extractSlideTexts(f)
		if err != nil {
			return nil, fmt.Errorf("slide %d: %w", idx, err)
		}
		slides = append(slides, Slide{Index: idx, Texts: texts})
	}

	sort.Slice(slides, func(i, j int) bool { return slides[i].Index < slides[j].Index })
	return slides, nil
}

// extractSlideTexts streams one slide's XML and collects <a:t> contents.
func extractSlideTexts(f *zip.File) ([]string, error) {
	rc, err := f.Open()
	if err != nil {
		return nil, err
	}
	defer func() { _ = rc.Close() }()

	var texts []string
	dec := xml.NewDecoder(rc)
	inText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing slide XML: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			// DrawingML text runs live in <a:t> elements.
			inText = t.Name.Local == "t"
		case xml.EndElement:
			inText = false
		case xml.CharData:
			if inText {
				if s := strings.TrimSpace(string(t)); s != "" {
					texts = append(texts, s)
				}
			}
		}
	}

	return texts, nil
}

// Stats summarizes an OOXML container for report pages.
type Stats struct {
	Entries int // archive member count
	Media   int // members under a media/ directory (images, audio, video)
}

// ArchiveStats opens the container and counts entries and embedded media.
func ArchiveStats(path string) (Stats, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return Stats{}, fmt.Errorf("%w: %v", ErrNotArchive, err)
	}
	defer func() { _ = r.Close() }()

	var s Stats
	for _, f := range r.File {
		s.Entries++
		if strings.Contains(f.Name, "/media/") {
			s.Media++
		}
	}
	return s, nil
}

// IsArchive reports whether the file opens as a valid zip container.
func IsArchive(path string) bool {
	r, err := zip.OpenReader(path)
	if err != nil {
		return false
	}
	_ = r.Close()
	return true
}
