// Package inbox lists pre-review submissions under inbox/.
//
// A submission is one folder with PNG files and a single free-form notes file
// telling maintainers which type and caption each image gets. The notes are
// read by people, not by this package: turning a submission into a case folder
// under images/ is a manual step, after which the validator applies.
package inbox

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"HiCGallery/internal/naming"
)

type Submission struct {
	Name     string   `json:"name"`
	Images   []string `json:"images"`
	Notes    string   `json:"notes,omitempty"`
	Problems []string `json:"problems,omitempty"`
}

func (s Submission) OK() bool {
	return len(s.Problems) == 0
}

// Scan lists the submissions in dir. A missing inbox is an empty inbox.
func Scan(dir string) ([]Submission, error) {
	entries, err := os.ReadDir(dir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read inbox %s: %w", dir, err)
	}

	var subs []Submission
	for _, e := range entries {
		if !e.IsDir() || naming.IsHidden(e.Name()) {
			continue
		}
		sub, err := check(filepath.Join(dir, e.Name()))
		if err != nil {
			return nil, err
		}
		subs = append(subs, sub)
	}
	return subs, nil
}

func check(dir string) (Submission, error) {
	sub := Submission{Name: filepath.Base(dir)}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return sub, fmt.Errorf("read submission %s: %w", dir, err)
	}

	var notes, other []string
	for _, e := range entries {
		name := e.Name()
		switch {
		case naming.IsHidden(name):
		case e.IsDir():
			sub.Problems = append(sub.Problems, fmt.Sprintf("nested folder %s (keep everything in one folder)", name))
		case naming.IsImage(name):
			sub.Images = append(sub.Images, name)
		case naming.IsCaption(name) || filepath.Ext(name) == ".md":
			notes = append(notes, name)
		default:
			other = append(other, name)
		}
	}
	sort.Strings(sub.Images)
	sort.Strings(notes)

	if len(sub.Images) == 0 {
		sub.Problems = append(sub.Problems, "no PNG images")
	}
	switch len(notes) {
	case 0:
		sub.Problems = append(sub.Problems, "missing notes file (one .txt or .md describing each image)")
	case 1:
		sub.Notes = notes[0]
	default:
		sub.Problems = append(sub.Problems, fmt.Sprintf("expected one notes file, found %d: %v", len(notes), notes))
	}
	for _, name := range other {
		sub.Problems = append(sub.Problems, fmt.Sprintf("unexpected file %s (only PNGs and one notes file)", name))
	}
	return sub, nil
}
