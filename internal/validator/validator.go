// Package validator checks that a case folder obeys the gallery's naming and
// pairing rules before it is merged.
package validator

import (
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"HiCGallery/internal/model"
	"HiCGallery/internal/naming"
)

// Kind names a class of violation. The values are stable and surface in
// check output and the validate API.
type Kind string

const (
	NamingError           Kind = "NamingError"
	FileNamingError       Kind = "FileNamingError"
	MissingCaptionError   Kind = "MissingCaptionError"
	InconsistentTypeError Kind = "InconsistentTypeError"
	DuplicateIndexError   Kind = "DuplicateIndexError"
	EmptyCaseError        Kind = "EmptyCaseError"
)

type Violation struct {
	Kind    Kind     `json:"kind"`
	Case    string   `json:"case"`
	Message string   `json:"message"`
	Files   []string `json:"files,omitempty"`
}

func (v Violation) Error() string {
	return v.Message
}

type Result struct {
	Case       string      `json:"case"`
	Violations []Violation `json:"violations"`
}

func (r Result) Passed() bool {
	return len(r.Violations) == 0
}

func (r Result) Has(kind Kind) bool {
	for _, v := range r.Violations {
		if v.Kind == kind {
			return true
		}
	}
	return false
}

func (r Result) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.Violations))
	for _, v := range r.Violations {
		kinds = append(kinds, v.Kind)
	}
	return kinds
}

// Err joins the violations into one error, or returns nil when the case passed.
func (r Result) Err() error {
	if r.Passed() {
		return nil
	}
	errs := make([]error, 0, len(r.Violations))
	for _, v := range r.Violations {
		errs = append(errs, v)
	}
	return errors.Join(errs...)
}

// Validate checks one case folder given its name and the names of the files
// it contains. Paths are reduced to their base name. Each kind of violation is
// reported at most once, listing every offending file.
func Validate(name string, files []string) Result {
	res := Result{Case: name}
	add := func(kind Kind, files []string, format string, args ...any) {
		sort.Strings(files)
		res.Violations = append(res.Violations, Violation{
			Kind:    kind,
			Case:    name,
			Message: fmt.Sprintf("[%s] ", name) + fmt.Sprintf(format, args...),
			Files:   files,
		})
	}

	dir, dirErr := naming.ParseCaseDir(name)
	if dirErr != nil {
		add(NamingError, nil, "%v", dirErr)
	}

	names := make([]string, 0, len(files))
	for _, f := range files {
		names = append(names, path.Base(filepath.ToSlash(f)))
	}
	sort.Strings(names)

	captions := make(map[string]bool)
	for _, n := range names {
		if naming.IsCaption(n) {
			captions[strings.TrimSuffix(n, path.Ext(n))] = true
		}
	}

	var (
		badNames []string
		good     []naming.Image
	)
	for _, n := range names {
		if naming.IsHidden(n) || naming.IsCover(n) || !naming.IsImage(n) {
			continue
		}
		img, err := naming.ParseImage(n)
		if err != nil {
			badNames = append(badNames, n)
			continue
		}
		if dirErr == nil && (img.SpeciesID != dir.SpeciesID || img.AuthorID != dir.AuthorID) {
			badNames = append(badNames, n)
			continue
		}
		good = append(good, img)
	}
	sort.SliceStable(good, func(i, j int) bool { return good[i].Index < good[j].Index })

	if len(badNames) > 0 {
		expected := "<type>_<speciesID>_<authorID>_XX.png"
		if dirErr == nil {
			expected = fmt.Sprintf("<type>_%s_XX.png", dir.Base())
		}
		add(FileNamingError, badNames, "Bad file name: %s (expected %s)", strings.Join(badNames, ", "), expected)
	}

	var missing []string
	for _, img := range good {
		if !captions[img.Base()] {
			missing = append(missing, img.Name)
		}
	}
	if len(missing) > 0 {
		add(MissingCaptionError, missing, "Missing caption TXT for %s", strings.Join(missing, ", "))
	}

	if len(good) > 0 {
		ref := good[0].Type
		seen := map[model.Type]bool{ref: true}
		var differing []string
		for _, img := range good[1:] {
			if img.Type != ref {
				differing = append(differing, img.Name)
				seen[img.Type] = true
			}
		}
		if len(differing) > 0 {
			types := make([]string, 0, len(seen))
			for t := range seen {
				types = append(types, string(t))
			}
			sort.Strings(types)
			add(InconsistentTypeError, differing, "Mixed <type> values [%s]: %s differ from %q (use a single type per case)",
				strings.Join(types, " "), strings.Join(differing, ", "), ref)
		}
	}

	byIndex := make(map[int][]string)
	for _, img := range good {
		byIndex[img.Index] = append(byIndex[img.Index], img.Name)
	}
	var dups []string
	for _, img := range good {
		if len(byIndex[img.Index]) > 1 {
			dups = append(dups, img.Name)
		}
	}
	if len(dups) > 0 {
		add(DuplicateIndexError, dups, "Duplicate index in %s", strings.Join(dups, ", "))
	}

	if len(good) == 0 && len(badNames) == 0 {
		add(EmptyCaseError, nil, "No valid images found.")
	}
	return res
}

// ValidateDir lists dir and validates it as a case folder. Subdirectories are
// not part of a case and are ignored.
func ValidateDir(dir string) (Result, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return Result{}, fmt.Errorf("read case dir %s: %w", dir, err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		files = append(files, e.Name())
	}
	return Validate(filepath.Base(filepath.Clean(dir)), files), nil
}

// ValidateTree validates every immediate subdirectory of imagesDir in name order.
func ValidateTree(imagesDir string) ([]Result, error) {
	entries, err := os.ReadDir(imagesDir)
	if err != nil {
		return nil, fmt.Errorf("read images dir %s: %w", imagesDir, err)
	}
	var results []Result
	for _, e := range entries {
		if !e.IsDir() || naming.IsHidden(e.Name()) {
			continue
		}
		res, err := ValidateDir(filepath.Join(imagesDir, e.Name()))
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}
	return results, nil
}

// Failed filters results down to the cases that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed() {
			out = append(out, r)
		}
	}
	return out
}
