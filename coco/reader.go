package coco

import (
	"bufio"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/klauspost/compress/zip"
)

// ReadJSON buffered-parses a single COCO JSON document.
func ReadJSON(path string) (*Dataset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open coco json: %w", err)
	}
	defer f.Close()

	var d Dataset
	if err := json.NewDecoder(bufio.NewReader(f)).Decode(&d); err != nil {
		return nil, fmt.Errorf("decode coco json: %w", err)
	}
	return &d, nil
}

// ReadAnnotationsZip scans a zip archive and merges every entry whose
// name matches "*.json" and contains the substring "instances" into a
// single Dataset. Images and categories are deduplicated by id,
// first-writer-wins; annotations are always appended; licenses dedup by
// id; info is copied from the first non-empty member.
func ReadAnnotationsZip(path string) (*Dataset, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("open annotations zip: %w", err)
	}
	defer r.Close()

	merged := &Dataset{}
	seenImages := map[uint64]bool{}
	seenCategories := map[uint64]bool{}
	seenLicenses := map[uint64]bool{}
	found := false

	for _, f := range r.File {
		if !strings.HasSuffix(f.Name, ".json") || !strings.Contains(f.Name, "instances") {
			continue
		}
		found = true

		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open zip member %s: %w", f.Name, err)
		}
		var d Dataset
		err = json.NewDecoder(bufio.NewReader(rc)).Decode(&d)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("decode zip member %s: %w", f.Name, err)
		}

		if merged.Info.isEmpty() && !d.Info.isEmpty() {
			merged.Info = d.Info
		}
		for _, img := range d.Images {
			if seenImages[img.ID] {
				continue
			}
			seenImages[img.ID] = true
			merged.Images = append(merged.Images, img)
		}
		for _, c := range d.Categories {
			if seenCategories[c.ID] {
				continue
			}
			seenCategories[c.ID] = true
			merged.Categories = append(merged.Categories, c)
		}
		for _, l := range d.Licenses {
			if seenLicenses[l.ID] {
				continue
			}
			seenLicenses[l.ID] = true
			merged.Licenses = append(merged.Licenses, l)
		}
		merged.Annotations = append(merged.Annotations, d.Annotations...)
	}

	if !found {
		return nil, &Error{Detail: fmt.Sprintf("no *.json member containing \"instances\" found in %s", path)}
	}
	return merged, nil
}

// ValidationOptions controls the truncation and filtering ApplyFilters
// performs.
type ValidationOptions struct {
	// MaxImages, if non-zero, truncates the image list to this count and
	// drops annotations whose image_id no longer resolves.
	MaxImages int
	// CategoryFilter, if non-empty, keeps only the listed category names
	// and their annotations.
	CategoryFilter []string
}

// Validate checks that every annotation's image_id and category_id
// resolve and that bbox width/height are positive, returning the first
// violation as a *Error naming the offending annotation id.
func Validate(d *Dataset) error {
	images := map[uint64]bool{}
	for _, img := range d.Images {
		images[img.ID] = true
	}
	categories := map[uint64]bool{}
	for _, c := range d.Categories {
		categories[c.ID] = true
	}
	for _, a := range d.Annotations {
		if !images[a.ImageID] {
			return &Error{Detail: fmt.Sprintf("annotation %d references unknown image_id %d", a.ID, a.ImageID)}
		}
		if !categories[a.CategoryID] {
			return &Error{Detail: fmt.Sprintf("annotation %d references unknown category_id %d", a.ID, a.CategoryID)}
		}
		if a.Bbox[2] <= 0 || a.Bbox[3] <= 0 {
			return &Error{Detail: fmt.Sprintf("annotation %d has non-positive bbox width/height", a.ID)}
		}
	}
	return nil
}

// ApplyFilters applies the optional post-filters described by opts,
// returning a new Dataset; d is not mutated.
func ApplyFilters(d *Dataset, opts ValidationOptions) *Dataset {
	out := &Dataset{Info: d.Info, Licenses: d.Licenses, Images: d.Images, Categories: d.Categories, Annotations: d.Annotations}

	if opts.MaxImages > 0 && opts.MaxImages < len(out.Images) {
		out.Images = append([]Image(nil), out.Images[:opts.MaxImages]...)
		keep := map[uint64]bool{}
		for _, img := range out.Images {
			keep[img.ID] = true
		}
		var anns []Annotation
		for _, a := range out.Annotations {
			if keep[a.ImageID] {
				anns = append(anns, a)
			}
		}
		out.Annotations = anns
	}

	if len(opts.CategoryFilter) > 0 {
		wanted := map[string]bool{}
		for _, name := range opts.CategoryFilter {
			wanted[name] = true
		}
		var cats []Category
		keepIDs := map[uint64]bool{}
		for _, c := range out.Categories {
			if wanted[c.Name] {
				cats = append(cats, c)
				keepIDs[c.ID] = true
			}
		}
		out.Categories = cats
		var anns []Annotation
		for _, a := range out.Annotations {
			if keepIDs[a.CategoryID] {
				anns = append(anns, a)
			}
		}
		out.Annotations = anns
	}

	return out
}
