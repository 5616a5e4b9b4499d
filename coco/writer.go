package coco

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zip"
)

// WriteJSON writes d as a single COCO JSON document, pretty-printed when
// pretty is true.
func WriteJSON(d *Dataset, path string, pretty bool) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create coco json: %w", err)
	}
	defer f.Close()

	enc := json.NewEncoder(f)
	if pretty {
		enc.SetIndent("", "  ")
	}
	if err := enc.Encode(d); err != nil {
		return fmt.Errorf("encode coco json: %w", err)
	}
	return nil
}

// ImageBytes pairs an archive path with its file content, supplied by the
// caller of WriteZip.
type ImageBytes struct {
	ArchivePath string
	Content     io.Reader
}

// WriteZip writes d as "annotations/instances.json" plus each
// (archive_path, bytes) pair from images into a single zip archive.
func WriteZip(d *Dataset, images []ImageBytes, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create coco zip: %w", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)

	annJSON, err := json.Marshal(d)
	if err != nil {
		zw.Close()
		return fmt.Errorf("encode coco zip annotations: %w", err)
	}
	w, err := zw.Create("annotations/instances.json")
	if err != nil {
		zw.Close()
		return err
	}
	if _, err := w.Write(annJSON); err != nil {
		zw.Close()
		return err
	}

	for _, img := range images {
		w, err := zw.Create(img.ArchivePath)
		if err != nil {
			zw.Close()
			return err
		}
		if _, err := io.Copy(w, img.Content); err != nil {
			zw.Close()
			return err
		}
	}

	return zw.Close()
}

// SplitByGroup partitions d's images by the parallel groupsPerImage array
// (one group name per d.Images entry), projects annotations whose
// image_id lies in each partition, and writes
// "<outDir>/<group>/annotations/instances_<group>.json" for each group,
// plus an images/ subtree drawn from imagesSource (archive path -> bytes)
// when provided. Mismatched array lengths are a fatal *Error.
func SplitByGroup(d *Dataset, groupsPerImage []string, imagesSource map[string]io.Reader, outDir string) error {
	if len(groupsPerImage) != len(d.Images) {
		return &Error{Detail: fmt.Sprintf("groupsPerImage has %d entries, dataset has %d images", len(groupsPerImage), len(d.Images))}
	}

	groupImages := map[string][]Image{}
	imageGroup := map[uint64]string{}
	for i, img := range d.Images {
		g := groupsPerImage[i]
		groupImages[g] = append(groupImages[g], img)
		imageGroup[img.ID] = g
	}

	groupAnns := map[string][]Annotation{}
	for _, a := range d.Annotations {
		g := imageGroup[a.ImageID]
		groupAnns[g] = append(groupAnns[g], a)
	}

	for g, imgs := range groupImages {
		groupDataset := &Dataset{
			Info:        d.Info,
			Licenses:    d.Licenses,
			Images:      imgs,
			Categories:  d.Categories,
			Annotations: groupAnns[g],
		}

		dir := filepath.Join(outDir, g, "annotations")
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create split group directory: %w", err)
		}
		jsonPath := filepath.Join(dir, fmt.Sprintf("instances_%s.json", g))
		if err := WriteJSON(groupDataset, jsonPath, false); err != nil {
			return err
		}

		if imagesSource == nil {
			continue
		}
		imagesDir := filepath.Join(outDir, g, "images")
		if err := os.MkdirAll(imagesDir, 0o755); err != nil {
			return fmt.Errorf("create split group images directory: %w", err)
		}
		for _, img := range imgs {
			src, ok := imagesSource[img.FileName]
			if !ok {
				continue
			}
			dest := filepath.Join(imagesDir, filepath.Base(img.FileName))
			out, err := os.Create(dest)
			if err != nil {
				return err
			}
			_, err = io.Copy(out, src)
			out.Close()
			if err != nil {
				return err
			}
		}
	}

	return nil
}

// DatasetBuilder incrementally constructs a Dataset with
// monotonically-increasing image/annotation ids. AddCategory is
// idempotent by name.
type DatasetBuilder struct {
	d Dataset

	nextImageID      uint64
	nextAnnotationID uint64
	nextCategoryID   uint64

	categoryByName map[string]uint64
}

// NewDatasetBuilder returns an empty builder, ids starting at 1.
func NewDatasetBuilder(info Info) *DatasetBuilder {
	return &DatasetBuilder{
		d:                Dataset{Info: info},
		nextImageID:      1,
		nextAnnotationID: 1,
		nextCategoryID:   1,
		categoryByName:   map[string]uint64{},
	}
}

// AddCategory returns the id for name, creating a new category only the
// first time a given name is seen.
func (b *DatasetBuilder) AddCategory(name, supercategory string) uint64 {
	if id, ok := b.categoryByName[name]; ok {
		return id
	}
	id := b.nextCategoryID
	b.nextCategoryID++
	b.categoryByName[name] = id
	b.d.Categories = append(b.d.Categories, Category{ID: id, Name: name, Supercategory: supercategory})
	return id
}

// AddImage allocates a fresh image id and appends an Image entry.
func (b *DatasetBuilder) AddImage(fileName string, width, height uint32) uint64 {
	id := b.nextImageID
	b.nextImageID++
	b.d.Images = append(b.d.Images, Image{ID: id, FileName: fileName, Width: width, Height: height})
	return id
}

// AddAnnotation allocates a fresh annotation id and appends an Annotation
// entry for imageID/categoryID.
func (b *DatasetBuilder) AddAnnotation(imageID, categoryID uint64, bbox [4]float64, area float64, isCrowd int, seg *Segmentation) uint64 {
	id := b.nextAnnotationID
	b.nextAnnotationID++
	b.d.Annotations = append(b.d.Annotations, Annotation{
		ID: id, ImageID: imageID, CategoryID: categoryID,
		Bbox: bbox, Area: area, IsCrowd: isCrowd, Segmentation: seg,
	})
	return id
}

// Build returns the constructed Dataset.
func (b *DatasetBuilder) Build() *Dataset {
	return &b.d
}

// stem returns fileName without its extension, used to match COCO images
// against arrow-side sample names.
func stem(fileName string) string {
	base := filepath.Base(fileName)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
