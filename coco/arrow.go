package coco

import (
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"

	"github.com/EdgeFirstAI/client-sub000/columnar"
	"github.com/EdgeFirstAI/client-sub000/progress"
	"github.com/EdgeFirstAI/client-sub000/types"
)

// workerPoolEnv overrides the default coco_to_arrow worker pool size; the
// only environment input this package's core conversions read.
const workerPoolEnv = "EDGEFIRST_COCO_ARROW_WORKERS"

func workerPoolSize() int {
	if v := os.Getenv(workerPoolEnv); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	n := runtime.NumCPU() / 2
	if n < 2 {
		n = 2
	}
	if n > 8 {
		n = 8
	}
	return n
}

// ArrowOptions controls coco_to_arrow/arrow_to_coco.
type ArrowOptions struct {
	// Group, if set, is used for every sample's group column; otherwise
	// the group is derived from the image filename's parent directory.
	Group string
	// IncludeMasks, for arrow_to_coco, unflattens mask coordinates back
	// into pixel-space polygons.
	IncludeMasks bool
	// ImageSizes supplies the pixel width/height to reconstruct against
	// for arrow_to_coco, keyed by the same stem used as the row's image
	// name. It is consulted only for rows whose own size column is empty.
	// Entries missing from the map fall back to DefaultImageSize, and to
	// 1x1 when DefaultImageSize is unset.
	ImageSizes map[string][2]uint32
	// DefaultImageSize is used when ImageSizes has no entry for a row's
	// image name.
	DefaultImageSize [2]uint32
}

func (o ArrowOptions) sizeFor(name string) (uint32, uint32) {
	if sz, ok := o.ImageSizes[name]; ok {
		return sz[0], sz[1]
	}
	if o.DefaultImageSize[0] != 0 && o.DefaultImageSize[1] != 0 {
		return o.DefaultImageSize[0], o.DefaultImageSize[1]
	}
	return 1, 1
}

// rowSize returns the row's own size column when present (every row
// written by CocoToArrow carries one), falling back to opts for tables
// produced elsewhere without it.
func rowSize(table *columnar.Table, i int, opts ArrowOptions, name string) (uint32, uint32) {
	if table.SizeValid != nil && i < len(table.SizeValid) && table.SizeValid[i] {
		sz := table.Size[i]
		return sz[0], sz[1]
	}
	return opts.sizeFor(name)
}

func groupFor(opts ArrowOptions, fileName string) string {
	if opts.Group != "" {
		return opts.Group
	}
	dir := filepath.Dir(fileName)
	if dir == "." || dir == "/" {
		return "default"
	}
	return filepath.Base(dir)
}

// CocoToArrow reads a COCO dataset, converts every image's annotations to
// columnar rows under a bounded worker pool, and writes the 13-column
// table as an IPC file.
func CocoToArrow(cocoPath, arrowOut string, opts ArrowOptions, sink progress.Sink) error {
	defer progress.Close(sink)

	d, err := ReadJSON(cocoPath)
	if err != nil {
		return err
	}
	idx := BuildIndex(d)

	workers := workerPoolSize()
	jobs := make(chan Image)
	results := make(chan []columnar.Row)

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for img := range jobs {
				results <- imageToRows(img, idx, opts)
			}
		}()
	}

	go func() {
		for _, img := range d.Images {
			jobs <- img
		}
		close(jobs)
		wg.Wait()
		close(results)
	}()

	var rows []columnar.Row
	var current uint64
	total := uint64(len(d.Images))
	for r := range results {
		rows = append(rows, r...)
		current++
		progress.Report(sink, current, total)
	}

	table, err := columnar.BuildTable(rows)
	if err != nil {
		return err
	}
	return columnar.WriteIPCFile(arrowOut, table)
}

func imageToRows(img Image, idx *Index, opts ArrowOptions) []columnar.Row {
	name := stem(img.FileName)
	group := groupFor(opts, img.FileName)

	size := &[2]uint32{img.Width, img.Height}

	anns := idx.AnnotationsByImage[img.ID]
	if len(anns) == 0 {
		return []columnar.Row{{Name: name, Group: group, Size: size}}
	}

	rows := make([]columnar.Row, 0, len(anns))
	for _, a := range anns {
		box2d := BboxToBox2d(a.Bbox, img.Width, img.Height)
		row := columnar.Row{
			Name:  name,
			Group: group,
			Label: idx.LabelName[a.CategoryID],
			Box2d: Box2dToCenterRow(box2d),
			Size:  size,
		}
		if li, ok := idx.LabelIndex[a.CategoryID]; ok {
			v := li
			row.LabelIndex = &v
		}
		if a.Segmentation != nil {
			if poly, ok := a.Segmentation.Polygon(); ok {
				mask := PolygonToMask(poly, img.Width, img.Height)
				row.Mask = types.FlattenMask(mask)
			}
		}
		rows = append(rows, row)
	}
	return rows
}

// ArrowToCoco reads a columnar IPC file and reconstructs a COCO dataset,
// extracting every column up-front to keep row access O(N).
func ArrowToCoco(arrowPath, cocoOut string, opts ArrowOptions, sink progress.Sink) error {
	defer progress.Close(sink)

	table, err := columnar.ReadIPCFile(arrowPath)
	if err != nil {
		return err
	}

	builder := NewDatasetBuilder(Info{})

	imageIDByName := map[string]uint64{}
	categoryIDByName := map[string]uint64{}

	n := table.Len()
	for i := 0; i < n; i++ {
		name := table.Name[i]
		if _, ok := imageIDByName[name]; !ok {
			w, h := rowSize(table, i, opts, name)
			imageIDByName[name] = builder.AddImage(name+".jpg", w, h)
		}
		label := table.LabelDict[table.LabelCode[i]]
		if label == "" {
			continue
		}
		if _, ok := categoryIDByName[label]; !ok {
			categoryIDByName[label] = builder.AddCategory(label, "")
		}
	}

	for i := 0; i < n; i++ {
		label := table.LabelDict[table.LabelCode[i]]
		if label == "" {
			continue
		}
		name := table.Name[i]
		imageID := imageIDByName[name]
		categoryID := categoryIDByName[label]
		w, h := rowSize(table, i, opts, name)

		bbox := CenterRowToBbox(table.Box2d[i], w, h)
		area := bbox[2] * bbox[3]

		var seg *Segmentation
		if opts.IncludeMasks && len(table.Mask[i]) > 0 {
			mask := types.UnflattenMask(table.Mask[i])
			polys := MaskToCocoPolygon(mask, w, h)
			s := NewPolygonSegmentation(polys)
			seg = &s
		}

		builder.AddAnnotation(imageID, categoryID, bbox, area, 0, seg)

		if (i+1)%1000 == 0 {
			progress.Report(sink, uint64(i+1), uint64(n))
		}
	}
	progress.Report(sink, uint64(n), uint64(n))

	return WriteJSON(builder.Build(), cocoOut, false)
}
