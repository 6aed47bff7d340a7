// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package extract

import (
	"fmt"
	"io"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
)

// readPageImages extracts every raster image referenced by every page. An
// image shared by several pages is returned once per page.
func readPageImages(pdfPath string) (map[int][]rawImage, error) {
	f, err := os.Open(pdfPath)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", pdfPath, err)
	}
	defer func() { _ = f.Close() }()

	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed

	perPage, err := api.ExtractImagesRaw(f, nil, conf)
	if err != nil {
		return nil, fmt.Errorf("extracting images: %w", err)
	}

	out := make(map[int][]rawImage)
	for _, byObj := range perPage {
		for objNr, img := range byObj {
			if img.Reader == nil {
				continue
			}
			data, err := io.ReadAll(img)
			if err != nil {
				return nil, fmt.Errorf("reading image object %d on page %d: %w", objNr, img.PageNr, err)
			}
			out[img.PageNr] = append(out[img.PageNr], rawImage{
				objNr: objNr,
				data:  data,
				ext:   img.FileType,
			})
		}
	}
	return out, nil
}
