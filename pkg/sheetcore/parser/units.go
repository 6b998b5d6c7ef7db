package parser

import "github.com/ukaji3/sheetcore-go/pkg/sheetcore/models"

// EMUPerPixel is the number of EMUs (English Metric Units) per pixel at 96 DPI.
// 1 inch = 914400 EMU, 1 inch = 96 pixels at 96 DPI
// Therefore: 914400 / 96 = 9525 EMU per pixel
const EMUPerPixel = 9525

// EMUToPixels converts EMU (English Metric Units) to pixels at 96 DPI.
func EMUToPixels(emu int64) int {
	return int(emu / EMUPerPixel)
}

// markerPixels converts a drawing anchor marker (cell index plus EMU offset)
// to pixels on the default cell grid.
func markerPixels(cell, offset int64, cellPixels int) int {
	return int(cell)*cellPixels + EMUToPixels(offset)
}

func columnMarkerPixels(col, offset int64) int {
	return markerPixels(col, offset, models.DefaultColumnPixels)
}

func rowMarkerPixels(row, offset int64) int {
	return markerPixels(row, offset, models.DefaultRowPixels)
}
