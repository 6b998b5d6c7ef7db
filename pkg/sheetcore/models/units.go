package models

// WidthRatio is the number of pixels per container column width unit.
const WidthRatio = 7

// PointsPerPixel converts CSS pixel font sizes to points.
const PointsPerPixel = 0.75

// Default cell geometry in pixels. Drawings anchor to cells, so chart
// positions are converted with these.
const (
	DefaultColumnPixels = 64
	DefaultRowPixels    = 20
)
