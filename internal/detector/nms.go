package detector

import (
	"cmp"
	"slices"
)

// byScore orders detections best first
func byScore(a, b Detection) int {
	return cmp.Compare(b.Score, a.Score)
}

// nms sorts dets best first and drops every detection overlapping an
// already kept one by more than iouThreshold
func nms(dets []Detection, iouThreshold float32) []Detection {
	slices.SortStableFunc(dets, byScore)

	var kept []Detection
	for _, d := range dets {
		suppressed := slices.ContainsFunc(kept, func(k Detection) bool {
			return iou(k.Box, d.Box) > iouThreshold
		})
		if !suppressed {
			kept = append(kept, d)
		}
	}
	return kept
}

// iou is the intersection over union of two boxes
func iou(a, b BoundingBox) float32 {
	overlap := BoundingBox{
		X1: max(a.X1, b.X1),
		Y1: max(a.Y1, b.Y1),
		X2: min(a.X2, b.X2),
		Y2: min(a.Y2, b.Y2),
	}
	if overlap.X1 >= overlap.X2 || overlap.Y1 >= overlap.Y2 {
		return 0
	}

	inter := overlap.Area()
	union := a.Area() + b.Area() - inter
	if union <= 0 {
		return 0
	}
	return inter / union
}
