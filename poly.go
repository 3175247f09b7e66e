package shpwrite

// polyEncoder writes PolyLine and Polygon bodies and their Z variants. All
// parts share one point array; the parts array holds the index of each
// part's first point.
type polyEncoder struct {
	shapeType ShapeType
}

func (e polyEncoder) contentLength(parts Parts) int {
	n := parts.NumPoints()
	length := 16*n + 48 + (len(parts)-1)*4
	if e.shapeType.HasZ() {
		length += 32 + 16*n
	}
	return length
}

func (e polyEncoder) encode(w *byteWriter, parts Parts) Extent {
	pts := parts.Points()
	ext := extentOf(parts)

	w.int32LE(int32(e.shapeType))
	writeBox(w, ext)
	w.int32LE(int32(len(parts)))
	w.int32LE(int32(len(pts)))

	for _, start := range partStarts(parts) {
		w.int32LE(start)
	}

	writeXY(w, pts)

	if !e.shapeType.HasZ() {
		return ext
	}
	ext = ext.written(parts)
	writeZM(w, ext, pts)
	return ext
}

// partStarts returns the index of the first point of every part.
func partStarts(parts Parts) []int32 {
	starts := make([]int32, len(parts))
	n := 0
	for i, part := range parts {
		starts[i] = int32(n)
		n += len(part)
	}
	return starts
}
