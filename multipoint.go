package shpwrite

// multiPointEncoder writes MultiPoint and MultiPointZ bodies: type, box,
// point count and the XY array, followed for Z by the Z and M ranges and
// arrays.
type multiPointEncoder struct {
	z bool
}

func (e multiPointEncoder) contentLength(parts Parts) int {
	n := parts.NumPoints()
	length := 40 + 16*n
	if e.z {
		length += 32 + 16*n
	}
	return length
}

func (e multiPointEncoder) encode(w *byteWriter, parts Parts) Extent {
	pts := parts.Points()
	ext := extentOf(parts)

	t := MultiPoint
	if e.z {
		t = MultiPointZ
	}
	w.int32LE(int32(t))
	writeBox(w, ext)
	w.int32LE(int32(len(pts)))
	writeXY(w, pts)

	if !e.z {
		return ext
	}
	ext = ext.written(parts)
	writeZM(w, ext, pts)
	return ext
}

func writeBox(w *byteWriter, ext Extent) {
	w.float64LE(ext.XMin)
	w.float64LE(ext.YMin)
	w.float64LE(ext.XMax)
	w.float64LE(ext.YMax)
}

func writeXY(w *byteWriter, pts []Coord) {
	for _, c := range pts {
		w.float64LE(c[0])
		w.float64LE(c[1])
	}
}

// writeZM writes the Z range and array, then the M range and array. ext must
// already cover the defaulted values.
func writeZM(w *byteWriter, ext Extent, pts []Coord) {
	w.float64LE(ext.ZMin)
	w.float64LE(ext.ZMax)
	for _, c := range pts {
		w.float64LE(zValue(c))
	}
	w.float64LE(ext.MMin)
	w.float64LE(ext.MMax)
	for _, c := range pts {
		w.float64LE(mValue(c))
	}
}
