package shpwrite

// pointEncoder writes Point (type, X, Y) and PointZ (type, X, Y, Z, M) bodies.
type pointEncoder struct {
	z bool
}

func (e pointEncoder) contentLength(Parts) int {
	if e.z {
		return 36
	}
	return 20
}

func (e pointEncoder) encode(w *byteWriter, parts Parts) Extent {
	c := parts[0][0]
	ext := BlankExtent().Enlarge(c)

	if !e.z {
		w.int32LE(int32(Point))
		w.float64LE(c[0])
		w.float64LE(c[1])
		return ext
	}

	w.int32LE(int32(PointZ))
	w.float64LE(c[0])
	w.float64LE(c[1])
	w.float64LE(zValue(c))
	w.float64LE(mValue(c))
	return ext.written(parts)
}
