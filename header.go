package shpwrite

// writeHeader fills the 100-byte header shared by SHP and SHX files.
// The file code, unused fields and file length are big-endian; everything
// from the version on is little-endian. 2D files store zero Z and M ranges.
func writeHeader(w *byteWriter, t ShapeType, fileLength int, ext Extent) {
	w.off = 0
	w.int32BE(fileCode)
	for i := 0; i < 5; i++ {
		w.int32BE(0)
	}
	w.int32BE(int32(fileLength / 2))
	w.int32LE(fileVersion)
	w.int32LE(int32(t))

	if ext.IsEmpty() {
		for i := 0; i < 8; i++ {
			w.float64LE(0)
		}
		return
	}

	w.float64LE(ext.XMin)
	w.float64LE(ext.YMin)
	w.float64LE(ext.XMax)
	w.float64LE(ext.YMax)
	if t.HasZ() {
		w.float64LE(finite(ext.ZMin))
		w.float64LE(finite(ext.ZMax))
		w.float64LE(finite(ext.MMin))
		w.float64LE(finite(ext.MMax))
		return
	}
	for i := 0; i < 4; i++ {
		w.float64LE(0)
	}
}
