package shpwrite

import (
	"archive/zip"
	"io"
	"time"
)

// writeZip packages the file sets at the root of a ZIP archive.
func writeZip(w io.Writer, sets []*Files, modTime time.Time) error {
	zw := zip.NewWriter(w)

	for _, files := range sets {
		for _, ext := range Extensions {
			hdr := &zip.FileHeader{
				Name:     files.Name + ext,
				Method:   zip.Deflate,
				Modified: modTime,
			}
			fw, err := zw.CreateHeader(hdr)
			if err != nil {
				_ = zw.Close()
				return err
			}
			if _, err := fw.Write(files.File(ext)); err != nil {
				_ = zw.Close()
				return err
			}
		}
	}

	return zw.Close()
}
