package shpwrite

// wgs84WKT is the ESRI flavour of EPSG:4326 expected in .prj files.
const wgs84WKT = `GEOGCS["GCS_WGS_1984",DATUM["D_WGS_1984",SPHEROID["WGS_1984",6378137,298.257223563]],PRIMEM["Greenwich",0],UNIT["Degree",0.017453292519943295]]`

// prj returns the projection text for the files of a layer.
func (o *Options) prj() []byte {
	if o.CRS == nil || o.CRS.WKT == "" {
		return []byte(wgs84WKT)
	}
	return []byte(o.CRS.WKT)
}
