package tiffraster

func init() {
	RegisterFormat("tiff", leHeader, Detect)
	RegisterFormat("tiff", beHeader, Detect)
	RegisterFormat("geotiff", leHeader, detectGeoTIFF)
	RegisterFormat("geotiff", beHeader, detectGeoTIFF)
	RegisterFormat("vendor-tiff", leHeader, detectVendorTIFF)
	RegisterFormat("vendor-tiff", beHeader, detectVendorTIFF)
}
