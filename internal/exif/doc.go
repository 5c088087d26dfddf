// Package exif inspects downloaded images for embedded EXIF metadata.
//
// Image files frequently carry metadata the publisher did not intend to
// share: GPS coordinates, camera serial numbers, editing software, and
// timestamps. The Inspector walks the files a crawl downloaded and reports
// every tag of interest so the findings can be included in the crawl report.
//
// Only formats that can carry EXIF segments (JPEG, TIFF, HEIC) are read;
// other files are skipped without being opened.
package exif
