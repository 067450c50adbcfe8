package normalize

import (
	"path"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

// imageExtensions are raster formats embedded directly, skipping PDF conversion.
var imageExtensions = map[string]struct{}{
	"png": {}, "jpg": {}, "jpeg": {}, "tiff": {}, "bmp": {}, "gif": {},
}

// allowedExtensions is the ingestion allow-list: everything the conversion
// engine can turn into a PDF, plus PDFs and raster images themselves.
var allowedExtensions = map[string]struct{}{
	"123": {}, "602": {}, "abw": {}, "bib": {}, "cdr": {}, "cgm": {},
	"cmx": {}, "csv": {}, "cwk": {}, "dbf": {}, "dif": {}, "doc": {},
	"docm": {}, "docx": {}, "dot": {}, "dotm": {}, "dotx": {}, "dxf": {},
	"emf": {}, "eps": {}, "epub": {}, "fodg": {}, "fodp": {}, "fods": {},
	"fodt": {}, "fopd": {}, "htm": {}, "html": {}, "hwp": {}, "key": {},
	"ltx": {}, "lwp": {}, "mcw": {}, "met": {}, "mml": {}, "mw": {},
	"numbers": {}, "odd": {}, "odg": {}, "odm": {}, "odp": {}, "ods": {},
	"odt": {}, "otg": {}, "oth": {}, "otp": {}, "ots": {}, "ott": {},
	"pages": {}, "pbm": {}, "pcd": {}, "pct": {}, "pcx": {}, "pdb": {},
	"pdf": {}, "pgm": {}, "pot": {}, "potm": {}, "potx": {}, "ppm": {},
	"pps": {}, "ppt": {}, "pptm": {}, "pptx": {}, "psd": {}, "psw": {},
	"pub": {}, "pwp": {}, "pxl": {}, "ras": {}, "rtf": {}, "sda": {},
	"sdc": {}, "sdd": {}, "sdp": {}, "sdw": {}, "sgl": {}, "slk": {},
	"smf": {}, "stc": {}, "std": {}, "sti": {}, "stw": {}, "svg": {},
	"svm": {}, "swf": {}, "sxc": {}, "sxd": {}, "sxg": {}, "sxi": {},
	"sxm": {}, "sxw": {}, "tga": {}, "txt": {}, "uof": {}, "uop": {},
	"uos": {}, "uot": {}, "vdx": {}, "vor": {}, "vsd": {}, "vsdm": {},
	"vsdx": {}, "wb2": {}, "wk1": {}, "wks": {}, "wmf": {}, "wpd": {},
	"wpg": {}, "wps": {}, "xbm": {}, "xhtml": {}, "xls": {}, "xlsb": {},
	"xlsm": {}, "xlsx": {}, "xlt": {}, "xltm": {}, "xltx": {}, "xlw": {},
	"xml": {}, "xpm": {}, "zabw": {},
	"png": {}, "jpg": {}, "jpeg": {}, "tiff": {}, "bmp": {}, "gif": {},
}

// mimeOverrides maps sniffed MIME types whose canonical extension the
// detector reports ambiguously (or not at all) for the office family.
var mimeOverrides = map[string]string{
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document":   "docx",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation": "pptx",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet":         "xlsx",
	"application/msword":            "doc",
	"application/vnd.ms-powerpoint": "ppt",
	"application/vnd.ms-excel":      "xls",
}

// resolveExtension determines the canonical extension of data by content
// sniffing; filename spoofing cannot widen it. The declared filename is only
// a fallback when sniffing yields a generic type with no known extension.
func resolveExtension(data []byte, filename string) string {
	m := mimetype.Detect(data)

	if ext, ok := mimeOverrides[baseMIME(m.String())]; ok {
		return ext
	}
	if ext := strings.TrimPrefix(m.Extension(), "."); ext != "" {
		return ext
	}
	if ext := fileExtension(filename); ext != "" {
		return ext
	}
	return "bin"
}

// isAllowed reports whether ext is on the ingestion allow-list.
func isAllowed(ext string) bool {
	_, ok := allowedExtensions[ext]
	return ok
}

// isImage reports whether ext is a directly embeddable raster format.
func isImage(ext string) bool {
	_, ok := imageExtensions[ext]
	return ok
}

// fileExtension extracts a lowercase extension without the leading dot.
func fileExtension(filename string) string {
	ext := path.Ext(filename)
	if ext == "" {
		return ""
	}
	return strings.ToLower(ext[1:])
}

// baseMIME strips any parameters ("text/html; charset=utf-8" -> "text/html").
func baseMIME(mt string) string {
	if i := strings.IndexByte(mt, ';'); i >= 0 {
		mt = mt[:i]
	}
	return strings.TrimSpace(mt)
}
