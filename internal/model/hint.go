package model

// Preload "as" destinations used by the renderer.
const (
	PreloadAsScript = "script"
	PreloadAsFetch  = "fetch"
	PreloadAsImage  = "image"
	PreloadAsStyle  = "style"
)

// PreloadHint is a `<link rel="preload">` pushed into the document head.
type PreloadHint struct {
	Href        string `json:"href"`
	As          string `json:"as"`
	CrossOrigin string `json:"crossorigin,omitempty"`
	ImageSrcSet string `json:"imagesrcset,omitempty"`
}
