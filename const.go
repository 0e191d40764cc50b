package rawdec

const (
	defaultPreviewQuality = 85
	maxPreviewSide        = 1 << 14
)

const (
	callInit          = "init"
	callOpen          = "open"
	callUnpack        = "unpack"
	callUnpackThumb   = "unpack thumbnail"
	callRaw2Image     = "raw2image"
	callSubtractBlack = "subtract black"
	callProcess       = "process"
	callMakeImage     = "make image"
	callMakeThumb     = "make thumbnail"
)
