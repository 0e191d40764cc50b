// Package rawdec decodes camera RAW photographs through a decoding engine
// (LibRaw by default).
//
// A Session wraps one engine context. It is opened from a file or a buffer,
// unpacked, and then rendered into a Bitmap or asked for its embedded preview,
// which comes back as one of the Image variants. Bitmaps own engine memory and
// expose it only through scoped access until Release.
package rawdec
