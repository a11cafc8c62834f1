// ABOUTME: ILDA animation container package
// ABOUTME: Streams frames of laser points from and to ILDA image data transfer files
// Package ilda reads and writes the ILDA image data transfer format used by
// laser show software.
//
// Frames are streamed one at a time so arbitrarily long animations never have
// to be held in memory:
//
//	r := ilda.NewReader(f)
//	for {
//	    frame, err := r.Next()
//	    if err == io.EOF {
//	        break
//	    }
//	    ...
//	}
//
// Supported sections: 3D/2D indexed color (formats 0 and 1), color palettes
// (format 2) and 3D/2D true color (formats 4 and 5). The Writer always emits
// format 5.
package ilda
