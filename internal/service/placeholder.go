package service

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"sync"
)

const (
	placeholderWidth  = 210
	placeholderHeight = 297
)

// placeholderPNG is served in place of a thumbnail the thumbnail service does not have.
// It is an A4-proportioned grey page with a darker frame, encoded once.
var placeholderPNG = sync.OnceValue(func() []byte {
	img := image.NewGray(image.Rect(0, 0, placeholderWidth, placeholderHeight))
	fill := color.Gray{Y: 0xee}
	frame := color.Gray{Y: 0xbb}
	for y := 0; y < placeholderHeight; y++ {
		for x := 0; x < placeholderWidth; x++ {
			c := fill
			if x < 2 || y < 2 || x >= placeholderWidth-2 || y >= placeholderHeight-2 {
				c = frame
			}
			img.SetGray(x, y, c)
		}
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		// Encoding an in-memory Gray image cannot fail short of a bug.
		panic(err)
	}
	return buf.Bytes()
})
