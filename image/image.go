/*
Package image converts between image.Image values and raw 1-bit frames.

A raw frame is packed eight pixels per byte, row-major, with the most
significant bit being the leftmost pixel and a set bit being a black pixel.
Images with more than two colours are first reduced to a two colour palette
and each pixel is then classed as black or white depending on which side of
the midpoint between the two palette entries its brightness falls.
*/
package image

import "image/color"

var (
	black = color.Gray{Y: 0x00}
	white = color.Gray{Y: 0xff}

	// Palette is the palette of decoded images, index 0 is black.
	Palette = color.Palette{black, white}
)

// Default threshold when an image only has a single colour
const midpoint = 0x80
