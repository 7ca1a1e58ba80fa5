package grid

// Fit returns the largest width and height with the image's aspect ratio that
// fit inside a boxW × boxH box. The image is first scaled to the box width; if
// that overflows the box height it is scaled to the box height instead.
//
// An unknown image size (imgW or imgH not positive) fills the whole box.
func Fit(imgW, imgH, boxW, boxH float64) (w, h float64) {
	if imgW <= 0 || imgH <= 0 {
		return boxW, boxH
	}
	w = boxW
	h = boxW * (imgH / imgW)
	if h > boxH {
		h = boxH
		w = boxH * (imgW / imgH)
	}
	return w, h
}

// FitRect fits an image into box and aligns the result. ax and ay place the
// image inside the leftover space: 0 is left/top, 0.5 centers, 1 is
// right/bottom.
func FitRect(imgW, imgH float64, box Rect, ax, ay float64) Rect {
	w, h := Fit(imgW, imgH, box.W, box.H)
	return Rect{
		X: box.X + (box.W-w)*ax,
		Y: box.Y + (box.H-h)*ay,
		W: w,
		H: h,
	}
}
