// Package imageprobe resolves image references and reads their pixel size.
//
// A reference is either a path relative to the upload root or an http(s)
// URL. [Router] dispatches between a [FileSource] and an [HTTPSource];
// [Prober] reads only the image header and caches the result, so repeated
// references across products and runs are decoded once.
//
// PNG, JPEG, GIF, WebP, BMP and TIFF are recognised.
package imageprobe
