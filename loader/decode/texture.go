package decode

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
)

// Image 解码后的贴图
type Image struct {
	Image  image.Image
	Format string
	Width  int
	Height int
}

// Texture 将 PNG / JPEG / GIF 字节解码为 *Image
func Texture(data []byte) (any, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode: texture: %w", err)
	}
	b := img.Bounds()
	return &Image{Image: img, Format: format, Width: b.Dx(), Height: b.Dy()}, nil
}
