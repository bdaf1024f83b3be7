// image.go — декодирование, масштабирование и кодирование растровых изображений.
package codec

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"math"

	"github.com/HugoSmits86/nativewebp"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"

	// Регистрация декодеров для image.Decode / image.DecodeConfig
	_ "golang.org/x/image/webp"
)

// IconSize — сторона иконки ICO в пикселях.
const IconSize = 32

// DefaultQuality — качество JPEG по умолчанию.
const DefaultQuality = 90

// ImageInfo — сведения об изображении без полного декодирования.
type ImageInfo struct {
	Width    int
	Height   int
	Format   string
	HasAlpha bool
	// Density — плотность в DPI, 0 если не указана в файле
	Density int
}

// DecodeImage декодирует изображение любого зарегистрированного формата.
// Возвращает изображение и имя формата (png, jpeg, gif, bmp, tiff, webp).
func DecodeImage(data []byte) (image.Image, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", wrap(SubsystemImage, "decode", err)
	}
	return img, format, nil
}

// EncodeImage кодирует изображение в целевой формат.
// quality применяется только к JPEG и ограничивается диапазоном 1..100.
func EncodeImage(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var err error

	switch format {
	case "png":
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		err = enc.Encode(&buf, img)
	case "jpg", "jpeg":
		err = jpeg.Encode(&buf, img, &jpeg.Options{Quality: clampQuality(quality)})
	case "gif":
		err = gif.Encode(&buf, img, &gif.Options{NumColors: 256})
	case "bmp":
		err = bmp.Encode(&buf, img)
	case "tiff":
		err = tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	case "webp":
		err = nativewebp.Encode(&buf, img, nil)
	case "ico":
		return EncodeICO(img)
	default:
		err = fmt.Errorf("%w: %s", ErrUnsupported, format)
	}

	if err != nil {
		return nil, wrap(SubsystemImage, "encode "+format, err)
	}
	return buf.Bytes(), nil
}

// Resize масштабирует изображение до w×h фильтром Catmull-Rom.
func Resize(img image.Image, w, h int) image.Image {
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), img, img.Bounds(), draw.Over, nil)
	return dst
}

// EncodeICO масштабирует изображение до 32×32 и упаковывает PNG
// в контейнер ICO с одной записью.
func EncodeICO(img image.Image) ([]byte, error) {
	var pngBuf bytes.Buffer
	if err := png.Encode(&pngBuf, Resize(img, IconSize, IconSize)); err != nil {
		return nil, wrap(SubsystemImage, "encode ico", err)
	}

	const headerSize = 6 + 16
	var buf bytes.Buffer
	buf.Grow(headerSize + pngBuf.Len())

	// ICONDIR: reserved, type=1 (icon), count=1
	_ = binary.Write(&buf, binary.LittleEndian, [3]uint16{0, 1, 1})
	// ICONDIRENTRY
	buf.WriteByte(IconSize)                                 // ширина
	buf.WriteByte(IconSize)                                 // высота
	buf.WriteByte(0)                                        // палитра
	buf.WriteByte(0)                                        // reserved
	_ = binary.Write(&buf, binary.LittleEndian, uint16(1))  // color planes
	_ = binary.Write(&buf, binary.LittleEndian, uint16(32)) // bits per pixel
	_ = binary.Write(&buf, binary.LittleEndian, uint32(pngBuf.Len()))
	_ = binary.Write(&buf, binary.LittleEndian, uint32(headerSize))
	buf.Write(pngBuf.Bytes())

	return buf.Bytes(), nil
}

// ProbeImage читает размеры, формат, наличие альфа-канала и плотность
// без декодирования пикселей.
func ProbeImage(data []byte) (*ImageInfo, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, wrap(SubsystemImage, "probe", err)
	}

	info := &ImageInfo{
		Width:    cfg.Width,
		Height:   cfg.Height,
		Format:   format,
		HasAlpha: modelHasAlpha(cfg.ColorModel),
	}

	switch format {
	case "png":
		info.HasAlpha = pngHasAlpha(data)
		info.Density = pngDensity(data)
	case "jpeg":
		info.Density = jfifDensity(data)
	}

	return info, nil
}

// FitWithin возвращает размеры w×h, уменьшенные с сохранением пропорций
// до вписывания в maxW×maxH. Меньшие размеры не увеличиваются.
func FitWithin(w, h, maxW, maxH float64) (float64, float64) {
	if w <= 0 || h <= 0 {
		return 0, 0
	}
	scale := math.Min(1, math.Min(maxW/w, maxH/h))
	return w * scale, h * scale
}

func clampQuality(q int) int {
	switch {
	case q <= 0:
		return DefaultQuality
	case q > 100:
		return 100
	default:
		return q
	}
}

// modelHasAlpha определяет, может ли цветовая модель хранить прозрачность.
func modelHasAlpha(m color.Model) bool {
	switch m {
	case color.RGBAModel, color.RGBA64Model, color.NRGBAModel, color.NRGBA64Model,
		color.AlphaModel, color.Alpha16Model:
		return true
	}
	if p, ok := m.(color.Palette); ok {
		for _, c := range p {
			if _, _, _, a := c.RGBA(); a != 0xffff {
				return true
			}
		}
	}
	return false
}

// pngHasAlpha проверяет тип цвета в IHDR и наличие чанка tRNS.
// DecodeConfig сообщает RGBA-модель и для непрозрачных truecolor PNG.
func pngHasAlpha(data []byte) bool {
	const colorTypeOffset = 8 + 8 + 9
	if len(data) <= colorTypeOffset {
		return false
	}
	if data[colorTypeOffset]&4 != 0 {
		return true
	}
	found := false
	walkPNGChunks(data, func(typ string, _ []byte) bool {
		if typ == "tRNS" {
			found = true
			return false
		}
		return typ != "IDAT"
	})
	return found
}

// pngDensity читает чанк pHYs. Возвращает DPI или 0.
func pngDensity(data []byte) int {
	dpi := 0
	walkPNGChunks(data, func(typ string, body []byte) bool {
		switch typ {
		case "pHYs":
			// единица измерения 1 — метр
			if len(body) >= 9 && body[8] == 1 {
				ppm := binary.BigEndian.Uint32(body)
				dpi = int(math.Round(float64(ppm) * 0.0254))
			}
			return false
		case "IDAT":
			return false
		}
		return true
	})
	return dpi
}

// walkPNGChunks перебирает чанки PNG, пока fn возвращает true.
func walkPNGChunks(data []byte, fn func(typ string, body []byte) bool) {
	const sigLen = 8
	pos := sigLen
	for pos+8 <= len(data) {
		length := int(binary.BigEndian.Uint32(data[pos:]))
		typ := string(data[pos+4 : pos+8])
		body := pos + 8
		if body+length > len(data) {
			return
		}
		if !fn(typ, data[body:body+length]) {
			return
		}
		pos = body + length + 4 // + CRC
	}
}

// jfifDensity читает плотность из сегмента APP0/JFIF. Возвращает DPI или 0.
func jfifDensity(data []byte) int {
	// SOI (2) + APP0 marker (2) + length (2) + "JFIF\0" (5) + version (2) + units (1) + Xdensity (2)
	if len(data) < 20 || data[0] != 0xFF || data[1] != 0xD8 || data[2] != 0xFF || data[3] != 0xE0 {
		return 0
	}
	if string(data[6:11]) != "JFIF\x00" {
		return 0
	}
	units := data[13]
	density := int(binary.BigEndian.Uint16(data[14:16]))
	switch units {
	case 1:
		return density
	case 2:
		return int(math.Round(float64(density) * 2.54))
	default:
		return 0
	}
}
