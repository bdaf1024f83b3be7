// pdf.go — одностраничные PDF: текстовая страница и страница с изображением.
package codec

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/go-pdf/fpdf"
)

// Геометрия страницы A4 в пунктах. Координаты текста и изображения
// задаются от нижнего края страницы.
const (
	PageWidth  = 595.0
	PageHeight = 842.0

	pdfMargin     = 50.0
	pdfTextTop    = 800.0
	pdfTextBottom = 50.0
	pdfLineStep   = 20.0
	pdfFontSize   = 10.0

	// PDFMaxLines — максимум строк исходного текста на странице.
	PDFMaxLines = 40
	// PDFLineWidth — максимум символов в строке.
	PDFLineWidth = 80

	pdfImageScale = 0.5
	pdfImageMaxW  = 500.0
	pdfImageMaxH  = 350.0
	pdfImageY     = 400.0
)

func newPDF() *fpdf.Fpdf {
	pdf := fpdf.NewCustom(&fpdf.InitType{
		OrientationStr: "P",
		UnitStr:        "pt",
		Size:           fpdf.SizeType{Wd: PageWidth, Ht: PageHeight},
	})
	pdf.SetAutoPageBreak(false, 0)
	pdf.SetCreator("converter", true)
	pdf.SetFont("Helvetica", "", pdfFontSize)
	pdf.AddPage()
	return pdf
}

func finishPDF(pdf *fpdf.Fpdf, sub Subsystem) ([]byte, error) {
	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, wrap(sub, "pdf", err)
	}
	return buf.Bytes(), nil
}

// BlankPDF возвращает документ из одной пустой страницы.
func BlankPDF() ([]byte, error) {
	return finishPDF(newPDF(), SubsystemDocument)
}

// TextPDF раскладывает текст на одной странице: не более PDFMaxLines строк,
// каждая обрезается до PDFLineWidth символов, вывод прекращается у нижнего поля.
// Символы вне cp1252 заменяются встроенным транслятором шрифта.
func TextPDF(text string) ([]byte, error) {
	pdf := newPDF()
	tr := pdf.UnicodeTranslatorFromDescriptor("")

	lines := strings.Split(text, "\n")
	lines = lines[:min(len(lines), PDFMaxLines)]

	y := pdfTextTop
	for _, line := range lines {
		if y < pdfTextBottom {
			break
		}
		line = truncateRunes(strings.TrimRight(line, "\r"), PDFLineWidth)
		if line != "" {
			pdf.Text(pdfMargin, PageHeight-y, tr(line))
		}
		y -= pdfLineStep
	}

	return finishPDF(pdf, SubsystemDocument)
}

// ImagePDF размещает PNG или JPEG на странице: масштаб 0.5, вписывание в
// 500×350 с сохранением пропорций, нижний левый угол в (50, 400).
func ImagePDF(data []byte) ([]byte, error) {
	info, err := ProbeImage(data)
	if err != nil {
		return nil, err
	}

	var imageType string
	switch info.Format {
	case "png":
		imageType = "PNG"
	case "jpeg":
		imageType = "JPG"
	default:
		return nil, wrap(SubsystemImage, "pdf", fmt.Errorf("%w: %s", ErrUnsupported, info.Format))
	}

	w, h := FitWithin(float64(info.Width)*pdfImageScale, float64(info.Height)*pdfImageScale,
		pdfImageMaxW, pdfImageMaxH)

	pdf := newPDF()
	opts := fpdf.ImageOptions{ImageType: imageType}
	pdf.RegisterImageOptionsReader("source", opts, bytes.NewReader(data))
	pdf.ImageOptions("source", pdfMargin, PageHeight-pdfImageY-h, w, h, false, opts, 0, "")

	return finishPDF(pdf, SubsystemImage)
}

func truncateRunes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}
