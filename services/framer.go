// services/framer.go
//
// Deterministic photo framing. The framed image is a pure function of the
// raw image bytes and the overlay label, so re-framing with unchanged inputs
// produces byte-identical output and framed photos can always be regenerated.
package services

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	_ "image/png"
	"strings"
	"time"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/xrkr80hd/EZApp/models"
	"github.com/xrkr80hd/EZApp/utils"
)

const framedJPEGQuality = 92

var (
	frameBarColor    = color.RGBA{R: 18, G: 24, B: 38, A: 255}
	frameLineColor   = color.RGBA{R: 52, G: 152, B: 219, A: 255}
	frameShadowColor = color.RGBA{R: 64, G: 64, B: 64, A: 255}
	frameTextColor   = color.RGBA{R: 255, G: 255, B: 255, A: 255}
)

// BuildFrameLabel renders "LAST - NN - Short Label - measurement".
func BuildFrameLabel(customer string, photoNumber int, measurement string) string {
	name := utils.CustomerLastName(customer)
	num := fmt.Sprintf("%02d", photoNumber)
	label := shortLabel(photoNumber)
	m := strings.TrimSpace(measurement)
	if m == "" {
		return fmt.Sprintf("%s - %s - %s", name, num, label)
	}
	return fmt.Sprintf("%s - %s - %s - %s", name, num, label, m)
}

// BuildFileName derives the downstream artifact name:
// Last.YYYY-MM-DD.NN.Short_Label.measurement.jpg
func BuildFileName(customer string, photoNumber int, measurement string, day time.Time) string {
	parts := []string{
		utils.CustomerLastName(customer),
		utils.DayStamp(day),
		fmt.Sprintf("%02d", photoNumber),
		utils.SanitizeFilePart(shortLabel(photoNumber)),
		utils.SanitizeFilePart(strings.TrimSpace(measurement)),
	}
	kept := parts[:0]
	for _, p := range parts {
		if p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, ".") + ".jpg"
}

func shortLabel(photoNumber int) string {
	if photoNumber >= 1 && photoNumber <= len(models.PhotoShortLabels) {
		return models.PhotoShortLabels[photoNumber-1]
	}
	return fmt.Sprintf("Photo %02d", photoNumber)
}

// FramePhoto appends a label bar under the raw image and returns the framed
// JPEG as a data URL. The bar is max(44px, 7.5% of image height).
func FramePhoto(rawDataURL, labelText string) (string, error) {
	img, err := decodeDataURL(rawDataURL)
	if err != nil {
		return "", err
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	frameHeight := int(float64(h)*0.075 + 0.5)
	if frameHeight < 44 {
		frameHeight = 44
	}

	framed := image.NewRGBA(image.Rect(0, 0, w, h+frameHeight))
	draw.Draw(framed, image.Rect(0, 0, w, h), img, bounds.Min, draw.Src)
	draw.Draw(framed, image.Rect(0, h, w, h+frameHeight), image.NewUniform(frameBarColor), image.Point{}, draw.Src)
	draw.Draw(framed, image.Rect(0, h, w, h+2), image.NewUniform(frameLineColor), image.Point{}, draw.Src)

	drawCenteredLabel(framed, labelText, w, h, frameHeight)

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, framed, &jpeg.Options{Quality: framedJPEGQuality}); err != nil {
		return "", fmt.Errorf("encode framed photo: %w", err)
	}
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func drawCenteredLabel(dst *image.RGBA, text string, w, imgH, frameHeight int) {
	face := basicfont.Face7x13
	textWidth := font.MeasureString(face, text).Ceil()
	x := (w - textWidth) / 2
	if x < 2 {
		x = 2
	}
	y := imgH + frameHeight/2 + face.Height/3

	shadow := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(frameShadowColor),
		Face: face,
		Dot:  fixed.P(x+1, y+1),
	}
	shadow.DrawString(text)

	label := &font.Drawer{
		Dst:  dst,
		Src:  image.NewUniform(frameTextColor),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	label.DrawString(text)
}

func decodeDataURL(dataURL string) (image.Image, error) {
	payload := dataURL
	if idx := strings.Index(dataURL, ","); idx >= 0 {
		payload = dataURL[idx+1:]
	}
	raw, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, fmt.Errorf("decode image data: %w", err)
	}
	img, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}
	return img, nil
}

// DataURLBase64 strips the data URL header, returning the raw base64 payload
// for zip packaging.
func DataURLBase64(dataURL string) string {
	if idx := strings.Index(dataURL, ","); idx >= 0 {
		return dataURL[idx+1:]
	}
	return dataURL
}
