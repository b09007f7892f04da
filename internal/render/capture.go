package render

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"strings"
)

// CaptureKind selects which plane a debug capture dumps.
type CaptureKind uint8

const (
	// CaptureOffscreen writes the color plane as plain text.
	CaptureOffscreen CaptureKind = iota
	// CapturePicking writes the picking plane as an RGBA PNG.
	CapturePicking
)

func (k CaptureKind) String() string {
	switch k {
	case CaptureOffscreen:
		return "offscreen"
	case CapturePicking:
		return "picking"
	}
	return fmt.Sprintf("capture(%d)", uint8(k))
}

func writeCapture(fb *Framebuffer, kind CaptureKind, path string) error {
	switch kind {
	case CaptureOffscreen:
		var sb strings.Builder
		for y := 0; y < fb.Height; y++ {
			sb.WriteString(fb.Row(y))
			sb.WriteByte('\n')
		}
		if err := os.WriteFile(path, []byte(sb.String()), 0o644); err != nil {
			return fmt.Errorf("write capture: %w", err)
		}
		return nil
	case CapturePicking:
		img := image.NewRGBA(image.Rect(0, 0, fb.Width, fb.Height))
		copy(img.Pix, fb.Pick)
		f, err := os.Create(path)
		if err != nil {
			return fmt.Errorf("create capture: %w", err)
		}
		defer f.Close()
		if err := png.Encode(f, img); err != nil {
			return fmt.Errorf("encode capture: %w", err)
		}
		return nil
	}
	return fmt.Errorf("unknown capture kind %s", kind)
}
