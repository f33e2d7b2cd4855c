// Package render draws a game state into an image for the browser.
package render

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"github.com/hoshinonyaruko/snake-web/memimg"
	"github.com/hoshinonyaruko/snake-web/structs"
)

// Options controls the rendered frame.
type Options struct {
	BlockSize int    // 每个格子的像素
	FoodName  string // 食物贴图名称，找不到时画红色方块
}

// Board renders st. Row y=0 is drawn at the bottom so that Up moves the
// snake towards the top of the image. Finished games are blurred and carry a banner.
func Board(st structs.GameState, opts Options) image.Image {
	blockSize := opts.BlockSize
	if blockSize <= 0 {
		blockSize = 20
	}
	width := st.Width * blockSize
	height := st.Height * blockSize

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	renderGrid(dc, width, height, blockSize)

	cell := func(c structs.Coordinate) (float64, float64) {
		return float64(c.X * blockSize), float64((st.Height - 1 - c.Y) * blockSize)
	}

	for i, pos := range st.Body {
		x, y := cell(pos)
		if i == 0 {
			dc.SetRGB(0.1, 0.45, 0.1)
		} else {
			dc.SetRGB(0.3, 0.7, 0.3)
		}
		dc.DrawRectangle(x+1, y+1, float64(blockSize-2), float64(blockSize-2))
		dc.Fill()
	}

	if st.Food != nil {
		x, y := cell(*st.Food)
		if img, found := memimg.GetFoodFromMemory(opts.FoodName); found {
			dc.DrawImage(img, int(x), int(y))
		} else {
			dc.SetRGB(0.85, 0.1, 0.1)
			dc.DrawRectangle(x+2, y+2, float64(blockSize-4), float64(blockSize-4))
			dc.Fill()
		}
	}

	dc.SetRGB(0, 0, 0)
	dc.DrawString(fmt.Sprintf("score %d", st.Score), 4, 14)

	if st.Status != "over" && st.Status != "board_full" {
		return dc.Image()
	}

	final := gg.NewContextForImage(imaging.Blur(dc.Image(), 2.5))
	final.SetRGBA(0, 0, 0, 0.5)
	final.DrawRectangle(0, float64(height)/2-20, float64(width), 40)
	final.Fill()
	final.SetRGB(1, 1, 1)
	banner := "GAME OVER"
	if st.Status == "board_full" {
		banner = "BOARD FULL"
	}
	final.DrawStringAnchored(fmt.Sprintf("%s  score %d", banner, st.Score), float64(width)/2, float64(height)/2, 0.5, 0.5)
	return final.Image()
}

func renderGrid(dc *gg.Context, width, height, blockSize int) {
	dc.SetRGB(0.9, 0.9, 0.9)
	for x := 0; x <= width; x += blockSize {
		dc.DrawLine(float64(x), 0, float64(x), float64(height))
		dc.Stroke()
	}
	for y := 0; y <= height; y += blockSize {
		dc.DrawLine(0, float64(y), float64(width), float64(y))
		dc.Stroke()
	}
}

// SavePNG writes img to fileName, creating the parent directory. The image
// is encoded into a temp file next to fileName and renamed over it, so a
// reader never sees a partly written file.
func SavePNG(img image.Image, fileName string) error {
	dir := filepath.Dir(fileName)
	if err := os.MkdirAll(dir, os.ModePerm); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(fileName)+"-*.tmp")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name()) // no-op once renamed

	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		return fmt.Errorf("encoding %s: %w", fileName, err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	// CreateTemp opens with 0600; the static route serves these files
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), fileName)
}
