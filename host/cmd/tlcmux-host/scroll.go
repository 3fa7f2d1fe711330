package main

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/rs/zerolog/log"

	"tlcmux/host/blend"
	"tlcmux/host/config"
	"tlcmux/host/tlcmux"
)

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	log.Debug().Str("path", path).Str("format", format).Stringer("bounds", img.Bounds()).Msg("image loaded")
	return img, nil
}

// runScroll clears the matrix and scrolls the image until ctx ends
func runScroll(ctx context.Context, c *tlcmux.Client, cfg *config.Config, path string) error {
	if path == "" {
		return fmt.Errorf("scroll: no image given")
	}
	img, err := loadImage(path)
	if err != nil {
		return err
	}
	period, err := cfg.ScrollPeriod()
	if err != nil {
		return err
	}

	p, err := blend.New(blend.FromImage(img), c.Shape(),
		blend.WithSteps(cfg.Scroll.BlendSteps),
		blend.WithLogger(log.Logger.With().Str("image", path).Logger()),
	)
	if err != nil {
		return err
	}

	if err := c.Clear(); err != nil {
		return err
	}
	return p.Run(ctx, c, period)
}
