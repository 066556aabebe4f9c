package main

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/charmbracelet/log"
	"golang.org/x/sync/errgroup"
)

// ImageFiller requests the images of a board's surprise cards.
type ImageFiller struct {
	images ImageGenerator
	themes ThemeTable
	logger *log.Logger
}

// NewImageFiller creates a filler. A nil generator never produces images.
func NewImageFiller(images ImageGenerator, themes ThemeTable, logger *log.Logger) *ImageFiller {
	return &ImageFiller{images: images, themes: themes, logger: logger}
}

// FillResult counts what happened to a batch's image requests.
type FillResult struct {
	Requested int
	Filled    int
	Failed    int
	Stale     int // produced after the batch stopped being live
}

// Fill issues one image request per pending surprise item of board, all at
// once, and waits for every one to finish. Each success is handed to attach
// as it arrives; attach reports whether the batch was still live. Failures
// leave the item without an image. Nothing is retried.
//
// ctx scopes the batch: once it is cancelled no new request starts and late
// results are dropped.
func (f *ImageFiller) Fill(ctx context.Context, board *Board, attach func(itemID, url string) bool) FillResult {
	pending := board.PendingImages()
	res := FillResult{Requested: len(pending)}
	if len(pending) == 0 {
		return res
	}

	style := f.themes.Get(board.Theme).Style
	logger := f.logger.With("batch", board.ID, "theme", board.Theme)
	start := time.Now()

	var filled, failed, stale atomic.Int32
	var g errgroup.Group
	for _, item := range pending {
		g.Go(func() error {
			if ctx.Err() != nil {
				stale.Add(1)
				return nil
			}
			if f.images == nil {
				failed.Add(1)
				return nil
			}

			url, err := f.images.GenerateImage(ctx, board.Theme, style)
			switch {
			case ctx.Err() != nil:
				stale.Add(1)
			case err != nil:
				failed.Add(1)
				logger.Warn("image generation failed", "item", item.ID, "err", err)
			case !attach(item.ID, url):
				stale.Add(1)
			default:
				filled.Add(1)
			}
			// Failures stay local to their item.
			return nil
		})
	}
	g.Wait()

	res.Filled = int(filled.Load())
	res.Failed = int(failed.Load())
	res.Stale = int(stale.Load())
	logger.Debug("image batch settled",
		"requested", res.Requested, "filled", res.Filled,
		"failed", res.Failed, "stale", res.Stale,
		"elapsed", time.Since(start).Round(time.Millisecond))
	return res
}
