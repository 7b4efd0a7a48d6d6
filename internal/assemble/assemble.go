package assemble

import (
	"context"
	"image"

	"regift/internal/services"
)

// Assemble writes frames in slice order with the same frame metadata and
// returns the published destination. Any failure leaves no file behind.
func (a *Assembler) Assemble(ctx context.Context, frames []image.Image, opts Options) (string, error) {
	if opts.ExpectedCount == 0 {
		opts.ExpectedCount = len(frames)
	}
	session, err := a.Begin(ctx, opts)
	if err != nil {
		return "", err
	}
	defer session.Close()

	for _, img := range frames {
		if err := ctx.Err(); err != nil {
			return "", services.FromContext("assemble", "append", err)
		}
		if err := session.Append(img, opts.Frame); err != nil {
			return "", err
		}
	}
	return session.Commit()
}
