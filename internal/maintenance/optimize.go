// Package maintenance implements the operator jobs run by sitectl.
package maintenance

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/lieuxdexception/site/internal/images"
	"github.com/lieuxdexception/site/internal/media"
	"github.com/lieuxdexception/site/internal/storage"
	"github.com/lieuxdexception/site/internal/venues"
	"github.com/lieuxdexception/site/pkg/logger"
)

// OptimizeOptions selects what optimize-images does. Verify only reports;
// DryRun reports what would be written; Update rewrites venue references to
// the largest variant once it exists.
type OptimizeOptions struct {
	Prefix string
	Verify bool
	Update bool
	DryRun bool
}

type OptimizeReport struct {
	Originals int `json:"originals"`
	Generated int `json:"generated"`
	Failed    int `json:"failed"`
	Updated   int `json:"updatedVenues"`
	// Missing lists originals lacking at least one variant.
	Missing []string `json:"missing,omitempty"`
}

// Optimizer walks the object store and produces the preset variants of every
// original image.
type Optimizer struct {
	Store   storage.BlobStore
	Presets []images.Preset
	Venues  *venues.Service
	Out     io.Writer

	log *logger.Component
}

func (o *Optimizer) printf(format string, v ...interface{}) {
	if o.Out != nil {
		fmt.Fprintf(o.Out, format, v...)
	}
}

// Run processes every original under opts.Prefix. Per-image failures are
// counted and logged; only listing errors abort the walk.
func (o *Optimizer) Run(ctx context.Context, opts OptimizeOptions) (OptimizeReport, error) {
	if o.log == nil {
		o.log = logger.For("optimize")
	}
	var rep OptimizeReport
	if len(o.Presets) == 0 {
		return rep, fmt.Errorf("no image presets")
	}
	prefix, err := storage.CleanKey(opts.Prefix)
	if err != nil {
		return rep, fmt.Errorf("prefix %q: %w", opts.Prefix, err)
	}
	largest := o.Presets[len(o.Presets)-1]
	if p, ok := images.Find(o.Presets, "large"); ok {
		largest = p
	}

	after := ""
	for {
		if err := ctx.Err(); err != nil {
			return rep, err
		}
		page, err := o.Store.List(ctx, prefix, after, storage.MaxListLimit)
		if err != nil {
			return rep, fmt.Errorf("list %q: %w", prefix, err)
		}
		for _, obj := range page.Objects {
			// uploaded media already carry their variants
			if !images.IsOriginal(obj.Key) || strings.HasPrefix(obj.Key, media.KeyPrefix) {
				continue
			}
			rep.Originals++
			if err := o.processOne(ctx, obj.Key, largest, opts, &rep); err != nil {
				rep.Failed++
				o.log.Errorf("%s: %v", obj.Key, err)
				o.printf("FAIL %s: %v\n", obj.Key, err)
			}
		}
		if !page.Truncated || page.NextStartAfter == "" {
			break
		}
		after = page.NextStartAfter
	}
	return rep, nil
}

func (o *Optimizer) processOne(ctx context.Context, key string, largest images.Preset, opts OptimizeOptions, rep *OptimizeReport) error {
	var missing []images.Preset
	for _, p := range o.Presets {
		ok, err := o.Store.Exists(ctx, images.VariantKey(key, p))
		if err != nil {
			return err
		}
		if !ok {
			missing = append(missing, p)
		}
	}
	if len(missing) > 0 {
		rep.Missing = append(rep.Missing, key)
	}

	switch {
	case opts.Verify:
		for _, p := range missing {
			o.printf("missing %s\n", images.VariantKey(key, p))
		}
		return nil
	case opts.DryRun:
		for _, p := range missing {
			o.printf("would write %s\n", images.VariantKey(key, p))
		}
		if opts.Update {
			o.printf("would point venues at %s\n", images.VariantKey(key, largest))
		}
		return nil
	}

	if len(missing) > 0 {
		if err := o.generate(ctx, key, missing, rep); err != nil {
			return err
		}
	}
	if opts.Update {
		n, err := o.Venues.ReplaceImage(ctx, key, images.VariantKey(key, largest))
		if err != nil {
			return err
		}
		rep.Updated += n
	}
	return nil
}

func (o *Optimizer) generate(ctx context.Context, key string, presets []images.Preset, rep *OptimizeReport) error {
	rc, err := o.Store.Download(ctx, key)
	if err != nil {
		return err
	}
	img, err := images.Decode(rc)
	rc.Close()
	if err != nil {
		return err
	}
	for _, p := range presets {
		res, err := images.Encode(img, p)
		if err != nil {
			return err
		}
		vk := images.VariantKey(key, p)
		if err := o.Store.Upload(ctx, vk, bytes.NewReader(res.Data), int64(len(res.Data)), "image/jpeg"); err != nil {
			return fmt.Errorf("upload %s: %w", vk, err)
		}
		rep.Generated++
		o.printf("wrote %s (%dx%d)\n", vk, res.Width, res.Height)
	}
	return nil
}
