package pipeline

import (
	"context"
	"fmt"
	"io"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/roach88/leapcal/internal/config"
	"github.com/roach88/leapcal/internal/sources"
)

// inputs holds the parsed source files. Fields of unconfigured sources
// are nil.
type inputs struct {
	historical  *sources.Set
	predictions *sources.Set
	records     *sources.Set
	bulletinA   *sources.BulletinA
	finals      *sources.Finals
	bulletinC   *sources.BulletinC
}

// readInputs parses every configured source concurrently. Each reader
// writes its own field, so no locking is needed. The first failure cancels
// the readers that have not started.
func readInputs(ctx context.Context, src config.SourcesConfig) (*inputs, error) {
	in := &inputs{}
	g, ctx := errgroup.WithContext(ctx)

	read := func(path string, parse func(io.Reader) error) {
		if path == "" {
			return
		}
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			f, err := os.Open(path)
			if err != nil {
				return fmt.Errorf("open source: %w", err)
			}
			defer f.Close()
			if err := parse(f); err != nil {
				return fmt.Errorf("%s: %w", path, err)
			}
			return nil
		})
	}

	read(src.Historical, func(r io.Reader) (err error) {
		in.historical, err = sources.ReadHistorical(r)
		return err
	})
	read(src.USNOPredictions, func(r io.Reader) (err error) {
		in.predictions, err = sources.ReadUSNOPredictions(r)
		return err
	})
	read(src.USNORecords, func(r io.Reader) (err error) {
		in.records, err = sources.ReadUSNORecords(r)
		return err
	})
	read(src.BulletinA, func(r io.Reader) (err error) {
		in.bulletinA, err = sources.ParseBulletinA(r)
		return err
	})
	read(src.IERSFinals, func(r io.Reader) (err error) {
		in.finals, err = sources.ReadIERSFinals(r)
		return err
	})
	read(src.BulletinC, func(r io.Reader) (err error) {
		in.bulletinC, err = sources.ParseBulletinC(r)
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	if in.historical == nil {
		return nil, fmt.Errorf("no historical source configured")
	}
	return in, nil
}
