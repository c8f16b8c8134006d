package protoplain

import (
	"context"
	"fmt"
	"runtime"

	"golang.org/x/sync/errgroup"
	"google.golang.org/protobuf/reflect/protoreflect"
)

// FromObjects creates a message from each of the given plain values. The
// conversions run concurrently, with at most GOMAXPROCS at a time. The
// results are in the same order as the given objects.
//
// If any conversion fails or the context is cancelled, an error is returned
// and no messages are returned.
func (t *Type) FromObjects(ctx context.Context, objects []any) ([]protoreflect.Message, error) {
	results := make([]protoreflect.Message, len(objects))
	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(runtime.GOMAXPROCS(0))
	for i, obj := range objects {
		i, obj := i, obj
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			msg, err := t.FromObject(obj)
			if err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			results[i] = msg
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ToObjects renders each of the given messages as a plain value. Like
// FromObjects, the conversions run concurrently and the results are in the
// same order as the given messages.
func (t *Type) ToObjects(ctx context.Context, msgs []protoreflect.Message, opts ConversionOptions) ([]any, error) {
	results := make([]any, len(msgs))
	grp, ctx := errgroup.WithContext(ctx)
	grp.SetLimit(runtime.GOMAXPROCS(0))
	for i, msg := range msgs {
		i, msg := i, msg
		grp.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			obj, err := t.ToObject(msg, opts)
			if err != nil {
				return fmt.Errorf("item %d: %w", i, err)
			}
			results[i] = obj
			return nil
		})
	}
	if err := grp.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
