package common

import (
	"context"
	"fmt"
	"io"
	"strings"

	"gocloud.dev/blob"
)

// RecordCallbackFunc is invoked once per catalog record with the key of
// the record relative to the bucket root and its raw contents. Returning
// an error stops the crawl.
type RecordCallbackFunc func(key string, body []byte) error

// CrawlRecords walks every object in bucket whose name ends in suffix,
// in lexical order, and hands it to cb. The crawl is deliberately
// synchronous: record processing is order-sensitive (the first file
// claiming an id wins) and any error aborts the whole run.
func CrawlRecords(ctx context.Context, bucket *blob.Bucket, suffix string, cb RecordCallbackFunc) error {

	var list func(context.Context, *blob.Bucket, string) error

	list = func(ctx context.Context, b *blob.Bucket, prefix string) error {

		iter := b.List(&blob.ListOptions{
			Delimiter: "/",
			Prefix:    prefix,
		})

		for {

			select {
			case <-ctx.Done():
				return ctx.Err()
			default:
				// pass
			}

			obj, err := iter.Next(ctx)

			if err == io.EOF {
				break
			}

			if err != nil {
				return fmt.Errorf("Failed to list records in '%s', %w", prefix, err)
			}

			if obj.IsDir {

				err := list(ctx, b, obj.Key)

				if err != nil {
					return err
				}

				continue
			}

			if !strings.HasSuffix(obj.Key, suffix) {
				continue
			}

			body, err := b.ReadAll(ctx, obj.Key)

			if err != nil {
				return fmt.Errorf("Failed to read '%s', %w", obj.Key, err)
			}

			err = cb(obj.Key, body)

			if err != nil {
				return err
			}
		}

		return nil
	}

	return list(ctx, bucket, "")
}
