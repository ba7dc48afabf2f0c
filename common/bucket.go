package common

/*

You might be thinking: I know, I'll make a common pool of buckets that all the
codes can use! It's okay, I thought that too. The problem is that if you call
the bucket's Close() method in your code (and you should call it _somewhere_)
then it will stop working (as expected) for all the other code that currently
has an instance of it. It's just not worth the logistics to bother with a pool
of buckets so create them as one-offs, as needed.

*/

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"gocloud.dev/blob"
	_ "gocloud.dev/blob/fileblob"
)

// OpenBucket returns a gocloud.dev/blob.Bucket instance for uri. A bare
// filesystem path is treated as a local file bucket and created if it
// does not exist yet.
func OpenBucket(ctx context.Context, uri string) (*blob.Bucket, error) {

	if !strings.Contains(uri, "://") {

		abs, err := filepath.Abs(uri)

		if err != nil {
			return nil, fmt.Errorf("Failed to derive absolute path for '%s', %w", uri, err)
		}

		uri = fmt.Sprintf("file://%s?create_dir=true", filepath.ToSlash(abs))
	}

	bucket, err := blob.OpenBucket(ctx, uri)

	if err != nil {
		return nil, fmt.Errorf("Failed to open bucket for '%s', %w", uri, err)
	}

	return bucket, nil
}
