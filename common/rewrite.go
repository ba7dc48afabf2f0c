package common

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
	"gocloud.dev/blob"
)

// Rewrite writes formatted back to key only when it differs byte for
// byte from original, and reports whether it wrote. This is what makes
// repeated runs produce no diff noise.
func Rewrite(ctx context.Context, bucket *blob.Bucket, key string, formatted []byte, original []byte) (bool, error) {

	if bytes.Equal(formatted, original) {
		return false, nil
	}

	err := bucket.WriteAll(ctx, key, formatted, nil)

	if err != nil {
		return false, fmt.Errorf("Failed to write '%s', %w", key, err)
	}

	return true, nil
}

// WriteFileAtomic writes a published artifact to path, creating parent
// directories as needed. The file is replaced atomically so a crash
// mid-run never leaves a half-written artifact.
func WriteFileAtomic(path string, body []byte) error {

	root := filepath.Dir(path)

	err := os.MkdirAll(root, 0755)

	if err != nil {
		return fmt.Errorf("Failed to create '%s', %w", root, err)
	}

	err = atomic.WriteFile(path, bytes.NewReader(body))

	if err != nil {
		return fmt.Errorf("Failed to write '%s', %w", path, err)
	}

	return nil
}
