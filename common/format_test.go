package common

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"gocloud.dev/blob/memblob"
)

func TestFormatStable(t *testing.T) {

	record := map[string]any{
		"id":   "demo",
		"tags": []string{"a", "b"},
	}

	first, err := Format(record, RecordWidth)

	if err != nil {
		t.Fatalf("Failed to format, %v", err)
	}

	if first[len(first)-1] != '\n' {
		t.Fatalf("Expected trailing newline")
	}

	// Round-tripping the formatted output must be byte-stable, which is
	// what makes repeated pipeline runs no-ops.

	var round map[string]any

	err = json.Unmarshal(first, &round)

	if err != nil {
		t.Fatalf("Failed to parse formatted output, %v", err)
	}

	second, err := Format(round, RecordWidth)

	if err != nil {
		t.Fatalf("Failed to format, %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Fatalf("Expected formatting to be idempotent:\n%s\n%s", first, second)
	}
}

func TestRewriteSkipsUnchanged(t *testing.T) {

	ctx := context.Background()

	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()

	body := []byte("{\n  \"id\": \"demo\"\n}\n")

	wrote, err := Rewrite(ctx, bucket, "demo.json", body, body)

	if err != nil {
		t.Fatalf("Failed to rewrite, %v", err)
	}

	if wrote {
		t.Fatalf("Expected identical content not to be written")
	}

	exists, err := bucket.Exists(ctx, "demo.json")

	if err != nil {
		t.Fatalf("Failed to check bucket, %v", err)
	}

	if exists {
		t.Fatalf("Expected no object to be written")
	}
}

func TestRewriteWritesChanged(t *testing.T) {

	ctx := context.Background()

	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()

	original := []byte("{\"id\":\"demo\"}")
	formatted := []byte("{\n  \"id\": \"demo\"\n}\n")

	wrote, err := Rewrite(ctx, bucket, "demo.json", formatted, original)

	if err != nil {
		t.Fatalf("Failed to rewrite, %v", err)
	}

	if !wrote {
		t.Fatalf("Expected changed content to be written")
	}

	body, err := bucket.ReadAll(ctx, "demo.json")

	if err != nil {
		t.Fatalf("Failed to read back, %v", err)
	}

	if !bytes.Equal(body, formatted) {
		t.Fatalf("Unexpected content written: %s", body)
	}
}

func TestCrawlRecordsFiltersAndOrders(t *testing.T) {

	ctx := context.Background()

	bucket := memblob.OpenBucket(nil)
	defer bucket.Close()

	records := map[string]string{
		"b.geojson":        "{}",
		"a.geojson":        "{}",
		"nested/c.geojson": "{}",
		"readme.md":        "ignore me",
	}

	for k, v := range records {

		err := bucket.WriteAll(ctx, k, []byte(v), nil)

		if err != nil {
			t.Fatalf("Failed to seed bucket, %v", err)
		}
	}

	var keys []string

	cb := func(key string, body []byte) error {
		keys = append(keys, key)
		return nil
	}

	err := CrawlRecords(ctx, bucket, ".geojson", cb)

	if err != nil {
		t.Fatalf("Failed to crawl, %v", err)
	}

	expected := []string{"a.geojson", "b.geojson", "nested/c.geojson"}

	if len(keys) != len(expected) {
		t.Fatalf("Expected %d records, got %v", len(expected), keys)
	}

	for i, k := range expected {

		if keys[i] != k {
			t.Fatalf("Expected lexical order %v, got %v", expected, keys)
		}
	}
}
