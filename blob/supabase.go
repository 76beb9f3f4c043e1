package blob

import (
	"context"
	"fmt"
	"io"

	storage_go "github.com/supabase-community/storage-go"
	supa "github.com/supabase-community/supabase-go"
)

// Supabase uploads into a Supabase Storage bucket.
type Supabase struct {
	client *supa.Client
	bucket string
}

func NewSupabase(client *supa.Client, bucket string) *Supabase {
	return &Supabase{client: client, bucket: bucket}
}

func (s *Supabase) Upload(ctx context.Context, objectPath string, r io.Reader) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	upsert := false
	if _, err := s.client.Storage.UploadFile(s.bucket, objectPath, r, storage_go.FileOptions{Upsert: &upsert}); err != nil {
		return "", fmt.Errorf("upload %s/%s: %w", s.bucket, objectPath, err)
	}
	return objectPath, nil
}
