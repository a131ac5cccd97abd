package minioctrl

import (
	"context"
	"fmt"
)

// ArtifactArchive keeps raw uploads in the artifacts bucket, keyed
// <sessionID>/<name>.
type ArtifactArchive struct {
	service *MinioService
}

func NewArtifactArchive(ctx context.Context, service *MinioService) (*ArtifactArchive, error) {
	if err := service.EnsureBucketExists(ctx, ArtifactsBucket); err != nil {
		return nil, fmt.Errorf("failed to ensure artifacts bucket: %w", err)
	}

	return &ArtifactArchive{service: service}, nil
}

// Archive stores one upload.
func (a *ArtifactArchive) Archive(ctx context.Context, sessionID, name string, data []byte) error {
	key := sessionID + "/" + name
	if err := a.service.PutObject(ctx, ArtifactsBucket, key, data); err != nil {
		return fmt.Errorf("failed to archive %s: %w", key, err)
	}
	return nil
}

// Purge removes a session's archived uploads.
func (a *ArtifactArchive) Purge(ctx context.Context, sessionID string) error {
	names, err := a.service.ListObjects(ctx, ArtifactsBucket, sessionID+"/")
	if err != nil {
		return fmt.Errorf("failed to list session archive: %w", err)
	}
	if len(names) == 0 {
		return nil
	}

	if err := a.service.DeleteObjects(ctx, ArtifactsBucket, names); err != nil {
		return fmt.Errorf("failed to purge session archive: %w", err)
	}
	return nil
}

// Healthy reports whether the artifacts bucket is reachable.
func (a *ArtifactArchive) Healthy(ctx context.Context) bool {
	return a.service.EnsureBucketExists(ctx, ArtifactsBucket) == nil
}
