package driven

import "github.com/holobase-labs/seqpack-cli/internal/core/domain"

// MetadataSource reads embedded capture metadata from one image file.
type MetadataSource interface {
	// Extract returns the image's metadata. Missing or corrupt metadata is
	// an expected condition and yields an empty ImageMetadata with no
	// error; only a file that cannot be opened at all returns one.
	Extract(path string) (*domain.ImageMetadata, error)
}
