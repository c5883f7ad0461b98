package artifact

import (
	"context"
	"encoding/json"
	"fmt"
)

// Publish copies the artifact in src to sink. The manifest is uploaded last
// so readers of the sink never see a manifest ahead of its data files.
func Publish(ctx context.Context, src Source, sink Sink) (Manifest, error) {
	// validates everything, including the checksum, before anything is uploaded
	art, err := Load(ctx, src)
	if err != nil {
		return Manifest{}, err
	}
	names := []string{art.Manifest.EntriesFile, art.Manifest.VectorsFile}
	if art.Manifest.RepresenterFile != "" {
		names = append(names, art.Manifest.RepresenterFile)
	}
	for _, name := range names {
		data, err := readAll(ctx, src, name, 1<<32)
		if err != nil {
			return Manifest{}, err
		}
		if err := sink.Put(ctx, name, data); err != nil {
			return Manifest{}, fmt.Errorf("publish %s to %s: %w", name, sink, err)
		}
	}
	mb, err := json.MarshalIndent(art.Manifest, "", "  ")
	if err != nil {
		return Manifest{}, err
	}
	if err := sink.Put(ctx, ManifestFile, mb); err != nil {
		return Manifest{}, fmt.Errorf("publish manifest to %s: %w", sink, err)
	}
	return art.Manifest, nil
}
