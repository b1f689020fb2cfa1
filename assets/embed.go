package assets

import (
	"embed"
	"os"
	"path/filepath"
	"strings"
)

//go:embed profiles.yaml scripts/*.tengo
var assetsFS embed.FS

// Load reads an asset by assets-relative path, preferring an on-disk copy
// so profiles and scripts can be edited without rebuilding.
func Load(name string) ([]byte, error) {
	clean := cleanAssetPath(name)
	if data, err := os.ReadFile(diskAssetPath(clean)); err == nil {
		return data, nil
	}
	return assetsFS.ReadFile(clean)
}

func cleanAssetPath(path string) string {
	if path == "" {
		return ""
	}
	s := filepath.ToSlash(path)
	if strings.HasPrefix(s, "assets/") {
		return strings.TrimPrefix(s, "assets/")
	}
	return s
}

func diskAssetPath(clean string) string {
	return filepath.Join("assets", filepath.FromSlash(clean))
}
