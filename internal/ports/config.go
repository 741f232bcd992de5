package ports

import "bomkit/internal/types"

type PlatformConfigPort interface {
	LoadPlatform(path string) (types.PlatformConfig, error)
}
