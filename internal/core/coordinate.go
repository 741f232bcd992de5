package core

import (
	"fmt"
	"sort"
	"strings"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"bomkit/internal/types"
)

// ParseCoordinate accepts "g:a:v", "g:a:t:v" and "g:a:c:t:v".
func ParseCoordinate(raw string) (types.ArtifactCoordinate, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	var coord types.ArtifactCoordinate
	switch len(parts) {
	case 3:
		coord = types.ArtifactCoordinate{GroupID: parts[0], ArtifactID: parts[1], Version: parts[2]}
	case 4:
		coord = types.ArtifactCoordinate{GroupID: parts[0], ArtifactID: parts[1], Type: parts[2], Version: parts[3]}
	case 5:
		coord = types.ArtifactCoordinate{GroupID: parts[0], ArtifactID: parts[1], Classifier: parts[2], Type: parts[3], Version: parts[4]}
	default:
		return types.ArtifactCoordinate{}, invalidCoordinate(raw)
	}
	if coord.GroupID == "" || coord.ArtifactID == "" || coord.Version == "" {
		return types.ArtifactCoordinate{}, invalidCoordinate(raw)
	}
	return coord.Normalized(), nil
}

// ParseKey accepts "g:a", "g:a:t" and "g:a:c:t".
func ParseKey(raw string) (types.ArtifactKey, error) {
	parts := strings.Split(strings.TrimSpace(raw), ":")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	var key types.ArtifactKey
	switch len(parts) {
	case 2:
		key = types.ArtifactKey{GroupID: parts[0], ArtifactID: parts[1]}
	case 3:
		key = types.ArtifactKey{GroupID: parts[0], ArtifactID: parts[1], Type: parts[2]}
	case 4:
		key = types.ArtifactKey{GroupID: parts[0], ArtifactID: parts[1], Classifier: parts[2], Type: parts[3]}
	default:
		return types.ArtifactKey{}, invalidKey(raw)
	}
	if key.GroupID == "" || key.ArtifactID == "" {
		return types.ArtifactKey{}, invalidKey(raw)
	}
	return key.Normalized(), nil
}

func ParseCoordinates(raw []string) ([]types.ArtifactCoordinate, error) {
	out := make([]types.ArtifactCoordinate, 0, len(raw))
	for _, value := range raw {
		coord, err := ParseCoordinate(value)
		if err != nil {
			return nil, err
		}
		out = append(out, coord)
	}
	return out, nil
}

func ParseKeys(raw []string) ([]types.ArtifactKey, error) {
	out := make([]types.ArtifactKey, 0, len(raw))
	for _, value := range raw {
		key, err := ParseKey(value)
		if err != nil {
			return nil, err
		}
		out = append(out, key)
	}
	return out, nil
}

// SortCoordinates orders coordinates by their string form in place.
func SortCoordinates(coords []types.ArtifactCoordinate) {
	sort.Slice(coords, func(i, j int) bool {
		return coords[i].String() < coords[j].String()
	})
}

func SortKeys(keys []types.ArtifactKey) {
	sort.Slice(keys, func(i, j int) bool {
		return keys[i].String() < keys[j].String()
	})
}

func invalidCoordinate(raw string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("invalid artifact coordinate: %s", raw))
}

func invalidKey(raw string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(fmt.Sprintf("invalid artifact key: %s", raw))
}
