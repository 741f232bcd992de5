package policies

import (
	"fmt"
	"sort"

	"github.com/ZanzyTHEbar/errbuilder-go"

	"bomkit/internal/types"
)

// PlatformSource names overrides declared at platform level.
const PlatformSource = "platform"

// Enforcement is an enforced coordinate and who declared it.
type Enforcement struct {
	Coordinate types.ArtifactCoordinate
	Source     string
}

// OverridePolicy is the merged view of platform and member overrides.
//
// Precedence is explicit per field:
//   - enforced: platform beats member; two members enforcing different
//     coordinates for one key is a conflict.
//   - excluded: platform exclusions apply to the whole platform, member
//     exclusions only to the constraints that member contributes.
//   - a key both enforced and excluded at the same level is invalid.
type OverridePolicy struct {
	enforced       map[types.ArtifactKey]Enforcement
	excluded       map[types.ArtifactKey]struct{}
	excludedGroups GroupMatcher
	memberExcluded map[string]map[types.ArtifactKey]struct{}
	memberGroups   map[string]GroupMatcher
	owners         []string
	ownerMatcher   GroupMatcher
	alignOwn       map[string]bool
}

func NewOverridePolicy(platform types.Overrides, members []types.MemberConfig) (OverridePolicy, error) {
	policy := OverridePolicy{
		enforced:       map[types.ArtifactKey]Enforcement{},
		excluded:       map[types.ArtifactKey]struct{}{},
		excludedGroups: NewGroupMatcher(platform.ExcludedGroupIDs),
		memberExcluded: map[string]map[types.ArtifactKey]struct{}{},
		memberGroups:   map[string]GroupMatcher{},
		alignOwn:       map[string]bool{},
	}

	for key := range platform.Excluded {
		policy.excluded[key.Normalized()] = struct{}{}
	}
	for _, key := range sortedEnforcedKeys(platform.Enforced) {
		coord := platform.Enforced[key].Normalized()
		if coord.Key() != key.Normalized() {
			return OverridePolicy{}, invalidOverride(fmt.Sprintf("enforced coordinate %s does not match key %s", coord, key))
		}
		if policy.IsExcluded(coord.Key()) {
			return OverridePolicy{}, invalidOverride(fmt.Sprintf("%s is both enforced and excluded", key))
		}
		policy.enforced[coord.Key()] = Enforcement{Coordinate: coord, Source: PlatformSource}
	}

	var ownerPatterns []string
	for _, member := range members {
		if err := policy.addMember(member); err != nil {
			return OverridePolicy{}, err
		}
		for _, pattern := range member.OwnedGroupIDs {
			for idx, claimed := range ownerPatterns {
				other := policy.owners[idx]
				if other != member.Name && PatternsOverlap(claimed, pattern) {
					return OverridePolicy{}, invalidOverride(fmt.Sprintf("groups %s (%s) and %s (%s) overlap in ownership", claimed, other, pattern, member.Name))
				}
			}
			ownerPatterns = append(ownerPatterns, pattern)
			policy.owners = append(policy.owners, member.Name)
		}
	}
	policy.ownerMatcher = NewGroupMatcher(ownerPatterns)
	return policy, nil
}

func (p *OverridePolicy) addMember(member types.MemberConfig) error {
	p.alignOwn[member.Name] = member.AlignOwnConstraints
	excluded := map[types.ArtifactKey]struct{}{}
	for _, key := range member.Excluded {
		excluded[key.Normalized()] = struct{}{}
	}
	p.memberExcluded[member.Name] = excluded
	p.memberGroups[member.Name] = NewGroupMatcher(member.ExcludedGroupIDs)

	for _, coord := range member.Enforced {
		coord = coord.Normalized()
		key := coord.Key()
		if _, ok := excluded[key]; ok {
			return invalidOverride(fmt.Sprintf("%s is both enforced and excluded by %s", key, member.Name))
		}
		existing, ok := p.enforced[key]
		if !ok {
			if p.IsExcluded(key) {
				return invalidOverride(fmt.Sprintf("%s enforced by %s is excluded by the platform", key, member.Name))
			}
			p.enforced[key] = Enforcement{Coordinate: coord, Source: member.Name}
			continue
		}
		if existing.Source == PlatformSource || existing.Coordinate == coord {
			continue
		}
		return errbuilder.New().
			WithCode(errbuilder.CodeAlreadyExists).
			WithMsg(fmt.Sprintf("%s enforced as %s by %s and as %s by %s", key, existing.Coordinate, existing.Source, coord, member.Name))
	}
	return nil
}

func (p OverridePolicy) Enforced(key types.ArtifactKey) (Enforcement, bool) {
	enforcement, ok := p.enforced[key.Normalized()]
	return enforcement, ok
}

// EnforcedKeys returns the enforced keys in a stable order.
func (p OverridePolicy) EnforcedKeys() []types.ArtifactKey {
	keys := make([]types.ArtifactKey, 0, len(p.enforced))
	for key := range p.enforced {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

// IsExcluded reports platform-level exclusion.
func (p OverridePolicy) IsExcluded(key types.ArtifactKey) bool {
	if _, ok := p.excluded[key.Normalized()]; ok {
		return true
	}
	return p.excludedGroups.Matches(key.GroupID)
}

// ExcludedByMember reports whether member drops key from the constraints
// it contributes.
func (p OverridePolicy) ExcludedByMember(member string, key types.ArtifactKey) bool {
	if _, ok := p.memberExcluded[member][key.Normalized()]; ok {
		return true
	}
	if matcher, ok := p.memberGroups[member]; ok && matcher.Matches(key.GroupID) {
		return true
	}
	return false
}

// Owner returns the member owning groupID, if any.
func (p OverridePolicy) Owner(groupID string) (string, bool) {
	idx, ok := p.ownerMatcher.Match(groupID)
	if !ok || idx >= len(p.owners) {
		return "", false
	}
	return p.owners[idx], true
}

// PinsOwned reports whether member's owned artifacts keep the member's
// versions instead of being aligned.
func (p OverridePolicy) PinsOwned(member string) bool {
	return !p.alignOwn[member]
}

func sortedEnforcedKeys(values map[types.ArtifactKey]types.ArtifactCoordinate) []types.ArtifactKey {
	keys := make([]types.ArtifactKey, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i].String() < keys[j].String() })
	return keys
}

func invalidOverride(msg string) error {
	return errbuilder.New().
		WithCode(errbuilder.CodeInvalidArgument).
		WithMsg(msg)
}
