package core

import (
	"context"
	"fmt"
	"sort"

	"github.com/rs/zerolog/log"

	"bomkit/internal/metrics"
	"bomkit/internal/policies"
	"bomkit/internal/ports"
	"bomkit/internal/types"
)

// ManifestComposer merges a base manifest with member manifests into one
// platform manifest whose releases are aligned per origin.
type ManifestComposer struct {
	Artifacts        ports.ArtifactResolverPort
	Releases         ports.ReleaseIDResolverPort
	Metrics          *metrics.Collectors
	SkipUnclassified bool
}

type ComposeRequest struct {
	// Platform is the coordinate of the generated platform manifest.
	// Defaults to Base.
	Platform          types.ArtifactCoordinate
	Base              types.ArtifactCoordinate
	Members           []types.MemberConfig
	Overrides         types.Overrides
	SkipFailedMembers bool
}

// MemberResult is a member manifest re-expressed with platform-aligned
// versions.
type MemberResult struct {
	Config       types.MemberConfig
	Aligned      DecomposedBom
	Unclassified []types.ArtifactCoordinate
}

type ComposeResult struct {
	Platform         DecomposedBom
	Members          []MemberResult
	Records          []types.AlignmentRecord
	Failed           []types.MemberFailure
	BaseUnclassified []types.ArtifactCoordinate
}

func NewManifestComposer(artifacts ports.ArtifactResolverPort, releases ports.ReleaseIDResolverPort) ManifestComposer {
	return ManifestComposer{Artifacts: artifacts, Releases: releases}
}

// memberState tracks one member through composition.
type memberState struct {
	config    types.MemberConfig
	original  map[types.ArtifactKey]types.ArtifactCoordinate
	decomp    Decomposition
	contribID map[types.ArtifactKey]types.ReleaseID
}

// composeRun carries the mutable state of one Compose call.
type composeRun struct {
	composer ManifestComposer
	policy   policies.OverridePolicy
	versions *versionCache
	base     Decomposition
	members  []*memberState

	pool        map[types.ReleaseID]map[types.ArtifactKey]types.ArtifactCoordinate
	contributed map[types.ArtifactKey]map[types.ArtifactCoordinate]struct{}
	chosen      map[types.ArtifactKey]types.ProjectDependency
	records     []types.AlignmentRecord
}

func (c ManifestComposer) Compose(ctx context.Context, req ComposeRequest) (ComposeResult, error) {
	if c.Artifacts == nil || c.Releases == nil {
		return ComposeResult{}, configurationError("composer requires artifact and release resolvers")
	}
	if req.Base.IsZero() {
		return ComposeResult{}, configurationError("compose requires a base manifest")
	}
	if err := validateMembers(req.Members); err != nil {
		return ComposeResult{}, err
	}
	policy, err := policies.NewOverridePolicy(req.Overrides, req.Members)
	if err != nil {
		return ComposeResult{}, err
	}

	run := &composeRun{
		composer:    c,
		policy:      policy,
		versions:    newVersionCache(),
		pool:        map[types.ReleaseID]map[types.ArtifactKey]types.ArtifactCoordinate{},
		contributed: map[types.ArtifactKey]map[types.ArtifactCoordinate]struct{}{},
		chosen:      map[types.ArtifactKey]types.ProjectDependency{},
	}
	grouper := ReleaseGrouper{Releases: c.Releases, SkipUnclassified: c.SkipUnclassified}

	baseConstraints, err := c.managedConstraints(ctx, req.Base)
	if err != nil {
		return ComposeResult{}, err
	}
	run.base, err = grouper.Decompose(ctx, req.Base.Normalized(), baseConstraints)
	if err != nil {
		return ComposeResult{}, err
	}
	covered := map[types.ArtifactCoordinate]struct{}{}
	for _, dep := range run.base.Bom.Dependencies() {
		covered[dep.Coordinate] = struct{}{}
	}

	result := ComposeResult{BaseUnclassified: run.base.Unclassified}
	for _, member := range req.Members {
		state, err := run.decomposeMember(ctx, grouper, member, covered)
		if err != nil {
			if req.SkipFailedMembers && recoverable(err) {
				log.Ctx(ctx).Warn().Str("member", member.Name).Err(err).Msg("skipping member")
				result.Failed = append(result.Failed, types.MemberFailure{Member: member.Name, Message: err.Error()})
				continue
			}
			return ComposeResult{}, err
		}
		run.members = append(run.members, state)
	}

	run.collectPool()
	if err := run.alignOrigins(ctx); err != nil {
		return ComposeResult{}, err
	}
	run.applyExclusions()
	run.applyOwnership()
	if err := run.applyEnforced(ctx); err != nil {
		return ComposeResult{}, err
	}

	platformCoord := req.Platform
	if platformCoord.IsZero() {
		platformCoord = req.Base
	}
	result.Platform, err = run.assemble(platformCoord.Normalized())
	if err != nil {
		return ComposeResult{}, err
	}
	for _, state := range run.members {
		aligned, err := run.alignedMember(state)
		if err != nil {
			return ComposeResult{}, err
		}
		result.Members = append(result.Members, MemberResult{
			Config:       state.config,
			Aligned:      aligned,
			Unclassified: state.decomp.Unclassified,
		})
	}
	result.Records = run.sortedRecords()

	log.Ctx(ctx).Debug().
		Str("platform", platformCoord.String()).
		Int("artifacts", result.Platform.Len()).
		Int("releases", len(result.Platform.releases)).
		Int("members", len(result.Members)).
		Msg("platform composed")
	return result, nil
}

func validateMembers(members []types.MemberConfig) error {
	seen := map[string]struct{}{}
	for _, member := range members {
		if member.Name == "" {
			return configurationError("member name is required")
		}
		if member.Manifest.IsZero() {
			return configurationError(fmt.Sprintf("member %s has no manifest", member.Name))
		}
		if _, ok := seen[member.Name]; ok {
			return conflictError(fmt.Sprintf("duplicate member: %s", member.Name))
		}
		seen[member.Name] = struct{}{}
	}
	return nil
}

func (c ManifestComposer) managedConstraints(ctx context.Context, manifest types.ArtifactCoordinate) ([]types.DependencyConstraint, error) {
	desc, err := c.Artifacts.ResolveDescriptor(ctx, manifest.Normalized())
	if err != nil {
		if IsResolutionError(err) {
			return nil, resolutionError(manifest, "manifest", err)
		}
		return nil, err
	}
	return desc.ManagedDependencies, nil
}

func (r *composeRun) decomposeMember(ctx context.Context, grouper ReleaseGrouper, member types.MemberConfig, covered map[types.ArtifactCoordinate]struct{}) (*memberState, error) {
	constraints, err := r.composer.managedConstraints(ctx, member.Manifest)
	if err != nil {
		return nil, err
	}
	state := &memberState{
		config:    member,
		original:  map[types.ArtifactKey]types.ArtifactCoordinate{},
		contribID: map[types.ArtifactKey]types.ReleaseID{},
	}
	var remaining []types.DependencyConstraint
	for _, constraint := range constraints {
		coord := constraint.Coordinate.Normalized()
		if r.policy.ExcludedByMember(member.Name, coord.Key()) {
			continue
		}
		if _, ok := state.original[coord.Key()]; !ok {
			state.original[coord.Key()] = coord
		}
		if _, ok := covered[coord]; ok {
			continue
		}
		remaining = append(remaining, constraint)
	}
	state.decomp, err = grouper.Decompose(ctx, member.Manifest.Normalized(), remaining)
	if err != nil {
		return nil, err
	}
	for _, dep := range state.decomp.Bom.Dependencies() {
		state.contribID[dep.Key()] = dep.Release
	}
	return state, nil
}

// collectPool merges the releases of the base and every member. When two
// manifests put different versions of one key into the same release the
// higher version is kept.
func (r *composeRun) collectPool() {
	add := func(bom DecomposedBom) {
		for _, dep := range bom.Dependencies() {
			key := dep.Key()
			if r.contributed[key] == nil {
				r.contributed[key] = map[types.ArtifactCoordinate]struct{}{}
			}
			r.contributed[key][dep.Coordinate] = struct{}{}
			release := r.pool[dep.Release]
			if release == nil {
				release = map[types.ArtifactKey]types.ArtifactCoordinate{}
				r.pool[dep.Release] = release
			}
			existing, ok := release[key]
			if !ok || r.versions.compare(dep.Coordinate.Version, existing.Version) > 0 {
				release[key] = dep.Coordinate
			}
		}
	}
	add(r.base.Bom)
	for _, member := range r.members {
		add(member.decomp.Bom)
	}
}

func (r *composeRun) originVersions() map[types.ReleaseOrigin][]types.ReleaseVersion {
	out := map[types.ReleaseOrigin][]types.ReleaseVersion{}
	for id := range r.pool {
		out[id.Origin] = append(out[id.Origin], id.Version)
	}
	return out
}

func (r *composeRun) alignOrigins(ctx context.Context) error {
	byOrigin := r.originVersions()
	origins := make([]types.ReleaseOrigin, 0, len(byOrigin))
	for origin := range byOrigin {
		origins = append(origins, origin)
	}
	sort.Slice(origins, func(i, j int) bool { return origins[i] < origins[j] })

	baseOrigins := map[types.ReleaseOrigin]struct{}{}
	for _, origin := range r.base.Bom.Origins() {
		baseOrigins[origin] = struct{}{}
	}

	for _, origin := range origins {
		versions := byOrigin[origin]
		if len(versions) == 1 {
			id := types.ReleaseID{Origin: origin, Version: versions[0]}
			for _, key := range sortedPoolKeys(r.pool[id]) {
				r.choose(types.ProjectDependency{Release: id, Coordinate: r.pool[id][key]})
			}
			continue
		}
		r.composer.Metrics.ObserveConflict()
		_, inBase := baseOrigins[origin]
		ranked := rankReleaseVersions(versions, r.versions)
		log.Ctx(ctx).Debug().
			Str("origin", string(origin)).
			Bool("peer", !inBase).
			Int("versions", len(ranked)).
			Msg("aligning conflicting releases")
		if err := r.alignOrigin(ctx, origin, ranked); err != nil {
			return err
		}
	}
	return nil
}

// alignOrigin picks, for every key of the origin, the highest-ranked
// release that publishes it. Releases ranked above the key's own release
// are probed by substituting their artifact versions into the key.
func (r *composeRun) alignOrigin(ctx context.Context, origin types.ReleaseOrigin, ranked []types.ReleaseVersion) error {
	keys := map[types.ArtifactKey]struct{}{}
	for _, version := range ranked {
		for key := range r.pool[types.ReleaseID{Origin: origin, Version: version}] {
			keys[key] = struct{}{}
		}
	}
	ordered := make([]types.ArtifactKey, 0, len(keys))
	for key := range keys {
		ordered = append(ordered, key)
	}
	SortKeys(ordered)

	for _, key := range ordered {
		ownIdx := -1
		var own types.ProjectDependency
		for idx, version := range ranked {
			id := types.ReleaseID{Origin: origin, Version: version}
			if coord, ok := r.pool[id][key]; ok {
				ownIdx = idx
				own = types.ProjectDependency{Release: id, Coordinate: coord}
				break
			}
		}
		chosen := own
		action := types.AlignmentActionAligned
		for idx := 0; idx < ownIdx; idx++ {
			id := types.ReleaseID{Origin: origin, Version: ranked[idx]}
			probed, found, err := r.probe(ctx, id, own.Coordinate)
			if err != nil {
				return err
			}
			if found {
				chosen = types.ProjectDependency{Release: id, Coordinate: probed}
				action = types.AlignmentActionProbed
				break
			}
		}
		if chosen.Release == own.Release && ownIdx > 0 {
			r.record(types.AlignmentRecord{
				Key:    key,
				From:   own.Coordinate,
				To:     own.Coordinate,
				Action: types.AlignmentActionKept,
				Reason: fmt.Sprintf("no newer release of %s publishes it", origin),
			})
		}
		for from := range r.contributed[key] {
			if from == chosen.Coordinate {
				continue
			}
			r.record(types.AlignmentRecord{
				Key:    key,
				From:   from,
				To:     chosen.Coordinate,
				Action: action,
				Reason: fmt.Sprintf("aligned to %s", chosen.Release),
			})
		}
		r.choose(chosen)
	}
	return nil
}

// probe tries the artifact versions published by release id for the
// artifact of coord. Missing artifacts fall through to the next candidate;
// any other resolver failure aborts composition.
func (r *composeRun) probe(ctx context.Context, id types.ReleaseID, coord types.ArtifactCoordinate) (types.ArtifactCoordinate, bool, error) {
	candidates := poolArtifactVersions(r.pool[id])
	if !containsString(candidates, string(id.Version)) {
		candidates = append(candidates, string(id.Version))
	}
	for _, version := range candidates {
		candidate := coord.WithVersion(version)
		if version == coord.Version {
			continue
		}
		_, err := r.composer.Artifacts.Resolve(ctx, candidate)
		if err == nil {
			r.composer.Metrics.ObserveProbe(metrics.ProbeResultFound)
			log.Ctx(ctx).Debug().Str("artifact", candidate.String()).Str("release", id.String()).Msg("version probe succeeded")
			return candidate, true, nil
		}
		if IsResolutionError(err) {
			r.composer.Metrics.ObserveProbe(metrics.ProbeResultNotFound)
			continue
		}
		r.composer.Metrics.ObserveProbe(metrics.ProbeResultError)
		return types.ArtifactCoordinate{}, false, err
	}
	return types.ArtifactCoordinate{}, false, nil
}

// choose records dep as the platform choice for its key. A key chosen
// under two origins keeps the higher version; equal versions keep the
// lexically smaller origin.
func (r *composeRun) choose(dep types.ProjectDependency) {
	key := dep.Key()
	existing, ok := r.chosen[key]
	if !ok || existing.Release.Origin == dep.Release.Origin {
		r.chosen[key] = dep
		return
	}
	cmp := r.versions.compare(dep.Coordinate.Version, existing.Coordinate.Version)
	if cmp > 0 || (cmp == 0 && dep.Release.Origin < existing.Release.Origin) {
		r.chosen[key] = dep
	}
}

func (r *composeRun) applyExclusions() {
	for key, dep := range r.chosen {
		if _, enforced := r.policy.Enforced(key); enforced {
			continue
		}
		if !r.policy.IsExcluded(key) {
			continue
		}
		delete(r.chosen, key)
		r.record(types.AlignmentRecord{
			Key:    key,
			From:   dep.Coordinate,
			Action: types.AlignmentActionExcluded,
			Reason: "excluded by platform overrides",
		})
	}
}

// applyOwnership pins artifacts of owned groups to the owning member's
// version unless the member opted into alignment.
func (r *composeRun) applyOwnership() {
	for _, state := range r.members {
		if !r.policy.PinsOwned(state.config.Name) {
			continue
		}
		for _, key := range sortedOriginalKeys(state.original) {
			owner, ok := r.policy.Owner(key.GroupID)
			if !ok || owner != state.config.Name {
				continue
			}
			if _, enforced := r.policy.Enforced(key); enforced || r.policy.IsExcluded(key) {
				continue
			}
			dep, ok := r.memberDependency(state, key)
			if !ok {
				continue
			}
			current, chosen := r.chosen[key]
			if chosen && current == dep {
				continue
			}
			r.chosen[key] = dep
			r.record(types.AlignmentRecord{
				Key:    key,
				From:   current.Coordinate,
				To:     dep.Coordinate,
				Action: types.AlignmentActionOwned,
				Reason: fmt.Sprintf("owned by %s", state.config.Name),
			})
		}
	}
}

// memberDependency finds the member's own release for key, which is in
// the base when the member listed exactly the base coordinate.
func (r *composeRun) memberDependency(state *memberState, key types.ArtifactKey) (types.ProjectDependency, bool) {
	if dep, ok := state.decomp.Bom.Lookup(key); ok {
		return dep, true
	}
	if dep, ok := r.base.Bom.Lookup(key); ok && dep.Coordinate == state.original[key] {
		return dep, true
	}
	return types.ProjectDependency{}, false
}

func (r *composeRun) applyEnforced(ctx context.Context) error {
	for _, key := range r.policy.EnforcedKeys() {
		enforcement, _ := r.policy.Enforced(key)
		current, existed := r.chosen[key]
		if existed && current.Coordinate == enforcement.Coordinate {
			continue
		}
		id, err := r.composer.Releases.ResolveRelease(ctx, enforcement.Coordinate)
		if err != nil {
			if IsClassificationError(err) || IsResolutionError(err) {
				return classificationError(enforcement.Coordinate, err)
			}
			return err
		}
		r.chosen[key] = types.ProjectDependency{Release: id, Coordinate: enforcement.Coordinate}
		record := types.AlignmentRecord{
			Key:    key,
			To:     enforcement.Coordinate,
			Action: types.AlignmentActionEnforced,
			Reason: fmt.Sprintf("enforced by %s", enforcement.Source),
		}
		if existed {
			record.From = current.Coordinate
		}
		r.record(record)
	}
	return nil
}

func (r *composeRun) assemble(coord types.ArtifactCoordinate) (DecomposedBom, error) {
	builder := NewDecomposedBomBuilder(coord)
	for _, key := range sortedChosenKeys(r.chosen) {
		builder.Add(r.chosen[key])
	}
	return builder.Build()
}

// alignedMember maps every key the member declared to the platform choice,
// falling back to the member's own release for keys the platform dropped
// for reasons other than exclusion.
func (r *composeRun) alignedMember(state *memberState) (DecomposedBom, error) {
	coord := state.config.Generated
	if coord.IsZero() {
		coord = state.config.Manifest
	}
	builder := NewDecomposedBomBuilder(coord.Normalized())
	for _, key := range sortedOriginalKeys(state.original) {
		if r.policy.IsExcluded(key) {
			if _, enforced := r.policy.Enforced(key); !enforced {
				continue
			}
		}
		if dep, ok := r.chosen[key]; ok {
			builder.Add(dep)
			continue
		}
		if dep, ok := r.memberDependency(state, key); ok {
			builder.Add(dep)
		}
	}
	return builder.Build()
}

func (r *composeRun) record(record types.AlignmentRecord) {
	r.records = append(r.records, record)
}

func (r *composeRun) sortedRecords() []types.AlignmentRecord {
	out := append([]types.AlignmentRecord(nil), r.records...)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Key != out[j].Key {
			return out[i].Key.String() < out[j].Key.String()
		}
		if out[i].Action != out[j].Action {
			return out[i].Action < out[j].Action
		}
		return out[i].From.String() < out[j].From.String()
	})
	return out
}

func sortedPoolKeys(values map[types.ArtifactKey]types.ArtifactCoordinate) []types.ArtifactKey {
	keys := make([]types.ArtifactKey, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	SortKeys(keys)
	return keys
}

func sortedOriginalKeys(values map[types.ArtifactKey]types.ArtifactCoordinate) []types.ArtifactKey {
	return sortedPoolKeys(values)
}

func sortedChosenKeys(values map[types.ArtifactKey]types.ProjectDependency) []types.ArtifactKey {
	keys := make([]types.ArtifactKey, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	SortKeys(keys)
	return keys
}

// poolArtifactVersions lists the artifact versions of a pooled release,
// most common first.
func poolArtifactVersions(release map[types.ArtifactKey]types.ArtifactCoordinate) []string {
	counts := map[string]int{}
	for _, coord := range release {
		counts[coord.Version]++
	}
	return versionsByFrequency(counts)
}

func containsString(values []string, target string) bool {
	for _, value := range values {
		if value == target {
			return true
		}
	}
	return false
}
