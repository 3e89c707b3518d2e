package fs

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/launchpad/internal/core/ports"
)

const (
	// WalkerNodeID is the unique identifier for the walker Graft node.
	WalkerNodeID graft.ID = "adapter.fs.walker"
	// ResolverNodeID is the unique identifier for the input resolver Graft node.
	ResolverNodeID graft.ID = "adapter.fs.resolver"
	// HasherNodeID is the unique identifier for the hasher Graft node.
	HasherNodeID graft.ID = "adapter.fs.hasher"
	// InspectorNodeID is the unique identifier for the staleness inspector Graft node.
	InspectorNodeID graft.ID = "adapter.fs.inspector"
	// VerifierNodeID is the unique identifier for the artifact verifier Graft node.
	VerifierNodeID graft.ID = "adapter.fs.verifier"
)

func init() {
	graft.Register(graft.Node[*Walker]{
		ID:        WalkerNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (*Walker, error) {
			return NewWalker(), nil
		},
	})

	graft.Register(graft.Node[ports.InputResolver]{
		ID:        ResolverNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.InputResolver, error) {
			return NewResolver(), nil
		},
	})

	graft.Register(graft.Node[ports.Hasher]{
		ID:        HasherNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{WalkerNodeID, ResolverNodeID},
		Run: func(ctx context.Context) (ports.Hasher, error) {
			walker, err := graft.Dep[*Walker](ctx)
			if err != nil {
				return nil, err
			}
			resolver, err := graft.Dep[ports.InputResolver](ctx)
			if err != nil {
				return nil, err
			}
			return NewHasher(walker, resolver), nil
		},
	})

	graft.Register(graft.Node[ports.StalenessInspector]{
		ID:        InspectorNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{WalkerNodeID, ResolverNodeID},
		Run: func(ctx context.Context) (ports.StalenessInspector, error) {
			walker, err := graft.Dep[*Walker](ctx)
			if err != nil {
				return nil, err
			}
			resolver, err := graft.Dep[ports.InputResolver](ctx)
			if err != nil {
				return nil, err
			}
			return NewInspector(walker, resolver), nil
		},
	})

	graft.Register(graft.Node[ports.ArtifactVerifier]{
		ID:        VerifierNodeID,
		Cacheable: true,
		Run: func(_ context.Context) (ports.ArtifactVerifier, error) {
			return NewVerifier(), nil
		},
	})
}
