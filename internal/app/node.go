package app

import (
	"context"

	"github.com/grindlemire/graft"
	"go.trai.ch/launchpad/internal/adapters/cas"     //nolint:depguard // Wired in app layer
	"go.trai.ch/launchpad/internal/adapters/config"  //nolint:depguard // Wired in app layer
	"go.trai.ch/launchpad/internal/adapters/fs"      //nolint:depguard // Wired in app layer
	"go.trai.ch/launchpad/internal/adapters/logger"  //nolint:depguard // Wired in app layer
	"go.trai.ch/launchpad/internal/adapters/prompt"  //nolint:depguard // Wired in app layer
	"go.trai.ch/launchpad/internal/adapters/shell"   //nolint:depguard // Wired in app layer
	"go.trai.ch/launchpad/internal/adapters/watcher" //nolint:depguard // Wired in app layer
	"go.trai.ch/launchpad/internal/core/ports"
)

const (
	// AppNodeID is the unique identifier for the main App Graft node.
	AppNodeID graft.ID = "app.main"
	// ComponentsNodeID is the unique identifier for the App components Graft node.
	ComponentsNodeID graft.ID = "app.components"
)

// Components groups the App with the adapters the entry point needs directly.
type Components struct {
	App          *App
	Logger       ports.Logger
	ConfigLoader ports.ConfigLoader
}

func init() {
	graft.Register(graft.Node[*App]{
		ID:        AppNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			config.NodeID,
			shell.NodeID,
			logger.NodeID,
			fs.InspectorNodeID,
			fs.VerifierNodeID,
			fs.HasherNodeID,
			cas.NodeID,
			prompt.NodeID,
			watcher.NodeID,
		},
		Run: runAppNode,
	})

	graft.Register(graft.Node[*Components]{
		ID:        ComponentsNodeID,
		Cacheable: true,
		DependsOn: []graft.ID{
			AppNodeID,
			logger.NodeID,
			config.NodeID,
		},
		Run: runComponentsNode,
	})
}

func runAppNode(ctx context.Context) (*App, error) {
	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	runner, err := graft.Dep[ports.CommandRunner](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	inspector, err := graft.Dep[ports.StalenessInspector](ctx)
	if err != nil {
		return nil, err
	}

	artifacts, err := graft.Dep[ports.ArtifactVerifier](ctx)
	if err != nil {
		return nil, err
	}

	hasher, err := graft.Dep[ports.Hasher](ctx)
	if err != nil {
		return nil, err
	}

	store, err := graft.Dep[ports.BuildRecordStore](ctx)
	if err != nil {
		return nil, err
	}

	prompter, err := graft.Dep[ports.Prompter](ctx)
	if err != nil {
		return nil, err
	}

	fileWatcher, err := graft.Dep[ports.Watcher](ctx)
	if err != nil {
		return nil, err
	}

	return New(loader, runner, log, inspector, artifacts, hasher, store, prompter, fileWatcher), nil
}

func runComponentsNode(ctx context.Context) (*Components, error) {
	app, err := graft.Dep[*App](ctx)
	if err != nil {
		return nil, err
	}

	log, err := graft.Dep[ports.Logger](ctx)
	if err != nil {
		return nil, err
	}

	loader, err := graft.Dep[ports.ConfigLoader](ctx)
	if err != nil {
		return nil, err
	}

	return &Components{
		App:          app,
		Logger:       log,
		ConfigLoader: loader,
	}, nil
}
