package main

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/wippyai/marshal-bridge/manifest"
	"github.com/wippyai/marshal-bridge/marshal"
	"github.com/wippyai/marshal-bridge/registry"
	"github.com/wippyai/marshal-bridge/schema"
	"github.com/wippyai/marshal-bridge/witexport"
)

// workspace is a manifest resolved into its own bridge context
type workspace struct {
	ctx      *marshal.Context
	set      *manifest.Set
	resolved map[string]schema.ValueSchema
	names    []string
}

func loadWorkspace(path string, logger *zap.Logger) (*workspace, error) {
	m, err := manifest.Load(path)
	if err != nil {
		return nil, fmt.Errorf("load manifest: %w", err)
	}
	set, err := m.Entries()
	if err != nil {
		return nil, fmt.Errorf("manifest entries: %w", err)
	}

	reg := registry.New(registry.WithLogger(logger))
	resolved, err := set.ResolveAll(reg)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}

	return &workspace{
		ctx:      marshal.NewContext(marshal.WithRegistry(reg), marshal.WithLogger(logger)),
		set:      set,
		resolved: resolved,
		names:    set.Names(),
	}, nil
}

func (ws *workspace) schemaOf(name string) (schema.ValueSchema, error) {
	s, ok := ws.resolved[name]
	if !ok {
		return schema.ValueSchema{}, fmt.Errorf("unknown type %q", name)
	}
	return s, nil
}

func (ws *workspace) kindOf(name string) string {
	s := ws.resolved[name]
	switch {
	case s.IsEnum() && s.Enum.StringValued:
		return "enum<string>"
	case s.IsEnum():
		return "enum<int>"
	case s.IsClass() && s.Class.Interface:
		return "interface"
	}
	if e, ok := ws.set.Get(name); ok && e.Generic() {
		return "generic class"
	}
	return "class"
}

func (ws *workspace) wit(name string) (string, error) {
	s, err := ws.schemaOf(name)
	if err != nil {
		return "", err
	}
	wt, err := witexport.NewExporter(ws.ctx.Registry().Table()).Export(s)
	if err != nil {
		return "", fmt.Errorf("wit: %w", err)
	}
	return witexport.Render(wt), nil
}

func (ws *workspace) check(name string, data []byte) error {
	s, err := ws.schemaOf(name)
	if err != nil {
		return err
	}
	v, err := decodeValue(data)
	if err != nil {
		return err
	}
	return marshal.Conform(ws.ctx, s, v)
}
