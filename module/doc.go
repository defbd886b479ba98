// Package module exposes native modules to a script runtime and resolves
// script exports into native functions.
//
// Factories are registered once at startup, in order, and each module is
// a singleton for the life of its Registry:
//
//	mods := module.New(ctx)
//	_ = module.RegisterTyped(mods, "calculator", calculatorConverter, newCalculator)
//	calc, err := mods.Load(context.Background(), "calculator")
//
// Script-side code is reached through a Loader supplied by the runtime.
// The module is checked against the class its entry declares:
//
//	rendererEntry := registry.NewEntry("c 'Renderer'{'render': f(s): s}", nil)
//	render, err := module.ResolveExport(ctx, loader, "app/render", rendererEntry, marshal.Func1(marshal.String, marshal.String))
package module
