// Package boot runs an application's boot sequence.
//
// A boot sequence is a list of phases run in order against an App:
//
//	err := boot.Run(ctx, app,
//	    boot.Config("config"),
//	    boot.Middleware(pipeline.Options{Dir: "config", Modules: reg}),
//	    boot.HTTPServer(""),
//	)
//
// Config applies the "config" category to settings the app does not have
// yet. Middleware loads the "middleware" category and installs the
// pipeline it describes. HTTPServer serves the app until ctx is canceled.
package boot
