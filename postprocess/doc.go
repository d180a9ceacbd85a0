// Package postprocess applies ordered, opt-in rewrites to a merged document.
//
// A Pipeline runs its stages in order on a copy of the input and stops at
// the first failing stage:
//
//	p := postprocess.NewPipeline(
//		postprocess.FlattenConflictedAllOf(),
//		postprocess.TreeShake(shaker.StrategyTopDown),
//		postprocess.StripVendorFields("x-internal-"),
//	)
//	doc, err := p.Run(ctx, merged)
package postprocess
