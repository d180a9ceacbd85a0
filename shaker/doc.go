// Package shaker removes the parts of a merged document that the API does
// not use.
//
// A definition is kept when it can be reached from the paths of the
// document, directly, through a parameter or response the paths use, through
// another kept definition, or through a discriminator link: a parent
// definition with a "discriminator" implicitly reaches every child
// definition listed in the enum of its discriminator property.
//
// Tags no operation uses, and parameters and responses no path references,
// are removed as well.
//
// # Strategies
//
// StrategyTopDown computes the closure of the paths once. StrategyBottomUp
// repeatedly drops definitions that nothing retained references until a
// round removes nothing, then sweeps clusters of definitions that only
// reference each other. Both produce the same document; the bottom-up
// strategy reports how many rounds it took.
//
//	doc, err := shaker.Shake(merged, shaker.StrategyBottomUp)
//	if err != nil {
//		return err
//	}
package shaker
