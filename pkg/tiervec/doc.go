// Package tiervec provides Vec, a generic sequence container that reclassifies
// its storage as it grows across fixed capacity tiers.
//
// # Tiers
//
// A new vector starts in [TierSmall], which holds up to 4 elements. The push
// that would make it hold 5 migrates every element, in order, into
// [TierMedium] storage (up to 16 elements). The push that would make it hold
// 17 migrates into [TierLarge], which then grows like an ordinary slice and
// never transitions again. Tiers only move forward.
//
//	v := tiervec.New[int]()
//	v.Extend(1, 2, 3, 4)  // TierSmall
//	v.Push(5)             // TierMedium, [1 2 3 4 5]
//
// [Vec.Extend] is defined as repeated [Vec.Push]: a bulk insert that straddles
// a ceiling transitions at exactly the same element a sequence of single
// pushes would.
//
// # Observing transitions
//
// [Vec.OnTransition] registers a callback that receives a [Transition] after
// each migration. It is how the service layers attach logging and metrics
// without the container depending on either.
//
// # Concurrency
//
// Vec does no locking. Callers that share a vector across goroutines must
// guard it themselves.
package tiervec
