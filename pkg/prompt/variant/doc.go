// Package variant parses and expands variant groups.
//
// A variant group is written
//
//	{ [prefix] [count$$ [separator$$]] option|option|... }
//
// where prefix is one of ~ @ & and selects the sampler, count is N or
// min-max, and separator (default ", ") joins the options picked by a count
// group. Groups nest to any depth. Inner groups are resolved to literal text
// before the enclosing group splits its options, so {2$${x|y}|z} always sees
// exactly two options. Unbalanced braces are kept as literal text.
//
// Count groups always draw uniformly without replacement; the prefix only
// affects groups without a count.
package variant
