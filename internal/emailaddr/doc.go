// Package emailaddr implements the email address value type.
//
// An Address is built only by Parse or Decode, so every instance holds a
// validated, lowercase local@domain pair. The accepted grammar is a
// restricted ASCII subset:
//
//	address   := local "@" domain
//	local     := label ("." label)*
//	domain    := label ("." label)+
//	label     := [A-Za-z]+ ("-" [A-Za-z0-9]+)* [0-9]*
//
// Addresses order domain first, then local part, so an index over them
// groups every mailbox of a domain together. Equal, Less and the other
// relational helpers are all derived from Compare, and Hash is computed
// over the canonical text so equal addresses always hash equally.
//
// The binary form is a 4-byte big-endian length followed by the canonical
// text. It is the only persisted representation.
//
// Everything in this package is pure and safe for concurrent use.
package emailaddr
