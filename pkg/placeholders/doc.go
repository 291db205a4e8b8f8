// Package placeholders implements the install variable reference syntax.
//
// Three forms are recognised:
//
//	${NAME}       braced reference, any characters except '}'
//	$NAME         bare reference, letters, digits and '_'
//	${ENV[NAME]}  process environment lookup
//
// A reference whose variable is not defined is left in the output as
// written, so partially resolved templates keep their remaining
// placeholders. "$$" produces a single literal '$'.
package placeholders
