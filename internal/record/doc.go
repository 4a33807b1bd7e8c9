// Package record defines the JSON-lines wire format and the redirect rule.
//
// Each output line is one object with the fields id, title and text in that
// order. A missing page id is written as null and HTML characters are not
// escaped.
package record
