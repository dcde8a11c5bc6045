// Package highlight stores externally supplied ranges to flag in the
// document, such as spans a checker has marked, and keeps them attached to
// their text as the document is edited.
package highlight
