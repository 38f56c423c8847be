// Package pages derives page-routing records and common props from fetched
// content entries.
//
// Derivation is pure: it never mutates its input and produces the same output
// for the same entries. Pages keep the relative order of their source entries.
package pages
