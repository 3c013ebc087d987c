// Package apidoc maintains the API tables of component documentation: it
// sorts table rows into a canonical order and reports props shared across
// components.
package apidoc
