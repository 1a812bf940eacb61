// Package types defines the catalog item taxonomy, the Store and Backend
// interfaces, search filters, configuration, and the error kinds shared by
// every layer of moviedex.
//
// An Item is a tagged union: the Kind field selects which of the optional
// variant structs (Documentary, KidMovie) is populated.
package types
