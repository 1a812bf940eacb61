//go:build mage

// Package main provides build targets for the moviedex project using Mage.
//
// Usage:
//
//	mage build          Compile the moviedex binary to bin/
//	mage install        Install moviedex to GOPATH/bin
//	mage clean          Remove build artifacts
//	mage lint           Run go vet and golangci-lint
//	mage test:all       Run every test
//	mage test:race      Run every test with the race detector
//	mage test:cover     Write a coverage profile to bin/coverage.out
//	mage test:package   Run the tests of one package (PKG=./internal/api)
//	mage serve          Build, then serve the API from the local data dir
package main
