// Package pkg provides the core libraries for pyven dependency management.
//
// # Overview
//
// Pyven keeps a Python virtual environment and its declared dependencies
// in agreement. The pkg directory is organized into four main areas:
//
//  1. Domain logic - version semantics, inventory, analysis ([pep440],
//     [inventory], [analyzer], [reconcile])
//  2. Project surface - manifest files and virtual environments
//     ([manifest], [venv])
//  3. External collaborators - the package index and pip ([pypi],
//     [installer])
//  4. Infrastructure - caching, configuration, errors ([cache], [config],
//     [errors], [buildinfo])
//
// # Architecture
//
// The typical data flow through pyven:
//
//	requirements.txt / pyproject.toml          site-packages
//	         ↓                                      ↓
//	    manifest.Store  ───────┐        inventory.Scanner
//	         ↓                 │                    ↓
//	    declared specs         └──→ analyzer.Graph ←── snapshot
//	                                       ↓
//	                               reconcile.Engine
//	                                       ↓
//	                                installer.Pip
//
// The analyzer classifies every package against its declarations; the
// reconcile engine turns the classification into pip actions and manifest
// edits. The CLI in internal/cli formats the structured results.
package pkg
