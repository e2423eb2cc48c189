// Furrow - Live As-Applied Planter Mapping
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/furrow

// Package services adapts components with their own lifecycle methods to
// suture.Service. Each wrapper depends on a one-method or two-method
// interface, not the concrete type, so it can be tested with a fake.
//
//   - HTTPServerService: ListenAndServe/Shutdown
//   - HubService: RunWithContext
//   - BrokerService: an in-process broker that is already running and only
//     needs to be shut down with the tree
package services
